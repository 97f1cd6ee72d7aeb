package model

import (
	"time"

	"gorm.io/gorm"
)

// Supplier is a furniture vendor the platform purchases from.
type Supplier struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	Code         string         `json:"code" gorm:"type:varchar(20);unique;not null"`
	Address      string         `json:"address" gorm:"type:text"`
	City         string         `json:"city" gorm:"type:varchar(100)"`
	PostalCode   string         `json:"postal_code" gorm:"type:varchar(20)"`
	Phone        string         `json:"phone" gorm:"type:varchar(20)"`
	Email        string         `json:"email" gorm:"type:varchar(255)"`
	Website      string         `json:"website" gorm:"type:varchar(255)"`
	Description  string         `json:"description" gorm:"type:text"`
	TaxID        string         `json:"tax_id" gorm:"type:varchar(50)"`
	AssignedToID *uint          `json:"assigned_to_id"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Contacts []SupplierContact `json:"contacts,omitempty" gorm:"foreignKey:SupplierID"`
}

// SupplierContact is a contact person at a supplier. At most one
// contact per supplier is primary; saving a new primary demotes the
// others.
type SupplierContact struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	SupplierID uint      `json:"supplier_id" gorm:"index;not null"`
	Name       string    `json:"name" gorm:"type:varchar(100);not null"`
	Title      string    `json:"title" gorm:"type:varchar(100)"`
	Phone      string    `json:"phone" gorm:"type:varchar(20)"`
	Email      string    `json:"email" gorm:"type:varchar(255)"`
	IsPrimary  bool      `json:"is_primary" gorm:"default:false"`
	Notes      string    `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
