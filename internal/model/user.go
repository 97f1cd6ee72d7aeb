package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. The backend does not issue sessions; it validates JWTs
// carrying one of these roles and derives a capability set from it.
const (
	RoleAdmin          = "ADMIN"
	RoleManager        = "MANAGER"
	RoleSalesStaff     = "SALES"
	RoleInventoryStaff = "INVENTORY"
	RoleCustomer       = "CUSTOMER"
)

// User is the account record shared by staff and customers.
type User struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Email     string         `json:"email" gorm:"type:varchar(255);unique;not null"`
	FullName  string         `json:"full_name" gorm:"type:varchar(100)"`
	Phone     string         `json:"phone" gorm:"type:varchar(20)"`
	Role      string         `json:"role" gorm:"type:varchar(20);not null;default:'CUSTOMER'"`
	BranchID  *uint          `json:"branch_id" gorm:"index"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// UserShippingAddress is a saved delivery address. Orders copy its
// fields at creation time instead of referencing it live.
type UserShippingAddress struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	UserID        uint      `json:"user_id" gorm:"index;not null"`
	RecipientName string    `json:"recipient_name" gorm:"type:varchar(100);not null"`
	Phone         string    `json:"phone" gorm:"type:varchar(20);not null"`
	Address       string    `json:"address" gorm:"type:text;not null"`
	City          string    `json:"city" gorm:"type:varchar(100);not null"`
	PostalCode    string    `json:"postal_code" gorm:"type:varchar(20)"`
	IsDefault     bool      `json:"is_default" gorm:"default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
