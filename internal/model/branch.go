package model

import (
	"time"

	"gorm.io/gorm"
)

// Branch represents a physical store location. Stock and order
// fulfillment are partitioned per branch.
type Branch struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Address   string         `json:"address" gorm:"type:text"`
	City      string         `json:"city" gorm:"type:varchar(100)"`
	Phone     string         `json:"phone" gorm:"type:varchar(20)"`
	Email     string         `json:"email" gorm:"type:varchar(255)"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	ManagerID *uint          `json:"manager_id" gorm:"uniqueIndex"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
