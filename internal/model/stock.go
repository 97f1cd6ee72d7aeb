package model

import (
	"time"
)

// Stock movement types.
const (
	MovementAddition   = "ADDITION"
	MovementRemoval    = "REMOVAL"
	MovementTransfer   = "TRANSFER"
	MovementAdjustment = "ADJUSTMENT"
)

// Stock is the authoritative quantity of a product (or variant) at a
// branch. One row per (branch, product, variant) triple; the quantity
// never goes negative and only changes through journaled movements.
type Stock struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	BranchID      uint      `json:"branch_id" gorm:"not null;uniqueIndex:idx_stock_branch_product_variant,priority:1"`
	ProductID     uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_stock_branch_product_variant,priority:2"`
	VariantID     *uint     `json:"variant_id" gorm:"uniqueIndex:idx_stock_branch_product_variant,priority:3"`
	Quantity      int       `json:"quantity" gorm:"not null;default:0"`
	ReorderLevel  int       `json:"reorder_level" gorm:"not null;default:5"`
	LastRestocked time.Time `json:"last_restocked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Branch  *Branch         `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

// IsLowStock reports whether the quantity is at or below the reorder
// level. Equality counts as low.
func (s *Stock) IsLowStock() bool {
	return s.Quantity <= s.ReorderLevel
}

// IsOutOfStock reports whether nothing is left to sell.
func (s *Stock) IsOutOfStock() bool {
	return s.Quantity <= 0
}

// StockMovement is one immutable journal entry describing a quantity
// change. Quantity is always the positive magnitude; the type carries
// the direction. TargetBranchID is set only for transfers.
type StockMovement struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	StockID        uint      `json:"stock_id" gorm:"index;not null"`
	Quantity       int       `json:"quantity" gorm:"not null"`
	MovementType   string    `json:"movement_type" gorm:"type:varchar(20);not null;index"`
	Reference      string    `json:"reference" gorm:"type:varchar(100)"`
	Notes          string    `json:"notes" gorm:"type:text"`
	PerformedByID  *uint     `json:"performed_by_id"`
	TargetBranchID *uint     `json:"target_branch_id"`
	CreatedAt      time.Time `json:"created_at"`

	Stock        *Stock  `json:"stock,omitempty" gorm:"foreignKey:StockID"`
	TargetBranch *Branch `json:"target_branch,omitempty" gorm:"foreignKey:TargetBranchID"`
}
