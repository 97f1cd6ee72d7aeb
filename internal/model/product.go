package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category is a product grouping. The tree is a plain adjacency list;
// children are resolved with a recursive query when needed.
type Category struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug      string         `json:"slug" gorm:"type:varchar(100);unique;not null"`
	ParentID  *uint          `json:"parent_id" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Product represents the product master data.
type Product struct {
	ID            uint             `json:"id" gorm:"primarykey"`
	Name          string           `json:"name" gorm:"type:varchar(255);not null"`
	Slug          string           `json:"slug" gorm:"type:varchar(255);unique;not null"`
	Description   string           `json:"description" gorm:"type:text"`
	SKU           string           `json:"sku" gorm:"type:varchar(50);unique;not null"`
	Price         decimal.Decimal  `json:"price" gorm:"type:decimal(12,2);not null"`
	DiscountPrice *decimal.Decimal `json:"discount_price" gorm:"type:decimal(12,2)"`
	CategoryID    *uint            `json:"category_id" gorm:"index"`
	IsActive      bool             `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`

	Variants []ProductVariant `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
}

// FinalPrice returns the discount price when set, otherwise the
// regular price.
func (p *Product) FinalPrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// ProductVariant is a purchasable configuration of a product
// (size, color), optionally priced independently.
type ProductVariant struct {
	ID            uint             `json:"id" gorm:"primarykey"`
	ProductID     uint             `json:"product_id" gorm:"index;not null"`
	Name          string           `json:"name" gorm:"type:varchar(255);not null"`
	SKU           string           `json:"sku" gorm:"type:varchar(50);unique;not null"`
	Price         *decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	DiscountPrice *decimal.Decimal `json:"discount_price" gorm:"type:decimal(12,2)"`
	IsActive      bool             `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`

	Product *Product `json:"-" gorm:"foreignKey:ProductID"`
}

// FinalPrice returns the variant discount price, then the variant
// price, falling back to the parent product price.
func (v *ProductVariant) FinalPrice() decimal.Decimal {
	if v.DiscountPrice != nil {
		return *v.DiscountPrice
	}
	if v.Price != nil {
		return *v.Price
	}
	if v.Product != nil {
		return v.Product.FinalPrice()
	}
	return decimal.Zero
}
