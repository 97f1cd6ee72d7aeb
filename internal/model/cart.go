package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the per-user pre-order staging area. One cart per user; the
// cart row survives checkout, only its items are cleared.
type Cart struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `json:"items" gorm:"foreignKey:CartID"`
}

// TotalItems sums the quantities across all cart items.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal computes the cart value from live catalog prices. Items
// must be loaded with their product and variant associations.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for i := range c.Items {
		subtotal = subtotal.Add(c.Items[i].LineTotal())
	}
	return subtotal
}

// CartItem holds one product (or variant) with a quantity. Pricing is
// never stored: unit price and line total are derived from the catalog
// at read time, so totals drift with catalog price changes until
// checkout snapshots them.
type CartItem struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CartID    uint      `json:"cart_id" gorm:"not null;uniqueIndex:idx_cart_item_product_variant,priority:1"`
	ProductID uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_cart_item_product_variant,priority:2"`
	VariantID *uint     `json:"variant_id" gorm:"uniqueIndex:idx_cart_item_product_variant,priority:3"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

// UnitPrice returns the variant price when the item has a variant,
// otherwise the product price.
func (i *CartItem) UnitPrice() decimal.Decimal {
	if i.Variant != nil {
		return i.Variant.FinalPrice()
	}
	if i.Product != nil {
		return i.Product.FinalPrice()
	}
	return decimal.Zero
}

// LineTotal is unit price times quantity.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}
