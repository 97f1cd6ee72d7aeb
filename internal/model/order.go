package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderPending    = "PENDING"
	OrderConfirmed  = "CONFIRMED"
	OrderProcessing = "PROCESSING"
	OrderPacked     = "PACKED"
	OrderShipped    = "SHIPPED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
	OrderReturned   = "RETURNED"
)

// Payment statuses.
const (
	PaymentPending           = "PENDING"
	PaymentPaid              = "PAID"
	PaymentFailed            = "FAILED"
	PaymentRefunded          = "REFUNDED"
	PaymentPartiallyRefunded = "PARTIALLY_REFUNDED"
)

// Payment methods.
const (
	PaymentCreditCard     = "CREDIT_CARD"
	PaymentDebitCard      = "DEBIT_CARD"
	PaymentBankTransfer   = "BANK_TRANSFER"
	PaymentCashOnDelivery = "CASH_ON_DELIVERY"
	PaymentDigitalWallet  = "DIGITAL_WALLET"
)

// Order is a customer order. Orders are never deleted; cancellation is
// a status. Shipping fields are a snapshot of the address at creation
// time, not a live reference. Each status timestamp is set the first
// time that status is reached and never overwritten.
type Order struct {
	ID          uint   `json:"id" gorm:"primarykey"`
	OrderNumber string `json:"order_number" gorm:"type:varchar(20);uniqueIndex;not null"`
	UserID      *uint  `json:"user_id" gorm:"index"`
	BranchID    *uint  `json:"branch_id" gorm:"index"`

	Status        string `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentStatus string `json:"payment_status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	PaymentMethod string `json:"payment_method" gorm:"type:varchar(20);not null;default:'CASH_ON_DELIVERY'"`

	ShippingAddressID   *uint  `json:"shipping_address_id"`
	ShippingName        string `json:"shipping_name" gorm:"type:varchar(100)"`
	ShippingPhone       string `json:"shipping_phone" gorm:"type:varchar(20)"`
	ShippingAddressLine string `json:"shipping_address_line" gorm:"type:text"`
	ShippingCity        string `json:"shipping_city" gorm:"type:varchar(100)"`
	ShippingPostalCode  string `json:"shipping_postal_code" gorm:"type:varchar(20)"`
	ShippingNotes       string `json:"shipping_notes" gorm:"type:text"`

	Subtotal     decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	ShippingCost decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(10,2);not null;default:0"`
	Tax          decimal.Decimal `json:"tax" gorm:"type:decimal(10,2);not null;default:0"`
	Discount     decimal.Decimal `json:"discount" gorm:"type:decimal(10,2);not null;default:0"`
	Total        decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`

	TrackingNumber string `json:"tracking_number" gorm:"type:varchar(100)"`
	TrackingURL    string `json:"tracking_url" gorm:"type:varchar(255)"`
	ProcessedByID  *uint  `json:"processed_by_id"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is an immutable snapshot of a cart line at order creation.
// Name, SKU and prices are frozen; later catalog edits do not touch it.
type OrderItem struct {
	ID             uint            `json:"id" gorm:"primarykey"`
	OrderID        uint            `json:"order_id" gorm:"index;not null"`
	ProductID      *uint           `json:"product_id"`
	VariantID      *uint           `json:"variant_id"`
	ProductName    string          `json:"product_name" gorm:"type:varchar(255);not null"`
	VariantDetails string          `json:"variant_details" gorm:"type:varchar(255)"`
	SKU            string          `json:"sku" gorm:"type:varchar(50);not null"`
	Quantity       int             `json:"quantity" gorm:"not null"`
	UnitPrice      decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	LineTotal      decimal.Decimal `json:"line_total" gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OrderTracking is an append-only audit entry, one per status or
// payment-status change.
type OrderTracking struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	OrderID       uint      `json:"order_id" gorm:"index;not null"`
	Status        string    `json:"status" gorm:"type:varchar(20);not null"`
	Notes         string    `json:"notes" gorm:"type:text"`
	PerformedByID *uint     `json:"performed_by_id"`
	CreatedAt     time.Time `json:"created_at"`
}
