package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase order statuses. DRAFT is the initial state; RECEIVED and
// CANCELLED are terminal.
const (
	PODraft             = "DRAFT"
	POPending           = "PENDING"
	POApproved          = "APPROVED"
	POOrdered           = "ORDERED"
	POPartiallyReceived = "PARTIALLY_RECEIVED"
	POReceived          = "RECEIVED"
	POCancelled         = "CANCELLED"
)

// PurchaseOrder is an order placed with a supplier for one branch.
// Status advances through explicit submit/approve/cancel actions and
// implicitly through the received-quantity rollup of its items.
type PurchaseOrder struct {
	ID         uint   `json:"id" gorm:"primarykey"`
	PONumber   string `json:"po_number" gorm:"type:varchar(20);uniqueIndex;not null"`
	SupplierID uint   `json:"supplier_id" gorm:"index;not null"`
	BranchID   uint   `json:"branch_id" gorm:"index;not null"`
	Status     string `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT';index"`

	CreatedByID  uint  `json:"created_by_id" gorm:"not null"`
	ApprovedByID *uint `json:"approved_by_id"`

	OrderDate            *time.Time `json:"order_date"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`

	Subtotal     decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null;default:0"`
	Tax          decimal.Decimal `json:"tax" gorm:"type:decimal(10,2);not null;default:0"`
	ShippingCost decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(10,2);not null;default:0"`
	Discount     decimal.Decimal `json:"discount" gorm:"type:decimal(10,2);not null;default:0"`
	Total        decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null;default:0"`

	Notes             string `json:"notes" gorm:"type:text"`
	SupplierReference string `json:"supplier_reference" gorm:"type:varchar(100)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Supplier *Supplier           `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Branch   *Branch             `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	Items    []PurchaseOrderItem `json:"items,omitempty" gorm:"foreignKey:PurchaseOrderID"`
}

// PurchaseOrderItem is one product line on a purchase order.
// QuantityReceived is derived: it is recomputed as the sum of all
// receive-item quantities recorded against this line.
type PurchaseOrderItem struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	PurchaseOrderID  uint            `json:"purchase_order_id" gorm:"index;not null"`
	ProductID        uint            `json:"product_id" gorm:"index;not null"`
	VariantID        *uint           `json:"variant_id"`
	QuantityOrdered  int             `json:"quantity_ordered" gorm:"not null"`
	QuantityReceived int             `json:"quantity_received" gorm:"not null;default:0"`
	UnitPrice        decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	LineTotal        decimal.Decimal `json:"line_total" gorm:"type:decimal(12,2);not null"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Product *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Variant *ProductVariant `json:"variant,omitempty" gorm:"foreignKey:VariantID"`
}

// IsFullyReceived reports whether the received quantity covers the
// ordered quantity.
func (i *PurchaseOrderItem) IsFullyReceived() bool {
	return i.QuantityReceived >= i.QuantityOrdered
}

// PurchaseOrderReceive groups the line quantities delivered in one
// receiving event.
type PurchaseOrderReceive struct {
	ID              uint      `json:"id" gorm:"primarykey"`
	PurchaseOrderID uint      `json:"purchase_order_id" gorm:"index;not null"`
	ReceiveDate     time.Time `json:"receive_date" gorm:"not null"`
	ReceivedByID    uint      `json:"received_by_id" gorm:"not null"`
	Reference       string    `json:"reference" gorm:"type:varchar(100)"`
	Notes           string    `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`

	Items []PurchaseOrderReceiveItem `json:"items,omitempty" gorm:"foreignKey:ReceiveID"`
}

// PurchaseOrderReceiveItem is one received line quantity against a
// purchase order item.
type PurchaseOrderReceiveItem struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	ReceiveID uint      `json:"receive_id" gorm:"index;not null"`
	POItemID  uint      `json:"po_item_id" gorm:"index;not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}
