package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furniture-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderService drives the purchase order lifecycle. Explicit
// actions move a PO through DRAFT → PENDING → APPROVED → ORDERED;
// from there the received-quantity rollup of its line items advances
// it to PARTIALLY_RECEIVED and RECEIVED.
type PurchaseOrderService struct {
	db *gorm.DB
}

func NewPurchaseOrderService(db *gorm.DB) *PurchaseOrderService {
	return &PurchaseOrderService{db: db}
}

// POItemInput is one product line for a purchase order.
type POItemInput struct {
	ProductID       uint
	VariantID       *uint
	QuantityOrdered int
	UnitPrice       decimal.Decimal
}

// CreatePOInput carries the purchase order header and initial lines.
type CreatePOInput struct {
	SupplierID           uint
	BranchID             uint
	ExpectedDeliveryDate *time.Time
	Notes                string
	SupplierReference    string
	Tax                  decimal.Decimal
	ShippingCost         decimal.Decimal
	Discount             decimal.Decimal
	Items                []POItemInput
}

// ReceiveLineInput is one received quantity against a PO line.
type ReceiveLineInput struct {
	POItemID uint
	Quantity int
	Notes    string
}

// ReceiveInput groups the lines delivered in one receiving event.
type ReceiveInput struct {
	ReceiveDate time.Time
	Reference   string
	Notes       string
	Lines       []ReceiveLineInput
}

// Create opens a purchase order in DRAFT with a generated PO number.
func (s *PurchaseOrderService) Create(ctx context.Context, createdBy uint, in CreatePOInput) (*model.PurchaseOrder, error) {
	for _, item := range in.Items {
		if item.QuantityOrdered <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	var po model.PurchaseOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier model.Supplier
		if err := tx.First(&supplier, in.SupplierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("supplier %d: %w", in.SupplierID, ErrNotFound)
			}
			return err
		}
		var branch model.Branch
		if err := tx.First(&branch, in.BranchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("branch %d: %w", in.BranchID, ErrNotFound)
			}
			return err
		}

		po = model.PurchaseOrder{
			SupplierID:           in.SupplierID,
			BranchID:             in.BranchID,
			Status:               model.PODraft,
			CreatedByID:          createdBy,
			ExpectedDeliveryDate: in.ExpectedDeliveryDate,
			Tax:                  in.Tax,
			ShippingCost:         in.ShippingCost,
			Discount:             in.Discount,
			Subtotal:             decimal.Zero,
			Total:                decimal.Zero,
			Notes:                in.Notes,
			SupplierReference:    in.SupplierReference,
		}
		if err := createPOWithNumber(tx, &po); err != nil {
			return err
		}

		for _, item := range in.Items {
			if err := createPOItem(tx, &po, item); err != nil {
				return err
			}
		}
		return rollupTotals(tx, &po)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, po.ID)
}

// createPOWithNumber inserts the PO under a freshly generated number,
// regenerating in a savepoint when the unique index reports a
// collision.
func createPOWithNumber(tx *gorm.DB, po *model.PurchaseOrder) error {
	for attempt := 0; attempt < numberAttempts; attempt++ {
		po.ID = 0
		po.PONumber = newPONumber(time.Now())
		err := tx.Transaction(func(tx *gorm.DB) error {
			return tx.Create(po).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return fmt.Errorf("could not generate a unique PO number: %w", ErrValidation)
}

func createPOItem(tx *gorm.DB, po *model.PurchaseOrder, in POItemInput) error {
	var product model.Product
	if err := tx.First(&product, in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d: %w", in.ProductID, ErrNotFound)
		}
		return err
	}
	if in.VariantID != nil {
		var variant model.ProductVariant
		if err := tx.First(&variant, *in.VariantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("variant %d: %w", *in.VariantID, ErrNotFound)
			}
			return err
		}
		if variant.ProductID != product.ID {
			return ErrVariantMismatch
		}
	}
	item := model.PurchaseOrderItem{
		PurchaseOrderID: po.ID,
		ProductID:       in.ProductID,
		VariantID:       in.VariantID,
		QuantityOrdered: in.QuantityOrdered,
		UnitPrice:       in.UnitPrice,
		LineTotal:       in.UnitPrice.Mul(decimal.NewFromInt(int64(in.QuantityOrdered))),
	}
	return tx.Create(&item).Error
}

// Get loads a purchase order with its items.
func (s *PurchaseOrderService) Get(ctx context.Context, poID uint) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("purchase_order_items.id") }).
		First(&po, poID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
		}
		return nil, err
	}
	return &po, nil
}

// AddItem appends a line to a purchase order and reruns the total and
// status rollups.
func (s *PurchaseOrderService) AddItem(ctx context.Context, poID uint, in POItemInput) (*model.PurchaseOrder, error) {
	if in.QuantityOrdered <= 0 {
		return nil, ErrInvalidQuantity
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		po, err := poForUpdate(tx, poID)
		if err != nil {
			return err
		}
		if err := createPOItem(tx, po, in); err != nil {
			return err
		}
		if err := rollupTotals(tx, po); err != nil {
			return err
		}
		return rollupStatus(tx, po)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, poID)
}

// UpdateItem changes a line's ordered quantity or unit price, then
// reruns both rollups. The status rollup runs even for plain quantity
// edits, so shrinking an ordered quantity below what was already
// received can flip the PO to RECEIVED.
func (s *PurchaseOrderService) UpdateItem(ctx context.Context, poID, itemID uint, quantityOrdered int, unitPrice decimal.Decimal) (*model.PurchaseOrder, error) {
	if quantityOrdered <= 0 {
		return nil, ErrInvalidQuantity
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		po, err := poForUpdate(tx, poID)
		if err != nil {
			return err
		}
		var item model.PurchaseOrderItem
		if err := tx.Where("id = ? AND purchase_order_id = ?", itemID, poID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("purchase order item %d: %w", itemID, ErrNotFound)
			}
			return err
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantityOrdered)))
		if err := tx.Model(&item).Updates(map[string]interface{}{
			"quantity_ordered": quantityOrdered,
			"unit_price":       unitPrice,
			"line_total":       lineTotal,
		}).Error; err != nil {
			return err
		}
		if err := rollupTotals(tx, po); err != nil {
			return err
		}
		return rollupStatus(tx, po)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, poID)
}

func poForUpdate(tx *gorm.DB, poID uint) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := tx.First(&po, poID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
		}
		return nil, err
	}
	return &po, nil
}

// rollupTotals recomputes subtotal and total from the current line
// items. Persisted with a direct column update so it cannot recurse.
func rollupTotals(tx *gorm.DB, po *model.PurchaseOrder) error {
	var items []model.PurchaseOrderItem
	if err := tx.Where("purchase_order_id = ?", po.ID).Find(&items).Error; err != nil {
		return err
	}
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].LineTotal)
	}
	total := subtotal.Add(po.Tax).Add(po.ShippingCost).Sub(po.Discount)
	po.Subtotal = subtotal
	po.Total = total
	return tx.Model(&model.PurchaseOrder{}).Where("id = ?", po.ID).
		Updates(map[string]interface{}{"subtotal": subtotal, "total": total}).Error
}

// rollupStatus derives the PO status from its items' received
// quantities: all fully received means RECEIVED, any progress means
// PARTIALLY_RECEIVED, and an untouched ORDERED PO stays put.
func rollupStatus(tx *gorm.DB, po *model.PurchaseOrder) error {
	var items []model.PurchaseOrderItem
	if err := tx.Where("purchase_order_id = ?", po.ID).Find(&items).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	allZero := true
	allReceived := true
	anyReceived := false
	for i := range items {
		if items[i].QuantityReceived != 0 {
			allZero = false
			anyReceived = true
		}
		if !items[i].IsFullyReceived() {
			allReceived = false
		}
	}

	next := po.Status
	switch {
	case allZero && po.Status == model.POOrdered:
		return nil
	case allReceived:
		next = model.POReceived
	case anyReceived:
		next = model.POPartiallyReceived
	}
	if next == po.Status {
		return nil
	}
	po.Status = next
	return tx.Model(&model.PurchaseOrder{}).Where("id = ?", po.ID).Update("status", next).Error
}

// Submit moves a draft PO into the approval queue.
func (s *PurchaseOrderService) Submit(ctx context.Context, poID uint) (*model.PurchaseOrder, error) {
	return s.step(ctx, poID, model.PODraft, model.POPending, nil)
}

// Approve marks a pending PO approved and stamps the approver.
func (s *PurchaseOrderService) Approve(ctx context.Context, poID uint, actorID uint) (*model.PurchaseOrder, error) {
	return s.step(ctx, poID, model.POPending, model.POApproved, &actorID)
}

// MarkOrdered records that the approved PO has been placed with the
// supplier.
func (s *PurchaseOrderService) MarkOrdered(ctx context.Context, poID uint) (*model.PurchaseOrder, error) {
	return s.step(ctx, poID, model.POApproved, model.POOrdered, nil)
}

func (s *PurchaseOrderService) step(ctx context.Context, poID uint, from, to string, approvedBy *uint) (*model.PurchaseOrder, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		po, err := poForUpdate(tx, poID)
		if err != nil {
			return err
		}
		if po.Status != from {
			return fmt.Errorf("%s to %s: %w", po.Status, to, ErrInvalidTransition)
		}
		updates := map[string]interface{}{"status": to}
		if approvedBy != nil {
			updates["approved_by_id"] = *approvedBy
		}
		if to == model.POOrdered {
			updates["order_date"] = time.Now()
		}
		// Conditional on the status read above so concurrent steps
		// cannot both advance the PO.
		res := tx.Model(&model.PurchaseOrder{}).
			Where("id = ? AND status = ?", po.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s to %s: %w", from, to, ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, poID)
}

// Cancel aborts a PO unless it is already received or cancelled.
func (s *PurchaseOrderService) Cancel(ctx context.Context, poID uint) (*model.PurchaseOrder, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		po, err := poForUpdate(tx, poID)
		if err != nil {
			return err
		}
		if po.Status == model.POReceived || po.Status == model.POCancelled {
			return fmt.Errorf("%s to %s: %w", po.Status, model.POCancelled, ErrInvalidTransition)
		}
		res := tx.Model(&model.PurchaseOrder{}).
			Where("id = ? AND status = ?", po.ID, po.Status).
			Update("status", model.POCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s to %s: %w", po.Status, model.POCancelled, ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, poID)
}

// Receive records a delivery against a PO. Each line recomputes its
// item's received quantity, credits branch stock with a journaled
// ADDITION referencing the PO number, and reruns the status rollup.
// Receiving more than was ordered is accepted.
func (s *PurchaseOrderService) Receive(ctx context.Context, poID uint, receivedBy uint, in ReceiveInput) (*model.PurchaseOrderReceive, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("receive needs at least one line: %w", ErrValidation)
	}
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	receiveDate := in.ReceiveDate
	if receiveDate.IsZero() {
		receiveDate = time.Now()
	}

	var receive model.PurchaseOrderReceive
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po model.PurchaseOrder
		if err := tx.Preload("Items").First(&po, poID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
			}
			return err
		}

		itemsByID := make(map[uint]*model.PurchaseOrderItem, len(po.Items))
		for i := range po.Items {
			itemsByID[po.Items[i].ID] = &po.Items[i]
		}
		for _, line := range in.Lines {
			if _, ok := itemsByID[line.POItemID]; !ok {
				return fmt.Errorf("item %d does not belong to purchase order %s: %w",
					line.POItemID, po.PONumber, ErrValidation)
			}
		}

		receive = model.PurchaseOrderReceive{
			PurchaseOrderID: po.ID,
			ReceiveDate:     receiveDate,
			ReceivedByID:    receivedBy,
			Reference:       in.Reference,
			Notes:           in.Notes,
		}
		if err := tx.Create(&receive).Error; err != nil {
			return err
		}

		// First receive against an ORDERED PO nudges the status even
		// before the per-line rollup runs.
		if po.Status == model.POOrdered {
			po.Status = model.POPartiallyReceived
			if err := tx.Model(&model.PurchaseOrder{}).Where("id = ?", po.ID).
				Update("status", po.Status).Error; err != nil {
				return err
			}
		}

		reference := fmt.Sprintf("PO #%s", po.PONumber)
		for _, line := range in.Lines {
			poItem := itemsByID[line.POItemID]
			if err := tx.Create(&model.PurchaseOrderReceiveItem{
				ReceiveID: receive.ID,
				POItemID:  poItem.ID,
				Quantity:  line.Quantity,
				Notes:     line.Notes,
			}).Error; err != nil {
				return err
			}

			var totalReceived int64
			if err := tx.Model(&model.PurchaseOrderReceiveItem{}).
				Where("po_item_id = ?", poItem.ID).
				Select("COALESCE(SUM(quantity), 0)").
				Scan(&totalReceived).Error; err != nil {
				return err
			}
			poItem.QuantityReceived = int(totalReceived)
			if err := tx.Model(&model.PurchaseOrderItem{}).Where("id = ?", poItem.ID).
				Update("quantity_received", poItem.QuantityReceived).Error; err != nil {
				return err
			}

			stock, err := getOrCreateStock(tx, po.BranchID, poItem.ProductID, poItem.VariantID, defaultReorderLevel)
			if err != nil {
				return err
			}
			movementNotes := line.Notes
			if movementNotes == "" {
				movementNotes = in.Notes
			}
			if err := recordAdditionTx(tx, stock.ID, line.Quantity, &receivedBy, reference, movementNotes); err != nil {
				return err
			}

			if err := rollupStatus(tx, &po); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Preload("Items").First(&receive, receive.ID).Error
	if err != nil {
		return nil, err
	}
	return &receive, nil
}
