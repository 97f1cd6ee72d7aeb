package service

import (
	"context"
	"testing"
	"time"

	"furniture-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type purchaseFixture struct {
	db       *gorm.DB
	pos      *PurchaseOrderService
	stocks   *StockService
	supplier *model.Supplier
	branch   *model.Branch
	buyer    *model.User
	desk     *model.Product
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	db := setupTestDB(t)
	f := &purchaseFixture{
		db:     db,
		pos:    NewPurchaseOrderService(db),
		stocks: NewStockService(db),
	}
	f.supplier = &model.Supplier{Name: "Northwood Furniture", Code: "NWF", IsActive: true}
	require.NoError(t, db.Create(f.supplier).Error)
	f.branch = seedBranch(t, db, "Central")
	f.buyer = seedUser(t, db, "buyer@example.com", model.RoleInventoryStaff)
	f.desk = seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	return f
}

func (f *purchaseFixture) createPO(t *testing.T, qty int) *model.PurchaseOrder {
	t.Helper()
	po, err := f.pos.Create(context.Background(), f.buyer.ID, CreatePOInput{
		SupplierID: f.supplier.ID,
		BranchID:   f.branch.ID,
		Items: []POItemInput{
			{ProductID: f.desk.ID, QuantityOrdered: qty, UnitPrice: dec(t, "100.00")},
		},
	})
	require.NoError(t, err)
	return po
}

// orderPO walks a fresh PO to ORDERED.
func (f *purchaseFixture) orderPO(t *testing.T, qty int) *model.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	po := f.createPO(t, qty)
	po, err := f.pos.Submit(ctx, po.ID)
	require.NoError(t, err)
	po, err = f.pos.Approve(ctx, po.ID, f.buyer.ID)
	require.NoError(t, err)
	po, err = f.pos.MarkOrdered(ctx, po.ID)
	require.NoError(t, err)
	return po
}

func TestCreatePurchaseOrder(t *testing.T) {
	f := newPurchaseFixture(t)

	po, err := f.pos.Create(context.Background(), f.buyer.ID, CreatePOInput{
		SupplierID:   f.supplier.ID,
		BranchID:     f.branch.ID,
		Tax:          dec(t, "10.00"),
		ShippingCost: dec(t, "25.00"),
		Discount:     dec(t, "5.00"),
		Items: []POItemInput{
			{ProductID: f.desk.ID, QuantityOrdered: 3, UnitPrice: dec(t, "100.00")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.PODraft, po.Status)
	assert.Equal(t, f.buyer.ID, po.CreatedByID)
	assert.Len(t, po.PONumber, 12)
	assert.Equal(t, "PO"+time.Now().Format("0601"), po.PONumber[:6])
	require.Len(t, po.Items, 1)
	assert.True(t, po.Items[0].LineTotal.Equal(dec(t, "300.00")))
	assert.True(t, po.Subtotal.Equal(dec(t, "300.00")), "subtotal %s", po.Subtotal)
	// 300 + 10 + 25 - 5
	assert.True(t, po.Total.Equal(dec(t, "330.00")), "total %s", po.Total)
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	_, err := f.pos.Create(ctx, f.buyer.ID, CreatePOInput{
		SupplierID: f.supplier.ID,
		BranchID:   f.branch.ID,
		Items:      []POItemInput{{ProductID: f.desk.ID, QuantityOrdered: 0, UnitPrice: dec(t, "1.00")}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.pos.Create(ctx, f.buyer.ID, CreatePOInput{SupplierID: 9999, BranchID: f.branch.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.pos.Create(ctx, f.buyer.ID, CreatePOInput{SupplierID: f.supplier.ID, BranchID: 9999})
	assert.ErrorIs(t, err, ErrNotFound)

	// A variant from another product cannot ride on this line.
	other := seedProduct(t, f.db, "Pine Shelf", "SHELF-001", "89.00")
	variant := seedVariant(t, f.db, other, "Tall", "SHELF-001-T", nil)
	_, err = f.pos.Create(ctx, f.buyer.ID, CreatePOInput{
		SupplierID: f.supplier.ID,
		BranchID:   f.branch.ID,
		Items: []POItemInput{
			{ProductID: f.desk.ID, VariantID: &variant.ID, QuantityOrdered: 1, UnitPrice: dec(t, "1.00")},
		},
	})
	assert.ErrorIs(t, err, ErrVariantMismatch)
}

func TestPurchaseOrderApprovalFlow(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	po := f.createPO(t, 10)

	// Approving a draft skips the queue and is refused.
	_, err := f.pos.Approve(ctx, po.ID, f.buyer.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	po, err = f.pos.Submit(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POPending, po.Status)

	po, err = f.pos.Approve(ctx, po.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POApproved, po.Status)
	require.NotNil(t, po.ApprovedByID)
	assert.Equal(t, f.buyer.ID, *po.ApprovedByID)

	po, err = f.pos.MarkOrdered(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POOrdered, po.Status)
	assert.NotNil(t, po.OrderDate)

	// Submitting again from ORDERED is refused.
	_, err = f.pos.Submit(ctx, po.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReceiveInStages(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	po := f.orderPO(t, 10)
	itemID := po.Items[0].ID

	// First delivery of 5.
	receive, err := f.pos.Receive(ctx, po.ID, f.buyer.ID, ReceiveInput{
		Lines: []ReceiveLineInput{{POItemID: itemID, Quantity: 5}},
	})
	require.NoError(t, err)
	require.Len(t, receive.Items, 1)

	po, err = f.pos.Get(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POPartiallyReceived, po.Status)
	assert.Equal(t, 5, po.Items[0].QuantityReceived)

	stock, err := f.stocks.GetOrCreate(ctx, f.branch.ID, f.desk.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Quantity)

	// Second delivery completes the order.
	_, err = f.pos.Receive(ctx, po.ID, f.buyer.ID, ReceiveInput{
		Lines: []ReceiveLineInput{{POItemID: itemID, Quantity: 5}},
	})
	require.NoError(t, err)

	po, err = f.pos.Get(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POReceived, po.Status)
	assert.Equal(t, 10, po.Items[0].QuantityReceived)
	assert.Equal(t, 10, reloadStock(t, f.db, stock.ID).Quantity)

	// Every credit was journaled against the PO number.
	movements := movementsFor(t, f.db, stock.ID)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, model.MovementAddition, m.MovementType)
		assert.Equal(t, "PO #"+po.PONumber, m.Reference)
	}
}

func TestOverReceiptIsAccepted(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	po := f.orderPO(t, 10)

	_, err := f.pos.Receive(ctx, po.ID, f.buyer.ID, ReceiveInput{
		Lines: []ReceiveLineInput{{POItemID: po.Items[0].ID, Quantity: 15}},
	})
	require.NoError(t, err)

	po, err = f.pos.Get(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POReceived, po.Status)
	assert.Equal(t, 15, po.Items[0].QuantityReceived)
}

func TestReceiveValidation(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	po := f.orderPO(t, 10)

	_, err := f.pos.Receive(ctx, po.ID, f.buyer.ID, ReceiveInput{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.pos.Receive(ctx, po.ID, f.buyer.ID, ReceiveInput{
		Lines: []ReceiveLineInput{{POItemID: po.Items[0].ID, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	// A line must belong to this PO.
	otherPO := f.orderPO(t, 3)
	_, err = f.pos.Receive(ctx, po.ID, f.buyer.ID, ReceiveInput{
		Lines: []ReceiveLineInput{{POItemID: otherPO.Items[0].ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestItemRollups(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	po := f.createPO(t, 3)

	chair := seedProduct(t, f.db, "Chair", "CHAIR-001", "45.00")
	po, err := f.pos.AddItem(ctx, po.ID, POItemInput{
		ProductID:       chair.ID,
		QuantityOrdered: 4,
		UnitPrice:       dec(t, "45.00"),
	})
	require.NoError(t, err)
	require.Len(t, po.Items, 2)
	// 3*100 + 4*45
	assert.True(t, po.Subtotal.Equal(dec(t, "480.00")), "subtotal %s", po.Subtotal)

	po, err = f.pos.UpdateItem(ctx, po.ID, po.Items[1].ID, 2, dec(t, "50.00"))
	require.NoError(t, err)
	assert.True(t, po.Items[1].LineTotal.Equal(dec(t, "100.00")))
	assert.True(t, po.Subtotal.Equal(dec(t, "400.00")), "subtotal %s", po.Subtotal)

	_, err = f.pos.UpdateItem(ctx, po.ID, 9999, 1, dec(t, "1.00"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShrinkingOrderBelowReceivedCompletesPO(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()
	po := f.orderPO(t, 10)
	itemID := po.Items[0].ID

	_, err := f.pos.Receive(ctx, po.ID, f.buyer.ID, ReceiveInput{
		Lines: []ReceiveLineInput{{POItemID: itemID, Quantity: 6}},
	})
	require.NoError(t, err)

	po, err = f.pos.UpdateItem(ctx, po.ID, itemID, 6, dec(t, "100.00"))
	require.NoError(t, err)
	assert.Equal(t, model.POReceived, po.Status)
}

func TestPONumberCollisionRetries(t *testing.T) {
	f := newPurchaseFixture(t)

	first := f.createPO(t, 3)

	calls := 0
	newPONumber = func(now time.Time) string {
		calls++
		if calls == 1 {
			return first.PONumber
		}
		return generatePONumber(now)
	}
	defer func() { newPONumber = generatePONumber }()

	second := f.createPO(t, 2)
	assert.NotEqual(t, first.PONumber, second.PONumber)
	assert.GreaterOrEqual(t, calls, 2)
}

func TestReceiveJournalsLineNotes(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	chair := seedProduct(t, f.db, "Chair", "CHAIR-001", "45.00")
	po, err := f.pos.Create(ctx, f.buyer.ID, CreatePOInput{
		SupplierID: f.supplier.ID,
		BranchID:   f.branch.ID,
		Items: []POItemInput{
			{ProductID: f.desk.ID, QuantityOrdered: 2, UnitPrice: dec(t, "100.00")},
			{ProductID: chair.ID, QuantityOrdered: 2, UnitPrice: dec(t, "45.00")},
		},
	})
	require.NoError(t, err)
	po, err = f.pos.Submit(ctx, po.ID)
	require.NoError(t, err)
	po, err = f.pos.Approve(ctx, po.ID, f.buyer.ID)
	require.NoError(t, err)
	po, err = f.pos.MarkOrdered(ctx, po.ID)
	require.NoError(t, err)

	_, err = f.pos.Receive(ctx, po.ID, f.buyer.ID, ReceiveInput{
		Notes: "first truck",
		Lines: []ReceiveLineInput{
			{POItemID: po.Items[0].ID, Quantity: 2, Notes: "two crates damaged"},
			{POItemID: po.Items[1].ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	// The movement carries the line's note; a line without one falls
	// back to the receive header note.
	deskStock, err := f.stocks.GetOrCreate(ctx, f.branch.ID, f.desk.ID, nil)
	require.NoError(t, err)
	deskMoves := movementsFor(t, f.db, deskStock.ID)
	require.Len(t, deskMoves, 1)
	assert.Equal(t, "two crates damaged", deskMoves[0].Notes)

	chairStock, err := f.stocks.GetOrCreate(ctx, f.branch.ID, chair.ID, nil)
	require.NoError(t, err)
	chairMoves := movementsFor(t, f.db, chairStock.ID)
	require.Len(t, chairMoves, 1)
	assert.Equal(t, "first truck", chairMoves[0].Notes)
}

func TestCancelPurchaseOrder(t *testing.T) {
	f := newPurchaseFixture(t)
	ctx := context.Background()

	po := f.createPO(t, 10)
	po, err := f.pos.Cancel(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POCancelled, po.Status)

	// Cancelling twice is refused.
	_, err = f.pos.Cancel(ctx, po.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// A fully received PO cannot be cancelled.
	received := f.orderPO(t, 2)
	_, err = f.pos.Receive(ctx, received.ID, f.buyer.ID, ReceiveInput{
		Lines: []ReceiveLineInput{{POItemID: received.Items[0].ID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = f.pos.Cancel(ctx, received.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}
