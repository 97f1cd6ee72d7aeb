package service

import (
	"context"
	"testing"
	"time"

	"furniture-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateStock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	branch := seedBranch(t, db, "Central")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")

	stock, err := svc.GetOrCreate(ctx, branch.ID, product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.Quantity)
	assert.Equal(t, 5, stock.ReorderLevel)

	again, err := svc.GetOrCreate(ctx, branch.ID, product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, stock.ID, again.ID)
}

func TestRecordAdditionAndRemoval(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	branch := seedBranch(t, db, "Central")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	user := seedUser(t, db, "inv@example.com", model.RoleInventoryStaff)
	stock := seedStock(t, db, branch.ID, product.ID, nil, 0)

	updated, err := svc.RecordAddition(ctx, stock.ID, 10, &user.ID, "GRN-1", "initial stocking")
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Quantity)

	updated, err = svc.RecordRemoval(ctx, stock.ID, 4, &user.ID, "damage", "")
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Quantity)

	movements := movementsFor(t, db, stock.ID)
	require.Len(t, movements, 2)
	assert.Equal(t, model.MovementAddition, movements[0].MovementType)
	assert.Equal(t, 10, movements[0].Quantity)
	assert.Equal(t, "GRN-1", movements[0].Reference)
	assert.Equal(t, model.MovementRemoval, movements[1].MovementType)
	assert.Equal(t, 4, movements[1].Quantity)
	require.NotNil(t, movements[0].PerformedByID)
	assert.Equal(t, user.ID, *movements[0].PerformedByID)
}

func TestRemovalInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	branch := seedBranch(t, db, "Central")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	stock := seedStock(t, db, branch.ID, product.ID, nil, 3)

	_, err := svc.RecordRemoval(ctx, stock.ID, 5, nil, "", "")
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The failed removal left neither a quantity change nor a journal entry.
	assert.Equal(t, 3, reloadStock(t, db, stock.ID).Quantity)
	assert.Empty(t, movementsFor(t, db, stock.ID))
}

func TestMovementRejectsNonPositiveQuantity(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	branch := seedBranch(t, db, "Central")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	stock := seedStock(t, db, branch.ID, product.ID, nil, 3)

	_, err := svc.RecordAddition(ctx, stock.ID, 0, nil, "", "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.RecordRemoval(ctx, stock.ID, -2, nil, "", "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAdjust(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	branch := seedBranch(t, db, "Central")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	stock := seedStock(t, db, branch.ID, product.ID, nil, 8)

	// Counting up journals the delta as an addition.
	updated, err := svc.Adjust(ctx, stock.ID, 12, nil, "count", "annual stocktake")
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Quantity)

	// Counting down journals the delta as a removal.
	updated, err = svc.Adjust(ctx, stock.ID, 7, nil, "count", "")
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)

	// Adjusting to the current value is a no-op.
	updated, err = svc.Adjust(ctx, stock.ID, 7, nil, "count", "")
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)

	movements := movementsFor(t, db, stock.ID)
	require.Len(t, movements, 2)
	assert.Equal(t, model.MovementAddition, movements[0].MovementType)
	assert.Equal(t, 4, movements[0].Quantity)
	assert.Equal(t, model.MovementRemoval, movements[1].MovementType)
	assert.Equal(t, 5, movements[1].Quantity)

	_, err = svc.Adjust(ctx, stock.ID, -1, nil, "", "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTransfer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	source := seedBranch(t, db, "Central")
	target := seedBranch(t, db, "Riverside")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	stock := seedStock(t, db, source.ID, product.ID, nil, 10)
	stock.ReorderLevel = 8
	require.NoError(t, db.Save(stock).Error)

	before := time.Now().Add(-time.Second)
	sourceStock, targetStock, err := svc.Transfer(ctx, stock.ID, target.ID, 4, nil, "rebalance", "")
	require.NoError(t, err)
	assert.Equal(t, 6, sourceStock.Quantity)
	assert.Equal(t, 4, targetStock.Quantity)
	assert.Equal(t, target.ID, targetStock.BranchID)
	// The destination row inherits the source's reorder level.
	assert.Equal(t, 8, targetStock.ReorderLevel)
	assert.True(t, targetStock.LastRestocked.After(before))

	// One TRANSFER entry on the source, nothing on the destination.
	sourceMovements := movementsFor(t, db, sourceStock.ID)
	require.Len(t, sourceMovements, 1)
	assert.Equal(t, model.MovementTransfer, sourceMovements[0].MovementType)
	assert.Equal(t, 4, sourceMovements[0].Quantity)
	require.NotNil(t, sourceMovements[0].TargetBranchID)
	assert.Equal(t, target.ID, *sourceMovements[0].TargetBranchID)
	assert.Empty(t, movementsFor(t, db, targetStock.ID))
}

func TestTransferInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	source := seedBranch(t, db, "Central")
	target := seedBranch(t, db, "Riverside")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	stock := seedStock(t, db, source.ID, product.ID, nil, 2)

	_, _, err := svc.Transfer(ctx, stock.ID, target.ID, 5, nil, "", "")
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, reloadStock(t, db, stock.ID).Quantity)
}

func TestTransferUnknownTargetBranch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	source := seedBranch(t, db, "Central")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	stock := seedStock(t, db, source.ID, product.ID, nil, 10)

	_, _, err := svc.Transfer(ctx, stock.ID, 9999, 5, nil, "", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVariantStockIsSeparate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStockService(db)
	ctx := context.Background()

	branch := seedBranch(t, db, "Central")
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	variant := seedVariant(t, db, product, "Walnut finish", "DESK-001-W", nil)

	plain, err := svc.GetOrCreate(ctx, branch.ID, product.ID, nil)
	require.NoError(t, err)
	withVariant, err := svc.GetOrCreate(ctx, branch.ID, product.ID, &variant.ID)
	require.NoError(t, err)
	assert.NotEqual(t, plain.ID, withVariant.ID)

	_, err = svc.RecordAddition(ctx, withVariant.ID, 7, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, reloadStock(t, db, plain.ID).Quantity)
	assert.Equal(t, 7, reloadStock(t, db, withVariant.ID).Quantity)
}
