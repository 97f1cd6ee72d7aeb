package service

import (
	"context"
	"testing"

	"furniture-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCart(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := seedUser(t, db, "buyer@example.com", model.RoleCustomer)

	cart, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	again, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestAddItemMergesDuplicates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := seedUser(t, db, "buyer@example.com", model.RoleCustomer)
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")

	cart, err := svc.AddItem(ctx, user.ID, product.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	cart, err = svc.AddItem(ctx, user.ID, product.ID, nil, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems())
}

func TestAddItemValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := seedUser(t, db, "buyer@example.com", model.RoleCustomer)
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")
	other := seedProduct(t, db, "Pine Shelf", "SHELF-001", "89.00")
	otherVariant := seedVariant(t, db, other, "Tall", "SHELF-001-T", nil)

	_, err := svc.AddItem(ctx, user.ID, product.ID, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, user.ID, 9999, nil, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	// A variant must belong to the product it is added with.
	_, err = svc.AddItem(ctx, user.ID, product.ID, &otherVariant.ID, 1)
	assert.ErrorIs(t, err, ErrVariantMismatch)

	inactive := &model.Product{Name: "Old Sofa", Slug: "SOFA-OLD", SKU: "SOFA-OLD", Price: dec(t, "10.00"), IsActive: false}
	require.NoError(t, db.Create(inactive).Error)
	_, err = svc.AddItem(ctx, user.ID, inactive.ID, nil, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartSubtotalUsesLivePrices(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := seedUser(t, db, "buyer@example.com", model.RoleCustomer)
	desk := seedProduct(t, db, "Oak Desk", "DESK-001", "200.00")
	chair := seedProduct(t, db, "Chair", "CHAIR-001", "50.00")
	variantPrice := "60.00"
	padded := seedVariant(t, db, chair, "Padded", "CHAIR-001-P", &variantPrice)

	_, err := svc.AddItem(ctx, user.ID, desk.ID, nil, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, user.ID, chair.ID, &padded.ID, 2)
	require.NoError(t, err)

	// 200.00 + 2 * 60.00
	assert.True(t, cart.Subtotal().Equal(dec(t, "320.00")), "got %s", cart.Subtotal())

	// A catalog discount shows up in the cart immediately.
	discount := dec(t, "150.00")
	require.NoError(t, db.Model(&model.Product{}).Where("id = ?", desk.ID).
		Update("discount_price", discount).Error)
	cart, err = svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cart.Subtotal().Equal(dec(t, "270.00")), "got %s", cart.Subtotal())
}

func TestVariantPriceFallsBackToProduct(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := seedUser(t, db, "buyer@example.com", model.RoleCustomer)
	chair := seedProduct(t, db, "Chair", "CHAIR-001", "50.00")
	unpriced := seedVariant(t, db, chair, "Standard", "CHAIR-001-S", nil)

	cart, err := svc.AddItem(ctx, user.ID, chair.ID, &unpriced.ID, 3)
	require.NoError(t, err)
	assert.True(t, cart.Subtotal().Equal(dec(t, "150.00")), "got %s", cart.Subtotal())
}

func TestUpdateAndRemoveItem(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := seedUser(t, db, "buyer@example.com", model.RoleCustomer)
	stranger := seedUser(t, db, "other@example.com", model.RoleCustomer)
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")

	cart, err := svc.AddItem(ctx, user.ID, product.ID, nil, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItem(ctx, user.ID, itemID, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, cart.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, user.ID, itemID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	// Another user cannot touch the line.
	_, err = svc.UpdateItem(ctx, stranger.ID, itemID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.RemoveItem(ctx, stranger.ID, itemID)
	assert.ErrorIs(t, err, ErrNotFound)

	cart, err = svc.RemoveItem(ctx, user.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestClearCartKeepsCartRow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()

	user := seedUser(t, db, "buyer@example.com", model.RoleCustomer)
	product := seedProduct(t, db, "Oak Desk", "DESK-001", "199.00")

	cart, err := svc.AddItem(ctx, user.ID, product.ID, nil, 2)
	require.NoError(t, err)

	cleared, err := svc.Clear(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, cleared.ID)
	assert.Empty(t, cleared.Items)
}
