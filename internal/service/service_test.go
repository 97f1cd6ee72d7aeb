package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"furniture-service/internal/model"
	"furniture-service/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq int64

// setupTestDB opens a private in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("service_test_%d", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func uintPtr(v uint) *uint {
	return &v
}

func seedBranch(t *testing.T, db *gorm.DB, name string) *model.Branch {
	t.Helper()
	branch := &model.Branch{Name: name, City: "Bangkok", IsActive: true}
	require.NoError(t, db.Create(branch).Error)
	return branch
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *model.User {
	t.Helper()
	user := &model.User{Email: email, FullName: "Test User", Role: role, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedAddress(t *testing.T, db *gorm.DB, userID uint) *model.UserShippingAddress {
	t.Helper()
	address := &model.UserShippingAddress{
		UserID:        userID,
		RecipientName: "Somchai J.",
		Phone:         "0812345678",
		Address:       "99 Sukhumvit Rd",
		City:          "Bangkok",
		PostalCode:    "10110",
		IsDefault:     true,
	}
	require.NoError(t, db.Create(address).Error)
	return address
}

func seedProduct(t *testing.T, db *gorm.DB, name, sku, price string) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     name,
		Slug:     sku,
		SKU:      sku,
		Price:    dec(t, price),
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedVariant(t *testing.T, db *gorm.DB, product *model.Product, name, sku string, price *string) *model.ProductVariant {
	t.Helper()
	variant := &model.ProductVariant{
		ProductID: product.ID,
		Name:      name,
		SKU:       sku,
		IsActive:  true,
	}
	if price != nil {
		p := dec(t, *price)
		variant.Price = &p
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func seedStock(t *testing.T, db *gorm.DB, branchID, productID uint, variantID *uint, qty int) *model.Stock {
	t.Helper()
	stock := &model.Stock{
		BranchID:     branchID,
		ProductID:    productID,
		VariantID:    variantID,
		Quantity:     qty,
		ReorderLevel: 5,
	}
	require.NoError(t, db.Create(stock).Error)
	return stock
}

func movementsFor(t *testing.T, db *gorm.DB, stockID uint) []model.StockMovement {
	t.Helper()
	var movements []model.StockMovement
	require.NoError(t, db.Where("stock_id = ?", stockID).Order("id").Find(&movements).Error)
	return movements
}

func reloadStock(t *testing.T, db *gorm.DB, stockID uint) *model.Stock {
	t.Helper()
	var stock model.Stock
	require.NoError(t, db.First(&stock, stockID).Error)
	return &stock
}
