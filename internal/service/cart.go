package service

import (
	"context"
	"errors"
	"fmt"

	"furniture-service/internal/model"

	"gorm.io/gorm"
)

// CartService manages the per-user staging cart. Carts are created
// lazily on first access; prices are never stored on cart items.
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// loadCart fetches a cart with items and their catalog associations so
// computed prices resolve.
func loadCart(tx *gorm.DB, cartID uint) (*model.Cart, error) {
	var cart model.Cart
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Preload("Items.Product").
		Preload("Items.Variant").
		Preload("Items.Variant.Product").
		First(&cart, cartID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, creating it on first access.
func (s *CartService) GetOrCreate(ctx context.Context, userID uint) (*model.Cart, error) {
	tx := s.db.WithContext(ctx)
	var cart model.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = model.Cart{UserID: userID}
		if err := tx.Create(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
	} else if err != nil {
		return nil, err
	}
	return loadCart(tx, cart.ID)
}

// AddItem puts a product (or variant) in the cart. Adding the same
// product+variant again increments the existing line instead of
// duplicating it.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, variantID *uint, qty int) (*model.Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.Where("is_active = ?", true).First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d: %w", productID, ErrNotFound)
			}
			return err
		}
		if variantID != nil {
			var variant model.ProductVariant
			if err := tx.Where("is_active = ?", true).First(&variant, *variantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("variant %d: %w", *variantID, ErrNotFound)
				}
				return err
			}
			if variant.ProductID != product.ID {
				return ErrVariantMismatch
			}
		}

		var cart model.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			cart = model.Cart{UserID: userID}
			if err := tx.Create(&cart).Error; err != nil {
				return err
			}
		}
		cartID = cart.ID

		var item model.CartItem
		q := scopeVariant(tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID), variantID)
		err := q.First(&item).Error
		switch {
		case err == nil:
			return tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", qty)).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&model.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				VariantID: variantID,
				Quantity:  qty,
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return loadCart(s.db.WithContext(ctx), cartID)
}

// UpdateItem sets a cart line's quantity. The line must belong to the
// user's own cart.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, qty int) (*model.Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	tx := s.db.WithContext(ctx)
	item, err := cartItemForUser(tx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(item).Update("quantity", qty).Error; err != nil {
		return nil, err
	}
	return loadCart(tx, item.CartID)
}

// RemoveItem deletes a line from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) (*model.Cart, error) {
	tx := s.db.WithContext(ctx)
	item, err := cartItemForUser(tx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := tx.Delete(&model.CartItem{}, item.ID).Error; err != nil {
		return nil, err
	}
	return loadCart(tx, item.CartID)
}

// Clear removes every item; the cart row itself persists.
func (s *CartService) Clear(ctx context.Context, userID uint) (*model.Cart, error) {
	tx := s.db.WithContext(ctx)
	var cart model.Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for user %d: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		return nil, err
	}
	return loadCart(tx, cart.ID)
}

func cartItemForUser(tx *gorm.DB, userID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := tx.Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}
