package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furniture-service/internal/model"
	"furniture-service/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// orderTransitions is the order status state machine. CANCELLED and
// RETURNED have no outgoing edges.
var orderTransitions = map[string][]string{
	model.OrderPending:    {model.OrderConfirmed, model.OrderCancelled},
	model.OrderConfirmed:  {model.OrderProcessing, model.OrderCancelled},
	model.OrderProcessing: {model.OrderPacked, model.OrderCancelled},
	model.OrderPacked:     {model.OrderShipped, model.OrderCancelled},
	model.OrderShipped:    {model.OrderDelivered, model.OrderReturned},
	model.OrderDelivered:  {model.OrderReturned},
	model.OrderCancelled:  {},
	model.OrderReturned:   {},
}

// cancellableStatuses are the states the cancel convenience action
// accepts; later states must go through returns handling.
var cancellableStatuses = map[string]bool{
	model.OrderPending:    true,
	model.OrderConfirmed:  true,
	model.OrderProcessing: true,
}

var validPaymentStatuses = map[string]bool{
	model.PaymentPending:           true,
	model.PaymentPaid:              true,
	model.PaymentFailed:            true,
	model.PaymentRefunded:          true,
	model.PaymentPartiallyRefunded: true,
}

var validPaymentMethods = map[string]bool{
	model.PaymentCreditCard:     true,
	model.PaymentDebitCard:      true,
	model.PaymentBankTransfer:   true,
	model.PaymentCashOnDelivery: true,
	model.PaymentDigitalWallet:  true,
}

// OrderService drives the order lifecycle: creation from a cart,
// status transitions with their stock side effects, and payment
// updates. Side effects run in the same transaction as the status
// write, never as detached hooks.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// CreateOrderInput carries the checkout parameters.
type CreateOrderInput struct {
	BranchID          *uint
	ShippingAddressID uint
	PaymentMethod     string
	ShippingNotes     string
	ShippingCost      decimal.Decimal
}

// CreateFromCart snapshots the user's cart into an immutable order and
// clears the cart, all in one transaction. Fails when the cart is
// empty or the shipping address belongs to someone else.
func (s *OrderService) CreateFromCart(ctx context.Context, userID uint, in CreateOrderInput) (*model.Order, error) {
	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentCashOnDelivery
	}
	if !validPaymentMethods[paymentMethod] {
		return nil, fmt.Errorf("payment method %q: %w", paymentMethod, ErrValidation)
	}

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		err := tx.Preload("Items").
			Preload("Items.Product").
			Preload("Items.Variant").
			Preload("Items.Variant.Product").
			Where("user_id = ?", userID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		var address model.UserShippingAddress
		err = tx.Where("id = ? AND user_id = ?", in.ShippingAddressID, userID).First(&address).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidShippingAddress
		}
		if err != nil {
			return err
		}

		subtotal := cart.Subtotal()

		order = model.Order{
			UserID:              &userID,
			BranchID:            in.BranchID,
			Status:              model.OrderPending,
			PaymentStatus:       model.PaymentPending,
			PaymentMethod:       paymentMethod,
			ShippingAddressID:   &address.ID,
			ShippingName:        address.RecipientName,
			ShippingPhone:       address.Phone,
			ShippingAddressLine: address.Address,
			ShippingCity:        address.City,
			ShippingPostalCode:  address.PostalCode,
			ShippingNotes:       in.ShippingNotes,
			Subtotal:            subtotal,
			ShippingCost:        in.ShippingCost,
			Tax:                 decimal.Zero,
			Discount:            decimal.Zero,
			Total:               subtotal.Add(in.ShippingCost),
		}
		if err := createOrderWithNumber(tx, &order); err != nil {
			return err
		}

		for i := range cart.Items {
			item := &cart.Items[i]
			sku := item.Product.SKU
			variantDetails := ""
			if item.Variant != nil {
				sku = item.Variant.SKU
				variantDetails = item.Variant.Name
			}
			productID := item.ProductID
			orderItem := model.OrderItem{
				OrderID:        order.ID,
				ProductID:      &productID,
				VariantID:      item.VariantID,
				ProductName:    item.Product.Name,
				VariantDetails: variantDetails,
				SKU:            sku,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice(),
				LineTotal:      item.LineTotal(),
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&model.OrderTracking{
			OrderID:       order.ID,
			Status:        model.OrderPending,
			Notes:         "Order placed",
			PerformedByID: &userID,
		}).Error; err != nil {
			return err
		}

		return tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.ID)
}

// createOrderWithNumber inserts the order under a freshly generated
// number. The insert runs in a savepoint so a duplicate-key error from
// the unique index regenerates the number instead of aborting the
// enclosing transaction.
func createOrderWithNumber(tx *gorm.DB, order *model.Order) error {
	for attempt := 0; attempt < numberAttempts; attempt++ {
		order.ID = 0
		order.OrderNumber = newOrderNumber(time.Now())
		err := tx.Transaction(func(tx *gorm.DB) error {
			return tx.Create(order).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return fmt.Errorf("could not generate a unique order number: %w", ErrValidation)
}

// Get loads an order with its items.
func (s *OrderService) Get(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, err
	}
	return &order, nil
}

// Transition moves an order to a new status, stamps the matching
// timestamp the first time that status is reached, writes a tracking
// entry and applies the stock side effects, all atomically.
//
// Reaching CONFIRMED debits stock for every item; cancelling an order
// that had been confirmed credits it back. An item with no stock row
// at the order's branch is skipped with a warning, not an error.
func (s *OrderService) Transition(ctx context.Context, orderID uint, newStatus string, actorID *uint, notes string) (*model.Order, error) {
	return s.transition(ctx, orderID, newStatus, actorID, notes, nil)
}

// transition applies the status change with an optional extra guard
// evaluated on the row as read inside the transaction.
func (s *OrderService) transition(ctx context.Context, orderID uint, newStatus string, actorID *uint, notes string, guard func(*model.Order) error) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
			}
			return err
		}
		if guard != nil {
			if err := guard(&order); err != nil {
				return err
			}
		}

		allowed := false
		for _, next := range orderTransitions[order.Status] {
			if next == newStatus {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%s to %s: %w", order.Status, newStatus, ErrInvalidTransition)
		}

		wasConfirmed := order.ConfirmedAt != nil
		fromStatus := order.Status
		now := time.Now()
		updates := map[string]interface{}{"status": newStatus}
		switch newStatus {
		case model.OrderConfirmed:
			if order.ConfirmedAt == nil {
				updates["confirmed_at"] = now
				order.ConfirmedAt = &now
			}
		case model.OrderShipped:
			if order.ShippedAt == nil {
				updates["shipped_at"] = now
				order.ShippedAt = &now
			}
		case model.OrderDelivered:
			if order.DeliveredAt == nil {
				updates["delivered_at"] = now
				order.DeliveredAt = &now
			}
		case model.OrderCancelled:
			if order.CancelledAt == nil {
				updates["cancelled_at"] = now
				order.CancelledAt = &now
			}
		}
		// Conditional write: a concurrent transition that committed
		// after our read leaves zero rows matched, so the side effects
		// below run at most once per state change.
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, fromStatus).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%s to %s: %w", fromStatus, newStatus, ErrInvalidTransition)
		}
		order.Status = newStatus

		if notes == "" {
			notes = fmt.Sprintf("Status changed to %s", newStatus)
		}
		if err := tx.Create(&model.OrderTracking{
			OrderID:       order.ID,
			Status:        newStatus,
			Notes:         notes,
			PerformedByID: actorID,
		}).Error; err != nil {
			return err
		}

		switch {
		case newStatus == model.OrderConfirmed:
			return s.debitOrderStock(tx, &order, actorID)
		case newStatus == model.OrderCancelled && wasConfirmed:
			return s.creditOrderStock(tx, &order, actorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.ID)
}

// stockForOrderItem resolves the stock row for an item at the order's
// branch, or nil when none exists.
func stockForOrderItem(tx *gorm.DB, order *model.Order, item *model.OrderItem) (*model.Stock, error) {
	if order.BranchID == nil || item.ProductID == nil {
		return nil, nil
	}
	var stock model.Stock
	q := scopeVariant(tx.Where("branch_id = ? AND product_id = ?", *order.BranchID, *item.ProductID), item.VariantID)
	err := q.First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (s *OrderService) debitOrderStock(tx *gorm.DB, order *model.Order, actorID *uint) error {
	reference := fmt.Sprintf("Order #%s", order.OrderNumber)
	for i := range order.Items {
		item := &order.Items[i]
		stock, err := stockForOrderItem(tx, order, item)
		if err != nil {
			return err
		}
		if stock == nil {
			logger.GetLogger().Warn("no stock record for confirmed order item, skipping debit",
				zap.String("order_number", order.OrderNumber),
				zap.String("sku", item.SKU))
			continue
		}
		notes := fmt.Sprintf("Order confirmed: %s", item.ProductName)
		if err := recordRemovalTx(tx, stock.ID, item.Quantity, actorID, reference, notes); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) creditOrderStock(tx *gorm.DB, order *model.Order, actorID *uint) error {
	reference := fmt.Sprintf("Order #%s", order.OrderNumber)
	for i := range order.Items {
		item := &order.Items[i]
		stock, err := stockForOrderItem(tx, order, item)
		if err != nil {
			return err
		}
		if stock == nil {
			continue
		}
		notes := fmt.Sprintf("Order cancelled: %s", item.ProductName)
		if err := recordAdditionTx(tx, stock.ID, item.Quantity, actorID, reference, notes); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePayment sets payment status and method. Payment status has no
// transition restrictions; a tracking entry is written only when the
// status actually changed.
func (s *OrderService) UpdatePayment(ctx context.Context, orderID uint, paymentStatus, paymentMethod string, actorID *uint) (*model.Order, error) {
	if paymentStatus != "" && !validPaymentStatuses[paymentStatus] {
		return nil, fmt.Errorf("payment status %q: %w", paymentStatus, ErrValidation)
	}
	if paymentMethod != "" && !validPaymentMethods[paymentMethod] {
		return nil, fmt.Errorf("payment method %q: %w", paymentMethod, ErrValidation)
	}

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
			}
			return err
		}

		oldStatus := order.PaymentStatus
		updates := map[string]interface{}{}
		if paymentStatus != "" {
			updates["payment_status"] = paymentStatus
		}
		if paymentMethod != "" {
			updates["payment_method"] = paymentMethod
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		if paymentStatus != "" && paymentStatus != oldStatus {
			return tx.Create(&model.OrderTracking{
				OrderID:       order.ID,
				Status:        order.Status,
				Notes:         fmt.Sprintf("Payment status changed to %s", paymentStatus),
				PerformedByID: actorID,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.ID)
}

// Cancel is the customer-facing cancellation: only orders that have
// not progressed past PROCESSING can be cancelled.
func (s *OrderService) Cancel(ctx context.Context, orderID uint, actorID *uint, notes string) (*model.Order, error) {
	if notes == "" {
		notes = "Order cancelled by user"
	}
	// The cutoff is evaluated inside the transition transaction, on the
	// same read the conditional status write is keyed to, so an order
	// advancing past PROCESSING concurrently cannot slip through.
	return s.transition(ctx, orderID, model.OrderCancelled, actorID, notes, func(order *model.Order) error {
		if !cancellableStatuses[order.Status] {
			return ErrOrderNotCancellable
		}
		return nil
	})
}
