package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furniture-service/internal/model"

	"gorm.io/gorm"
)

// defaultReorderLevel is applied when a stock row is created outside a
// transfer (transfers inherit the source row's level).
const defaultReorderLevel = 5

// StockService owns the stock ledger and its movement journal. Every
// quantity change goes through a journaled movement inside a single
// transaction, and debits use an atomic conditional update so two
// concurrent removals cannot both pass a stale sufficiency check.
type StockService struct {
	db *gorm.DB
}

func NewStockService(db *gorm.DB) *StockService {
	return &StockService{db: db}
}

// scopeVariant narrows a stock query to a variant or to the bare
// product row when variantID is nil.
func scopeVariant(q *gorm.DB, variantID *uint) *gorm.DB {
	if variantID != nil {
		return q.Where("variant_id = ?", *variantID)
	}
	return q.Where("variant_id IS NULL")
}

func stockByID(tx *gorm.DB, id uint) (*model.Stock, error) {
	var stock model.Stock
	if err := tx.First(&stock, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("stock %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &stock, nil
}

// getOrCreateStock returns the stock row for the triple, creating it
// with quantity zero when missing. A concurrent create is resolved by
// re-reading after a duplicate-key error.
func getOrCreateStock(tx *gorm.DB, branchID, productID uint, variantID *uint, reorderLevel int) (*model.Stock, error) {
	var stock model.Stock
	q := scopeVariant(tx.Where("branch_id = ? AND product_id = ?", branchID, productID), variantID)
	err := q.First(&stock).Error
	if err == nil {
		return &stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	stock = model.Stock{
		BranchID:      branchID,
		ProductID:     productID,
		VariantID:     variantID,
		Quantity:      0,
		ReorderLevel:  reorderLevel,
		LastRestocked: time.Now(),
	}
	if err := tx.Create(&stock).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			q = scopeVariant(tx.Where("branch_id = ? AND product_id = ?", branchID, productID), variantID)
			if err := q.First(&stock).Error; err != nil {
				return nil, err
			}
			return &stock, nil
		}
		return nil, err
	}
	return &stock, nil
}

// GetOrCreate returns the stock record for (branch, product, variant),
// creating an empty one when the triple has never been stocked.
func (s *StockService) GetOrCreate(ctx context.Context, branchID, productID uint, variantID *uint) (*model.Stock, error) {
	return getOrCreateStock(s.db.WithContext(ctx), branchID, productID, variantID, defaultReorderLevel)
}

// journalMovement appends one immutable journal entry.
func journalMovement(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

// creditStock adds qty to a stock row.
func creditStock(tx *gorm.DB, stockID uint, qty int) error {
	return tx.Model(&model.Stock{}).Where("id = ?", stockID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error
}

// debitStock subtracts qty, refusing to go negative. The WHERE guard
// makes the sufficiency check and the write one atomic statement.
func debitStock(tx *gorm.DB, stockID uint, qty int) error {
	res := tx.Model(&model.Stock{}).
		Where("id = ? AND quantity >= ?", stockID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// recordAdditionTx journals an ADDITION and credits the stock row.
// Runs inside the caller's transaction.
func recordAdditionTx(tx *gorm.DB, stockID uint, qty int, actorID *uint, reference, notes string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if err := journalMovement(tx, &model.StockMovement{
		StockID:       stockID,
		Quantity:      qty,
		MovementType:  model.MovementAddition,
		Reference:     reference,
		Notes:         notes,
		PerformedByID: actorID,
	}); err != nil {
		return err
	}
	return creditStock(tx, stockID, qty)
}

// recordRemovalTx debits the stock row and journals a REMOVAL. The
// debit comes first so an insufficient balance aborts before any
// journal write lands.
func recordRemovalTx(tx *gorm.DB, stockID uint, qty int, actorID *uint, reference, notes string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if err := debitStock(tx, stockID, qty); err != nil {
		return err
	}
	return journalMovement(tx, &model.StockMovement{
		StockID:       stockID,
		Quantity:      qty,
		MovementType:  model.MovementRemoval,
		Reference:     reference,
		Notes:         notes,
		PerformedByID: actorID,
	})
}

// RecordAddition adds qty to a stock record with a journal entry.
func (s *StockService) RecordAddition(ctx context.Context, stockID uint, qty int, actorID *uint, reference, notes string) (*model.Stock, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	var stock *model.Stock
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if stock, err = stockByID(tx, stockID); err != nil {
			return err
		}
		if err := recordAdditionTx(tx, stock.ID, qty, actorID, reference, notes); err != nil {
			return err
		}
		return tx.First(stock, stock.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// RecordRemoval removes qty from a stock record with a journal entry,
// failing with ErrInsufficientStock when the balance would go
// negative.
func (s *StockService) RecordRemoval(ctx context.Context, stockID uint, qty int, actorID *uint, reference, notes string) (*model.Stock, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	var stock *model.Stock
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if stock, err = stockByID(tx, stockID); err != nil {
			return err
		}
		if err := recordRemovalTx(tx, stock.ID, qty, actorID, reference, notes); err != nil {
			return err
		}
		return tx.First(stock, stock.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// Adjust sets the stock quantity to an exact value, journaling the
// delta as an ADDITION or REMOVAL. Adjusting to the current quantity
// is a no-op with no journal entry.
func (s *StockService) Adjust(ctx context.Context, stockID uint, newQuantity int, actorID *uint, reference, notes string) (*model.Stock, error) {
	if newQuantity < 0 {
		return nil, ErrInvalidQuantity
	}
	var stock *model.Stock
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if stock, err = stockByID(tx, stockID); err != nil {
			return err
		}
		delta := newQuantity - stock.Quantity
		if delta == 0 {
			return nil
		}

		movementType := model.MovementAddition
		magnitude := delta
		if delta < 0 {
			movementType = model.MovementRemoval
			magnitude = -delta
		}
		if err := journalMovement(tx, &model.StockMovement{
			StockID:       stock.ID,
			Quantity:      magnitude,
			MovementType:  movementType,
			Reference:     reference,
			Notes:         notes,
			PerformedByID: actorID,
		}); err != nil {
			return err
		}

		// Set the quantity directly so the adjustment lands exactly,
		// guarded against a concurrent change since the read above.
		res := tx.Model(&model.Stock{}).
			Where("id = ? AND quantity = ?", stock.ID, stock.Quantity).
			Update("quantity", newQuantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("stock %d changed concurrently: %w", stock.ID, ErrValidation)
		}
		stock.Quantity = newQuantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// Transfer moves qty from a stock record to the same product/variant
// at another branch. A single TRANSFER entry is journaled on the
// source; the destination credit carries no journal entry of its own.
func (s *StockService) Transfer(ctx context.Context, stockID, targetBranchID uint, qty int, actorID *uint, reference, notes string) (*model.Stock, *model.Stock, error) {
	if qty <= 0 {
		return nil, nil, ErrInvalidQuantity
	}
	var source, target *model.Stock
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if source, err = stockByID(tx, stockID); err != nil {
			return err
		}
		if qty > source.Quantity {
			return ErrInsufficientStock
		}
		var branch model.Branch
		if err := tx.First(&branch, targetBranchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("target branch %d: %w", targetBranchID, ErrNotFound)
			}
			return err
		}

		target, err = getOrCreateStock(tx, targetBranchID, source.ProductID, source.VariantID, source.ReorderLevel)
		if err != nil {
			return err
		}

		if err := journalMovement(tx, &model.StockMovement{
			StockID:        source.ID,
			Quantity:       qty,
			MovementType:   model.MovementTransfer,
			Reference:      reference,
			Notes:          notes,
			PerformedByID:  actorID,
			TargetBranchID: &targetBranchID,
		}); err != nil {
			return err
		}

		// Touch the two rows in ascending id order so concurrent
		// opposite transfers cannot deadlock.
		debit := func() error { return debitStock(tx, source.ID, qty) }
		credit := func() error {
			return tx.Model(&model.Stock{}).Where("id = ?", target.ID).
				Updates(map[string]interface{}{
					"quantity":       gorm.Expr("quantity + ?", qty),
					"last_restocked": time.Now(),
				}).Error
		}
		ops := []func() error{debit, credit}
		if target.ID < source.ID {
			ops = []func() error{credit, debit}
		}
		for _, op := range ops {
			if err := op(); err != nil {
				return err
			}
		}

		if err := tx.First(source, source.ID).Error; err != nil {
			return err
		}
		return tx.First(target, target.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return source, target, nil
}
