package service

import "errors"

// Validation and domain errors surfaced by the services. Handlers map
// these onto HTTP status codes; none of them are retried internally.
var (
	ErrInvalidQuantity        = errors.New("quantity must be a positive number")
	ErrInsufficientStock      = errors.New("not enough stock")
	ErrInvalidTransition      = errors.New("status transition not allowed")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidShippingAddress = errors.New("invalid shipping address")
	ErrVariantMismatch        = errors.New("variant does not belong to product")
	ErrOrderNotCancellable    = errors.New("order cannot be cancelled")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
)
