package inventory

import (
	"errors"

	"warehouse-be/internal/apperror"
)

var (
	ErrRecordNotFound    = apperror.NotFound("inventory record not found")
	ErrInsufficientStock = apperror.InsufficientStock("insufficient stock")
	ErrRecordExists      = apperror.Validation("inventory record already exists")
	ErrInvalidKey        = apperror.Validation("material and specification are required")
	ErrNegativeQuantity  = apperror.Validation("quantity must not be negative")
	ErrZeroDelta         = apperror.Validation("adjustment must not be zero")
	ErrInvalidQuantity   = apperror.Validation("invalid quantity")
	ErrInvalidDensity    = apperror.Validation("invalid density")
	ErrForbidden         = apperror.Permission("insufficient role to change stock")

	// ErrNoTx means Adjust was called outside a unit of work.
	ErrNoTx = errors.New("inventory adjustments require a transaction")

	pgUniqueViolation = "23505"
)
