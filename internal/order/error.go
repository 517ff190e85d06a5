package order

import "warehouse-be/internal/apperror"

var (
	ErrOrderNotFound = apperror.NotFound("order not found")
	ErrForbidden     = apperror.Permission("only admin or boss may change this order")

	ErrInvalidOrderType = apperror.Validation("order_type must be SALES or QUOTE")
	ErrCustomerRequired = apperror.Validation("customer_id is required")
	ErrUserRequired     = apperror.Validation("user_id is required")
	ErrUnknownCustomer  = apperror.Validation("customer does not exist")
	ErrUnknownUser      = apperror.Validation("user does not exist")
	ErrNoItems          = apperror.Validation("items must be a non-empty list")
	ErrInvalidItem      = apperror.Validation("invalid item")
	ErrUnknownItem      = apperror.Validation("item does not belong to this order")
	ErrDuplicateItem    = apperror.Validation("item submitted more than once")
	ErrTotalOutOfRange  = apperror.Validation("total_price is out of range")

	ErrRendererUnavailable = apperror.New(apperror.KindInternal, "document renderer is not configured")
)
