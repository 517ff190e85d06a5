package customer

import "warehouse-be/internal/apperror"

var ErrCustomerNotFound = apperror.NotFound("customer not found")
