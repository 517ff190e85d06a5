package user

import "warehouse-be/internal/apperror"

var ErrUserNotFound = apperror.NotFound("user not found")
