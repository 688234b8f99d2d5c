package service

import "errors"

// Operation failures are per-request and leave the store unchanged. Handlers
// map these to HTTP statuses; anything else is an internal error.
var (
	ErrMaterialNotFound  = errors.New("material not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
	ErrNotReserved       = errors.New("material is not in reserved status")

	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email is already registered")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrBadResetToken   = errors.New("reset token is invalid or expired")
	ErrBadRefreshToken = errors.New("refresh token is invalid or expired")
)

// IsRejection reports whether err is a precondition violation (as opposed to a
// missing row or an infrastructure failure).
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrNotReserved)
}
