package payment

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidPlan      = errors.New("invalid plan")
	ErrInvalidProvider  = errors.New("invalid payment provider")
	ErrCheckoutFailed   = errors.New("checkout failed")
	ErrUnknownProvider  = errors.New("unknown webhook provider")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMissingOrderID   = errors.New("order id is required")
	ErrStoreUnavailable = errors.New("payment store unavailable")
)
