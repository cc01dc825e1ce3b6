package pricing

import "errors"

var (
	ErrNotANumber          = errors.New("amount is not a number")
	ErrAmountBelowMinimum  = errors.New("amount is below the minimum purchase")
	ErrAmountNotWholeCent  = errors.New("amount must be a whole number of cents")
	ErrAmountTooLarge      = errors.New("amount exceeds the maximum purchase")
	ErrPlanNotFound        = errors.New("plan not found")
	ErrInvalidCustomAmount = errors.New("invalid custom amount")
	ErrInvalidCatalog      = errors.New("invalid plan catalog")
)
