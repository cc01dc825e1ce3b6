package credit

import "errors"

var (
	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrUserNotFound is returned when the profile doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateExternalID means a ledger row for this correlation id already exists
	ErrDuplicateExternalID = errors.New("duplicate external id")

	ErrInternal = errors.New("internal error")
)
