package errors

import "errors"

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDestination = errors.New("invalid destination")
	ErrInvalidDecision    = errors.New("invalid decision")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrAlreadyFinalized   = errors.New("transaction already finalized")
	ErrForbidden          = errors.New("forbidden")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// IsRetryable reports whether the caller may retry the failed operation.
// Only transient store failures qualify; business outcomes never do.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
