package ierr

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRateLimited         = errors.New("rate limited")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidKey          = errors.New("invalid api key")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrUsageLimitExceeded  = errors.New("api key usage limit exceeded")
	ErrConfiguration       = errors.New("persistence not configured")
	ErrInternalServer      = errors.New("internal server error")
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("resource conflict")
	ErrAPIKeyUpdateFailed  = errors.New("api key update failed")
	ErrAPIKeyUsageNotSaved = errors.New("api key usage not saved")
)

var (
	ErrAPIKeyRequired = fmt.Errorf("%w: api key is required and must be a string", ErrInvalidInput)
	ErrAPIKeyFormat   = fmt.Errorf("%w: invalid api key format", ErrInvalidInput)
)

// RetryAfterError carries how long a client should wait before trying again.
type RetryAfterError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return e.Err.Error()
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}
