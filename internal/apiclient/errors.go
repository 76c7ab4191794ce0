package apiclient

import (
	"context"
	"errors"
	"fmt"
)

// APIError is the uniform failure shape every operation reports. Callers
// branch on Status and never see the transport's native error types.
type APIError struct {
	Message string
	Status  int
	URL     string
	Method  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.URL, e.Message, e.Status)
}

// ErrValidation wraps pre-dispatch payload validation failures. A request
// that fails validation never reaches the network.
var ErrValidation = errors.New("validation failed")

// IsCanceled reports whether err is a cooperative cancellation, which is
// never treated as an application failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsAuthError reports whether err carries a 401/403 status. These signal
// session invalidity, not a retryable failure.
func IsAuthError(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status == 401 || ae.Status == 403
	}
	return false
}

// StatusOf extracts the HTTP status from a normalized error, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
