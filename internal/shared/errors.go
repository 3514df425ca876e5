package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Remote API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRemoteNotFound     = fmt.Errorf("remote resource not found")

	// Local store errors
	ErrDraftNotFound   = fmt.Errorf("draft not found")
	ErrAccountNotFound = fmt.Errorf("account not found")
	ErrStatusNotFound  = fmt.Errorf("status not found")
	ErrUserNotFound    = fmt.Errorf("cached user not found")
	ErrUnknownView     = fmt.Errorf("unknown cache view")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
