package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/desertthunder/twx/internal/shared"
)

// ErrorCode classifies a [RemoteError].
type ErrorCode string

const (
	CodeNetwork        ErrorCode = "network"
	CodeTimeout        ErrorCode = "timeout"
	CodeAuth           ErrorCode = "auth"
	CodeNotFound       ErrorCode = "not_found"
	CodeRateLimited    ErrorCode = "rate_limited"
	CodeHTTPStatus     ErrorCode = "http_status"
	CodeDecode         ErrorCode = "decode"
	CodeInvalidAccount ErrorCode = "invalid_account"
)

// RemoteError is returned by every backend call that fails.
//
// Message is human readable and suitable for a toast. Status is the HTTP status, or zero when no
// response was received.
type RemoteError struct {
	Code    ErrorCode
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func sentinelFor(code ErrorCode) error {
	switch code {
	case CodeTimeout:
		return shared.ErrTimeout
	case CodeAuth:
		return shared.ErrNotAuthenticated
	case CodeNotFound:
		return shared.ErrRemoteNotFound
	case CodeRateLimited:
		return shared.ErrRateLimited
	case CodeNetwork:
		return shared.ErrServiceUnavailable
	case CodeInvalidAccount:
		return shared.ErrInvalidInput
	default:
		return shared.ErrAPIRequest
	}
}

func newRemoteError(code ErrorCode, status int, message string, cause error) *RemoteError {
	err := sentinelFor(code)
	if cause != nil {
		err = fmt.Errorf("%w: %w", err, cause)
	}
	return &RemoteError{Code: code, Status: status, Message: message, Err: err}
}

// transportError classifies a failure from [http.Client.Do].
func transportError(backend string, err error) *RemoteError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newRemoteError(CodeTimeout, 0, backend+" request timed out", err)
	}
	return newRemoteError(CodeNetwork, 0, backend+" request failed", err)
}

// statusError builds the error for a non-2xx response, preferring the message the backend reported.
func statusError(backend string, status int, body []byte) *RemoteError {
	var code ErrorCode
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = CodeAuth
	case status == http.StatusNotFound:
		code = CodeNotFound
	case status == http.StatusTooManyRequests:
		code = CodeRateLimited
	default:
		code = CodeHTTPStatus
	}

	message := backendMessage(body)
	if message == "" {
		message = fmt.Sprintf("%s API error: %s", backend, strings.ToLower(http.StatusText(status)))
	}

	return newRemoteError(code, status, message, nil)
}

// backendMessage extracts an error message from the error bodies the backends return:
// {"errors":[{"message":...}]} (Twitter-style) and {"error":...} (Fanfou, Mastodon).
func backendMessage(body []byte) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Error string `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, e := range payload.Errors {
		if e.Message != "" {
			return e.Message
		}
	}
	return payload.Error
}
