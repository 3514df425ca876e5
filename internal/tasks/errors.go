package tasks

import (
	"errors"
	"fmt"

	"github.com/desertthunder/twx/internal/services"
)

// ErrorKind classifies a [MutationError].
type ErrorKind string

const (
	ErrorKindDraftPersistence ErrorKind = "draft_persistence"
	ErrorKindRemote           ErrorKind = "remote"
	ErrorKindCacheSync        ErrorKind = "cache_sync"
	// ErrorKindInterrupted is reported when Execute ends without a result or error (a panic).
	ErrorKindInterrupted ErrorKind = "interrupted"
)

// MutationError is the failure outcome of a favorite task.
type MutationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *MutationError) Unwrap() error { return e.Err }

// IsKind reports whether err is a [MutationError] of kind.
func IsKind(err error, kind ErrorKind) bool {
	var mErr *MutationError
	return errors.As(err, &mErr) && mErr.Kind == kind
}

// userMessage returns the message shown to the user for err.
func userMessage(err error) string {
	var mErr *MutationError
	if errors.As(err, &mErr) {
		return mErr.Message
	}
	var rErr *services.RemoteError
	if errors.As(err, &rErr) {
		return rErr.Message
	}
	return err.Error()
}
