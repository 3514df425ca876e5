// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/desertthunder/twx/internal/models"
)

// MockDispatcher is a test double for the favorite dispatcher.
//
// Without a DispatchFunc it returns a favorited result for the requested status.
type MockDispatcher struct {
	DispatchFunc func(ctx context.Context, account models.Account, status models.Status) (*models.FavoriteResult, error)

	mu    sync.Mutex
	calls []models.Account
}

func (m *MockDispatcher) Dispatch(ctx context.Context, account models.Account, status models.Status) (*models.FavoriteResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, account)
	m.mu.Unlock()

	if m.DispatchFunc != nil {
		return m.DispatchFunc(ctx, account, status)
	}
	return &models.FavoriteResult{StatusID: status.ID, IsFavorite: true, FavoriteCount: status.FavoriteCount + 1}, nil
}

// Calls returns the accounts Dispatch was called with.
func (m *MockDispatcher) Calls() []models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Account(nil), m.calls...)
}

// MockDraftStore is an in-memory draft store.
type MockDraftStore struct {
	SaveErr   error
	DeleteErr error

	mu     sync.Mutex
	next   int
	drafts map[string]any
	saved  int
}

func (m *MockDraftStore) SaveDraft(action models.DraftAction, accountKeys []models.AccountKey, extras any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	if m.drafts == nil {
		m.drafts = make(map[string]any)
	}

	m.next++
	m.saved++
	id := fmt.Sprintf("%s-%d", action, m.next)
	m.drafts[id] = extras
	return id, nil
}

func (m *MockDraftStore) DeleteDraft(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.drafts, id)
	return nil
}

// Len returns the number of drafts currently stored.
func (m *MockDraftStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts)
}

// Saved returns the number of successful SaveDraft calls.
func (m *MockDraftStore) Saved() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

// Recorder collects values passed to Record, safe for concurrent use.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func (r *Recorder[T]) Record(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Values returns a copy of the recorded values in order.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}
