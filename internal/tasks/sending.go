package tasks

import (
	"slices"
	"sync"
)

// SendingTracker records which drafts are being sent right now.
//
// A persisted draft that is not being sent is a leftover from an interrupted task.
type SendingTracker interface {
	Add(draftID string)
	Remove(draftID string)
}

// SendingSet is the in-memory [SendingTracker].
type SendingSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSendingSet() *SendingSet {
	return &SendingSet{ids: make(map[string]struct{})}
}

func (s *SendingSet) Add(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[draftID] = struct{}{}
}

func (s *SendingSet) Remove(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, draftID)
}

// Contains reports whether draftID is being sent.
func (s *SendingSet) Contains(draftID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[draftID]
	return ok
}

// IDs returns the drafts being sent, sorted.
func (s *SendingSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
