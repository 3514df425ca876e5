package models

import (
	"fmt"
	"time"
)

// CachedUser is a remote user seen in a timeline.
//
// The user key doubles as the model ID.
type CachedUser struct {
	persisted
	screenName string
	name       string
	lastSeen   *time.Time
}

// NewCachedUser creates a new [CachedUser] keyed by key.
func NewCachedUser(key UserKey, screenName, name string) *CachedUser {
	u := &CachedUser{persisted: newPersisted(0), screenName: screenName, name: name}
	u.SetID(key.String())
	return u
}

func (u *CachedUser) Key() UserKey {
	key, _ := ParseAccountKey(u.ID())
	return key
}

func (u *CachedUser) ScreenName() string { return u.screenName }
func (u *CachedUser) Name() string { return u.name }
func (u *CachedUser) LastSeen() *time.Time { return u.lastSeen }
func (u *CachedUser) SetLastSeen(t *time.Time) { u.lastSeen = t }

// Validate checks that the user has a key.
func (u *CachedUser) Validate() error {
	if u.ID() == "" {
		return fmt.Errorf("user key is required")
	}
	return nil
}
