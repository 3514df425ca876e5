package models

import (
	"fmt"
	"time"
)

// Status is a snapshot of a remote status as cached in a local view.
//
// RepostOfID is set when the row is a repost; it holds the original status id.
type Status struct {
	ID            string     `json:"id"`
	AccountKey    AccountKey `json:"account_key"`
	RepostOfID    string     `json:"repost_of_id,omitempty"`
	UserKey       UserKey    `json:"user_key"`
	Text          string     `json:"text,omitempty"`
	IsFavorite    bool       `json:"is_favorite"`
	ReplyCount    int64      `json:"reply_count"`
	RepostCount   int64      `json:"repost_count"`
	FavoriteCount int64      `json:"favorite_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Validate checks that the snapshot identifies a status.
func (s Status) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("status id is required")
	}
	return nil
}

// FavoriteState is the set of columns a favorite call changes in every view.
type FavoriteState struct {
	IsFavorite    bool
	ReplyCount    int64
	RepostCount   int64
	FavoriteCount int64
}

// FavoriteResult is the backend-agnostic outcome of a favorite call.
//
// It is produced once per successful dispatch and never modified afterward.
type FavoriteResult struct {
	StatusID      string    `json:"status_id"`
	IsFavorite    bool      `json:"is_favorite"`
	ReplyCount    int64     `json:"reply_count"`
	RepostCount   int64     `json:"repost_count"`
	FavoriteCount int64     `json:"favorite_count"`
	Mentions      []UserKey `json:"mentions"`
}

// State returns the cache columns carried by the result.
func (r FavoriteResult) State() FavoriteState {
	return FavoriteState{
		IsFavorite:    r.IsFavorite,
		ReplyCount:    r.ReplyCount,
		RepostCount:   r.RepostCount,
		FavoriteCount: r.FavoriteCount,
	}
}

// Activity is an activity row about the account that embeds a status.
type Activity struct {
	ActivityID    string
	AccountKey    AccountKey
	Action        string
	ID            string // embedded status id
	RepostOfID    string
	IsFavorite    bool
	ReplyCount    int64
	RepostCount   int64
	FavoriteCount int64
	CreatedAt     time.Time
}

// Apply copies the result's state onto the activity.
func (a *Activity) Apply(state FavoriteState) {
	a.IsFavorite = state.IsFavorite
	a.ReplyCount = state.ReplyCount
	a.RepostCount = state.RepostCount
	a.FavoriteCount = state.FavoriteCount
}
