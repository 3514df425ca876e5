package models

import (
	"encoding/json"
	"fmt"
)

// DraftAction tags the remote action a [Draft] records.
type DraftAction string

const (
	DraftActionFavorite DraftAction = "favorite"
)

// StatusActionExtras is the action payload for actions that target a single status.
type StatusActionExtras struct {
	Status Status `json:"status"`
}

// Draft is a durable record that a remote action was started.
//
// A draft that outlives its task is the crash-recovery signal: the action may or may not have reached
// the remote server and must be offered for retry or discard.
type Draft struct {
	persisted
	action      DraftAction
	accountKeys []AccountKey
	extras      json.RawMessage
}

// NewDraft creates a new [Draft] for action on behalf of accountKeys.
func NewDraft(sequence int, action DraftAction, accountKeys []AccountKey, extras json.RawMessage) *Draft {
	if len(extras) == 0 {
		extras = json.RawMessage("{}")
	}
	return &Draft{
		persisted:   newPersisted(sequence),
		action:      action,
		accountKeys: accountKeys,
		extras:      extras,
	}
}

// NewStatusActionDraft creates a draft whose payload is a status snapshot.
func NewStatusActionDraft(action DraftAction, accountKeys []AccountKey, status Status) (*Draft, error) {
	extras, err := json.Marshal(StatusActionExtras{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to encode action extras: %w", err)
	}
	return NewDraft(0, action, accountKeys, extras), nil
}

func (d *Draft) Action() DraftAction { return d.action }
func (d *Draft) AccountKeys() []AccountKey { return d.accountKeys }
func (d *Draft) Extras() json.RawMessage { return d.extras }
func (d *Draft) SetExtras(e json.RawMessage) { d.extras = e }

// StatusExtras decodes the payload of a status action draft.
func (d *Draft) StatusExtras() (*StatusActionExtras, error) {
	var extras StatusActionExtras
	if err := json.Unmarshal(d.extras, &extras); err != nil {
		return nil, fmt.Errorf("failed to decode action extras for draft %s: %w", d.ID(), err)
	}
	return &extras, nil
}

// Validate checks draft invariants before persistence.
func (d *Draft) Validate() error {
	if d.ID() == "" {
		return fmt.Errorf("draft id is required")
	}
	if d.action == "" {
		return fmt.Errorf("draft action is required")
	}
	if len(d.accountKeys) == 0 {
		return fmt.Errorf("draft needs at least one account key")
	}
	if !json.Valid(d.extras) {
		return fmt.Errorf("draft extras must be valid JSON")
	}
	return nil
}
