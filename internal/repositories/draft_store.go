package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/twx/internal/models"
)

// DraftStoreAdapter implements tasks.DraftStore using DraftRepository.
//
// The action payload is encoded as JSON into the draft's action_extras column.
type DraftStoreAdapter struct {
	repo *DraftRepository
}

// NewDraftStoreAdapter creates a new DraftStoreAdapter with the given repository
func NewDraftStoreAdapter(repo *DraftRepository) *DraftStoreAdapter {
	return &DraftStoreAdapter{repo: repo}
}

// SaveDraft persists a draft for action and returns its id.
func (a *DraftStoreAdapter) SaveDraft(action models.DraftAction, accountKeys []models.AccountKey, extras any) (string, error) {
	payload, err := json.Marshal(extras)
	if err != nil {
		return "", fmt.Errorf("failed to encode draft payload: %w", err)
	}

	draft := models.NewDraft(0, action, accountKeys, payload)
	if err := a.repo.Create(draft); err != nil {
		return "", fmt.Errorf("failed to save draft: %w", err)
	}

	return draft.ID(), nil
}

// DeleteDraft retires the draft with the given id.
func (a *DraftStoreAdapter) DeleteDraft(id string) error {
	return a.repo.Delete(id)
}
