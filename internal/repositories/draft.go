package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
)

// DraftRepository implements models.Repository[*models.Draft] for durable action drafts.
//
// Deleting a draft soft-deletes it; deleted drafts are invisible to Get and List.
type DraftRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Draft] = (*DraftRepository)(nil)

// NewDraftRepository creates a new DraftRepository with the given database connection
func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

const draftColumns = `id, sequence, action, account_keys, action_extras, created_at, updated_at, deleted_at`

// Create inserts a new [models.Draft] into the database with generated ID and sequence
func (r *DraftRepository) Create(draft *models.Draft) error {
	sequence, err := NextSequence(r.db, "drafts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	draft.SetID(shared.GenerateID())
	draft.SetSequence(sequence)

	if err := draft.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	keys, err := encodeAccountKeys(draft.AccountKeys())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO drafts (id, sequence, action, account_keys, action_extras, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		draft.ID(),
		sequence,
		string(draft.Action()),
		keys,
		string(draft.Extras()),
		draft.CreatedAt(),
		draft.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}

	return nil
}

// Get retrieves a draft by ID, excluding soft-deleted drafts
func (r *DraftRepository) Get(id string) (*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = ? AND deleted_at IS NULL`

	draft, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrDraftNotFound, id)
	}
	return draft, err
}

// Update rewrites the action extras of an existing draft
func (r *DraftRepository) Update(draft *models.Draft) error {
	if err := draft.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	draft.SetUpdatedAt(now)

	result, err := r.db.Exec(
		`UPDATE drafts SET action_extras = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		string(draft.Extras()), now, draft.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}

	return requireRows(result, shared.ErrDraftNotFound, draft.ID())
}

// Delete soft-deletes a draft by ID
func (r *DraftRepository) Delete(id string) error {
	result, err := r.db.Exec(
		`UPDATE drafts SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	return requireRows(result, shared.ErrDraftNotFound, id)
}

// List retrieves drafts oldest first, excluding soft-deleted drafts.
//
// Supported criteria: "action" (string or [models.DraftAction]) and "account_key" (string or [models.AccountKey]).
func (r *DraftRepository) List(criteria map[string]any) ([]*models.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE deleted_at IS NULL`
	args := []any{}

	switch action := criteria["action"].(type) {
	case string:
		if action != "" {
			query += " AND action = ?"
			args = append(args, action)
		}
	case models.DraftAction:
		query += " AND action = ?"
		args = append(args, string(action))
	}

	var accountKey string
	switch key := criteria["account_key"].(type) {
	case string:
		accountKey = key
	case models.AccountKey:
		accountKey = key.String()
	}
	if accountKey != "" {
		query += " AND EXISTS (SELECT 1 FROM json_each(drafts.account_keys) WHERE json_each.value = ?)"
		args = append(args, accountKey)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		draft, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return drafts, nil
}

// scan reads one draft row from a [sql.Row] or [sql.Rows].
func (r *DraftRepository) scan(row scanner) (*models.Draft, error) {
	var (
		id        string
		sequence  int
		action    string
		keys      string
		extras    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &action, &keys, &extras, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan draft: %w", err)
	}

	accountKeys, err := decodeAccountKeys(keys)
	if err != nil {
		return nil, err
	}

	draft := models.NewDraft(sequence, models.DraftAction(action), accountKeys, json.RawMessage(extras))
	draft.SetID(id)
	draft.SetCreatedAt(createdAt)
	draft.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		draft.SetDeletedAt(&deletedAt.Time)
	}

	return draft, nil
}

func encodeAccountKeys(keys []models.AccountKey) (string, error) {
	strs := make([]string, len(keys))
	for i, k := range keys {
		strs[i] = k.String()
	}
	data, err := json.Marshal(strs)
	if err != nil {
		return "", fmt.Errorf("failed to encode account keys: %w", err)
	}
	return string(data), nil
}

func decodeAccountKeys(data string) ([]models.AccountKey, error) {
	var strs []string
	if err := json.Unmarshal([]byte(data), &strs); err != nil {
		return nil, fmt.Errorf("failed to decode account keys: %w", err)
	}

	keys := make([]models.AccountKey, 0, len(strs))
	for _, s := range strs {
		key, err := models.ParseAccountKey(s)
		if err != nil {
			return nil, fmt.Errorf("invalid stored account key %q: %w", strings.TrimSpace(s), err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
