package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
)

// Status views known to the cache. Each one is a table with the same shape.
const (
	ViewStatuses       = "statuses"
	ViewCachedStatuses = "cached_statuses"
)

// StatusViews lists every status view in the order they are updated.
var StatusViews = []string{ViewStatuses, ViewCachedStatuses}

// StatusRepository reads and writes the cached status views.
//
// A status can appear in a view directly (id matches) or through a repost
// (repost_of_id matches); favorite updates touch both.
type StatusRepository struct {
	db *sql.DB
}

// NewStatusRepository creates a new StatusRepository with the given database connection
func NewStatusRepository(db *sql.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

const statusColumns = `account_key, id, repost_of_id, user_key, text, is_favorite, reply_count, repost_count, favorite_count, created_at`

func checkView(view string) error {
	if !slices.Contains(StatusViews, view) {
		return fmt.Errorf("%w: %s", shared.ErrUnknownView, view)
	}
	return nil
}

// Upsert writes a status snapshot into view, replacing any row with the same key.
func (r *StatusRepository) Upsert(view string, status models.Status) error {
	if err := checkView(view); err != nil {
		return err
	}
	if err := status.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	createdAt := status.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, view, statusColumns)

	_, err := r.db.Exec(query,
		status.AccountKey.String(),
		status.ID,
		status.RepostOfID,
		status.UserKey.String(),
		status.Text,
		status.IsFavorite,
		status.ReplyCount,
		status.RepostCount,
		status.FavoriteCount,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert status into %s: %w", view, err)
	}

	return nil
}

// Get returns the row for id in view under account.
func (r *StatusRepository) Get(view string, account models.AccountKey, id string) (models.Status, error) {
	if err := checkView(view); err != nil {
		return models.Status{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE account_key = ? AND id = ?`, statusColumns, view)

	status, err := scanStatus(r.db.QueryRow(query, account.String(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Status{}, fmt.Errorf("%w: %s in %s", shared.ErrStatusNotFound, id, view)
	}
	return status, err
}

// List returns the statuses in view for account, newest first.
func (r *StatusRepository) List(view string, account models.AccountKey, limit int) ([]models.Status, error) {
	if err := checkView(view); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE account_key = ? ORDER BY created_at DESC, id DESC`, statusColumns, view)
	args := []any{account.String()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", view, err)
	}
	defer rows.Close()

	var statuses []models.Status
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return statuses, nil
}

// UpdateFavoriteState writes state to every row in views that belongs to account
// and either is statusID or reposts it. All views are updated in one transaction.
//
// It returns the total number of rows changed; zero is not an error.
func (r *StatusRepository) UpdateFavoriteState(views []string, account models.AccountKey, statusID string, state models.FavoriteState) (int64, error) {
	for _, view := range views {
		if err := checkView(view); err != nil {
			return 0, err
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, view := range views {
		query := fmt.Sprintf(`
			UPDATE %s
			SET is_favorite = ?, reply_count = ?, repost_count = ?, favorite_count = ?
			WHERE account_key = ? AND (id = ? OR repost_of_id = ?)
		`, view)

		result, err := tx.Exec(query,
			state.IsFavorite,
			state.ReplyCount,
			state.RepostCount,
			state.FavoriteCount,
			account.String(),
			statusID,
			statusID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update %s: %w", view, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit favorite state: %w", err)
	}

	return total, nil
}

func scanStatus(row scanner) (models.Status, error) {
	var status models.Status
	var accountKey, userKey string

	err := row.Scan(
		&accountKey,
		&status.ID,
		&status.RepostOfID,
		&userKey,
		&status.Text,
		&status.IsFavorite,
		&status.ReplyCount,
		&status.RepostCount,
		&status.FavoriteCount,
		&status.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Status{}, err
	}
	if err != nil {
		return models.Status{}, fmt.Errorf("failed to scan status: %w", err)
	}

	status.AccountKey, _ = models.ParseAccountKey(accountKey)
	if userKey != "" {
		status.UserKey, _ = models.ParseAccountKey(userKey)
	}

	return status, nil
}
