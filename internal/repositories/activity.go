package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/twx/internal/models"
)

// ActivityRepository stores activities about an account that embed a status.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository with the given database connection
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `account_key, activity_id, action, id, repost_of_id, is_favorite, reply_count, repost_count, favorite_count, created_at`

// Upsert writes an activity, replacing any row with the same account and activity id.
func (r *ActivityRepository) Upsert(activity models.Activity) error {
	if activity.ActivityID == "" || activity.ID == "" {
		return fmt.Errorf("validation failed: activity and status ids are required")
	}

	createdAt := activity.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT OR REPLACE INTO activities (` + activityColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		activity.AccountKey.String(),
		activity.ActivityID,
		activity.Action,
		activity.ID,
		activity.RepostOfID,
		activity.IsFavorite,
		activity.ReplyCount,
		activity.RepostCount,
		activity.FavoriteCount,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert activity: %w", err)
	}

	return nil
}

// ListByStatus returns the activities for account that embed statusID directly or as a repost.
func (r *ActivityRepository) ListByStatus(account models.AccountKey, statusID string) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities
		WHERE account_key = ? AND (id = ? OR repost_of_id = ?)
		ORDER BY created_at DESC, activity_id ASC`

	return r.query(r.db, query, account.String(), statusID, statusID)
}

// UpdateActivityStatus loads every activity embedding statusID for account and
// hands each one to fn. Activities for which fn returns true are written back.
//
// The read completes before any write so the single-connection in-memory
// database never has an open cursor while updating.
func (r *ActivityRepository) UpdateActivityStatus(account models.AccountKey, statusID string, fn func(*models.Activity) bool) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + activityColumns + ` FROM activities WHERE account_key = ? AND (id = ? OR repost_of_id = ?)`
	activities, err := r.query(tx, query, account.String(), statusID, statusID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range activities {
		activity := &activities[i]
		if !fn(activity) {
			continue
		}

		_, err := tx.Exec(`
			UPDATE activities
			SET is_favorite = ?, reply_count = ?, repost_count = ?, favorite_count = ?
			WHERE account_key = ? AND activity_id = ?
		`,
			activity.IsFavorite,
			activity.ReplyCount,
			activity.RepostCount,
			activity.FavoriteCount,
			account.String(),
			activity.ActivityID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update activity %s: %w", activity.ActivityID, err)
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit activity updates: %w", err)
	}

	return updated, nil
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func (r *ActivityRepository) query(q querier, query string, args ...any) ([]models.Activity, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var activity models.Activity
		var accountKey string

		err := rows.Scan(
			&accountKey,
			&activity.ActivityID,
			&activity.Action,
			&activity.ID,
			&activity.RepostOfID,
			&activity.IsFavorite,
			&activity.ReplyCount,
			&activity.RepostCount,
			&activity.FavoriteCount,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		activity.AccountKey, _ = models.ParseAccountKey(accountKey)
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return activities, nil
}
