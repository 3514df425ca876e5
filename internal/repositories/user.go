package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
)

// CachedUserRepository persists remote users seen in timelines, keyed by user key.
type CachedUserRepository struct {
	db *sql.DB
}

// NewCachedUserRepository creates a new [CachedUserRepository] with the given database connection
func NewCachedUserRepository(db *sql.DB) *CachedUserRepository {
	return &CachedUserRepository{db: db}
}

// Save inserts the user or refreshes its names. last_seen is left untouched on conflict.
func (r *CachedUserRepository) Save(user *models.CachedUser) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO cached_users (user_key, screen_name, name, last_seen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_key) DO UPDATE SET
			screen_name = excluded.screen_name,
			name = excluded.name,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, user.ID(), user.ScreenName(), user.Name(), user.LastSeen(), now, now)
	if err != nil {
		return fmt.Errorf("failed to save cached user: %w", err)
	}

	return nil
}

// Get retrieves a cached user by key
func (r *CachedUserRepository) Get(key models.UserKey) (*models.CachedUser, error) {
	query := `
		SELECT user_key, screen_name, name, last_seen, created_at, updated_at
		FROM cached_users
		WHERE user_key = ?
	`

	var (
		userKey   string
		screen    string
		name      string
		lastSeen  sql.NullTime
		createdAt time.Time
		updatedAt time.Time
	)

	err := r.db.QueryRow(query, key.String()).Scan(&userKey, &screen, &name, &lastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached user: %w", err)
	}

	parsed, _ := models.ParseAccountKey(userKey)
	user := models.NewCachedUser(parsed, screen, name)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if lastSeen.Valid {
		t := lastSeen.Time
		user.SetLastSeen(&t)
	}

	return user, nil
}

// SetLastSeen stamps last_seen on every cached user in users and returns the number of rows changed.
//
// Users that are not cached yet are skipped.
func (r *CachedUserRepository) SetLastSeen(users []models.UserKey, t time.Time) (int64, error) {
	if len(users) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(users))
	args := make([]any, 0, len(users)+2)
	args = append(args, t, time.Now())
	for i, key := range users {
		placeholders[i] = "?"
		args = append(args, key.String())
	}

	query := `UPDATE cached_users SET last_seen = ?, updated_at = ? WHERE user_key IN (` + strings.Join(placeholders, ", ") + `)`

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to set last seen: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return n, nil
}
