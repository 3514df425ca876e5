package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
)

// AccountRepository stores the backend type and credentials needed to resolve an account key.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository with the given database connection
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Save inserts or replaces the account keyed by account.Key.
func (r *AccountRepository) Save(account models.Account) error {
	if account.Key.IsZero() {
		return fmt.Errorf("%w: account key is required", shared.ErrInvalidInput)
	}

	now := time.Now()
	query := `
		INSERT INTO accounts (account_key, backend_type, api_url, access_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_key) DO UPDATE SET
			backend_type = excluded.backend_type,
			api_url = excluded.api_url,
			access_token = excluded.access_token,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		account.Key.String(),
		string(models.ParseBackendType(string(account.Type))),
		account.APIURL,
		account.AccessToken,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	return nil
}

// Get resolves an account by key.
func (r *AccountRepository) Get(key models.AccountKey) (models.Account, error) {
	query := `SELECT account_key, backend_type, api_url, access_token FROM accounts WHERE account_key = ?`

	account, err := r.scan(r.db.QueryRow(query, key.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, fmt.Errorf("%w: %s", shared.ErrAccountNotFound, key)
	}
	return account, err
}

// List returns every stored account ordered by key.
func (r *AccountRepository) List() ([]models.Account, error) {
	rows, err := r.db.Query(`SELECT account_key, backend_type, api_url, access_token FROM accounts ORDER BY account_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return accounts, nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(key models.AccountKey) error {
	result, err := r.db.Exec(`DELETE FROM accounts WHERE account_key = ?`, key.String())
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireRows(result, shared.ErrAccountNotFound, key.String())
}

func (r *AccountRepository) scan(row scanner) (models.Account, error) {
	var keyStr, backend, apiURL, token string

	err := row.Scan(&keyStr, &backend, &apiURL, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, err
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}

	key, err := models.ParseAccountKey(keyStr)
	if err != nil {
		return models.Account{}, fmt.Errorf("invalid stored account key %q: %w", keyStr, err)
	}

	return models.Account{
		Key:         key,
		Type:        models.ParseBackendType(backend),
		APIURL:      apiURL,
		AccessToken: token,
	}, nil
}
