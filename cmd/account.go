package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/repositories"
	"github.com/desertthunder/twx/internal/shared"
	"github.com/urfave/cli/v3"
)

// accountView is the JSON shape of an account; the token is never printed.
type accountView struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	APIURL string `json:"api_url,omitempty"`
}

func (r *Runner) accounts() (*repositories.AccountRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewAccountRepository(db), nil
}

// AccountAdd stores an account and its access token.
func (r *Runner) AccountAdd(ctx context.Context, cmd *cli.Command) error {
	key, err := models.ParseAccountKey(cmd.String("key"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	backendType := models.BackendType(strings.ToLower(strings.TrimSpace(cmd.String("type"))))
	if !slices.Contains(models.BackendTypes, backendType) {
		return fmt.Errorf("%w: unknown backend type %q (want one of %v)", shared.ErrInvalidArgument, cmd.String("type"), models.BackendTypes)
	}

	account := models.Account{
		Key:         key,
		Type:        backendType,
		APIURL:      cmd.String("api-url"),
		AccessToken: cmd.String("token"),
	}
	if err := account.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	repo, err := r.accounts()
	if err != nil {
		return err
	}
	if err := repo.Save(account); err != nil {
		return err
	}

	r.logger.Info("account saved", "key", key, "type", account.Type)
	return r.writePlain("✓ Account %s (%s) saved\n", key, account.Type)
}

// AccountList prints stored accounts.
func (r *Runner) AccountList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.accounts()
	if err != nil {
		return err
	}

	accounts, err := repo.List()
	if err != nil {
		return err
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountView{Key: a.Key.String(), Type: a.Type.String(), APIURL: a.APIURL})
	}

	if cmd.Bool("json") {
		return r.writeJSON(views, true)
	}

	if len(views) == 0 {
		return r.writePlain("No accounts. Add one with 'twx account add'.\n")
	}
	for _, v := range views {
		if err := r.writePlain("%-30s %-10s %s\n", v.Key, v.Type, v.APIURL); err != nil {
			return err
		}
	}
	return nil
}

// AccountRemove deletes an account. Drafts that reference it stay until retried or discarded.
func (r *Runner) AccountRemove(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.Args().First()
	if raw == "" {
		return fmt.Errorf("%w: account key", shared.ErrMissingArgument)
	}

	key, err := models.ParseAccountKey(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	repo, err := r.accounts()
	if err != nil {
		return err
	}
	if err := repo.Delete(key); err != nil {
		return err
	}

	return r.writePlain("✓ Account %s removed\n", key)
}
