package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
	"golang.org/x/sync/errgroup"
)

// DraftRepository is the subset of the draft repository recovery needs.
type DraftRepository interface {
	Get(id string) (*models.Draft, error)
	Delete(id string) error
	List(criteria map[string]any) ([]*models.Draft, error)
}

// AccountResolver looks up the backend and credentials for an account key.
type AccountResolver interface {
	Get(key models.AccountKey) (models.Account, error)
}

// Recovery lists, retries and discards favorite drafts left behind by interrupted tasks.
//
// Nothing is resubmitted automatically; every retry is caller-initiated.
type Recovery struct {
	drafts    DraftRepository
	accounts  AccountResolver
	favorites *FavoriteService
	sending   *SendingSet
	logger    *log.Logger
}

// NewRecovery creates a [Recovery]. sending may be nil when no task runs in this process.
func NewRecovery(drafts DraftRepository, accounts AccountResolver, favorites *FavoriteService, sending *SendingSet, logger *log.Logger) *Recovery {
	if logger == nil {
		logger = log.Default()
	}
	return &Recovery{drafts: drafts, accounts: accounts, favorites: favorites, sending: sending, logger: logger}
}

// Pending returns leftover favorite drafts oldest first, optionally only those for account.
// Drafts that are being sent right now are excluded.
func (r *Recovery) Pending(account *models.AccountKey) ([]*models.Draft, error) {
	criteria := map[string]any{"action": models.DraftActionFavorite}
	if account != nil {
		criteria["account_key"] = *account
	}

	drafts, err := r.drafts.List(criteria)
	if err != nil {
		return nil, err
	}

	pending := drafts[:0]
	for _, d := range drafts {
		if r.isSending(d.ID()) {
			continue
		}
		pending = append(pending, d)
	}
	return pending, nil
}

// Discard deletes a leftover draft without resubmitting it.
func (r *Recovery) Discard(id string) error {
	if r.isSending(id) {
		return fmt.Errorf("%w: draft %s is being sent", shared.ErrInvalidArgument, id)
	}
	if err := r.drafts.Delete(id); err != nil {
		return err
	}
	r.logger.Info("draft discarded", "draft", id)
	return nil
}

// Retry resubmits the favorite recorded by draft id for each of its accounts.
//
// Each resubmission writes its own draft. The original draft is deleted unless a resubmission
// failed before persisting its own draft, so a retry never loses the only record of the action.
func (r *Recovery) Retry(ctx context.Context, id string) (*models.FavoriteResult, error) {
	if r.isSending(id) {
		return nil, fmt.Errorf("%w: draft %s is being sent", shared.ErrInvalidArgument, id)
	}

	draft, err := r.drafts.Get(id)
	if err != nil {
		return nil, err
	}

	if draft.Action() != models.DraftActionFavorite {
		return nil, fmt.Errorf("%w: draft %s is a %s draft", shared.ErrInvalidArgument, id, draft.Action())
	}

	extras, err := draft.StatusExtras()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	if extras.Status.ID == "" {
		return nil, fmt.Errorf("%w: draft %s has no status", shared.ErrInvalidInput, id)
	}

	var (
		result    *models.FavoriteResult
		errs      []error
		keepDraft bool
	)

	for _, key := range draft.AccountKeys() {
		account, err := r.accounts.Get(key)
		if err != nil {
			keepDraft = true
			errs = append(errs, err)
			continue
		}

		status := extras.Status
		status.AccountKey = key

		res, err := r.favorites.CreateFavorite(ctx, account, status)
		if err != nil {
			if !IsKind(err, ErrorKindRemote) {
				keepDraft = true
			}
			errs = append(errs, err)
			continue
		}
		result = res
	}

	if !keepDraft {
		if err := r.drafts.Delete(id); err != nil && !errors.Is(err, shared.ErrDraftNotFound) {
			r.logger.Warn("failed to delete retried draft", "draft", id, "error", err)
		}
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}

// RetryResult is the outcome of one retry in [Recovery.RetryAll].
type RetryResult struct {
	DraftID string
	Result  *models.FavoriteResult
	Err     error
}

// RetryAll retries ids with at most limit retries running at once. Results are in ids order.
// A failed retry does not stop the others.
func (r *Recovery) RetryAll(ctx context.Context, ids []string, limit int) []RetryResult {
	if limit <= 0 {
		limit = 1
	}

	results := make([]RetryResult, len(ids))

	var g errgroup.Group
	g.SetLimit(limit)

	for i, id := range ids {
		g.Go(func() error {
			res, err := r.Retry(ctx, id)
			results[i] = RetryResult{DraftID: id, Result: res, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (r *Recovery) isSending(id string) bool {
	return r.sending != nil && r.sending.Contains(id)
}
