package tasks

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/twx/internal/models"
)

// StatusUpdater writes favorite state into the cached status views.
type StatusUpdater interface {
	UpdateFavoriteState(views []string, account models.AccountKey, statusID string, state models.FavoriteState) (int64, error)
}

// ActivityUpdater rewrites activities that embed a status. fn returns false to leave an activity unchanged.
type ActivityUpdater interface {
	UpdateActivityStatus(account models.AccountKey, statusID string, fn func(*models.Activity) bool) (int, error)
}

// Synchronizer brings the local cache in line with a favorite result.
type Synchronizer struct {
	statuses   StatusUpdater
	activities ActivityUpdater
	views      []string
	logger     *log.Logger
}

// NewSynchronizer creates a [Synchronizer] over views. activities may be nil.
func NewSynchronizer(statuses StatusUpdater, activities ActivityUpdater, views []string, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Synchronizer{statuses: statuses, activities: activities, views: views, logger: logger}
}

// Sync writes result into every row that shows statusID for account, directly or as a repost,
// and into the activities embedding it.
//
// Both updates are attempted; their errors are joined into one [MutationError] of kind
// [ErrorKindCacheSync].
func (s *Synchronizer) Sync(account models.AccountKey, statusID string, result *models.FavoriteResult) error {
	if result == nil {
		return nil
	}

	state := result.State()
	var errs []error

	rows, err := s.statuses.UpdateFavoriteState(s.views, account, statusID, state)
	if err != nil {
		errs = append(errs, fmt.Errorf("status views: %w", err))
	}

	activities := 0
	if s.activities != nil {
		activities, err = s.activities.UpdateActivityStatus(account, statusID, func(a *models.Activity) bool {
			if a.ID != result.StatusID {
				return false
			}
			a.Apply(state)
			return true
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("activities: %w", err))
		}
	}

	if len(errs) > 0 {
		return &MutationError{Kind: ErrorKindCacheSync, Message: "failed to update local cache", Err: errors.Join(errs...)}
	}

	s.logger.Debug("cache synchronized", "account", account, "status", statusID, "rows", rows, "activities", activities)
	return nil
}
