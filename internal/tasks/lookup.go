package tasks

import (
	"errors"

	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
)

// StatusLookup reads a cached status from one view.
type StatusLookup interface {
	Get(view string, account models.AccountKey, id string) (models.Status, error)
}

// ResolveStatus returns the first cached snapshot of statusID found in views.
//
// When no view holds the status, a bare snapshot carrying only the id and account is returned
// with found set to false. Lookup errors other than not-found are returned.
func ResolveStatus(lookup StatusLookup, views []string, account models.AccountKey, statusID string) (status models.Status, found bool, err error) {
	bare := models.Status{ID: statusID, AccountKey: account}
	if lookup == nil {
		return bare, false, nil
	}

	for _, view := range views {
		s, err := lookup.Get(view, account, statusID)
		switch {
		case err == nil:
			return s, true, nil
		case errors.Is(err, shared.ErrStatusNotFound):
			continue
		default:
			return bare, false, err
		}
	}
	return bare, false, nil
}
