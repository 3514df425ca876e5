package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/twx/internal/formatter"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
	"github.com/urfave/cli/v3"
)

// DraftsList prints leftover drafts, or writes them to --output.
func (r *Runner) DraftsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var account *models.AccountKey
	if raw := cmd.String("account"); raw != "" {
		key, err := models.ParseAccountKey(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		account = &key
	}

	c, err := r.open(nil)
	if err != nil {
		return err
	}
	defer c.close(context.WithoutCancel(ctx))

	drafts, err := c.recovery.Pending(account)
	if err != nil {
		return err
	}

	views := make([]formatter.DraftView, 0, len(drafts))
	for _, d := range drafts {
		views = append(views, formatter.NewDraftView(d, c.sending.Contains(d.ID())))
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteDraftsExport(format, views, path)
		if err != nil {
			return err
		}
		r.logger.Info("drafts exported", "path", written, "count", len(views))
		return nil
	}

	data, err := formatter.RenderDrafts(format, views)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// DraftsRetry resubmits the given drafts, or every leftover draft with --all.
func (r *Runner) DraftsRetry(ctx context.Context, cmd *cli.Command) error {
	c, err := r.open(nil)
	if err != nil {
		return err
	}
	defer c.close(context.WithoutCancel(ctx))

	ids := cmd.Args().Slice()
	if cmd.Bool("all") {
		drafts, err := c.recovery.Pending(nil)
		if err != nil {
			return err
		}
		for _, d := range drafts {
			ids = append(ids, d.ID())
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: draft ids or --all", shared.ErrMissingArgument)
	}

	results := c.recovery.RetryAll(ctx, ids, int(cmd.Int("limit")))

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			r.writePlain("✗ %s: %v\n", res.DraftID, res.Err)
			continue
		}
		if res.Result != nil {
			r.writePlain("✓ %s: status %s favorited (%d favorites)\n", res.DraftID, res.Result.StatusID, res.Result.FavoriteCount)
		} else {
			r.writePlain("✓ %s\n", res.DraftID)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d retries failed", failed, len(results))
	}
	return nil
}

// DraftsDiscard deletes drafts without resubmitting them.
func (r *Runner) DraftsDiscard(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: draft ids", shared.ErrMissingArgument)
	}

	c, err := r.open(nil)
	if err != nil {
		return err
	}
	defer c.close(context.WithoutCancel(ctx))

	var errs []error
	for _, id := range ids {
		if err := c.recovery.Discard(id); err != nil {
			errs = append(errs, err)
			continue
		}
		r.writePlain("✓ %s discarded\n", id)
	}
	return errors.Join(errs...)
}
