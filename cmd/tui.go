package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
	"github.com/desertthunder/twx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for an account's cached statuses.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	key, err := models.ParseAccountKey(cmd.String("account"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	toaster := ui.NewToaster(8)

	c, err := r.open(toaster)
	if err != nil {
		return err
	}
	defer c.close(context.WithoutCancel(ctx))

	account, err := c.accounts.Get(key)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Account:   account,
		View:      cmd.String("view"),
		Statuses:  c.statuses,
		Favorites: c.favorites,
		Drafts:    c.recovery,
		Events:    c.bus,
		Toaster:   toaster,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
