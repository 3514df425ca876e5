package main

import (
	"context"

	"github.com/desertthunder/twx/internal/server"
	"github.com/desertthunder/twx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := int(cmd.Int("port")); port != 0 {
		cfg.Port = port
	}

	c, err := r.open(nil)
	if err != nil {
		return err
	}
	defer c.close(context.WithoutCancel(ctx))

	logger := shared.WithLogger(r.logger, "component", "server")

	api := server.NewAPI(server.APIOpts{
		Favorites: c.favorites,
		Drafts:    c.recovery,
		Accounts:  c.accounts,
		Statuses:  c.statuses,
		Views:     r.config.Cache.Views,
		Logger:    logger,
	})

	router := server.NewRouter(api, server.NewEventsHandler(c.bus, logger), server.NewMetricsHandler(c.registry), logger)
	return server.Serve(ctx, server.NewHTTPServer(cfg, router), logger)
}
