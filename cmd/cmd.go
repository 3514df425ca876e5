// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, markdown, csv, json)",
		Value:   value,
	}
}

// setupCommand handles setup operations for the database and config.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "check",
				Usage: "Validate the configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupCheck,
			},
		},
	}
}

// accountCommand manages accounts used for remote calls
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"accounts"},
		Usage:   "Manage accounts",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add or update an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Usage:    "Account key (id@host)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Backend type (twitter, fanfou, mastodon)",
						Value: "twitter",
					},
					&cli.StringFlag{
						Name:  "api-url",
						Usage: "API root; defaults to the backend's configured URL",
					},
					&cli.StringFlag{
						Name:     "token",
						Usage:    "OAuth2 access token",
						Sources:  cli.EnvVars("TWX_ACCESS_TOKEN"),
						Required: true,
					},
				},
				Action: r.AccountAdd,
			},
			{
				Name:  "list",
				Usage: "List accounts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AccountList,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove an account",
				ArgsUsage: "<key>",
				Action:    r.AccountRemove,
			},
		},
	}
}

// favoriteCommand runs favorite tasks
func favoriteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorite",
		Aliases: []string{"fav"},
		Usage:   "Favorite statuses",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Mark a status as favorite; the cached snapshot is used when present",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Aliases:  []string{"a"},
						Usage:    "Account key (id@host)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "status",
						Aliases:  []string{"s"},
						Usage:    "Status ID",
						Required: true,
					},
					formatFlag("text"),
				},
				Action: r.FavoriteCreate,
			},
			{
				Name:  "inflight",
				Usage: "Ask a running 'twx serve' whether a favorite is being created for a status",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Aliases:  []string{"a"},
						Usage:    "Account key (id@host)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "status",
						Aliases:  []string{"s"},
						Usage:    "Status ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "server",
						Usage: "Base URL of a running 'twx serve'; defaults to server.host and server.port",
					},
				},
				Action: r.FavoriteInFlight,
			},
		},
	}
}

// draftsCommand lists, retries and discards leftover drafts
func draftsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "drafts",
		Aliases: []string{"draft"},
		Usage:   "Recover leftover drafts from interrupted favorites",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List leftover drafts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "account",
						Aliases: []string{"a"},
						Usage:   "Only drafts for this account key",
					},
					formatFlag("text"),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.DraftsList,
			},
			{
				Name:      "retry",
				Usage:     "Resubmit leftover drafts",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum concurrent retries",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Retry every leftover draft",
					},
				},
				Action: r.DraftsRetry,
			},
			{
				Name:      "discard",
				Usage:     "Delete leftover drafts without resubmitting",
				ArgsUsage: "<id>...",
				Action:    r.DraftsDiscard,
			},
		},
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the favorite API, event stream and metrics over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host; overrides server.host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port; overrides server.port",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive favoriting.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for an account's cached statuses",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "account",
				Aliases:  []string{"a"},
				Usage:    "Account key (id@host)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "view",
				Usage: "Cache view to list",
				Value: "statuses",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path",
				Value: "./tmp/twx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
