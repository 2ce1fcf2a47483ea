// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/urfave/cli/v3"
)

var formatUsage = "Output format: json, csv, markdown, txt"

// searchCommand queries the book catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search the book catalog",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Search,
	}
}

// authCommand handles account operations against the identity service
func authCommand(r *Runner) *cli.Command {
	credentials := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password",
				Sources: cli.EnvVars("SHELF_PASSWORD"),
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account",
		Commands: []*cli.Command{
			{
				Name:   "signup",
				Usage:  "Create an account with email and password",
				Flags:  credentials(),
				Action: r.AuthSignUp,
			},
			{
				Name:    "login",
				Aliases: []string{"signin"},
				Usage:   "Sign in with email and password",
				Flags:   credentials(),
				Action:  r.AuthLogin,
			},
			{
				Name:  "oauth",
				Usage: "Sign in through the browser with an OAuth provider",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "provider",
						Usage: "OAuth provider (default from config)",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening it",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
					},
				},
				Action: r.AuthOAuth,
			},
			{
				Name:    "logout",
				Aliases: []string{"signout"},
				Usage:   "Sign out and forget the stored session",
				Action:  r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the connection and signed-in account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// listCommand files books into reading lists and prints them
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Manage your reading lists (want-to-read, reading, finished)",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a book to a list",
				ArgsUsage: "<book-id> <list>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "book-id"},
					&cli.StringArg{Name: "list"},
				},
				Action: r.ListAdd,
			},
			{
				Name:      "move",
				Aliases:   []string{"mv"},
				Usage:     "Move a book between lists",
				ArgsUsage: "<book-id> <from> <to>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "book-id"},
					&cli.StringArg{Name: "from"},
					&cli.StringArg{Name: "to"},
				},
				Action: r.ListMove,
			},
			{
				Name:  "show",
				Usage: "Print your lists with book details",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   formatUsage,
						Value:   string(formatter.Text),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
					&cli.StringFlag{
						Name:    "list",
						Aliases: []string{"l"},
						Usage:   "Only show one list",
					},
				},
				Action: r.ListShow,
			},
			{
				Name:  "export",
				Usage: "Write each list to its own file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   formatUsage,
						Value:   string(formatter.JSON),
					},
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (default: shelf_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent list writers",
						Value: 3,
					},
					&cli.BoolFlag{
						Name:  "covers",
						Usage: "Download cover images next to Markdown exports",
					},
				},
				Action: r.ListExport,
			},
		},
	}
}

// setupCommand handles configuration and database setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml with default settings",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Create the book_lists table for the configured store",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Show applied migrations (sqlite)",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration (sqlite)",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}
