// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Usage:   "Database connection string (postgres:// URL or sqlite path)",
	}
}

func verboseFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable per-team and per-player debug logging",
	}
}

// runCommand runs the daily ingestion pipeline
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Scrape all teams, resolve songs, and reconcile against stored state",
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
			verboseFlag(),
			&cli.StringFlag{
				Name:  "client-id",
				Usage: "Spotify client ID (overrides config and SPOTIFY_CLIENT_ID)",
			},
			&cli.StringFlag{
				Name:  "client-secret",
				Usage: "Spotify client secret (overrides config and SPOTIFY_CLIENT_SECRET)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent team scrapers",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Source fetches per second",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Decide changes without writing them",
			},
		},
		Action: r.Run,
	}
}

// setupCommand initializes the database schema
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
		},
		Action: r.Setup,
	}
}

// scrapeCommand streams raw scraped records for debugging
func scrapeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Scrape team pages and print records without touching the database",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			&cli.StringFlag{
				Name:  "team",
				Usage: "Limit output to one team",
			},
		},
		Action: r.Scrape,
	}
}

// songsCommand lists current walk-up songs
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "List current walk-up songs",
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
			&cli.StringFlag{
				Name:  "team",
				Usage: "Filter by team",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output CSV",
			},
		},
		Action: r.Songs,
	}
}

// changesCommand lists recorded song changes
func changesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "changes",
		Usage: "List recorded song change events, newest first",
		Flags: []cli.Flag{
			configFlag(),
			databaseFlag(),
			&cli.StringFlag{
				Name:  "player",
				Usage: "Filter by player name",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of events to show",
				Value: 50,
			},
		},
		Action: r.Changes,
	}
}

// authCommand performs the interactive Spotify authorization flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify interactively (for playlist tooling)",
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: r.Auth,
	}
}
