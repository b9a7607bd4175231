// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/ytspot/internal/formatter"
	"github.com/urfave/cli/v3"
)

// globalFlags are accepted by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env",
			Usage: "Path to .env file with Spotify credentials",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// setupCommand creates the config file and the run report database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the run report database",
		Action: r.Setup,
	}
}

// authCommand handles OAuth consent for both services.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with YouTube and Spotify",
		Commands: []*cli.Command{
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Authorize read access to your YouTube account",
				Action:  r.YouTubeAuth,
			},
			{
				Name:    "spotify",
				Aliases: []string{"spot"},
				Usage:   "Authorize playlist access to your Spotify account",
				Action:  r.SpotifyAuth,
			},
			{
				Name:   "status",
				Usage:  "Show cached token status",
				Action: r.AuthStatus,
			},
		},
	}
}

// transferCommand runs the YouTube to Spotify transfer.
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "transfer",
		Aliases: []string{"run"},
		Usage:   "Copy liked videos and playlists from YouTube to Spotify",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-favorites",
				Usage: "Do not transfer liked videos",
			},
			&cli.BoolFlag{
				Name:  "skip-playlists",
				Usage: "Do not transfer playlists",
			},
			&cli.StringSliceFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Only transfer the playlist with this ID or title (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Match tracks without creating playlists",
			},
			&cli.BoolFlag{
				Name:  "no-record",
				Usage: "Do not write the run report",
			},
		},
		Action: r.Transfer,
	}
}

// youtubeCommand handles read-only YouTube operations
func youtubeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "youtube",
		Aliases: []string{"yt"},
		Usage:   "YouTube playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List your YouTube playlists",
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
				Action: r.YouTubePlaylists,
			},
			{
				Name:  "items",
				Usage: "List the videos in a playlist with their derived search queries",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.YouTubeItems,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify operations",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search the catalog the way the transfer does",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "title",
					},
					&cli.StringArg{
						Name: "artist",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifySearch,
			},
		},
	}
}

// reportCommand reads the run report.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Inspect recorded transfer runs",
		Commands: []*cli.Command{
			{
				Name:  "runs",
				Usage: "List recorded runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 10,
					},
				},
				Action: r.ReportRuns,
			},
			{
				Name:  "unmatched",
				Usage: "Export the videos that had no Spotify match",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run",
						Usage: "Run ID (default: latest run)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv or markdown",
						Value:   formatter.FormatText,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.ReportUnmatched,
			},
		},
	}
}
