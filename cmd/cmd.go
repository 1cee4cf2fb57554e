// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/embyx/internal/formatter"
)

// app builds the root command with the global flags shared by every subcommand.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "embyx",
		Usage:   "Browse, search and serve an Emby music library",
		Version: "0.1.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: ./config.toml, then the XDG config dir)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			r.applyFlags(cmd)
			return ctx, nil
		},
		Commands: r.register(),
	}
}

func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Aliases:   []string{"ls"},
		Usage:     "List the children of a directory uri (default: the root)",
		ArgsUsage: "[uri]",
		Action:    r.Browse,
	}
}

func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Resolve track, album or artist uris to tracks",
		ArgsUsage: "<uri>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the tracks of every uri to this file instead of stdout",
			},
		},
		Action: r.Lookup,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search artists, albums and tracks (use _____ as --artist or --album to list all)",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "any",
				Usage: "Match any item type",
			},
			&cli.StringSliceFlag{
				Name:  "artist",
				Usage: "Match artists",
			},
			&cli.StringSliceFlag{
				Name:  "album",
				Usage: "Match albums",
			},
			&cli.StringSliceFlag{
				Name:  "track",
				Usage: "Match track names",
			},
		},
		Action: r.Search,
	}
}

func imagesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "images",
		Usage:     "Print sized artwork urls for uris",
		ArgsUsage: "<uri>...",
		Action:    r.Images,
	}
}

func distinctCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "distinct",
		Usage:     "List distinct artist or album names",
		ArgsUsage: "<artist|album>",
		Action:    r.Distinct,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the library as JSON over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Create and inspect the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination (default: the XDG config dir)",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets redacted",
				Action: r.ConfigShow,
			},
		},
	}
}
