package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/embyx/internal/formatter"
	"github.com/desertthunder/embyx/internal/shared"
	"github.com/desertthunder/embyx/internal/tasks"
)

// Export writes one file per uri argument and a manifest to the output directory.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	uris := cmd.Args().Slice()
	if len(uris) == 0 {
		return fmt.Errorf("%w: at least one uri", shared.ErrMissingArgument)
	}

	nav, err := r.navigator(cmd)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := tasks.NewExporter(nav, r.logger).BulkExport(ctx, progress, uris, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	for _, res := range result.Results {
		if res.Success {
			r.writePlain("%s %s (%d tracks) → %s\n", r.palette.OK("✓"), res.Name, res.Tracks, res.File)
		} else {
			r.writePlain("%s %s: %s\n", r.palette.Err("✗"), res.URI, res.Message)
		}
	}
	return r.writePlain("%d/%d exported, manifest at %s\n", result.Successful, result.Total, result.ManifestPath)
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the tracks of many uris to files in a directory",
		ArgsUsage: "<uri>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: text, csv, markdown or json",
				Value:   formatter.FormatJSON,
			},
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory (default: emby_export_{epoch})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file writers",
				Value: 4,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Lookups per second",
				Value: 5,
			},
		},
		Action: r.Export,
	}
}
