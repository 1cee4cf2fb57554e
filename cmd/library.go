package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/embyx/internal/formatter"
	"github.com/desertthunder/embyx/internal/library"
	"github.com/desertthunder/embyx/internal/models"
	"github.com/desertthunder/embyx/internal/shared"
	"github.com/desertthunder/embyx/internal/uri"
)

// Browse lists the children of the given uri, or of the root when none is given.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	nav, err := r.navigator(cmd)
	if err != nil {
		return err
	}

	u := cmd.Args().First()
	if u == "" {
		u = uri.Root
	}

	refs, err := nav.Browse(ctx, u)
	if err != nil {
		return fmt.Errorf("failed to browse %s: %w", u, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(refs, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.RefsToText(u, refs, r.palette))
}

// Lookup resolves every uri argument to tracks.
//
// With --out all tracks are written to one file in the chosen format.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	uris := cmd.Args().Slice()
	if len(uris) == 0 {
		return fmt.Errorf("%w: at least one uri", shared.ErrMissingArgument)
	}

	nav, err := r.navigator(cmd)
	if err != nil {
		return err
	}

	byURI, err := nav.LookupMany(ctx, uris)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(byURI, cmd.Bool("pretty"))
	}

	format := cmd.String("format")
	if out := cmd.String("out"); out != "" {
		all := []models.Track{}
		for _, u := range uris {
			all = append(all, byURI[u]...)
		}

		if err := formatter.WriteTracksExport(uris[0], all, format, out); err != nil {
			return err
		}
		r.logger.Info("exported tracks", "count", len(all), "path", out)
		return r.writePlain("%s %d tracks written to %s\n", r.palette.OK("✓"), len(all), out)
	}

	for _, u := range uris {
		tracks := byURI[u]
		if len(tracks) == 0 {
			if err := r.writePlain("%s no tracks for %s\n", r.palette.Warn("⚠"), u); err != nil {
				return err
			}
			continue
		}

		var data []byte
		if format == formatter.FormatText || format == "" {
			data = formatter.TracksToText(u, tracks, r.palette)
		} else if data, err = formatter.ExportTracks(u, tracks, format); err != nil {
			return err
		}
		if err := r.writeBytes(data); err != nil {
			return err
		}
	}
	return nil
}

// Search runs a query assembled from the --any, --artist, --album and --track flags.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	q := library.Query{}
	for flag, field := range map[string]string{
		"any":    "any",
		"artist": "artist",
		"album":  "album",
		"track":  "track_name",
	} {
		if terms := cmd.StringSlice(flag); len(terms) > 0 {
			q[field] = terms
		}
	}
	if len(q) == 0 {
		return fmt.Errorf("%w: one of --any, --artist, --album or --track", shared.ErrMissingArgument)
	}

	nav, err := r.navigator(cmd)
	if err != nil {
		return err
	}

	res, err := nav.Search(ctx, q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.SearchToText(res, r.palette))
}

// Images prints the sized artwork of every uri argument.
func (r *Runner) Images(ctx context.Context, cmd *cli.Command) error {
	uris := cmd.Args().Slice()
	if len(uris) == 0 {
		return fmt.Errorf("%w: at least one uri", shared.ErrMissingArgument)
	}

	nav, err := r.navigator(cmd)
	if err != nil {
		return err
	}

	images, err := nav.Images(ctx, uris)
	if err != nil {
		return fmt.Errorf("failed to resolve images: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(images, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.ImagesToText(images, r.palette))
}

// Distinct lists distinct artist or album names.
func (r *Runner) Distinct(ctx context.Context, cmd *cli.Command) error {
	field := cmd.Args().First()
	if field == "" {
		return fmt.Errorf("%w: field (artist or album)", shared.ErrMissingArgument)
	}

	nav, err := r.navigator(cmd)
	if err != nil {
		return err
	}

	values, err := nav.Distinct(ctx, field)
	if err != nil {
		return fmt.Errorf("failed to list distinct %s: %w", field, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(values, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.LinesToText(values))
}
