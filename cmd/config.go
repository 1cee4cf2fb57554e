package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/embyx/internal/shared"
)

const redacted = "********"

// ConfigInit writes the embedded example config to --path or the XDG config dir.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		var err error
		if path, err = shared.DefaultConfigPath(); err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("%s config written to %s\n", r.palette.OK("✓"), path)
}

// ConfigShow prints the effective configuration after env overrides.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	shown := *config
	if shown.Emby.Token != "" {
		shown.Emby.Token = redacted
	}

	if cmd.Bool("json") {
		return r.writeJSON(shown, cmd.Bool("pretty"))
	}
	if err := toml.NewEncoder(r.output).Encode(shown); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
