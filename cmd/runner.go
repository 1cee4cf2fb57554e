package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/embyx/internal/artwork"
	"github.com/desertthunder/embyx/internal/cache"
	"github.com/desertthunder/embyx/internal/formatter"
	"github.com/desertthunder/embyx/internal/library"
	"github.com/desertthunder/embyx/internal/mapper"
	"github.com/desertthunder/embyx/internal/server"
	"github.com/desertthunder/embyx/internal/services"
	"github.com/desertthunder/embyx/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	loaded     bool
	nav        server.Navigator
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *formatter.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A non-nil Config is used as is; otherwise it is loaded on first use from
// ConfigPath, the --config flag or the default search locations.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Navigator  server.Navigator
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		loaded:     loaded,
		nav:        opts.Navigator,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    formatter.DefaultPalette,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		browseCommand, lookupCommand, searchCommand, imagesCommand, distinctCommand, exportCommand, serveCommand, configCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves, reads and validates the configuration once.
//
// With no config file anywhere the defaults are used, so a setup driven purely by
// EMBYX_* variables still works.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.loaded {
		return r.config, nil
	}

	explicit := r.configPath
	if explicit == "" {
		explicit = cmd.String("config")
	}

	config := shared.DefaultConfig()
	path, err := shared.FindConfig(explicit)
	switch {
	case err == nil:
		if config, err = shared.LoadConfig(path); err != nil {
			return nil, err
		}
		r.logger.Debug("loaded config", "path", path)
	case errors.Is(err, shared.ErrMissingConfig) && explicit == "":
		r.logger.Debug("no config file found, using defaults and environment")
	default:
		return nil, err
	}

	if err := shared.ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	shared.ConfigureLogger(r.logger, config.Log)
	r.config, r.loaded = config, true
	return config, nil
}

// navigator returns the configured library, building it on first use.
func (r *Runner) navigator(cmd *cli.Command) (server.Navigator, error) {
	if r.nav != nil {
		return r.nav, nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	r.nav = r.buildLibrary(config)
	return r.nav, nil
}

func (r *Runner) buildLibrary(config *shared.Config) *library.Library {
	var c cache.Cache = cache.Noop{}
	if config.Cache.Enabled {
		c = cache.NewMemory(config.Cache.TTL)
	}

	opts := services.OptsFromConfig(config.Emby)
	opts.HTTPClient = r.httpClient
	opts.Cache = c
	opts.Logger = r.logger

	return library.New(library.Opts{
		Service: services.NewEmbyService(opts),
		Mapper:  mapper.New(artwork.NewResolver(config.Emby.Address())),
		Logger:  r.logger,
	})
}

// applyFlags configures output styling from the global flags.
func (r *Runner) applyFlags(cmd *cli.Command) {
	if cmd.Bool("no-color") {
		r.palette = formatter.PlainPalette()
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.ToJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
