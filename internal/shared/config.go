package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// ConfigRelPath is the location of the config file relative to the XDG config home.
const ConfigRelPath = "embyx/config.toml"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Emby   EmbyConfig   `toml:"emby"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// EmbyConfig contains the Emby server address and credentials.
type EmbyConfig struct {
	Hostname       string        `toml:"hostname" env:"EMBYX_HOSTNAME"`
	Port           int           `toml:"port" env:"EMBYX_PORT"`
	Username       string        `toml:"username" env:"EMBYX_USERNAME"`
	UserID         string        `toml:"user_id" env:"EMBYX_USER_ID"`
	Token          string        `toml:"token" env:"EMBYX_TOKEN"`
	DeviceID       string        `toml:"device_id" env:"EMBYX_DEVICE_ID"`
	Client         string        `toml:"client" env:"EMBYX_CLIENT"`
	Version        string        `toml:"version" env:"EMBYX_CLIENT_VERSION"`
	RateLimit      float64       `toml:"rate_limit" env:"EMBYX_RATE_LIMIT"`
	Attempts       int           `toml:"attempts" env:"EMBYX_ATTEMPTS"`
	AttemptTimeout time.Duration `toml:"attempt_timeout" env:"EMBYX_ATTEMPT_TIMEOUT"`
}

// CacheConfig controls response memoization.
type CacheConfig struct {
	Enabled bool          `toml:"enabled" env:"EMBYX_CACHE_ENABLED"`
	TTL     time.Duration `toml:"ttl" env:"EMBYX_CACHE_TTL"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" env:"EMBYX_SERVER_HOST"`
	Port int    `toml:"port" env:"EMBYX_SERVER_PORT"`
}

// LogConfig sets the logger level and output format.
type LogConfig struct {
	Level  string `toml:"level" env:"EMBYX_LOG_LEVEL"`
	Format string `toml:"format" env:"EMBYX_LOG_FORMAT"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the XDG location for the config file, creating parent directories.
func DefaultConfigPath() (string, error) {
	return xdg.ConfigFile(ConfigRelPath)
}

// FindConfig returns the first config file that exists, in order: the explicit path,
// ./config.toml, then the XDG config directories.
//
// An explicit path that does not exist is an error. No file at all yields [ErrMissingConfig].
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s", ErrMissingConfig, explicit)
		}
		return explicit, nil
	}

	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml", nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat config.toml: %w", err)
	}

	if p, err := xdg.SearchConfigFile(ConfigRelPath); err == nil {
		return p, nil
	}
	return "", ErrMissingConfig
}

// ApplyEnv loads an optional .env file from the working directory and overrides
// config values with EMBYX_* environment variables.
func ApplyEnv(config *Config) error {
	_ = godotenv.Load()

	if err := cleanenv.UpdateEnv(config); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate reports the first problem with the Emby settings.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Emby.Hostname) == "":
		return fmt.Errorf("%w: emby.hostname is required", ErrInvalidConfig)
	case c.Emby.Port <= 0 || c.Emby.Port > 65535:
		return fmt.Errorf("%w: emby.port %d out of range", ErrInvalidConfig, c.Emby.Port)
	case c.Emby.UserID == "" && c.Emby.Username == "":
		return fmt.Errorf("%w: one of emby.user_id or emby.username is required", ErrInvalidConfig)
	case c.Emby.Attempts < 0:
		return fmt.Errorf("%w: emby.attempts must not be negative", ErrInvalidConfig)
	case c.Emby.RateLimit < 0:
		return fmt.Errorf("%w: emby.rate_limit must not be negative", ErrInvalidConfig)
	case c.Cache.Enabled && c.Cache.TTL <= 0:
		return fmt.Errorf("%w: cache.ttl must be positive", ErrInvalidConfig)
	}
	return nil
}

// Address joins the configured hostname and port as "{host}:{port}".
//
// The hostname is kept as configured, including any scheme.
func (e EmbyConfig) Address() string {
	return strings.TrimRight(e.Hostname, "/") + ":" + strconv.Itoa(e.Port)
}

// BaseURL is [EmbyConfig.Address] with an http scheme added when none is configured.
func (e EmbyConfig) BaseURL() string {
	addr := e.Address()
	if HasScheme(addr) {
		return addr
	}
	return "http://" + addr
}

// ListenAddr returns the host:port pair the HTTP server binds to.
func (s ServerConfig) ListenAddr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// HasScheme reports whether s starts with an http or https scheme.
func HasScheme(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
