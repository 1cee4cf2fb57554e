package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Emby.Hostname != "localhost" {
			t.Errorf("expected hostname localhost, got %s", config.Emby.Hostname)
		}

		if config.Emby.Port != 8096 {
			t.Errorf("expected emby port 8096, got %d", config.Emby.Port)
		}

		if config.Emby.Attempts != 6 {
			t.Errorf("expected 6 attempts, got %d", config.Emby.Attempts)
		}

		if config.Emby.AttemptTimeout != 10*time.Second {
			t.Errorf("expected attempt timeout 10s, got %s", config.Emby.AttemptTimeout)
		}

		if !config.Cache.Enabled || config.Cache.TTL != 5*time.Minute {
			t.Errorf("expected enabled cache with 5m ttl, got %v %s", config.Cache.Enabled, config.Cache.TTL)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Log.Level != "info" {
			t.Errorf("expected log level info, got %s", config.Log.Level)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if *config != *DefaultConfig() {
			t.Errorf("created config doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[emby]
hostname = "https://media.example.com"
port = 8920
user_id = "u-1"
token = "secret"
attempt_timeout = "2s"

[cache]
ttl = "1m"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Emby.Hostname != "https://media.example.com" {
			t.Errorf("expected hostname https://media.example.com, got %s", config.Emby.Hostname)
		}

		if config.Emby.AttemptTimeout != 2*time.Second {
			t.Errorf("expected attempt timeout 2s, got %s", config.Emby.AttemptTimeout)
		}

		if config.Cache.TTL != time.Minute {
			t.Errorf("expected cache ttl 1m, got %s", config.Cache.TTL)
		}

		if config.Emby.Attempts != 6 {
			t.Errorf("missing keys should keep defaults, got attempts %d", config.Emby.Attempts)
		}

		if config.Server.Port != 3000 {
			t.Errorf("missing sections should keep defaults, got port %d", config.Server.Port)
		}
	})

	t.Run("LoadConfig with invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[emby\nport = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("ApplyEnv overrides values", func(t *testing.T) {
		t.Setenv("EMBYX_HOSTNAME", "emby.lan")
		t.Setenv("EMBYX_PORT", "9000")
		t.Setenv("EMBYX_TOKEN", "env-token")
		t.Setenv("EMBYX_CACHE_TTL", "30s")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.Emby.Hostname != "emby.lan" || config.Emby.Port != 9000 {
			t.Errorf("expected emby.lan:9000, got %s", config.Emby.Address())
		}

		if config.Emby.Token != "env-token" {
			t.Errorf("expected env token, got %s", config.Emby.Token)
		}

		if config.Cache.TTL != 30*time.Second {
			t.Errorf("expected ttl 30s, got %s", config.Cache.TTL)
		}

		if config.Emby.Client != "other" {
			t.Errorf("unset variables should not change values, got client %s", config.Emby.Client)
		}
	})

	t.Run("FindConfig", func(t *testing.T) {
		t.Run("explicit path", func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "embyx.toml")
			if err := CreateConfigFile(configPath); err != nil {
				t.Fatalf("failed to create config file: %v", err)
			}

			got, err := FindConfig(configPath)
			if err != nil || got != configPath {
				t.Errorf("FindConfig() = %s, %v", got, err)
			}
		})

		t.Run("missing explicit path", func(t *testing.T) {
			_, err := FindConfig(filepath.Join(t.TempDir(), "nope.toml"))
			if !errors.Is(err, ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("working directory", func(t *testing.T) {
			dir := t.TempDir()
			if err := CreateConfigFile(filepath.Join(dir, "config.toml")); err != nil {
				t.Fatalf("failed to create config file: %v", err)
			}
			t.Chdir(dir)

			got, err := FindConfig("")
			if err != nil || got != "config.toml" {
				t.Errorf("FindConfig() = %s, %v", got, err)
			}
		})
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Emby.UserID = "u-1"
		return c
	}

	tc := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "username instead of id", mutate: func(c *Config) { c.Emby.UserID = ""; c.Emby.Username = "me" }},
		{name: "missing hostname", mutate: func(c *Config) { c.Emby.Hostname = " " }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.Emby.Port = 70000 }, wantErr: true},
		{name: "no user", mutate: func(c *Config) { c.Emby.UserID = "" }, wantErr: true},
		{name: "negative rate limit", mutate: func(c *Config) { c.Emby.RateLimit = -1 }, wantErr: true},
		{name: "zero ttl with cache on", mutate: func(c *Config) { c.Cache.TTL = 0 }, wantErr: true},
		{name: "zero ttl with cache off", mutate: func(c *Config) { c.Cache.TTL = 0; c.Cache.Enabled = false }},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEmbyAddress(t *testing.T) {
	tc := []struct {
		hostname string
		address  string
		baseURL  string
	}{
		{"h", "h:8096", "http://h:8096"},
		{"http://h", "http://h:8096", "http://h:8096"},
		{"https://h/", "https://h:8096", "https://h:8096"},
	}

	for _, tt := range tc {
		t.Run(tt.hostname, func(t *testing.T) {
			e := EmbyConfig{Hostname: tt.hostname, Port: 8096}
			if got := e.Address(); got != tt.address {
				t.Errorf("Address() = %s, want %s", got, tt.address)
			}
			if got := e.BaseURL(); got != tt.baseURL {
				t.Errorf("BaseURL() = %s, want %s", got, tt.baseURL)
			}
		})
	}
}
