package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GTFS_API_BASE_URL", "GTFS_RT_FEED_URL", "GTFS_WEB_LISTEN", "GTFS_API_LISTEN",
		"DATABASE_URL", "TELEMETRY_LISTEN", "LOG_LEVEL", "GTFS_WEB_POLL_SECONDS", "GTFS_API_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
	// .env files are read from the working directory.
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "http://127.0.0.1:5000" || cfg.API.Timeout.Duration != 30*time.Second {
		t.Errorf("unexpected api defaults %+v", cfg.API)
	}
	if cfg.Web.PollSeconds != 2 || cfg.Web.MaxSessions != 512 || cfg.Web.Listen != ":8080" {
		t.Errorf("unexpected web defaults %+v", cfg.Web)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_TomlThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "transit.toml")
	body := `
[api]
base_url = "http://analytics.internal:5000"
timeout = "5s"

[web]
poll_seconds = 4

[serve]
allowed_origins = ["https://dash.example.com"]

[log]
level = "debug"
console = false
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("GTFS_API_BASE_URL", "http://override:5001")
	t.Setenv("GTFS_API_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "http://override:5001" {
		t.Errorf("expected the env override to win, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout.Duration != 5*time.Second || cfg.Web.PollSeconds != 4 {
		t.Errorf("expected toml values, got timeout %s poll %d", cfg.API.Timeout, cfg.Web.PollSeconds)
	}
	if cfg.Web.MaxSessions != 512 {
		t.Errorf("expected unset keys to keep defaults, got %d", cfg.Web.MaxSessions)
	}
	if !reflect.DeepEqual(cfg.Serve.AllowedOrigins, []string{"https://a.example.com", "https://b.example.com"}) {
		t.Errorf("unexpected origins %v", cfg.Serve.AllowedOrigins)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Console {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoad_DotEnvLocalOverrides(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("LOG_LEVEL")

	if err := os.WriteFile(".env", []byte("DATABASE_URL=postgres://env/gtfs\nLOG_LEVEL=warn\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(".env.local", []byte("DATABASE_URL=postgres://local/gtfs\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.URL != "postgres://local/gtfs" || cfg.Log.Level != "warn" {
		t.Errorf("unexpected dotenv result db=%s level=%s", cfg.Database.URL, cfg.Log.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load("does-not-exist.toml", false); err != nil {
		t.Errorf("an optional missing file must fall back to defaults: %v", err)
	}
	if _, err := Load("does-not-exist.toml", true); err == nil {
		t.Errorf("a required missing file must fail")
	}
}

func TestLoad_BadPollSecondsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GTFS_WEB_POLL_SECONDS", "soon")

	if _, err := Load("", false); err == nil || !strings.Contains(err.Error(), "GTFS_WEB_POLL_SECONDS") {
		t.Errorf("expected a poll seconds error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"relative base": func(c *Config) { c.API.BaseURL = "127.0.0.1:5000" },
		"bad feed":      func(c *Config) { c.Realtime.FeedURL = "feed.pb" },
		"zero poll":     func(c *Config) { c.Web.PollSeconds = 0 },
		"no sessions":   func(c *Config) { c.Web.MaxSessions = -1 },
		"zero timeout":  func(c *Config) { c.API.Timeout.Duration = 0 },
		"bad time zone": func(c *Config) { c.Realtime.TimeZone = "Mars/Olympus" },
		"zero interval": func(c *Config) { c.Realtime.PollInterval.Duration = 0 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", name)
		}
	}
}
