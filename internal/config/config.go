// Package config loads the TOML configuration shared by every binary and
// applies environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	// Time zones resolve even on hosts without a zoneinfo database.
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"tarediiran-industries.com/transit-dashboard/internal/common"
)

const DefaultPath = "config/transit.dev.toml"

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type APIConfig struct {
	BaseURL   string   `toml:"base_url"`
	Timeout   Duration `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
}

type RealtimeConfig struct {
	FeedURL      string   `toml:"feed_url"`
	TimeZone     string   `toml:"time_zone"`
	PollInterval Duration `toml:"poll_interval"`
}

type WebConfig struct {
	Listen      string `toml:"listen"`
	PollSeconds int    `toml:"poll_seconds"`
	MaxSessions int    `toml:"max_sessions"`
	DefaultDate string `toml:"default_date"`
}

type ServeConfig struct {
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
	CacheMaxAge    Duration `toml:"cache_max_age"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type TelemetryConfig struct {
	Listen string `toml:"listen"`
}

type IngestConfig struct {
	DefaultURL string `toml:"default_url"`
}

type Config struct {
	API       APIConfig        `toml:"api"`
	Realtime  RealtimeConfig   `toml:"realtime"`
	Web       WebConfig        `toml:"web"`
	Serve     ServeConfig      `toml:"serve"`
	Database  DatabaseConfig   `toml:"database"`
	Telemetry TelemetryConfig  `toml:"telemetry"`
	Ingest    IngestConfig     `toml:"ingest"`
	Log       common.LogConfig `toml:"log"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:5000",
			Timeout:   Duration{30 * time.Second},
			UserAgent: "transit-dashboard/" + common.Version,
		},
		Realtime: RealtimeConfig{
			TimeZone:     "America/New_York",
			PollInterval: Duration{30 * time.Second},
		},
		Web: WebConfig{
			Listen:      ":8080",
			PollSeconds: 2,
			MaxSessions: 512,
		},
		Serve: ServeConfig{
			Listen:         ":5000",
			AllowedOrigins: []string{"http://localhost:8080", "http://localhost:3000"},
			CacheMaxAge:    Duration{5 * time.Minute},
		},
		Telemetry: TelemetryConfig{Listen: ":9090"},
		Log:       common.LogConfig{Level: "info", Console: true},
	}
}

// Load reads path over the defaults, then .env files and the environment.
// A missing file is only an error when mustExist is set.
func Load(path string, mustExist bool) (Config, error) {
	cfg := Default()

	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !mustExist:
		case err != nil:
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	LoadDotEnv()
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env, then lets .env.local override it. Variables
// already set in the process win over .env but not over .env.local.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
}

func (cfg *Config) ApplyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setString("GTFS_API_BASE_URL", &cfg.API.BaseURL)
	setString("GTFS_RT_FEED_URL", &cfg.Realtime.FeedURL)
	setString("GTFS_WEB_LISTEN", &cfg.Web.Listen)
	setString("GTFS_API_LISTEN", &cfg.Serve.Listen)
	setString("DATABASE_URL", &cfg.Database.URL)
	setString("TELEMETRY_LISTEN", &cfg.Telemetry.Listen)
	setString("LOG_LEVEL", &cfg.Log.Level)

	if v, ok := os.LookupEnv("GTFS_WEB_POLL_SECONDS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GTFS_WEB_POLL_SECONDS: %w", err)
		}
		cfg.Web.PollSeconds = n
	}
	if v, ok := os.LookupEnv("GTFS_API_ALLOWED_ORIGINS"); ok && v != "" {
		cfg.Serve.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func checkHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute http(s) url", name, raw)
	}
	return nil
}

// Validate checks the settings every binary relies on. Binary-specific
// requirements such as a database url are checked where they are used.
func (cfg Config) Validate() error {
	var errs []error
	if err := checkHTTPURL("api.base_url", cfg.API.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if cfg.Realtime.FeedURL != "" {
		if err := checkHTTPURL("realtime.feed_url", cfg.Realtime.FeedURL); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := time.LoadLocation(cfg.Realtime.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("realtime.time_zone: %w", err))
	}
	if cfg.API.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive"))
	}
	if cfg.Realtime.PollInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("realtime.poll_interval must be positive"))
	}
	if cfg.Web.PollSeconds <= 0 {
		errs = append(errs, fmt.Errorf("web.poll_seconds must be positive, got %d", cfg.Web.PollSeconds))
	}
	if cfg.Web.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("web.max_sessions must be positive, got %d", cfg.Web.MaxSessions))
	}
	return errors.Join(errs...)
}

func (cfg Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Realtime.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
