package gtfs_rt

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GTFS_RT_FEED_URL", "DATABASE_URL", "GTFS_API_BASE_URL", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestParseArgs(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseArgs("gtfs-rt-ingest", []string{
		"-feed", "https://feeds.example.test/gtfs-ace",
		"-database", "postgres://localhost/gtfs",
		"-interval", "15s",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Settings.Realtime.PollInterval.Duration != 15*time.Second {
		t.Errorf("expected -interval to override the poll interval, got %s", cfg.Settings.Realtime.PollInterval)
	}
	if cfg.Settings.Database.URL != "postgres://localhost/gtfs" {
		t.Errorf("unexpected database %q", cfg.Settings.Database.URL)
	}
}

func TestParseArgs_RequiresFeedAndDatabase(t *testing.T) {
	clearEnv(t)

	_, err := ParseArgs("gtfs-rt-ingest", nil, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected missing feed and database to be rejected")
	}
	for _, want := range []string{"realtime.feed_url", "database"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
