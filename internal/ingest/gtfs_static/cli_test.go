package gtfs_static

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestParseArgs_DefaultsFromConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ingest.toml")
	body := "[ingest]\ndefault_url = \"http://example.test/gtfs.zip\"\n[database]\nurl = \"postgres://localhost/gtfs\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseArgs("gtfs-ingest", []string{"-toml", path}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Url != "http://example.test/gtfs.zip" || cfg.DatabaseConnection != "postgres://localhost/gtfs" {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	cfg, err = ParseArgs("gtfs-ingest", []string{"-toml", path, "-zip", "feed.zip", "-dry-run"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Url != "" || cfg.DatabaseConnection != "" {
		t.Errorf("explicit -zip and -dry-run must not pick up defaults: %+v", cfg)
	}
}

func TestParseArgs_Validation(t *testing.T) {
	clearEnv(t)

	cases := [][]string{
		{"-database", "postgres://x"},
		{"-zip", "a.zip", "-url", "http://b", "-dry-run"},
		{"-zip", "a.zip"},
		{"-zip", "a.zip", "-dry-run", "-database", "postgres://x"},
	}
	for _, args := range cases {
		if _, err := ParseArgs("gtfs-ingest", args, &bytes.Buffer{}); err == nil {
			t.Errorf("expected %v to be rejected", args)
		}
	}

	if _, err := ParseArgs("gtfs-ingest", []string{"-version"}, &bytes.Buffer{}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected -version to stop with ErrHelp, got %v", err)
	}
}
