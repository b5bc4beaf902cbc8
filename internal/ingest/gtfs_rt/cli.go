package gtfs_rt

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/config"
)

type Config struct {
	Version            bool
	TomlConfigPath     string
	FeedURL            string
	DatabaseConnection string
	Interval           time.Duration
	// Once takes a single snapshot and exits.
	Once bool

	Settings config.Config
}

func ParseArgs(programName string, args []string, errOut io.Writer) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: %s [options]\n\n", programName)
		fmt.Fprintln(errOut, "Options")
		fs.PrintDefaults()
	}

	fs.BoolVar(&cfg.Version, "version", false, "Prints CLI version")
	fs.StringVar(&cfg.TomlConfigPath, "toml", "", "Config file (defaults to "+config.DefaultPath+" when present)")
	fs.StringVar(&cfg.FeedURL, "feed", "", "GTFS-realtime feed url, overrides realtime.feed_url")
	fs.StringVar(&cfg.DatabaseConnection, "database", "", "Database URL, overrides database.url")
	fs.DurationVar(&cfg.Interval, "interval", 0, "Time between samples, overrides realtime.poll_interval")
	fs.BoolVar(&cfg.Once, "once", false, "Take one snapshot and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Version {
		fmt.Fprintf(errOut, "%s: version %s (%s)\n", programName, common.Version, common.GitCommit)
		return Config{}, flag.ErrHelp
	}

	path, explicit := cfg.TomlConfigPath, cfg.TomlConfigPath != ""
	if !explicit {
		path = config.DefaultPath
	}
	settings, err := config.Load(path, explicit)
	if err != nil {
		return Config{}, err
	}
	if cfg.FeedURL != "" {
		settings.Realtime.FeedURL = cfg.FeedURL
	}
	if cfg.DatabaseConnection != "" {
		settings.Database.URL = cfg.DatabaseConnection
	}
	if cfg.Interval != 0 {
		settings.Realtime.PollInterval = config.Duration{Duration: cfg.Interval}
	}
	cfg.Settings = settings

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	var errs []error
	if cfg.Settings.Realtime.FeedURL == "" {
		errs = append(errs, fmt.Errorf("need a realtime feed url, set realtime.feed_url or pass -feed"))
	}
	if cfg.Settings.Database.URL == "" {
		errs = append(errs, fmt.Errorf("missing required argument: database"))
	}
	if err := cfg.Settings.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func Main(programName string, args []string, stdOut, errOut io.Writer) int {
	cfg, err := ParseArgs(programName, args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}

	return Run(cfg, stdOut, errOut)
}
