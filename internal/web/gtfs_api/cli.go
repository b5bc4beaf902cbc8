package gtfs_api

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/config"
)

type Config struct {
	Version bool

	TomlConfigPath     string
	ListenAddress      string
	DatabaseConnection string

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
	fs.StringVar(&cfg.ListenAddress, "listen", "", "API listen address, overrides serve.listen")
	fs.StringVar(&cfg.DatabaseConnection, "database", "", "Database URL, overrides database.url")

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
	if cfg.ListenAddress != "" {
		settings.Serve.Listen = cfg.ListenAddress
	}
	if cfg.DatabaseConnection != "" {
		settings.Database.URL = cfg.DatabaseConnection
	}
	cfg.Settings = settings

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	var errs []error
	if cfg.Settings.Serve.Listen == "" {
		errs = append(errs, fmt.Errorf("serve.listen must be set"))
	}
	if cfg.Settings.Database.URL == "" {
		errs = append(errs, fmt.Errorf("database.url must be set (or DATABASE_URL, or -database)"))
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

	return Run(cfg, errOut)
}
