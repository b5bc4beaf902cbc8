package gtfs_static

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

	// Toml config path. ingest.default_url and database.url fill in
	// whichever of -url and -database was not given.
	TomlConfigPath string

	// Input args - either can accept from zip or url (but not both)
	ZipPath string
	Url     string

	// Output args - either can dry-run or write to a database connection
	DryRun             bool
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
	fs.StringVar(&cfg.ZipPath, "zip", "", "Path to zip file for offline ingest")
	fs.StringVar(&cfg.Url, "url", "", "GTFS zip URL for online ingest, defaults to ingest.default_url")

	fs.BoolVar(&cfg.DryRun, "dry-run", false, "If specified, shows what would be ingested without performing any DB writes")
	fs.StringVar(&cfg.DatabaseConnection, "database", "", "Target database URL, defaults to database.url")

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
	cfg.Settings = settings

	if cfg.ZipPath == "" && cfg.Url == "" {
		cfg.Url = settings.Ingest.DefaultURL
	}
	if !cfg.DryRun && cfg.DatabaseConnection == "" {
		cfg.DatabaseConnection = settings.Database.URL
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	hasZipPath := cfg.ZipPath != ""
	hasUrl := cfg.Url != ""
	if hasZipPath == hasUrl {
		return fmt.Errorf("exactly one of -zip or -url must be specified")
	}

	hasDatabaseConnection := cfg.DatabaseConnection != ""
	if hasDatabaseConnection == cfg.DryRun {
		return fmt.Errorf("exactly one of -dry-run or -database must be specified")
	}

	return nil
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
