package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/config"
	"tarediiran-industries.com/transit-dashboard/internal/panel"
	"tarediiran-industries.com/transit-dashboard/internal/transit"
)

type GtfsCtlApp struct {
	ConfigPath string
	APIBaseURL string
	FeedURL    string

	Out    io.Writer
	ErrOut io.Writer

	// Spin runs action while showing title. Tests replace it to run the
	// action inline.
	Spin func(title string, action func())

	settings config.Config
	sources  transit.Sources
	catalog  *panel.Catalog
	log      zerolog.Logger
}

func Execute() error {
	app := &GtfsCtlApp{Out: os.Stdout, ErrOut: os.Stderr}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		app.Spin = spin
	}
	rootCmd := NewRootCmd(app)
	return rootCmd.Execute()
}

func spin(title string, action func()) {
	_ = spinner.New().Title(title).Action(action).Run()
}

func NewRootCmd(app *GtfsCtlApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gtfs-ctl",
		Short:         "Query the transit dashboard panels from a terminal",
		Version:       common.Version + " (" + common.GitCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd.Flags().Changed("toml"))
		},
	}

	cmd.PersistentFlags().StringVar(
		&app.ConfigPath,
		"toml",
		config.DefaultPath,
		"Path to configuration file",
	)
	cmd.PersistentFlags().StringVar(&app.APIBaseURL, "api", "", "Transit API base url, overrides api.base_url")
	cmd.PersistentFlags().StringVar(&app.FeedURL, "feed", "", "GTFS-realtime feed url, overrides realtime.feed_url")

	cmd.AddCommand(NewPanelsCmd(app))
	cmd.AddCommand(NewRoutesCmd(app))
	cmd.AddCommand(NewRouteCmd(app))
	cmd.AddCommand(NewTripsCmd(app))
	cmd.AddCommand(NewTripCmd(app))
	cmd.AddCommand(NewStationsCmd(app))
	cmd.AddCommand(NewCalendarCmd(app))
	cmd.AddCommand(NewRouteStatsCmd(app))
	cmd.AddCommand(NewTripStatsCmd(app))
	cmd.AddCommand(NewFrequentCmd(app))
	cmd.AddCommand(NewPeakCmd(app))
	cmd.AddCommand(NewEfficiencyCmd(app))
	cmd.AddCommand(NewSpeedCmd(app))
	cmd.AddCommand(NewLengthCmd(app))
	cmd.AddCommand(NewPlannerCmd(app))
	cmd.AddCommand(NewDelaysCmd(app))
	cmd.AddCommand(NewArrivalsCmd(app))
	cmd.AddCommand(NewHealthCmd(app))

	return cmd
}

// setup loads configuration and binds the panel catalog. The config file
// only has to exist when --toml was given.
func (app *GtfsCtlApp) setup(explicitConfig bool) error {
	if app.Out == nil {
		app.Out = os.Stdout
	}
	if app.ErrOut == nil {
		app.ErrOut = os.Stderr
	}

	settings, err := config.Load(app.ConfigPath, explicitConfig)
	if err != nil {
		return err
	}
	if app.APIBaseURL != "" {
		settings.API.BaseURL = app.APIBaseURL
	}
	if app.FeedURL != "" {
		settings.Realtime.FeedURL = app.FeedURL
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	settings.Log.Component = "gtfs-ctl"
	// Table output goes to Out; logs stay quiet unless asked for.
	if settings.Log.Level == "info" {
		settings.Log.Level = "warn"
	}
	app.log = common.BuildLogger(settings.Log, app.ErrOut)

	sources, err := transit.NewSources(settings, app.log, nil)
	if err != nil {
		return err
	}
	catalog, err := transit.NewCatalog(sources)
	if err != nil {
		return err
	}

	app.settings = settings
	app.sources = sources
	app.catalog = catalog
	return nil
}

func (app *GtfsCtlApp) wait(title string, action func()) {
	if app.Spin == nil {
		action()
		return
	}
	app.Spin(title, action)
}
