package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newDatedCmd builds a command over a date-keyed analysis panel. When
// variants is non-empty, --show picks the panel among them.
func newDatedCmd(app *GtfsCtlApp, use, short, panelName string, variants map[string]string, defaultVariant string) *cobra.Command {
	var (
		flags   viewFlags
		date    string
		variant string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := panelName
			if len(variants) > 0 {
				chosen, ok := variants[variant]
				if !ok {
					return fmt.Errorf("unknown --show %q", variant)
				}
				name = chosen
			}
			return app.runPanel(name, app.dateParams(date), flags)
		},
	}
	flags.register(cmd)
	dateFlag(cmd, &date)
	if len(variants) > 0 {
		cmd.Flags().StringVar(&variant, "show", defaultVariant, "Which list to print")
	}

	return cmd
}

func NewRouteStatsCmd(app *GtfsCtlApp) *cobra.Command {
	return newDatedCmd(app, "route-stats", "Per-route service statistics for a date", "route_stats", nil, "")
}

func NewTripStatsCmd(app *GtfsCtlApp) *cobra.Command {
	return newDatedCmd(app, "trip-stats", "Trip durations and speeds by time of day or period", "",
		map[string]string{"time-of-day": "trip_stats.time_of_day", "period": "trip_stats.period"}, "time-of-day")
}

func NewFrequentCmd(app *GtfsCtlApp) *cobra.Command {
	return newDatedCmd(app, "frequent", "Most or least frequent routes for a date", "",
		map[string]string{"most": "frequent_routes.most", "least": "frequent_routes.least"}, "most")
}

func NewPeakCmd(app *GtfsCtlApp) *cobra.Command {
	return newDatedCmd(app, "peak", "Routes with the most trips in the peak hours", "peak_hour_traffic", nil, "")
}

func NewEfficiencyCmd(app *GtfsCtlApp) *cobra.Command {
	return newDatedCmd(app, "efficiency", "Most or least efficient routes for a date", "",
		map[string]string{"most": "route_efficiency.most", "least": "route_efficiency.least"}, "most")
}

func NewSpeedCmd(app *GtfsCtlApp) *cobra.Command {
	return newDatedCmd(app, "speed", "Slowest or fastest routes for a date", "",
		map[string]string{"slowest": "route_speed.slowest", "fastest": "route_speed.fastest"}, "slowest")
}

func NewLengthCmd(app *GtfsCtlApp) *cobra.Command {
	return newDatedCmd(app, "length", "Shortest or longest routes for a date", "",
		map[string]string{"shortest": "route_length.shortest", "longest": "route_length.longest"}, "shortest")
}
