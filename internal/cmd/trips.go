package cmd

import (
	"net/url"

	"github.com/spf13/cobra"
)

func NewTripsCmd(app *GtfsCtlApp) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "List scheduled trips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPanel("trips", nil, flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func NewTripCmd(app *GtfsCtlApp) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "trip <trip_id>",
		Short: "Show one trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPanel("trip", url.Values{"trip_id": {args[0]}}, flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func NewPlannerCmd(app *GtfsCtlApp) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "planner <start stop> <end stop>",
		Short: "Find trips that serve both stops",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{
				"start_stop_name": {args[0]},
				"end_stop_name":   {args[1]},
			}
			return app.runPanel("trips_between_stops", params, flags)
		},
	}
	flags.register(cmd)

	return cmd
}
