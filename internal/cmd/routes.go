package cmd

import (
	"net/url"

	"github.com/spf13/cobra"
)

func NewRoutesCmd(app *GtfsCtlApp) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List every route in the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPanel("routes", nil, flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func NewRouteCmd(app *GtfsCtlApp) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "route <route_id>",
		Short: "Show one route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPanel("route", url.Values{"route_id": {args[0]}}, flags)
		},
	}
	flags.register(cmd)

	return cmd
}
