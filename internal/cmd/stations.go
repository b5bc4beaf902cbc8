package cmd

import (
	"github.com/spf13/cobra"
)

func NewStationsCmd(app *GtfsCtlApp) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:     "stops",
		Aliases: []string{"stations"},
		Short:   "List stops and stations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPanel("stops", nil, flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func NewCalendarCmd(app *GtfsCtlApp) *cobra.Command {
	var flags viewFlags
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "List service calendars and the weekdays they run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runPanel("calendar_dates", nil, flags)
		},
	}
	flags.register(cmd)

	return cmd
}
