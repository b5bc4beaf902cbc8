package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var delayViews = map[string]string{
	"routes":       "route_delays",
	"distribution": "delay_distribution",
	"origins":      "delayed_origins",
}

func NewDelaysCmd(app *GtfsCtlApp) *cobra.Command {
	var (
		flags viewFlags
		show  string
	)
	cmd := &cobra.Command{
		Use:   "delays",
		Short: "Delay analysis by route, or where the delay artifacts were written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := delayViews[show]
			if !ok {
				return fmt.Errorf("unknown --show %q, expected one of routes|distribution|origins", show)
			}
			return app.runPanel(name, nil, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&show, "show", "routes", "One of routes|distribution|origins")

	return cmd
}
