package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tarediiran-industries.com/transit-dashboard/internal/fetch"
)

func NewHealthCmd(app *GtfsCtlApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the transit API and realtime feed answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			var errs []error
			errs = append(errs, app.probe(ctx, "api", app.sources.API, "/"))
			if app.sources.Feed != nil {
				errs = append(errs, app.probe(ctx, "feed", app.sources.Feed, ""))
			}
			return errors.Join(errs...)
		},
	}

	return cmd
}

func (app *GtfsCtlApp) probe(ctx context.Context, name string, client *fetch.Client, path string) error {
	start := time.Now()
	_, err := client.Get(ctx, path, nil)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		fmt.Fprintf(app.Out, "%-5s %s down (%s)\n", name, client.BaseURL(), elapsed)
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Fprintf(app.Out, "%-5s %s ok (%s)\n", name, client.BaseURL(), elapsed)
	return nil
}
