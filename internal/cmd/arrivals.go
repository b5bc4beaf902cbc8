package cmd

import (
	"errors"
	"fmt"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var errNoFeed = errors.New("no realtime feed configured, set realtime.feed_url or pass --feed")

func NewArrivalsCmd(app *GtfsCtlApp) *cobra.Command {
	var (
		flags viewFlags
		dump  bool
	)
	cmd := &cobra.Command{
		Use:     "live",
		Aliases: []string{"arrivals"},
		Short:   "Show live trip updates from the GTFS-realtime feed",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.sources.Feed == nil {
				return errNoFeed
			}
			if dump {
				return app.dumpFeed(cmd)
			}
			return app.runPanel("live_trips", nil, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the raw feed message as JSON")

	return cmd
}

func (app *GtfsCtlApp) dumpFeed(cmd *cobra.Command) error {
	var (
		body []byte
		err  error
	)
	app.wait("Fetching the realtime feed...", func() {
		body, err = app.sources.Feed.Get(cmd.Context(), "", nil)
	})
	if err != nil {
		return err
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return fmt.Errorf("decode feed: %w", err)
	}

	options := protojson.MarshalOptions{Multiline: true}
	jsonBytes, err := options.Marshal(feed)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Out, string(jsonBytes))
	return nil
}
