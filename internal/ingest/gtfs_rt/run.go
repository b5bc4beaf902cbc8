package gtfs_rt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/db"
	"tarediiran-industries.com/transit-dashboard/internal/transit"
)

func Run(cfg Config, stdOut, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := cfg.Settings
	settings.Log.Component = "gtfs-rt-ingest"
	log := common.BuildLogger(settings.Log, errOut)

	listen := settings.Telemetry.Listen
	if cfg.Once {
		listen = ""
	}
	telemetry := common.NewTelemetryServer(listen, log)
	if err := telemetry.Start(); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}
	defer telemetry.Stop()

	sources, err := transit.NewSources(settings, log, common.NewMetrics(telemetry.GetRegistry()))
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}

	database, err := db.NewDatabaseConnection(ctx, settings.Database.URL, log)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}
	defer database.Close()

	store, err := NewPgSnapshotStore(ctx, database.Pool())
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}

	watcher := NewGtfsRtWatcher(sources.Feed, store, settings.Realtime.PollInterval.Duration, log)
	if cfg.Once {
		snapshotId, err := watcher.SampleEndpoint(ctx)
		if err != nil {
			fmt.Fprintln(errOut, "Error:", err)
			return -1
		}
		fmt.Fprintf(stdOut, "snapshot %d\n", snapshotId)
		return 0
	}

	if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}
	log.Info().Msg("finished")
	return 0
}
