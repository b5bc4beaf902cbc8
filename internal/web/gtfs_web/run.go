package gtfs_web

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/transit"
)

func Run(cfg Config, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := cfg.Settings
	settings.Log.Component = "gtfs-web"
	log := common.BuildLogger(settings.Log, errOut)

	telemetry := common.NewTelemetryServer(settings.Telemetry.Listen, log)
	if err := telemetry.Start(); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}
	defer telemetry.Stop()
	metrics := common.NewMetrics(telemetry.GetRegistry())

	sources, err := transit.NewSources(settings, log, metrics)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}
	catalog, err := transit.NewCatalog(sources)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}

	server, err := NewGtfsWebServer(ServerOptions{
		ListenAddr:  settings.Web.Listen,
		Catalog:     catalog,
		PollSeconds: settings.Web.PollSeconds,
		MaxSessions: settings.Web.MaxSessions,
		DefaultDate: settings.Web.DefaultDate,
		Location:    sources.Location,
		Log:         log,
		Metrics:     common.NewServerMetrics(telemetry.GetRegistry(), "gtfs-web"),
	})
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}

	server.Serve(ctx)
	return 0
}
