package gtfs_api

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/db"
)

func Run(cfg Config, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := cfg.Settings
	settings.Log.Component = "gtfs-api"
	log := common.BuildLogger(settings.Log, errOut)

	telemetry := common.NewTelemetryServer(settings.Telemetry.Listen, log)
	if err := telemetry.Start(); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}
	defer telemetry.Stop()

	database, err := db.NewDatabaseConnection(ctx, settings.Database.URL, log)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}
	defer database.Close()

	server, err := NewGtfsApiServer(ServerOptions{
		ListenAddr:     settings.Serve.Listen,
		Repository:     NewPgRepository(database.Pool()),
		AllowedOrigins: settings.Serve.AllowedOrigins,
		CacheMaxAge:    settings.Serve.CacheMaxAge.Duration,
		Log:            log,
		Metrics:        common.NewServerMetrics(telemetry.GetRegistry(), "gtfs-api"),
	})
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}

	server.Serve(ctx)
	return 0
}
