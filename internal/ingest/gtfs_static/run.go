package gtfs_static

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/db"
	"tarediiran-industries.com/transit-dashboard/internal/ingest"
)

// UnzipToTempDir extracts the feed files of the archive into a new
// temporary directory. Feeds zipped inside a single folder are accepted;
// files the loader does not know are skipped.
func UnzipToTempDir(zipPath string, log zerolog.Logger) (string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	dir, err := os.MkdirTemp("", "gtfs-ingest-*")
	if err != nil {
		return "", err
	}

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		name := filepath.Base(file.Name)
		if !ingest.IsFeedFile(name) {
			log.Debug().Str("file", file.Name).Msg("skipping unrecognized file")
			continue
		}

		bytesWritten, err := extractFile(file, filepath.Join(dir, name))
		if err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("extract %s: %w", file.Name, err)
		}
		log.Debug().Str("file", name).Int64("bytes", bytesWritten).Msg("extracted")
	}

	log.Info().Str("zip", zipPath).Str("dir", dir).Msg("feed extracted")
	return dir, nil
}

func extractFile(file *zip.File, dstPath string) (int64, error) {
	fileInArchive, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer fileInArchive.Close()

	dstFile, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	bytesWritten, err := io.Copy(dstFile, fileInArchive)
	if closeErr := dstFile.Close(); err == nil {
		err = closeErr
	}
	return bytesWritten, err
}

func DownloadToTempFile(ctx context.Context, url, userAgent string, log zerolog.Logger) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	if userAgent != "" {
		request.Header.Set("User-Agent", userAgent)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: %s", url, response.Status)
	}

	tmpFile, err := os.CreateTemp("", "gtfs-ingest-*.zip")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	bytesWritten, err := io.Copy(tmpFile, response.Body)
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to write downloaded file to temp location: %w", err)
	}

	log.Info().Str("url", url).Str("file", tmpFile.Name()).Int64("bytes", bytesWritten).Msg("feed downloaded")
	return tmpFile.Name(), nil
}

func printPlan(out io.Writer, reports []ingest.FileReport) {
	for _, report := range reports {
		fmt.Fprintf(out, "%-20s -> %-15s %9d rows  columns: %s\n",
			report.FileName, report.Table, report.Rows, strings.Join(report.Columns, ","))
		if len(report.Ignored) > 0 {
			fmt.Fprintf(out, "%-20s    ignored: %s\n", "", strings.Join(report.Ignored, ","))
		}
	}
}

func printLoaded(out io.Writer, reports []ingest.FileReport) {
	var total int64
	for _, report := range reports {
		fmt.Fprintf(out, "%-15s %9d rows\n", report.Table, report.Rows)
		total += report.Rows
	}
	fmt.Fprintf(out, "%-15s %9d rows\n", "total", total)
}

// ingestFeed takes the feed from cfg to its destination. open is only
// called for a real load.
func ingestFeed(ctx context.Context, cfg Config, stdOut io.Writer, log zerolog.Logger, open func(context.Context) (ingest.Target, func() error, error)) error {
	zipPath := cfg.ZipPath
	if cfg.Url != "" {
		downloaded, err := DownloadToTempFile(ctx, cfg.Url, cfg.Settings.API.UserAgent, log)
		if err != nil {
			return err
		}
		defer os.Remove(downloaded)
		zipPath = downloaded
	}

	dir, err := UnzipToTempDir(zipPath, log)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	if err := ingest.ValidateGtfsDirectory(dir); err != nil {
		return err
	}

	if cfg.DryRun {
		reports, err := common.RuntimeBenchmark(log, "plan", func() ([]ingest.FileReport, error) {
			return ingest.PlanGtfsDirectory(dir)
		})
		if err != nil {
			return err
		}
		printPlan(stdOut, reports)
		return nil
	}

	target, closeTarget, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeTarget()

	bench := common.NewBenchmarker(log, "ingest")
	defer bench.Close()

	reports, err := ingest.LoadGtfsFromDirectory(ctx, dir, target, log)
	if err != nil {
		return err
	}
	printLoaded(stdOut, reports)
	return nil
}

func Run(cfg Config, stdOut, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := cfg.Settings
	settings.Log.Component = "gtfs-ingest"
	log := common.BuildLogger(settings.Log, errOut)

	open := func(ctx context.Context) (ingest.Target, func() error, error) {
		database, err := db.NewDatabaseConnection(ctx, cfg.DatabaseConnection, log)
		if err != nil {
			return nil, nil, err
		}
		return database, database.Close, nil
	}

	if err := ingestFeed(ctx, cfg, stdOut, log, open); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return -1
	}
	return 0
}
