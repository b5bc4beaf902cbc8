package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/common"
	"tarediiran-industries.com/transit-dashboard/internal/db"
)

// Target is where a feed is loaded. *db.Database satisfies it.
type Target interface {
	db.DBTX
	db.CopyCapable
	EnsureTable(ctx context.Context, table db.Table) error
	Truncate(ctx context.Context, table db.Table) error
}

type Loader func(ctx context.Context, target Target, filePath string, table db.Table) (int64, error)

type FileTableEntry struct {
	FileName string
	Table    db.Table
	Required bool
	Loader   Loader
}

// Small files go through INSERT, the large ones through COPY.
var FileTableMapping = []FileTableEntry{
	{FileName: "agency.txt", Table: db.AgencyTable, Required: true, Loader: loadGeneric},
	{FileName: "routes.txt", Table: db.RoutesTable, Required: true, Loader: loadGeneric},
	{FileName: "trips.txt", Table: db.TripsTable, Required: true, Loader: loadGenericCopy},
	{FileName: "stops.txt", Table: db.StopsTable, Required: true, Loader: loadGenericCopy},
	{FileName: "stop_times.txt", Table: db.StopTimesTable, Required: true, Loader: loadGenericCopy},
	{FileName: "calendar.txt", Table: db.CalendarTable, Required: true, Loader: loadGeneric},
	{FileName: "calendar_dates.txt", Table: db.CalendarDatesTable, Required: true, Loader: loadGeneric},
	{FileName: "shapes.txt", Table: db.ShapesTable, Required: false, Loader: loadGenericCopy},
	{FileName: "transfers.txt", Table: db.TransfersTable, Required: false, Loader: loadGeneric},
}

func RequiredFiles() []string {
	var files []string
	for _, entry := range FileTableMapping {
		if entry.Required {
			files = append(files, entry.FileName)
		}
	}
	return files
}

// IsFeedFile reports whether name is one of the files the loader knows.
func IsFeedFile(name string) bool {
	for _, entry := range FileTableMapping {
		if entry.FileName == name {
			return true
		}
	}
	return false
}

// csvSource reads a feed file and keeps only the columns the table stores.
type csvSource struct {
	file    *os.File
	reader  *csv.Reader
	columns []string
	indexes []int
	ignored []string
}

func openCSV(filePath string, table db.Table) (*csvSource, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(file)
	reader.ReuseRecord = true
	headers, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: read header: %w", filepath.Base(filePath), err)
	}

	source := &csvSource{file: file, reader: reader}
	for i, header := range headers {
		name := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if !table.Has(name) {
			source.ignored = append(source.ignored, name)
			continue
		}
		source.columns = append(source.columns, name)
		source.indexes = append(source.indexes, i)
	}
	if len(source.columns) == 0 {
		file.Close()
		return nil, fmt.Errorf("%s: no %s columns in header", filepath.Base(filePath), table.Name)
	}
	return source, nil
}

// next returns the projected values of the next row, or io.EOF.
func (source *csvSource) next(dst []string) ([]string, error) {
	row, err := source.reader.Read()
	if err != nil {
		return nil, err
	}
	dst = dst[:0]
	for _, i := range source.indexes {
		dst = append(dst, row[i])
	}
	return dst, nil
}

func (source *csvSource) Close() error {
	return source.file.Close()
}

func buildInsertQuery(tableName string, columns []string, row []string) (string, []any) {
	keys := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	values := make([]any, len(columns))

	for i, col := range columns {
		keys[i] = `"` + col + `"`
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if row[i] == "" {
			values[i] = nil
		} else {
			values[i] = row[i]
		}
	}

	query := fmt.Sprintf(
		`INSERT INTO "%s" (%s) VALUES (%s)`,
		tableName,
		strings.Join(keys, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, values
}

func loadGeneric(ctx context.Context, target Target, filePath string, table db.Table) (int64, error) {
	source, err := openCSV(filePath, table)
	if err != nil {
		return 0, err
	}
	defer source.Close()

	var count int64
	var row []string
	for {
		row, err = source.next(row)
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("%s: %w", filepath.Base(filePath), err)
		}

		query, values := buildInsertQuery(table.Name, source.columns, row)
		if _, err := target.ExecContext(ctx, query, values...); err != nil {
			return count, fmt.Errorf("insert into %s: %w", table.Name, err)
		}
		count++
	}
}

// writeProjected re-encodes the source as CSV holding only the stored
// columns, header line first.
func writeProjected(source *csvSource, out io.Writer) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(source.columns); err != nil {
		return err
	}
	var row []string
	var err error
	for {
		row, err = source.next(row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func loadGenericCopy(ctx context.Context, target Target, filePath string, table db.Table) (int64, error) {
	source, err := openCSV(filePath, table)
	if err != nil {
		return 0, err
	}
	defer source.Close()

	reader, writer := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		writer.CloseWithError(writeProjected(source, writer))
	}()

	count, err := target.CopyFrom(ctx, table.Name, source.columns, reader)
	// Unblocks the writer if COPY stopped reading early.
	reader.CloseWithError(io.ErrClosedPipe)
	<-done
	if err != nil {
		return count, fmt.Errorf("%s: %w", filepath.Base(filePath), err)
	}
	return count, nil
}

func ValidateGtfsDirectory(dirPath string) error {
	var missing []error
	for _, fileName := range RequiredFiles() {
		if _, err := os.Stat(filepath.Join(dirPath, fileName)); errors.Is(err, os.ErrNotExist) {
			missing = append(missing, fmt.Errorf("required file %s is missing", fileName))
		}
	}
	return errors.Join(missing...)
}

type FileReport struct {
	FileName string
	Table    string
	Rows     int64
	Columns  []string
	Ignored  []string
}

// PlanGtfsDirectory reads every known file without writing anything and
// reports what a load would store.
func PlanGtfsDirectory(dirPath string) ([]FileReport, error) {
	var reports []FileReport
	for _, entry := range FileTableMapping {
		filePath := filepath.Join(dirPath, entry.FileName)
		if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
			continue
		}

		source, err := openCSV(filePath, entry.Table)
		if err != nil {
			return reports, err
		}
		report := FileReport{
			FileName: entry.FileName,
			Table:    entry.Table.Name,
			Columns:  source.columns,
			Ignored:  source.ignored,
		}
		var row []string
		for {
			row, err = source.next(row)
			if err != nil {
				break
			}
			report.Rows++
		}
		source.Close()
		if !errors.Is(err, io.EOF) {
			return reports, fmt.Errorf("%s: %w", entry.FileName, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// LoadGtfsFromDirectory replaces the contents of every table whose file is
// present in dirPath.
func LoadGtfsFromDirectory(ctx context.Context, dirPath string, target Target, log zerolog.Logger) ([]FileReport, error) {
	if err := ValidateGtfsDirectory(dirPath); err != nil {
		return nil, err
	}

	var reports []FileReport
	for _, entry := range FileTableMapping {
		filePath := filepath.Join(dirPath, entry.FileName)
		if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("file", entry.FileName).Msg("optional file absent")
			continue
		}

		if err := target.EnsureTable(ctx, entry.Table); err != nil {
			return reports, err
		}
		if err := target.Truncate(ctx, entry.Table); err != nil {
			return reports, err
		}

		bench := common.NewBenchmarker(log, "load "+entry.Table.Name)
		rows, err := entry.Loader(ctx, target, filePath, entry.Table)
		bench.Close()
		if err != nil {
			return reports, err
		}
		log.Info().Str("table", entry.Table.Name).Int64("rows", rows).Msg("table loaded")
		reports = append(reports, FileReport{FileName: entry.FileName, Table: entry.Table.Name, Rows: rows})
	}
	return reports, nil
}
