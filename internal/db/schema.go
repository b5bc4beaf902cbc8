package db

import (
	"context"
	"fmt"
	"strings"
)

// Table is one GTFS text file stored as a table of nullable text columns.
// Values are kept exactly as the feed spells them; the API decides how to
// present them.
type Table struct {
	Name    string
	Columns []string
	// Indexes lists the columns the API filters on.
	Indexes []string
}

var (
	AgencyTable = Table{
		Name: "agency",
		Columns: []string{
			"agency_id", "agency_name", "agency_url", "agency_timezone",
			"agency_lang", "agency_phone", "agency_fare_url", "agency_email",
		},
	}
	RoutesTable = Table{
		Name: "routes",
		Columns: []string{
			"route_id", "agency_id", "route_short_name", "route_long_name",
			"route_desc", "route_type", "route_url", "route_color",
			"route_text_color", "route_sort_order",
		},
		Indexes: []string{"route_id"},
	}
	TripsTable = Table{
		Name: "trips",
		Columns: []string{
			"route_id", "service_id", "trip_id", "trip_headsign",
			"trip_short_name", "direction_id", "block_id", "shape_id",
			"wheelchair_accessible", "bikes_allowed",
		},
		Indexes: []string{"trip_id", "route_id"},
	}
	StopsTable = Table{
		Name: "stops",
		Columns: []string{
			"stop_id", "stop_code", "stop_name", "stop_desc", "stop_lat",
			"stop_lon", "zone_id", "stop_url", "location_type",
			"parent_station", "stop_timezone", "wheelchair_boarding",
		},
		Indexes: []string{"stop_id"},
	}
	StopTimesTable = Table{
		Name: "stop_times",
		Columns: []string{
			"trip_id", "arrival_time", "departure_time", "stop_id",
			"stop_sequence", "stop_headsign", "pickup_type", "drop_off_type",
			"shape_dist_traveled", "timepoint",
		},
		Indexes: []string{"trip_id"},
	}
	CalendarTable = Table{
		Name: "calendar",
		Columns: []string{
			"service_id", "monday", "tuesday", "wednesday", "thursday",
			"friday", "saturday", "sunday", "start_date", "end_date",
		},
	}
	CalendarDatesTable = Table{
		Name:    "calendar_dates",
		Columns: []string{"service_id", "date", "exception_type"},
	}
	ShapesTable = Table{
		Name: "shapes",
		Columns: []string{
			"shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence",
			"shape_dist_traveled",
		},
	}
	TransfersTable = Table{
		Name: "transfers",
		Columns: []string{
			"from_stop_id", "to_stop_id", "transfer_type", "min_transfer_time",
		},
	}
)

// Has reports whether column belongs to the table.
func (table Table) Has(column string) bool {
	for _, c := range table.Columns {
		if c == column {
			return true
		}
	}
	return false
}

func buildCreateTable(table Table) string {
	columns := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = quoteProtect(col) + " text"
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteProtect(table.Name),
		strings.Join(columns, ", "),
	)
}

func buildCreateIndex(table Table, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		quoteProtect(table.Name+"_"+column+"_idx"),
		quoteProtect(table.Name),
		quoteProtect(column),
	)
}

// EnsureTable creates the table and its indexes when they are missing.
func (db *Database) EnsureTable(ctx context.Context, table Table) error {
	if _, err := db.pool.Exec(ctx, buildCreateTable(table)); err != nil {
		return fmt.Errorf("create table %s: %w", table.Name, err)
	}
	for _, column := range table.Indexes {
		if _, err := db.pool.Exec(ctx, buildCreateIndex(table, column)); err != nil {
			return fmt.Errorf("create index on %s(%s): %w", table.Name, column, err)
		}
	}
	return nil
}

// Truncate empties the table so a feed can be loaded over a previous one.
func (db *Database) Truncate(ctx context.Context, table Table) error {
	if _, err := db.pool.Exec(ctx, "TRUNCATE "+quoteProtect(table.Name)); err != nil {
		return fmt.Errorf("truncate %s: %w", table.Name, err)
	}
	return nil
}
