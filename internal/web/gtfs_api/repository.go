package gtfs_api

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tarediiran-industries.com/transit-dashboard/internal/db"
)

// Row is one table row keyed by column name. Values are strings, or nil
// for columns the feed left empty.
type Row map[string]any

type Repository interface {
	Routes(ctx context.Context) ([]Row, error)
	RouteByID(ctx context.Context, routeID string) ([]Row, error)
	SearchRoutes(ctx context.Context, name string) ([]Row, error)
	Stops(ctx context.Context) ([]Row, error)
	StopByID(ctx context.Context, stopID string) ([]Row, error)
	Trips(ctx context.Context) ([]Row, error)
	TripByID(ctx context.Context, tripID string) ([]Row, error)
	TripsByRoute(ctx context.Context, routeID string) ([]Row, error)
	StopTimesByTrip(ctx context.Context, tripID string) ([]Row, error)
	Calendar(ctx context.Context) ([]Row, error)
	Ping(ctx context.Context) error
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func selectFrom(table db.Table, alias string) string {
	columns := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = alias + "." + col
	}
	return fmt.Sprintf("SELECT %s FROM %s %s", strings.Join(columns, ", "), table.Name, alias)
}

// Routes without a single trip are left out, as a feed lists routes it no
// longer runs.
var (
	routesQuery = selectFrom(db.RoutesTable, "r") +
		" WHERE EXISTS (SELECT 1 FROM trips t WHERE t.route_id = r.route_id)"
	routesOrder = " ORDER BY r.route_id"

	stopsQuery     = selectFrom(db.StopsTable, "s")
	tripsQuery     = selectFrom(db.TripsTable, "t")
	stopTimesQuery = selectFrom(db.StopTimesTable, "st") +
		" WHERE st.trip_id = $1 ORDER BY NULLIF(st.stop_sequence, '')::integer"
	calendarQuery = selectFrom(db.CalendarTable, "c") + " ORDER BY c.service_id"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (repo *PgRepository) query(ctx context.Context, sql string, args ...any) ([]Row, error) {
	rows, err := repo.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(maps))
	for i, m := range maps {
		out[i] = m
	}
	return out, nil
}

func (repo *PgRepository) Routes(ctx context.Context) ([]Row, error) {
	return repo.query(ctx, routesQuery+routesOrder)
}

func (repo *PgRepository) RouteByID(ctx context.Context, routeID string) ([]Row, error) {
	return repo.query(ctx, routesQuery+" AND r.route_id = $1"+routesOrder, routeID)
}

// SearchRoutes matches name as a case-insensitive substring of either
// route name.
func (repo *PgRepository) SearchRoutes(ctx context.Context, name string) ([]Row, error) {
	pattern := "%" + likeEscaper.Replace(name) + "%"
	return repo.query(ctx,
		routesQuery+" AND (r.route_short_name ILIKE $1 OR r.route_long_name ILIKE $1)"+routesOrder,
		pattern)
}

func (repo *PgRepository) Stops(ctx context.Context) ([]Row, error) {
	return repo.query(ctx, stopsQuery+" ORDER BY s.stop_id")
}

func (repo *PgRepository) StopByID(ctx context.Context, stopID string) ([]Row, error) {
	return repo.query(ctx, stopsQuery+" WHERE s.stop_id = $1", stopID)
}

func (repo *PgRepository) Trips(ctx context.Context) ([]Row, error) {
	return repo.query(ctx, tripsQuery+" ORDER BY t.route_id, t.trip_id")
}

func (repo *PgRepository) TripByID(ctx context.Context, tripID string) ([]Row, error) {
	return repo.query(ctx, tripsQuery+" WHERE t.trip_id = $1", tripID)
}

func (repo *PgRepository) TripsByRoute(ctx context.Context, routeID string) ([]Row, error) {
	return repo.query(ctx, tripsQuery+" WHERE t.route_id = $1 ORDER BY t.trip_id", routeID)
}

func (repo *PgRepository) StopTimesByTrip(ctx context.Context, tripID string) ([]Row, error) {
	return repo.query(ctx, stopTimesQuery, tripID)
}

func (repo *PgRepository) Calendar(ctx context.Context) ([]Row, error) {
	return repo.query(ctx, calendarQuery)
}

func (repo *PgRepository) Ping(ctx context.Context) error {
	return repo.pool.Ping(ctx)
}
