package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// CopyCapable streams CSV rows, header line included, into table.
type CopyCapable interface {
	CopyFrom(ctx context.Context, table string, columns []string, csvBody io.Reader) (int64, error)
}

// Database holds a database/sql handle for row-at-a-time statements and a
// pgx pool for COPY and the read queries of the API.
type Database struct {
	db   *sql.DB
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewDatabaseConnection(ctx context.Context, dsn string, log zerolog.Logger) (*Database, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		_ = db.Close()
		return nil, fmt.Errorf("pgxpool ping: %w", err)
	}

	log.Debug().Msg("database connected")
	return &Database{db: db, pool: pool, log: log}, nil
}

func (db *Database) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *Database) Close() error {
	if db == nil || db.db == nil {
		return nil
	}
	db.pool.Close()
	db.log.Debug().Msg("database closed")
	return db.db.Close()
}

func (db *Database) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *Database) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

func quoteProtect(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteColumns(columns []string) string {
	protected := make([]string, len(columns))
	for i, col := range columns {
		protected[i] = quoteProtect(col)
	}
	return strings.Join(protected, ", ")
}

func buildCopyQuery(tableName string, columns []string) string {
	return fmt.Sprintf(
		"COPY %s (%s) FROM STDIN WITH (FORMAT csv, HEADER true)",
		quoteProtect(tableName),
		quoteColumns(columns),
	)
}

func (db *Database) CopyFrom(ctx context.Context, table string, columns []string, csvBody io.Reader) (int64, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection from pool: %w", err)
	}
	defer conn.Release()

	res, err := conn.Conn().PgConn().CopyFrom(ctx, csvBody, buildCopyQuery(table, columns))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return res.RowsAffected(), nil
}
