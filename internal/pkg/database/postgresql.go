package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	*pgxpool.Pool
}

func NewPostgreSQLDB(dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)

	if err != nil {
		return nil, err
	}

	// A device or kiosk has a single writer; keep the pool small.
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

// Migrate creates the timeclock tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS branches (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			lat           DOUBLE PRECISION,
			lng           DOUBLE PRECISION,
			radius_meters DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS employees (
			id         BIGSERIAL PRIMARY KEY,
			name       TEXT NOT NULL,
			branch_id  BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS time_entries (
			id          BIGSERIAL PRIMARY KEY,
			employee_id BIGINT NOT NULL,
			branch_id   BIGINT,
			clock_in    TIMESTAMPTZ NOT NULL,
			clock_out   TIMESTAMPTZ,
			in_lat      DOUBLE PRECISION,
			in_lng      DOUBLE PRECISION,
			out_lat     DOUBLE PRECISION,
			out_lng     DOUBLE PRECISION
		);

		CREATE INDEX IF NOT EXISTS idx_time_entries_employee_open
			ON time_entries (employee_id, clock_in DESC, id DESC)
			WHERE clock_out IS NULL;

		CREATE INDEX IF NOT EXISTS idx_time_entries_clock_in
			ON time_entries (clock_in);

		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
