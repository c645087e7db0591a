package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the per-device store. It is the system of record for on-device state.
type SQLite struct {
	*sql.DB
}

func NewSQLiteDB(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// https://github.com/mattn/go-sqlite3#connection-string
	opts := []string{
		"_foreign_keys=1",
		"_journal_mode=WAL",
		"_synchronous=NORMAL",
		"_busy_timeout=5000",
	}

	db, err := sql.Open("sqlite3", path+"?"+strings.Join(opts, "&"))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Single writer per device.
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}

	return &SQLite{DB: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	_, err := db.Exec(`
		create table if not exists branches (
			id integer primary key autoincrement,
			name text not null,
			lat real,
			lng real,
			radius_meters real not null default 0,
			created_at integer not null, -- unix millis
			updated_at integer not null
		);

		create table if not exists employees (
			id integer primary key autoincrement,
			name text not null,
			branch_id integer, -- weak reference, no foreign key
			created_at integer not null,
			updated_at integer not null
		);

		create table if not exists time_entries (
			id integer primary key autoincrement,
			employee_id integer not null,
			branch_id integer,
			clock_in integer not null, -- unix millis
			clock_out integer,
			in_lat real,
			in_lng real,
			out_lat real,
			out_lng real
		);

		create index if not exists idx_time_entries_employee_open
			on time_entries (employee_id, clock_out, clock_in);

		create index if not exists idx_time_entries_clock_in
			on time_entries (clock_in);

		create table if not exists settings (
			key text primary key,
			value text not null
		);
	`)
	return err
}

func (db *SQLite) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.DB.BeginTx(ctx, nil)
}

// SQLQuerier is satisfied by both *sql.DB and *sql.Tx.
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
