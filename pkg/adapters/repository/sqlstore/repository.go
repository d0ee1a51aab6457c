// Package sqlstore implements the repository ports over database/sql.
//
// One code path serves local SQLite files, remote libsql (Turso) databases
// and Postgres. Queries are written with ? placeholders and rebound for the
// active driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"                                // Postgres driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

const (
	DriverSQLite   = "sqlite"
	DriverLibSQL   = "libsql"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
	sqlx.BindDriver(DriverLibSQL, sqlx.QUESTION)
}

// DriverFor picks the database/sql driver from a connection URL
func DriverFor(dbURL string) string {
	switch {
	case strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://"):
		return DriverLibSQL
	case strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://"):
		return DriverPostgres
	default:
		return DriverSQLite
	}
}

type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// New opens dbURL, checks the connection and applies migrations.
func New(dbURL string) (*Repository, error) {
	driverName := DriverFor(dbURL)

	db, err := sqlx.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}
	if driverName == DriverSQLite {
		// single writer; also keeps in-memory databases on one connection
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return newRepository(db), nil
}

func newRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}

// notFound maps sql.ErrNoRows to domain.ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

var _ ports.Repository = (*Repository)(nil)
