package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/layer-3/remitwise/migrations"
)

// Open connects to the database and applies pending migrations
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A sqlite memory database lives and dies with its connection
	if driver == migrations.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := migrations.Up(db.DB, driver); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
