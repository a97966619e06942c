package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type SQLiteOpts struct {
	PingTimeout time.Duration
}

// NewSQLiteConnection opens a *sqlx.DB over an embedded SQLite file.
// The schedule and log stores live in separate files, so this is called
// once per store. SQLite serializes writers itself; a single open
// connection avoids "database is locked" churn under concurrent appends.
func NewSQLiteConnection(dsn string, opts SQLiteOpts) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty SQLite DSN")
	}
	sdb, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	sdb.SetMaxOpenConns(1)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := sdb.PingContext(ctx); err != nil {
		_ = sdb.Close()
		return nil, err
	}

	return sdb, nil
}
