package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/trezcool/csiportal/core"
)

var (
	drivers = map[string]string{
		"sqlite":   "sqlite",
		"postgres": "postgres",
	}

	schema = []string{
		`CREATE TABLE IF NOT EXISTS session_kv (
			name       TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	}
)

// Open opens the SQL database named by conf.Storage and waits for it to answer.
func Open(conf *core.Config) (*sqlx.DB, error) {
	driver, ok := drivers[conf.Storage.Engine]
	if !ok {
		return nil, errors.Errorf("unsupported storage engine %q", conf.Storage.Engine)
	}
	if conf.Storage.DSN == "" {
		return nil, errors.New("storage DSN is required")
	}

	db, err := sqlx.Open(driver, dsn(driver, conf.Storage.DSN))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func dsn(driver, raw string) string {
	if driver == "sqlite" {
		return raw + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	return raw
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrate creates the tables used by the SQL repositories.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrating database")
		}
	}
	return nil
}
