package database

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open establishes a connection and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s database", driver)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to enable foreign keys")
		}
		// SQLite doesn't support multiple writers, and :memory: is per connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables if they don't exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema(db.DriverName()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to apply schema: %s", firstLine(stmt))
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id {{pk}},
		kind TEXT NOT NULL,
		term TEXT NOT NULL,
		reading TEXT NOT NULL DEFAULT '',
		meaning TEXT NOT NULL,
		example TEXT NOT NULL DEFAULT '',
		difficulty INTEGER NOT NULL DEFAULT 1,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE(kind, term)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_kind_difficulty ON items(kind, difficulty, id)`,
	`CREATE TABLE IF NOT EXISTS review_states (
		id {{pk}},
		user_id {{int}} NOT NULL,
		item_kind TEXT NOT NULL,
		item_id {{int}} NOT NULL REFERENCES items(id),
		repetition_count INTEGER NOT NULL DEFAULT 0,
		ease_factor {{float}} NOT NULL DEFAULT 2.5,
		interval_days INTEGER NOT NULL DEFAULT 1,
		next_due_at {{ts}} NOT NULL,
		last_quality INTEGER NOT NULL DEFAULT 0,
		last_reviewed_at {{ts}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE(user_id, item_kind, item_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_states_due ON review_states(user_id, next_due_at)`,
	`CREATE TABLE IF NOT EXISTS daily_sessions (
		id {{pk}},
		user_id {{int}} NOT NULL,
		date TEXT NOT NULL,
		new_items_count INTEGER NOT NULL DEFAULT 0,
		reviewed_items_count INTEGER NOT NULL DEFAULT 0,
		today_done BOOLEAN NOT NULL DEFAULT FALSE,
		review_done BOOLEAN NOT NULL DEFAULT FALSE,
		quiz_done BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE(user_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id {{pk}},
		user_id {{int}} NOT NULL,
		item_id {{int}} NOT NULL REFERENCES items(id),
		is_correct BOOLEAN NOT NULL,
		answered_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user ON quiz_attempts(user_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id {{int}} PRIMARY KEY,
		chat_id {{int}} NOT NULL DEFAULT 0,
		username TEXT NOT NULL DEFAULT '',
		daily_time TEXT NOT NULL DEFAULT '08:00',
		timezone TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
}

func schema(driver string) []string {
	r := strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{int}}", "INTEGER",
		"{{float}}", "REAL",
		"{{ts}}", "TIMESTAMP",
	)
	if driver == DriverPostgres {
		r = strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{int}}", "BIGINT",
			"{{float}}", "DOUBLE PRECISION",
			"{{ts}}", "TIMESTAMPTZ",
		)
	}

	out := make([]string, len(schemaStatements))
	for i, stmt := range schemaStatements {
		out[i] = r.Replace(stmt)
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
