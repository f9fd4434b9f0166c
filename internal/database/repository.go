package database

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/wowoyong/voca-app/internal/study"
)

// Repository is the SQL store of one language domain.
type Repository struct {
	db *sqlx.DB
}

var _ study.Store = (*Repository)(nil)

// NewRepository creates a repository on an open connection.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InTx runs fn in a transaction, committing only when fn succeeds.
func (r *Repository) InTx(ctx context.Context, fn func(tx study.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(&txRepository{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

type txRepository struct {
	tx *sqlx.Tx
}

var _ study.Tx = (*txRepository)(nil)

// LockUser takes a transaction-scoped advisory lock on Postgres. SQLite runs
// on a single connection, so transactions are already serialized.
func (t *txRepository) LockUser(ctx context.Context, userID int64) error {
	if t.tx.DriverName() != DriverPostgres {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", userID); err != nil {
		return errors.Wrap(err, "failed to lock user")
	}
	return nil
}

// dbTime normalizes a timestamp for storage so SQLite text comparisons
// order the same way as the instants.
func dbTime(t time.Time) time.Time {
	return t.UTC()
}

func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return study.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(limit)
}
