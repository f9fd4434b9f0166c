package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/wowoyong/voca-app/pkg/models"
)

const reviewStateColumns = `id, user_id, item_kind, item_id, repetition_count, ease_factor, interval_days,
	next_due_at, last_quality, last_reviewed_at, created_at, updated_at`

// GetReviewState returns the user's state for one item, locking the row on Postgres
func (t *txRepository) GetReviewState(ctx context.Context, userID int64, kind models.ItemKind, itemID int64) (*models.ReviewState, error) {
	query := "SELECT " + reviewStateColumns + " FROM review_states WHERE user_id = ? AND item_kind = ? AND item_id = ?"
	if t.tx.DriverName() == DriverPostgres {
		query += " FOR UPDATE"
	}

	var state models.ReviewState
	if err := t.tx.GetContext(ctx, &state, t.tx.Rebind(query), userID, kind, itemID); err != nil {
		return nil, notFound(err, "failed to get review state")
	}
	return &state, nil
}

// SaveReviewState inserts the state or overwrites the existing row for the same item
func (t *txRepository) SaveReviewState(ctx context.Context, state *models.ReviewState) error {
	if state.CreatedAt.IsZero() {
		state.CreatedAt = state.UpdatedAt
	}
	query := t.tx.Rebind(`
		INSERT INTO review_states (
			user_id, item_kind, item_id, repetition_count, ease_factor, interval_days,
			next_due_at, last_quality, last_reviewed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, item_kind, item_id) DO UPDATE SET
			repetition_count = excluded.repetition_count,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			next_due_at = excluded.next_due_at,
			last_quality = excluded.last_quality,
			last_reviewed_at = excluded.last_reviewed_at,
			updated_at = excluded.updated_at
		RETURNING id`)
	err := t.tx.QueryRowxContext(ctx, query,
		state.UserID,
		state.ItemKind,
		state.ItemID,
		state.RepetitionCount,
		state.EaseFactor,
		state.Interval,
		dbTime(state.NextDueAt),
		state.LastQuality,
		dbTime(state.LastReviewedAt),
		dbTime(state.CreatedAt),
		dbTime(state.UpdatedAt),
	).Scan(&state.ID)
	if err != nil {
		return errors.Wrap(err, "failed to save review state")
	}
	return nil
}

// CountDueStates counts the user's states due at or before before
func (r *Repository) CountDueStates(ctx context.Context, userID int64, before time.Time) (int, error) {
	var n int
	query := r.db.Rebind("SELECT COUNT(*) FROM review_states WHERE user_id = ? AND next_due_at <= ?")
	if err := r.db.GetContext(ctx, &n, query, userID, dbTime(before)); err != nil {
		return 0, errors.Wrap(err, "failed to count due states")
	}
	return n, nil
}

// CountStates counts every item the user has rated
func (r *Repository) CountStates(ctx context.Context, userID int64) (int, error) {
	var n int
	query := r.db.Rebind("SELECT COUNT(*) FROM review_states WHERE user_id = ?")
	if err := r.db.GetContext(ctx, &n, query, userID); err != nil {
		return 0, errors.Wrap(err, "failed to count states")
	}
	return n, nil
}
