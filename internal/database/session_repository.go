package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/wowoyong/voca-app/pkg/models"
)

const sessionColumns = `id, user_id, date, new_items_count, reviewed_items_count,
	today_done, review_done, quiz_done, created_at, updated_at`

var activityColumns = map[models.Activity]string{
	models.ActivityToday:  "today_done",
	models.ActivityReview: "review_done",
	models.ActivityQuiz:   "quiz_done",
}

// IncrementSession adds to the day's counters in a single upsert so that
// concurrent ratings never lose an increment
func (t *txRepository) IncrementSession(ctx context.Context, userID int64, date string, newItems, reviewed int) error {
	now := dbTime(time.Now())
	query := t.tx.Rebind(`
		INSERT INTO daily_sessions (user_id, date, new_items_count, reviewed_items_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			new_items_count = daily_sessions.new_items_count + excluded.new_items_count,
			reviewed_items_count = daily_sessions.reviewed_items_count + excluded.reviewed_items_count,
			updated_at = excluded.updated_at`)
	if _, err := t.tx.ExecContext(ctx, query, userID, date, newItems, reviewed, now, now); err != nil {
		return errors.Wrap(err, "failed to increment session")
	}
	return nil
}

// MarkSession sets one completion flag on the day's row
func (t *txRepository) MarkSession(ctx context.Context, userID int64, date string, activity models.Activity) error {
	col, ok := activityColumns[activity]
	if !ok {
		return errors.Errorf("unknown activity %q", activity)
	}

	now := dbTime(time.Now())
	query := t.tx.Rebind(`
		INSERT INTO daily_sessions (user_id, date, ` + col + `, created_at, updated_at)
		VALUES (?, ?, TRUE, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			` + col + ` = TRUE,
			updated_at = excluded.updated_at`)
	if _, err := t.tx.ExecContext(ctx, query, userID, date, now, now); err != nil {
		return errors.Wrap(err, "failed to mark session")
	}
	return nil
}

// GetSession returns the ledger row of one day
func (t *txRepository) GetSession(ctx context.Context, userID int64, date string) (*models.DailySession, error) {
	var sess models.DailySession
	query := t.tx.Rebind("SELECT " + sessionColumns + " FROM daily_sessions WHERE user_id = ? AND date = ?")
	if err := t.tx.GetContext(ctx, &sess, query, userID, date); err != nil {
		return nil, notFound(err, "failed to get session")
	}
	return &sess, nil
}

// ListRecentSessions returns the newest ledger rows first
func (r *Repository) ListRecentSessions(ctx context.Context, userID int64, limit int) ([]models.DailySession, error) {
	query := r.db.Rebind("SELECT " + sessionColumns + " FROM daily_sessions WHERE user_id = ? ORDER BY date DESC" + limitClause(limit))
	sessions := []models.DailySession{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, errors.Wrap(err, "failed to list recent sessions")
	}
	return sessions, nil
}

// ListSessionsSince returns ledger rows on or after since, oldest first
func (r *Repository) ListSessionsSince(ctx context.Context, userID int64, since string) ([]models.DailySession, error) {
	query := r.db.Rebind("SELECT " + sessionColumns + " FROM daily_sessions WHERE user_id = ? AND date >= ? ORDER BY date ASC")
	sessions := []models.DailySession{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID, since); err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	return sessions, nil
}
