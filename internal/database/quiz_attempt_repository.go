package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/wowoyong/voca-app/pkg/models"
)

// AddQuizAttempt appends an answered question to the log
func (r *Repository) AddQuizAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.AnsweredAt.IsZero() {
		attempt.AnsweredAt = time.Now()
	}
	query := r.db.Rebind(`
		INSERT INTO quiz_attempts (user_id, item_id, is_correct, answered_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query,
		attempt.UserID,
		attempt.ItemID,
		attempt.IsCorrect,
		dbTime(attempt.AnsweredAt),
	).Scan(&attempt.ID)
	if err != nil {
		return errors.Wrap(err, "failed to add quiz attempt")
	}
	return nil
}

// CountQuizAttempts returns the number of answers and how many were correct
func (r *Repository) CountQuizAttempts(ctx context.Context, userID int64) (total, correct int, err error) {
	var row struct {
		Total   int `db:"total"`
		Correct int `db:"correct"`
	}
	query := r.db.Rebind(`
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct
		FROM quiz_attempts WHERE user_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return 0, 0, errors.Wrap(err, "failed to count quiz attempts")
	}
	return row.Total, row.Correct, nil
}
