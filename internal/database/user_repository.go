package database

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/wowoyong/voca-app/pkg/models"
)

const userColumns = "id, chat_id, username, daily_time, timezone, is_active, created_at, updated_at"

// GetUser returns a user by ID
func (r *Repository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := r.db.GetContext(ctx, &user, query, userID); err != nil {
		return nil, notFound(err, "failed to get user")
	}
	return &user, nil
}

// SaveUser creates the user or updates its settings
func (r *Repository) SaveUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	query := r.db.Rebind(`
		INSERT INTO users (id, chat_id, username, daily_time, timezone, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			chat_id = excluded.chat_id,
			username = excluded.username,
			daily_time = excluded.daily_time,
			timezone = excluded.timezone,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.ChatID,
		user.Username,
		user.DailyTime,
		user.Timezone,
		user.IsActive,
		dbTime(user.CreatedAt),
		dbTime(user.UpdatedAt),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save user")
	}
	return nil
}

// ListReminderUsers returns active users with a linked chat
func (r *Repository) ListReminderUsers(ctx context.Context) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE is_active = TRUE AND chat_id <> 0 ORDER BY id"
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, errors.Wrap(err, "failed to list reminder users")
	}
	return users, nil
}
