package models

import "time"

// User holds the per-domain profile and reminder settings of a learner
type User struct {
	ID        int64     `json:"id" db:"id"`
	ChatID    int64     `json:"chat_id" db:"chat_id"` // Telegram chat for reminders, 0 when unlinked
	Username  string    `json:"username" db:"username"`
	DailyTime string    `json:"daily_time" db:"daily_time"` // HH:MM in Timezone
	Timezone  string    `json:"timezone" db:"timezone"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
