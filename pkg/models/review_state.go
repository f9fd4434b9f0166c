package models

import "time"

// ReviewState tracks a user's memory strength for one item using the SM-2 algorithm
type ReviewState struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	ItemKind        ItemKind  `json:"item_kind" db:"item_kind"`
	ItemID          int64     `json:"item_id" db:"item_id"`
	RepetitionCount int       `json:"repetition_count" db:"repetition_count"` // consecutive successful reviews
	EaseFactor      float64   `json:"ease_factor" db:"ease_factor"`           // never below 1.3
	Interval        int       `json:"interval" db:"interval_days"`            // days until next due date
	NextDueAt       time.Time `json:"next_due_at" db:"next_due_at"`
	LastQuality     int       `json:"last_quality" db:"last_quality"`
	LastReviewedAt  time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
