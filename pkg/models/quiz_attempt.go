package models

import "time"

// QuizAttempt is one answered quiz question
type QuizAttempt struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	ItemID     int64     `json:"item_id" db:"item_id"`
	IsCorrect  bool      `json:"is_correct" db:"is_correct"`
	AnsweredAt time.Time `json:"answered_at" db:"answered_at"`
}
