package models

import "time"

// Activity names one of the three daily study activities
type Activity string

const (
	ActivityToday  Activity = "today"
	ActivityReview Activity = "review"
	ActivityQuiz   Activity = "quiz"
)

// Valid reports whether a is a known activity
func (a Activity) Valid() bool {
	switch a {
	case ActivityToday, ActivityReview, ActivityQuiz:
		return true
	}
	return false
}

// DailySession is the per-user ledger row for one calendar day
type DailySession struct {
	ID                 int64     `json:"id" db:"id"`
	UserID             int64     `json:"user_id" db:"user_id"`
	Date               string    `json:"date" db:"date"` // YYYY-MM-DD, server-local calendar
	NewItemsCount      int       `json:"new_items_count" db:"new_items_count"`
	ReviewedItemsCount int       `json:"reviewed_items_count" db:"reviewed_items_count"`
	TodayDone          bool      `json:"today_done" db:"today_done"`
	ReviewDone         bool      `json:"review_done" db:"review_done"`
	QuizDone           bool      `json:"quiz_done" db:"quiz_done"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Total returns the number of rating events recorded that day
func (s *DailySession) Total() int {
	return s.NewItemsCount + s.ReviewedItemsCount
}
