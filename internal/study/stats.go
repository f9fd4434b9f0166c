package study

import (
	"context"
	"time"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/internal/shuffle"
	"github.com/wowoyong/voca-app/pkg/models"
)

// Stats is the headline progress of a user.
type Stats struct {
	ReviewDue    int `json:"reviewDue"`
	TotalLearned int `json:"totalLearned"`
	Streak       int `json:"streak"`
}

// GetStats counts due reviews, rated items and the current streak.
func (s *Service) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	due, err := s.store.CountDueStates(ctx, userID, s.now())
	if err != nil {
		return nil, storageErr(err, "count due states")
	}
	learned, err := s.store.CountStates(ctx, userID)
	if err != nil {
		return nil, storageErr(err, "count states")
	}
	streak, err := s.Streak(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Stats{ReviewDue: due, TotalLearned: learned, Streak: streak}, nil
}

// CalendarEntry is one ledger day for the heatmap.
type CalendarEntry struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	TodayDone  bool   `json:"todayDone"`
	ReviewDone bool   `json:"reviewDone"`
	QuizDone   bool   `json:"quizDone"`
}

// Calendar is the activity history since a start date.
type Calendar struct {
	From         string          `json:"from"`
	Entries      []CalendarEntry `json:"calendar"`
	QuizAccuracy float64         `json:"quizAccuracy"`
	TotalQuizzes int             `json:"totalQuizzes"`
}

// GetCalendar returns one entry per ledger row on or after from, oldest
// first. An empty from means CalendarMonths before today.
func (s *Service) GetCalendar(ctx context.Context, userID int64, from string) (*Calendar, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if from == "" {
		start := s.now().In(s.cfg.Location).AddDate(0, -s.cfg.CalendarMonths, 0)
		from = start.Format(shuffle.DateLayout)
	} else if _, err := ParseDate(from); err != nil {
		return nil, err
	}

	sessions, err := s.store.ListSessionsSince(ctx, userID, from)
	if err != nil {
		return nil, storageErr(err, "list sessions")
	}
	total, correct, err := s.store.CountQuizAttempts(ctx, userID)
	if err != nil {
		return nil, storageErr(err, "count quiz attempts")
	}

	cal := &Calendar{
		From:         from,
		Entries:      make([]CalendarEntry, 0, len(sessions)),
		QuizAccuracy: accuracy(total, correct),
		TotalQuizzes: total,
	}
	for i := range sessions {
		sess := &sessions[i]
		cal.Entries = append(cal.Entries, CalendarEntry{
			Date:       sess.Date,
			Count:      sess.Total(),
			TodayDone:  sess.TodayDone,
			ReviewDone: sess.ReviewDone,
			QuizDone:   sess.QuizDone,
		})
	}
	return cal, nil
}

// QuizAccuracy returns the percentage of correct quiz answers, 0 without any.
func (s *Service) QuizAccuracy(ctx context.Context, userID int64) (float64, error) {
	if err := validateUser(userID); err != nil {
		return 0, err
	}
	total, correct, err := s.store.CountQuizAttempts(ctx, userID)
	if err != nil {
		return 0, storageErr(err, "count quiz attempts")
	}
	return accuracy(total, correct), nil
}

func accuracy(total, correct int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// RecordQuizAttempt appends one answered quiz question to the log.
func (s *Service) RecordQuizAttempt(ctx context.Context, userID int64, kind models.ItemKind, itemID int64, correct bool) (*models.QuizAttempt, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if itemID <= 0 {
		return nil, apperr.InvalidArgument("itemId is required")
	}

	if _, err := s.store.GetItem(ctx, kind, itemID); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("%s %d not found", kind, itemID)
		}
		return nil, storageErr(err, "get item")
	}

	attempt := &models.QuizAttempt{
		UserID:     userID,
		ItemID:     itemID,
		IsCorrect:  correct,
		AnsweredAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.store.AddQuizAttempt(ctx, attempt); err != nil {
		return nil, storageErr(err, "add quiz attempt")
	}
	return attempt, nil
}
