package study

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/internal/shuffle"
	sr "github.com/wowoyong/voca-app/internal/spaced_repetition"
	"github.com/wowoyong/voca-app/pkg/models"
)

// RateRequest is one answered flashcard, quiz or review prompt.
type RateRequest struct {
	UserID  int64           `json:"userId"`
	Kind    models.ItemKind `json:"contentType"`
	ItemID  int64           `json:"contentId"`
	Quality int             `json:"quality"`
}

func (r RateRequest) validate() error {
	if err := validateUser(r.UserID); err != nil {
		return err
	}
	if err := validateKind(r.Kind); err != nil {
		return err
	}
	if r.ItemID <= 0 {
		return apperr.InvalidArgument("contentId is required")
	}
	if err := sr.QualityResponse(r.Quality).Validate(); err != nil {
		return apperr.InvalidArgument("%v", err)
	}
	return nil
}

// Rate applies one SM-2 step to the user's review state of an item and counts
// the event in today's ledger row. Both writes commit together or not at all.
func (s *Service) Rate(ctx context.Context, req RateRequest) (*models.ReviewState, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	date := shuffle.DateKey(now, s.cfg.Location)
	quality := sr.QualityResponse(req.Quality)

	var (
		saved *models.ReviewState
		first bool
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockUser(ctx, req.UserID); err != nil {
			return err
		}
		if _, err := tx.GetItem(ctx, req.Kind, req.ItemID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return apperr.NotFound("%s %d not found", req.Kind, req.ItemID)
			}
			return err
		}

		state, err := tx.GetReviewState(ctx, req.UserID, req.Kind, req.ItemID)
		prior := sr.InitialState()
		switch {
		case errors.Is(err, ErrNotFound):
			first = true
			state = &models.ReviewState{
				UserID:    req.UserID,
				ItemKind:  req.Kind,
				ItemID:    req.ItemID,
				CreatedAt: now,
			}
		case err != nil:
			return err
		default:
			prior = sr.State{
				RepetitionCount: state.RepetitionCount,
				EaseFactor:      state.EaseFactor,
				Interval:        state.Interval,
			}
		}

		res := sr.Schedule(quality, prior, now, s.cfg.Location)
		state.RepetitionCount = res.RepetitionCount
		state.EaseFactor = res.EaseFactor
		state.Interval = res.Interval
		state.NextDueAt = res.NextDueAt
		state.LastQuality = req.Quality
		state.LastReviewedAt = now
		state.UpdatedAt = now
		if err := tx.SaveReviewState(ctx, state); err != nil {
			return err
		}

		newItems, reviewed := 0, 1
		if first {
			newItems, reviewed = 1, 0
		}
		if err := tx.IncrementSession(ctx, req.UserID, date, newItems, reviewed); err != nil {
			return err
		}
		saved = state
		return nil
	})
	if err != nil {
		s.logger.Warn("rating failed",
			zap.Int64("user_id", req.UserID),
			zap.String("kind", string(req.Kind)),
			zap.Int64("item_id", req.ItemID),
			zap.Error(err))
		return nil, storageErr(err, "save rating")
	}

	s.metrics.ObserveRating(s.lang, string(req.Kind), req.Quality, first)
	s.logger.Debug("item rated",
		zap.Int64("user_id", req.UserID),
		zap.String("kind", string(req.Kind)),
		zap.Int64("item_id", req.ItemID),
		zap.Int("quality", req.Quality),
		zap.Int("interval", saved.Interval),
		zap.Bool("first", first))
	return saved, nil
}

// ParseDate validates a YYYY-MM-DD calendar key.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(shuffle.DateLayout, date)
	if err != nil || t.Format(shuffle.DateLayout) != date {
		return time.Time{}, apperr.InvalidArgument("date must be YYYY-MM-DD, got %q", date)
	}
	return t, nil
}

// MarkActivityComplete sets the completion flag of activity on the ledger
// row of date. An empty date means today. Repeating the call is a no-op.
func (s *Service) MarkActivityComplete(ctx context.Context, userID int64, date string, activity models.Activity) (*models.DailySession, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if !activity.Valid() {
		return nil, apperr.InvalidArgument("unknown activity %q", activity)
	}
	if date == "" {
		date = s.Today()
	}
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}

	var session *models.DailySession
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.MarkSession(ctx, userID, date, activity); err != nil {
			return err
		}
		var err error
		session, err = tx.GetSession(ctx, userID, date)
		return err
	})
	if err != nil {
		return nil, storageErr(err, "mark activity")
	}

	s.metrics.ObserveActivity(s.lang, string(activity))
	s.logger.Info("activity completed",
		zap.Int64("user_id", userID),
		zap.String("date", date),
		zap.String("activity", string(activity)))
	return session, nil
}

// Streak counts consecutive calendar days with a ledger row, walking back
// from today. A day without a row ends the streak, including today unless
// StreakGrace is set.
func (s *Service) Streak(ctx context.Context, userID int64) (int, error) {
	if err := validateUser(userID); err != nil {
		return 0, err
	}
	sessions, err := s.store.ListRecentSessions(ctx, userID, s.cfg.StreakWindow)
	if err != nil {
		return 0, storageErr(err, "list sessions")
	}
	return computeStreak(sessions, s.now().In(s.cfg.Location), s.cfg.StreakGrace), nil
}

func computeStreak(sessions []models.DailySession, today time.Time, grace bool) int {
	present := make(map[string]bool, len(sessions))
	for _, sess := range sessions {
		present[sess.Date] = true
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if grace && !present[day.Format(shuffle.DateLayout)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for streak < len(sessions) && present[day.Format(shuffle.DateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
