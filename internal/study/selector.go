package study

import (
	"context"

	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/internal/shuffle"
	"github.com/wowoyong/voca-app/pkg/models"
)

// SelectToday returns the day-stable set of new items for the user.
// Unseen items come first; once every item has been rated the whole catalog
// is used instead, so the result is only empty for an empty catalog.
func (s *Service) SelectToday(ctx context.Context, userID int64, kind models.ItemKind) ([]models.Item, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	lim := s.limits(kind)
	items, err := s.todaySet(ctx, userID, kind, lim.TodayPool, lim.TodayCount)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSelection(s.lang, "today", len(items))
	return items, nil
}

func (s *Service) todaySet(ctx context.Context, userID int64, kind models.ItemKind, pool, count int) ([]models.Item, error) {
	candidates, err := s.store.ListUnseenItems(ctx, userID, kind, pool)
	if err != nil {
		return nil, storageErr(err, "list unseen items")
	}
	if len(candidates) == 0 {
		s.logger.Debug("no unseen items, falling back to full catalog",
			zap.Int64("user_id", userID), zap.String("kind", string(kind)))
		candidates, err = s.store.ListItems(ctx, kind, pool)
		if err != nil {
			return nil, storageErr(err, "list items")
		}
	}

	seed := shuffle.DaySeed(s.Today())
	return head(shuffle.Seeded(candidates, seed), count), nil
}

// SelectReview returns the items due by the end of today in random order.
// An empty result means nothing is due.
func (s *Service) SelectReview(ctx context.Context, userID int64, kind models.ItemKind) ([]models.Item, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	items, err := s.dueSet(ctx, userID, kind, s.limits(kind).ReviewPool)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSelection(s.lang, "review", len(items))
	return items, nil
}

func (s *Service) dueSet(ctx context.Context, userID int64, kind models.ItemKind, limit int) ([]models.Item, error) {
	if limit <= 0 {
		return []models.Item{}, nil
	}
	due, err := s.store.ListDueItems(ctx, userID, kind, s.endOfDay(s.now()), limit)
	if err != nil {
		return nil, storageErr(err, "list due items")
	}
	return head(shuffle.Random(due), limit), nil
}

// MaxPracticeCount caps a practice sample.
const MaxPracticeCount = 50

// SelectPractice returns a random sample of items the user has already
// learned, used for the free flashcard review mode. A count <= 0 means the
// configured default.
func (s *Service) SelectPractice(ctx context.Context, userID int64, kind models.ItemKind, count int) ([]models.Item, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	learned, err := s.store.ListLearnedItems(ctx, userID, kind)
	if err != nil {
		return nil, storageErr(err, "list learned items")
	}
	if len(learned) == 0 {
		return nil, apperr.NotFound("no learned %s items", kind)
	}

	if count <= 0 {
		count = s.cfg.PracticeCount
	}
	items := head(shuffle.Random(learned), min(count, MaxPracticeCount))
	s.metrics.ObserveSelection(s.lang, "practice", len(items))
	return items, nil
}

// KindPlan is the part of the daily plan for one item kind.
type KindPlan struct {
	Kind   models.ItemKind `json:"kind"`
	New    []models.Item   `json:"new"`
	Review []models.Item   `json:"review"`
}

// Plan is what the user is asked to study today.
type Plan struct {
	UserID int64      `json:"userId"`
	Date   string     `json:"date"`
	Kinds  []KindPlan `json:"kinds"`
}

// TodayPlan builds the new and due items of every kind for today.
func (s *Service) TodayPlan(ctx context.Context, userID int64) (*Plan, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	plan := &Plan{UserID: userID, Date: s.Today(), Kinds: make([]KindPlan, 0, len(models.ItemKinds))}
	for _, kind := range models.ItemKinds {
		lim := s.limits(kind)
		fresh, err := s.todaySet(ctx, userID, kind, lim.TodayPool, lim.TodayCount)
		if err != nil {
			return nil, err
		}
		due, err := s.dueSet(ctx, userID, kind, lim.PlanReviews)
		if err != nil {
			return nil, err
		}
		plan.Kinds = append(plan.Kinds, KindPlan{Kind: kind, New: fresh, Review: due})
	}
	return plan, nil
}

func head(items []models.Item, n int) []models.Item {
	if items == nil {
		return []models.Item{}
	}
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
