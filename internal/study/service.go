// Package study implements the learning core of one language domain:
// rating items, picking study sets, the daily ledger and its rollups.
package study

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/internal/logging"
	"github.com/wowoyong/voca-app/internal/metrics"
	"github.com/wowoyong/voca-app/internal/shuffle"
	"github.com/wowoyong/voca-app/pkg/models"
)

// Limits bounds the selection policies for one item kind.
type Limits struct {
	TodayPool   int // unseen candidates fetched before the seeded shuffle
	TodayCount  int // size of the today set
	ReviewPool  int // due items fetched for review mode
	PlanReviews int // due items attached to the daily plan
}

// Config tunes a Service.
type Config struct {
	Location       *time.Location
	StreakWindow   int
	StreakGrace    bool
	Limits         map[models.ItemKind]Limits
	CalendarMonths int
	PracticeCount  int
}

// DefaultConfig returns the production defaults in the local timezone.
func DefaultConfig() Config {
	return Config{
		Location:     time.Local,
		StreakWindow: 60,
		Limits: map[models.ItemKind]Limits{
			models.KindWord:       {TodayPool: 100, TodayCount: 15, ReviewPool: 30, PlanReviews: 3},
			models.KindExpression: {TodayPool: 100, TodayCount: 4, ReviewPool: 10, PlanReviews: 1},
			models.KindGrammar:    {TodayPool: 100, TodayCount: 1, ReviewPool: 10, PlanReviews: 0},
		},
		CalendarMonths: 3,
		PracticeCount:  20,
	}
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records counters for every operation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service is the study core bound to one language domain.
type Service struct {
	lang    string
	store   Store
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a Service for lang on top of store. Zero fields of cfg
// take their DefaultConfig values.
func NewService(lang string, store Store, cfg Config, logger *zap.Logger, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.Limits == nil {
		cfg.Limits = def.Limits
	}
	if cfg.StreakWindow <= 0 {
		cfg.StreakWindow = def.StreakWindow
	}
	if cfg.CalendarMonths <= 0 {
		cfg.CalendarMonths = def.CalendarMonths
	}
	if cfg.PracticeCount <= 0 {
		cfg.PracticeCount = def.PracticeCount
	}
	s := &Service{
		lang:   lang,
		store:  store,
		cfg:    cfg,
		logger: logging.OrNop(logger).With(zap.String("lang", lang)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lang returns the language domain this service serves.
func (s *Service) Lang() string {
	return s.lang
}

// Today returns the current calendar day key.
func (s *Service) Today() string {
	return shuffle.DateKey(s.now(), s.cfg.Location)
}

func (s *Service) limits(kind models.ItemKind) Limits {
	return s.cfg.Limits[kind]
}

// endOfDay returns the last instant of the calendar day containing t.
func (s *Service) endOfDay(t time.Time) time.Time {
	local := t.In(s.cfg.Location)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, s.cfg.Location).Add(-time.Nanosecond)
}

func validateUser(userID int64) error {
	if userID <= 0 {
		return apperr.InvalidArgument("userId is required")
	}
	return nil
}

func validateKind(kind models.ItemKind) error {
	if !kind.Valid() {
		return apperr.InvalidArgument("unknown item kind %q", kind)
	}
	return nil
}

// storageErr passes classified errors through and marks everything else as
// a retryable storage failure.
func storageErr(err error, msg string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Unavailable(err, msg)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
