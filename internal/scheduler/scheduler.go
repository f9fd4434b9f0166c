package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/logging"
	"github.com/wowoyong/voca-app/internal/metrics"
	"github.com/wowoyong/voca-app/internal/study"
)

// reminderSpec fires at the start of every minute
const reminderSpec = "* * * * *"

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, r study.Reminder) error
}

// ReminderSource finds the users to remind in one language domain
type ReminderSource interface {
	Lang() string
	DueReminders(ctx context.Context, at time.Time) ([]study.Reminder, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	sources   []ReminderSource
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier, sources []ReminderSource, logger *zap.Logger, m *metrics.Metrics) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
		sources:   sources,
		logger:    logging.OrNop(logger),
		metrics:   m,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Cron(reminderSpec).Do(s.checkAndSendReminders); err != nil {
		return err
	}
	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Int("sources", len(s.sources)))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) checkAndSendReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
	defer cancel()
	s.RunCheck(ctx, s.now())
}

// RunCheck sends every reminder due at the minute of at and returns how many
// were delivered. Failures are logged and do not stop the remaining sends.
func (s *Scheduler) RunCheck(ctx context.Context, at time.Time) int {
	sent := 0
	for _, src := range s.sources {
		reminders, err := src.DueReminders(ctx, at)
		if err != nil {
			s.logger.Error("failed to find due reminders", zap.String("lang", src.Lang()), zap.Error(err))
			continue
		}

		for _, r := range reminders {
			err := s.notifier.SendReminder(ctx, r)
			s.metrics.ObserveReminder(r.Lang, err)
			if err != nil {
				s.logger.Warn("failed to send reminder",
					zap.Int64("user_id", r.UserID),
					zap.String("lang", r.Lang),
					zap.Error(err))
				continue
			}
			sent++
		}
	}
	return sent
}
