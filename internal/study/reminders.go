package study

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reminder is a pending daily notification for one user.
type Reminder struct {
	UserID int64
	ChatID int64
	Lang   string
	Count  int // reviews due
}

// DueReminders returns the users whose daily time equals the minute of at in
// their own timezone and who have reviews due.
func (s *Service) DueReminders(ctx context.Context, at time.Time) ([]Reminder, error) {
	users, err := s.store.ListReminderUsers(ctx)
	if err != nil {
		return nil, storageErr(err, "list reminder users")
	}

	reminders := make([]Reminder, 0)
	for _, u := range users {
		loc := s.cfg.Location
		if u.Timezone != "" {
			if l, err := time.LoadLocation(u.Timezone); err == nil {
				loc = l
			} else {
				s.logger.Warn("invalid user timezone", zap.Int64("user_id", u.ID), zap.String("timezone", u.Timezone))
			}
		}
		if at.In(loc).Format("15:04") != u.DailyTime {
			continue
		}

		count, err := s.store.CountDueStates(ctx, u.ID, s.endOfDay(at))
		if err != nil {
			return nil, storageErr(err, "count due states")
		}
		if count == 0 {
			continue
		}
		reminders = append(reminders, Reminder{UserID: u.ID, ChatID: u.ChatID, Lang: s.lang, Count: count})
	}
	return reminders, nil
}
