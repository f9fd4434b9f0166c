package study

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/pkg/models"
)

// DefaultDailyTime is the reminder time of users who never changed it.
const DefaultDailyTime = "08:00"

var dailyTimePattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// NotificationUpdate changes a subset of the reminder settings.
// Nil fields are left untouched.
type NotificationUpdate struct {
	DailyTime *string `json:"dailyTime,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
	ChatID    *int64  `json:"chatId,omitempty"`
	Timezone  *string `json:"timezone,omitempty"`
}

// Validate checks the fields that are set.
func (u NotificationUpdate) Validate() error {
	if u.DailyTime == nil && u.IsActive == nil && u.ChatID == nil && u.Timezone == nil {
		return apperr.InvalidArgument("nothing to update")
	}
	if u.DailyTime != nil && !dailyTimePattern.MatchString(*u.DailyTime) {
		return apperr.InvalidArgument("dailyTime must be HH:MM, got %q", *u.DailyTime)
	}
	if u.Timezone != nil {
		if _, err := time.LoadLocation(*u.Timezone); err != nil {
			return apperr.InvalidArgument("unknown timezone %q", *u.Timezone)
		}
	}
	return nil
}

// NotificationSettings returns the user's reminder settings, or the defaults
// when none have been stored.
func (s *Service) NotificationSettings(ctx context.Context, userID int64) (*models.User, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if isNotFound(err) {
		return s.defaultUser(userID), nil
	}
	if err != nil {
		return nil, storageErr(err, "get user")
	}
	return user, nil
}

// UpdateNotificationSettings applies u and stores the result.
func (s *Service) UpdateNotificationSettings(ctx context.Context, userID int64, u NotificationUpdate) (*models.User, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	user, err := s.NotificationSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.DailyTime != nil {
		user.DailyTime = *u.DailyTime
	}
	if u.IsActive != nil {
		user.IsActive = *u.IsActive
	}
	if u.ChatID != nil {
		user.ChatID = *u.ChatID
	}
	if u.Timezone != nil {
		user.Timezone = *u.Timezone
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, storageErr(err, "save user")
	}
	s.logger.Info("notification settings updated",
		zap.Int64("user_id", userID),
		zap.String("daily_time", user.DailyTime),
		zap.Bool("is_active", user.IsActive))
	return user, nil
}

func (s *Service) defaultUser(userID int64) *models.User {
	now := s.now().UTC()
	return &models.User{
		ID:        userID,
		DailyTime: DefaultDailyTime,
		Timezone:  s.cfg.Location.String(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
