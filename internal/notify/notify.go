// Package notify delivers daily study reminders.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/logging"
	"github.com/wowoyong/voca-app/internal/study"
)

var languageNames = map[string]string{
	"en": "영어",
	"jp": "일본어",
}

// ReminderText formats the reminder message of one language domain.
func ReminderText(r study.Reminder) string {
	name, ok := languageNames[r.Lang]
	if !ok {
		name = r.Lang
	}
	return fmt.Sprintf("%s 복습할 항목이 %d개 있어요! 오늘의 학습을 시작해 보세요.", name, r.Count)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends reminders as bot messages to the user's chat.
type Telegram struct {
	api    sender
	logger *zap.Logger
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, logger *zap.Logger) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger = logging.OrNop(logger)
	logger.Info("telegram notifier authorized", zap.String("bot", api.Self.UserName))
	return &Telegram{api: api, logger: logger}, nil
}

// SendReminder implements the scheduler's Notifier.
func (t *Telegram) SendReminder(_ context.Context, r study.Reminder) error {
	if r.ChatID == 0 {
		return fmt.Errorf("user %d has no chat", r.UserID)
	}

	msg := tgbotapi.NewMessage(r.ChatID, ReminderText(r))
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder to user %d: %w", r.UserID, err)
	}
	t.logger.Info("reminder sent",
		zap.Int64("user_id", r.UserID),
		zap.String("lang", r.Lang),
		zap.Int("count", r.Count))
	return nil
}

// Log writes reminders to the log instead of delivering them. It is used
// when no bot token is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging notifier.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logging.OrNop(logger)}
}

func (l *Log) SendReminder(_ context.Context, r study.Reminder) error {
	l.logger.Info("reminder",
		zap.Int64("user_id", r.UserID),
		zap.String("lang", r.Lang),
		zap.Int("count", r.Count),
		zap.String("text", ReminderText(r)))
	return nil
}
