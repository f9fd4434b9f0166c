package study

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wowoyong/voca-app/pkg/models"
)

func sessionsOn(dates ...string) []models.DailySession {
	out := make([]models.DailySession, len(dates))
	for i, d := range dates {
		out[i] = models.DailySession{Date: d}
	}
	return out
}

func TestComputeStreak(t *testing.T) {
	today := time.Date(2025, 3, 2, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		sessions []models.DailySession
		grace    bool
		want     int
	}{
		{"empty ledger", nil, false, 0},
		{"three days then gap", sessionsOn("2025-03-02", "2025-03-01", "2025-02-28", "2025-02-26"), false, 3},
		{"crosses month end", sessionsOn("2025-03-02", "2025-03-01", "2025-02-28", "2025-02-27"), false, 4},
		{"today missing is strict", sessionsOn("2025-03-01", "2025-02-28"), false, 0},
		{"today missing with grace", sessionsOn("2025-03-01", "2025-02-28"), true, 2},
		{"grace does not skip two days", sessionsOn("2025-02-28"), true, 0},
		{"only future rows", sessionsOn("2025-03-05"), false, 0},
		{"future row is ignored", sessionsOn("2025-03-05", "2025-03-02", "2025-03-01"), false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeStreak(tt.sessions, today, tt.grace))
		})
	}
}

func TestComputeStreak_BoundedByWindow(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	var sessions []models.DailySession
	for i := 0; i < 60; i++ {
		sessions = append(sessions, models.DailySession{Date: today.AddDate(0, 0, -i).Format("2006-01-02")})
	}

	assert.Equal(t, 60, computeStreak(sessions, today, false))
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2025-06-15")
	assert.NoError(t, err)

	for _, bad := range []string{"", "2025/06/15", "2025-6-15", "2025-13-01", "15-06-2025"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}
