package study_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/internal/database"
	"github.com/wowoyong/voca-app/internal/study"
	"github.com/wowoyong/voca-app/pkg/models"
)

var kst = time.FixedZone("KST", 9*60*60)

type fixture struct {
	store *database.MemoryStore
	svc   *study.Service
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: database.NewMemoryStore(),
		now:   time.Date(2025, 6, 15, 10, 0, 0, 0, kst),
	}
	cfg := study.DefaultConfig()
	cfg.Location = kst
	f.svc = study.NewService("en", f.store, cfg, nil, study.WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) seed(t *testing.T, kind models.ItemKind, n int) []models.Item {
	t.Helper()
	items := make([]models.Item, 0, n)
	for i := 0; i < n; i++ {
		item := models.Item{
			Kind:       kind,
			Term:       fmt.Sprintf("%s-%03d", kind, i),
			Meaning:    fmt.Sprintf("meaning %d", i),
			Difficulty: i%5 + 1,
		}
		_, err := f.store.UpsertItem(context.Background(), &item)
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func (f *fixture) rate(t *testing.T, item models.Item, quality int) *models.ReviewState {
	t.Helper()
	st, err := f.svc.Rate(context.Background(), study.RateRequest{
		UserID: 1, Kind: item.Kind, ItemID: item.ID, Quality: quality,
	})
	require.NoError(t, err)
	return st
}

func (f *fixture) session(t *testing.T, userID int64, date string) *models.DailySession {
	t.Helper()
	var sess *models.DailySession
	err := f.store.InTx(context.Background(), func(tx study.Tx) error {
		var err error
		sess, err = tx.GetSession(context.Background(), userID, date)
		return err
	})
	require.NoError(t, err)
	return sess
}

func itemIDs(items []models.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestRate_Validation(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, models.KindWord, 1)[0]

	tests := []struct {
		name string
		req  study.RateRequest
	}{
		{"missing user", study.RateRequest{Kind: models.KindWord, ItemID: item.ID, Quality: 3}},
		{"unknown kind", study.RateRequest{UserID: 1, Kind: "idiom", ItemID: item.ID, Quality: 3}},
		{"missing item", study.RateRequest{UserID: 1, Kind: models.KindWord, Quality: 3}},
		{"quality too low", study.RateRequest{UserID: 1, Kind: models.KindWord, ItemID: item.ID, Quality: -1}},
		{"quality too high", study.RateRequest{UserID: 1, Kind: models.KindWord, ItemID: item.ID, Quality: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Rate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
		})
	}
}

func TestRate_UnknownItem(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, models.KindWord, 1)[0]

	_, err := f.svc.Rate(context.Background(), study.RateRequest{UserID: 1, Kind: models.KindWord, ItemID: item.ID + 100, Quality: 4})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.svc.Rate(context.Background(), study.RateRequest{UserID: 1, Kind: models.KindGrammar, ItemID: item.ID, Quality: 4})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	sessions, err := f.store.ListRecentSessions(context.Background(), 1, 60)
	require.NoError(t, err)
	assert.Empty(t, sessions, "a rejected rating leaves no ledger row")
}

func TestRate_FirstAndRepeatRatings(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, models.KindWord, 1)[0]

	st := f.rate(t, item, 5)
	assert.Equal(t, 1, st.RepetitionCount)
	assert.Equal(t, 1, st.Interval)
	assert.InDelta(t, 2.6, st.EaseFactor, 1e-9)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, kst), st.NextDueAt)
	assert.Equal(t, 5, st.LastQuality)
	assert.Equal(t, f.now, st.LastReviewedAt)

	sess := f.session(t, 1, "2025-06-15")
	assert.Equal(t, 1, sess.NewItemsCount)
	assert.Equal(t, 0, sess.ReviewedItemsCount)

	st = f.rate(t, item, 5)
	assert.Equal(t, 2, st.RepetitionCount)
	assert.Equal(t, 6, st.Interval)

	st = f.rate(t, item, 0)
	assert.Equal(t, 0, st.RepetitionCount)
	assert.Equal(t, 1, st.Interval)
	assert.GreaterOrEqual(t, st.EaseFactor, 1.3)

	sess = f.session(t, 1, "2025-06-15")
	assert.Equal(t, 1, sess.NewItemsCount)
	assert.Equal(t, 2, sess.ReviewedItemsCount)
}

func TestRate_LedgerUsesLocalCalendar(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, models.KindWord, 1)[0]
	// 2025-06-15 16:00 UTC is already 2025-06-16 in KST
	f.now = time.Date(2025, 6, 15, 16, 0, 0, 0, time.UTC)

	f.rate(t, item, 4)

	sess := f.session(t, 1, "2025-06-16")
	assert.Equal(t, 1, sess.NewItemsCount)
}

func TestRate_ConcurrentRatingsKeepEveryIncrement(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, models.KindWord, 1)[0]

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Rate(context.Background(), study.RateRequest{UserID: 1, Kind: item.Kind, ItemID: item.ID, Quality: 4})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sess := f.session(t, 1, "2025-06-15")
	assert.Equal(t, 1, sess.NewItemsCount)
	assert.Equal(t, n-1, sess.ReviewedItemsCount)

	learned, err := f.store.CountStates(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, learned)
}

type failingStore struct {
	*database.MemoryStore
}

func (failingStore) InTx(context.Context, func(study.Tx) error) error {
	return errors.New("connection reset")
}

func TestRate_StorageFailureIsUnavailable(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, models.KindWord, 1)[0]
	svc := study.NewService("en", failingStore{f.store}, study.DefaultConfig(), nil)

	_, err := svc.Rate(context.Background(), study.RateRequest{UserID: 1, Kind: item.Kind, ItemID: item.ID, Quality: 3})
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
}

func TestSelectToday_StableWithinDay(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.KindWord, 60)

	first, err := f.svc.SelectToday(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	assert.Len(t, first, 15)

	f.now = f.now.Add(10 * time.Hour)
	second, err := f.svc.SelectToday(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	assert.Equal(t, itemIDs(first), itemIDs(second))
}

func TestSelectToday_ChangesAcrossDays(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.KindWord, 100)

	today, err := f.svc.SelectToday(context.Background(), 1, models.KindWord)
	require.NoError(t, err)

	f.now = f.now.AddDate(0, 0, 1)
	tomorrow, err := f.svc.SelectToday(context.Background(), 1, models.KindWord)
	require.NoError(t, err)

	assert.NotEqual(t, itemIDs(today), itemIDs(tomorrow))
}

func TestSelectToday_ExcludesRatedItems(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.KindWord, 20)

	first, err := f.svc.SelectToday(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	for _, item := range first {
		f.rate(t, item, 4)
	}

	next, err := f.svc.SelectToday(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	assert.Len(t, next, 5)
	for _, item := range next {
		assert.NotContains(t, itemIDs(first), item.ID)
	}
}

func TestSelectToday_FallsBackToCatalog(t *testing.T) {
	f := newFixture(t)
	items := f.seed(t, models.KindGrammar, 3)
	for _, item := range items {
		f.rate(t, item, 5)
	}

	got, err := f.svc.SelectToday(context.Background(), 1, models.KindGrammar)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, itemIDs(items), got[0].ID)
}

func TestSelectToday_EmptyCatalog(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.SelectToday(context.Background(), 1, models.KindExpression)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectReview(t *testing.T) {
	f := newFixture(t)
	items := f.seed(t, models.KindWord, 3)

	got, err := f.svc.SelectReview(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got, "nothing due is not an error")

	f.rate(t, items[0], 5) // due tomorrow
	f.rate(t, items[1], 5)
	f.rate(t, items[1], 5) // due in six days

	f.now = time.Date(2025, 6, 16, 0, 0, 0, 0, kst).Add(-time.Minute)
	got, err = f.svc.SelectReview(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	assert.Empty(t, got)

	f.now = time.Date(2025, 6, 16, 7, 0, 0, 0, kst)
	got, err = f.svc.SelectReview(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	assert.Equal(t, []int64{items[0].ID}, itemIDs(got))
}

func TestSelectReview_DueFromLocalMidnight(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, models.KindWord, 1)[0]
	f.rate(t, item, 5)

	f.now = time.Date(2025, 6, 15, 23, 0, 0, 0, kst)
	got, err := f.svc.SelectReview(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	assert.Empty(t, got)

	f.now = time.Date(2025, 6, 16, 0, 30, 0, 0, kst)
	got, err = f.svc.SelectReview(context.Background(), 1, models.KindWord)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSelectReview_Capped(t *testing.T) {
	f := newFixture(t)
	items := f.seed(t, models.KindExpression, 12)
	for _, item := range items {
		f.rate(t, item, 4)
	}

	f.now = f.now.AddDate(0, 0, 1)
	got, err := f.svc.SelectReview(context.Background(), 1, models.KindExpression)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestSelectPractice(t *testing.T) {
	f := newFixture(t)
	items := f.seed(t, models.KindWord, 20)

	_, err := f.svc.SelectPractice(context.Background(), 1, models.KindWord, 0)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	for _, item := range items[:3] {
		f.rate(t, item, 3)
	}
	got, err := f.svc.SelectPractice(context.Background(), 1, models.KindWord, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, itemIDs(items[:3]), itemIDs(got))

	got, err = f.svc.SelectPractice(context.Background(), 1, models.KindWord, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestNewService_ZeroConfigUsesDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := f.seed(t, models.KindWord, 25)
	svc := study.NewService("en", f.store, study.Config{}, nil)

	for _, item := range items {
		_, err := svc.Rate(ctx, study.RateRequest{UserID: 1, Kind: item.Kind, ItemID: item.ID, Quality: 4})
		require.NoError(t, err)
	}

	got, err := svc.SelectPractice(ctx, 1, models.KindWord, 0)
	require.NoError(t, err)
	assert.Len(t, got, study.DefaultConfig().PracticeCount)

	streak, err := svc.Streak(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	cal, err := svc.GetCalendar(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, cal.Entries, 1)
}

func TestTodayPlan(t *testing.T) {
	f := newFixture(t)
	f.seed(t, models.KindWord, 30)
	f.seed(t, models.KindExpression, 10)
	f.seed(t, models.KindGrammar, 2)

	plan, err := f.svc.TodayPlan(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", plan.Date)
	require.Len(t, plan.Kinds, 3)

	assert.Equal(t, models.KindWord, plan.Kinds[0].Kind)
	assert.Len(t, plan.Kinds[0].New, 15)
	assert.Len(t, plan.Kinds[1].New, 4)
	assert.Len(t, plan.Kinds[2].New, 1)
	for _, k := range plan.Kinds {
		assert.NotNil(t, k.Review)
		assert.Empty(t, k.Review)
	}
}

func TestMarkActivityComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.MarkActivityComplete(ctx, 1, "", models.ActivityToday)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", sess.Date)
	assert.True(t, sess.TodayDone)
	assert.False(t, sess.ReviewDone)

	sess, err = f.svc.MarkActivityComplete(ctx, 1, "2025-06-15", models.ActivityToday)
	require.NoError(t, err)
	assert.True(t, sess.TodayDone)
	assert.Zero(t, sess.Total())

	sess, err = f.svc.MarkActivityComplete(ctx, 1, "2025-06-15", models.ActivityQuiz)
	require.NoError(t, err)
	assert.True(t, sess.TodayDone)
	assert.True(t, sess.QuizDone)

	sessions, err := f.store.ListRecentSessions(ctx, 1, 60)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestMarkActivityComplete_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.MarkActivityComplete(ctx, 1, "2025-6-15", models.ActivityToday)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = f.svc.MarkActivityComplete(ctx, 1, "2025-02-30", models.ActivityToday)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = f.svc.MarkActivityComplete(ctx, 1, "2025-06-15", "homework")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = f.svc.MarkActivityComplete(ctx, 0, "2025-06-15", models.ActivityQuiz)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	streak, err := f.svc.Streak(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, streak)

	for _, date := range []string{"2025-06-15", "2025-06-14", "2025-06-13", "2025-06-11", "2025-06-10"} {
		_, err := f.svc.MarkActivityComplete(ctx, 1, date, models.ActivityReview)
		require.NoError(t, err)
	}

	streak, err = f.svc.Streak(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, streak)
}

func TestStreak_TodayMissing(t *testing.T) {
	ctx := context.Background()
	for _, tt := range []struct {
		grace bool
		want  int
	}{{false, 0}, {true, 2}} {
		f := newFixture(t)
		cfg := study.DefaultConfig()
		cfg.Location = kst
		cfg.StreakGrace = tt.grace
		svc := study.NewService("en", f.store, cfg, nil, study.WithClock(func() time.Time { return f.now }))

		for _, date := range []string{"2025-06-14", "2025-06-13"} {
			_, err := svc.MarkActivityComplete(ctx, 1, date, models.ActivityToday)
			require.NoError(t, err)
		}

		streak, err := svc.Streak(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, tt.want, streak, "grace=%v", tt.grace)
	}
}

func TestEndToEnd_FirstDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, models.KindWord, 40)

	items, err := f.svc.SelectToday(ctx, 1, models.KindWord)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, item := range items {
		f.rate(t, item, 5)
	}
	_, err = f.svc.MarkActivityComplete(ctx, 1, f.svc.Today(), models.ActivityToday)
	require.NoError(t, err)

	stats, err := f.svc.GetStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, len(items), stats.TotalLearned)
	assert.Zero(t, stats.ReviewDue)
	assert.Equal(t, 1, stats.Streak)
}

func TestGetCalendar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := f.seed(t, models.KindWord, 2)

	f.now = time.Date(2025, 6, 13, 9, 0, 0, 0, kst)
	f.rate(t, items[0], 4)
	f.now = time.Date(2025, 6, 15, 9, 0, 0, 0, kst)
	f.rate(t, items[0], 4)
	f.rate(t, items[1], 2)
	_, err := f.svc.MarkActivityComplete(ctx, 1, "", models.ActivityReview)
	require.NoError(t, err)
	_, err = f.svc.MarkActivityComplete(ctx, 1, "2025-01-01", models.ActivityQuiz)
	require.NoError(t, err)

	_, err = f.svc.RecordQuizAttempt(ctx, 1, models.KindWord, items[0].ID, true)
	require.NoError(t, err)
	_, err = f.svc.RecordQuizAttempt(ctx, 1, models.KindWord, items[1].ID, false)
	require.NoError(t, err)

	cal, err := f.svc.GetCalendar(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", cal.From)
	assert.Equal(t, []study.CalendarEntry{
		{Date: "2025-06-13", Count: 1},
		{Date: "2025-06-15", Count: 2, ReviewDone: true},
	}, cal.Entries)
	assert.InDelta(t, 50.0, cal.QuizAccuracy, 1e-9)
	assert.Equal(t, 2, cal.TotalQuizzes)

	cal, err = f.svc.GetCalendar(ctx, 1, "2025-01-01")
	require.NoError(t, err)
	assert.Len(t, cal.Entries, 3)

	_, err = f.svc.GetCalendar(ctx, 1, "yesterday")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestQuizAccuracy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seed(t, models.KindWord, 1)[0]

	acc, err := f.svc.QuizAccuracy(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, acc)

	for _, ok := range []bool{true, true, false} {
		_, err := f.svc.RecordQuizAttempt(ctx, 1, models.KindWord, item.ID, ok)
		require.NoError(t, err)
	}
	acc, err = f.svc.QuizAccuracy(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 66.666, acc, 0.01)

	_, err = f.svc.RecordQuizAttempt(ctx, 1, models.KindWord, item.ID+1, true)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestNotificationSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.NotificationSettings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, study.DefaultDailyTime, u.DailyTime)
	assert.True(t, u.IsActive)
	assert.Equal(t, "KST", u.Timezone)

	daily, active := "21:30", false
	u, err = f.svc.UpdateNotificationSettings(ctx, 1, study.NotificationUpdate{DailyTime: &daily, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "21:30", u.DailyTime)
	assert.False(t, u.IsActive)

	u, err = f.svc.NotificationSettings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "21:30", u.DailyTime)

	for _, bad := range []string{"24:00", "7:30", "07:60", "noon"} {
		_, err := f.svc.UpdateNotificationSettings(ctx, 1, study.NotificationUpdate{DailyTime: &bad})
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err), bad)
	}

	_, err = f.svc.UpdateNotificationSettings(ctx, 1, study.NotificationUpdate{})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	zone := "Mars/Olympus"
	_, err = f.svc.UpdateNotificationSettings(ctx, 1, study.NotificationUpdate{Timezone: &zone})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestDueReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seed(t, models.KindWord, 1)[0]
	f.rate(t, item, 4)

	require.NoError(t, f.store.SaveUser(ctx, &models.User{ID: 1, ChatID: 42, DailyTime: "09:00", Timezone: "UTC", IsActive: true}))
	require.NoError(t, f.store.SaveUser(ctx, &models.User{ID: 2, ChatID: 43, DailyTime: "09:00", Timezone: "UTC", IsActive: true}))

	at := time.Date(2025, 6, 16, 9, 0, 30, 0, time.UTC)
	reminders, err := f.svc.DueReminders(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, []study.Reminder{{UserID: 1, ChatID: 42, Lang: "en", Count: 1}}, reminders)

	reminders, err = f.svc.DueReminders(ctx, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, reminders)
}
