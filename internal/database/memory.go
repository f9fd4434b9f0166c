package database

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/wowoyong/voca-app/internal/study"
	"github.com/wowoyong/voca-app/pkg/models"
)

type stateKey struct {
	userID int64
	kind   models.ItemKind
	itemID int64
}

type sessionKey struct {
	userID int64
	date   string
}

type memData struct {
	items    map[int64]models.Item
	states   map[stateKey]models.ReviewState
	sessions map[sessionKey]models.DailySession
	attempts []models.QuizAttempt
	users    map[int64]models.User
	nextID   int64
}

func (d *memData) clone() *memData {
	return &memData{
		items:    maps.Clone(d.items),
		states:   maps.Clone(d.states),
		sessions: maps.Clone(d.sessions),
		attempts: slices.Clone(d.attempts),
		users:    maps.Clone(d.users),
		nextID:   d.nextID,
	}
}

func (d *memData) id() int64 {
	d.nextID++
	return d.nextID
}

// MemoryStore keeps one language domain in process memory.
// Transactions hold the store lock for their whole duration and work on a
// copy that replaces the data only on success.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
}

var _ study.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memData{
		items:    map[int64]models.Item{},
		states:   map[stateKey]models.ReviewState{},
		sessions: map[sessionKey]models.DailySession{},
		users:    map[int64]models.User{},
	}}
}

// UpsertItem creates an item or updates the one with the same kind and term.
func (m *MemoryStore) UpsertItem(_ context.Context, item *models.Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range m.data.items {
		if existing.Kind == item.Kind && existing.Term == item.Term {
			item.ID = id
			item.CreatedAt = existing.CreatedAt
			item.UpdatedAt = now
			m.data.items[id] = *item
			return false, nil
		}
	}
	item.ID = m.data.id()
	item.CreatedAt = now
	item.UpdatedAt = now
	m.data.items[item.ID] = *item
	return true, nil
}

// InTx runs fn against a staged copy of the data.
func (m *MemoryStore) InTx(ctx context.Context, fn func(tx study.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.data.clone()
	if err := fn(&memTx{data: staged}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "transaction aborted")
	}
	m.data = staged
	return nil
}

func (m *MemoryStore) GetItem(_ context.Context, kind models.ItemKind, id int64) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.getItem(kind, id)
}

func (d *memData) getItem(kind models.ItemKind, id int64) (*models.Item, error) {
	item, ok := d.items[id]
	if !ok || item.Kind != kind {
		return nil, study.ErrNotFound
	}
	return &item, nil
}

func (m *MemoryStore) ListItems(_ context.Context, kind models.ItemKind, limit int) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.catalog(kind, limit, func(models.Item) bool { return true }), nil
}

func (m *MemoryStore) ListUnseenItems(_ context.Context, userID int64, kind models.ItemKind, limit int) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.catalog(kind, limit, func(it models.Item) bool {
		_, seen := m.data.states[stateKey{userID, kind, it.ID}]
		return !seen
	}), nil
}

// catalog returns items of kind accepted by keep, easiest first.
func (d *memData) catalog(kind models.ItemKind, limit int, keep func(models.Item) bool) []models.Item {
	out := []models.Item{}
	for _, it := range d.items {
		if it.Kind == kind && keep(it) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b models.Item) int {
		return cmp.Or(cmp.Compare(a.Difficulty, b.Difficulty), cmp.Compare(a.ID, b.ID))
	})
	return truncate(out, limit)
}

func (m *MemoryStore) ListDueItems(_ context.Context, userID int64, kind models.ItemKind, before time.Time, limit int) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := []models.ReviewState{}
	for k, st := range m.data.states {
		if k.userID == userID && k.kind == kind && !st.NextDueAt.After(before) {
			due = append(due, st)
		}
	}
	slices.SortFunc(due, func(a, b models.ReviewState) int {
		return cmp.Or(a.NextDueAt.Compare(b.NextDueAt), cmp.Compare(a.ItemID, b.ItemID))
	})
	return m.data.itemsOf(truncate(due, limit)), nil
}

func (m *MemoryStore) ListLearnedItems(_ context.Context, userID int64, kind models.ItemKind) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	learned := []models.ReviewState{}
	for k, st := range m.data.states {
		if k.userID == userID && k.kind == kind {
			learned = append(learned, st)
		}
	}
	slices.SortFunc(learned, func(a, b models.ReviewState) int { return cmp.Compare(a.ItemID, b.ItemID) })
	return m.data.itemsOf(learned), nil
}

func (d *memData) itemsOf(states []models.ReviewState) []models.Item {
	out := make([]models.Item, 0, len(states))
	for _, st := range states {
		if it, ok := d.items[st.ItemID]; ok && it.Kind == st.ItemKind {
			out = append(out, it)
		}
	}
	return out
}

func (m *MemoryStore) CountDueStates(_ context.Context, userID int64, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, st := range m.data.states {
		if k.userID == userID && !st.NextDueAt.After(before) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountStates(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.data.states {
		if k.userID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ListRecentSessions(_ context.Context, userID int64, limit int) ([]models.DailySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.data.sessionsOf(userID, func(string) bool { return true })
	slices.Reverse(out)
	return truncate(out, limit), nil
}

func (m *MemoryStore) ListSessionsSince(_ context.Context, userID int64, since string) ([]models.DailySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.sessionsOf(userID, func(date string) bool { return date >= since }), nil
}

// sessionsOf returns the user's rows accepted by keep, oldest first.
func (d *memData) sessionsOf(userID int64, keep func(date string) bool) []models.DailySession {
	out := []models.DailySession{}
	for k, sess := range d.sessions {
		if k.userID == userID && keep(k.date) {
			out = append(out, sess)
		}
	}
	slices.SortFunc(out, func(a, b models.DailySession) int { return cmp.Compare(a.Date, b.Date) })
	return out
}

func (m *MemoryStore) AddQuizAttempt(_ context.Context, attempt *models.QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if attempt.AnsweredAt.IsZero() {
		attempt.AnsweredAt = time.Now()
	}
	attempt.ID = m.data.id()
	m.data.attempts = append(m.data.attempts, *attempt)
	return nil
}

func (m *MemoryStore) CountQuizAttempts(_ context.Context, userID int64) (total, correct int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.data.attempts {
		if a.UserID != userID {
			continue
		}
		total++
		if a.IsCorrect {
			correct++
		}
	}
	return total, correct, nil
}

func (m *MemoryStore) GetUser(_ context.Context, userID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.data.users[userID]
	if !ok {
		return nil, study.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.data.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	}
	m.data.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) ListReminderUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.User{}
	for _, u := range m.data.users {
		if u.IsActive && u.ChatID != 0 {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

type memTx struct {
	data *memData
}

var _ study.Tx = (*memTx)(nil)

// LockUser is a no-op: the store lock is already held.
func (t *memTx) LockUser(context.Context, int64) error { return nil }

func (t *memTx) GetItem(_ context.Context, kind models.ItemKind, id int64) (*models.Item, error) {
	return t.data.getItem(kind, id)
}

func (t *memTx) GetReviewState(_ context.Context, userID int64, kind models.ItemKind, itemID int64) (*models.ReviewState, error) {
	st, ok := t.data.states[stateKey{userID, kind, itemID}]
	if !ok {
		return nil, study.ErrNotFound
	}
	return &st, nil
}

func (t *memTx) SaveReviewState(_ context.Context, state *models.ReviewState) error {
	key := stateKey{state.UserID, state.ItemKind, state.ItemID}
	if existing, ok := t.data.states[key]; ok {
		state.ID = existing.ID
		state.CreatedAt = existing.CreatedAt
	} else {
		state.ID = t.data.id()
	}
	t.data.states[key] = *state
	return nil
}

func (t *memTx) session(userID int64, date string) models.DailySession {
	key := sessionKey{userID, date}
	sess, ok := t.data.sessions[key]
	if !ok {
		now := time.Now().UTC()
		sess = models.DailySession{ID: t.data.id(), UserID: userID, Date: date, CreatedAt: now}
	}
	return sess
}

func (t *memTx) IncrementSession(_ context.Context, userID int64, date string, newItems, reviewed int) error {
	sess := t.session(userID, date)
	sess.NewItemsCount += newItems
	sess.ReviewedItemsCount += reviewed
	sess.UpdatedAt = time.Now().UTC()
	t.data.sessions[sessionKey{userID, date}] = sess
	return nil
}

func (t *memTx) MarkSession(_ context.Context, userID int64, date string, activity models.Activity) error {
	sess := t.session(userID, date)
	switch activity {
	case models.ActivityToday:
		sess.TodayDone = true
	case models.ActivityReview:
		sess.ReviewDone = true
	case models.ActivityQuiz:
		sess.QuizDone = true
	default:
		return errors.Errorf("unknown activity %q", activity)
	}
	sess.UpdatedAt = time.Now().UTC()
	t.data.sessions[sessionKey{userID, date}] = sess
	return nil
}

func (t *memTx) GetSession(_ context.Context, userID int64, date string) (*models.DailySession, error) {
	sess, ok := t.data.sessions[sessionKey{userID, date}]
	if !ok {
		return nil, study.ErrNotFound
	}
	return &sess, nil
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
