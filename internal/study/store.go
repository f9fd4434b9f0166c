package study

import (
	"context"
	"errors"
	"time"

	"github.com/wowoyong/voca-app/pkg/models"
)

// ErrNotFound is returned by a Store when a keyed lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is the storage collaborator of one language domain.
// Implementations must be safe for concurrent use.
type Store interface {
	// InTx runs fn inside a single transaction. Any error returned by fn
	// rolls back every write made through tx.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetItem(ctx context.Context, kind models.ItemKind, id int64) (*models.Item, error)
	// ListItems returns the catalog of kind ordered by difficulty then id.
	// A limit <= 0 means no limit.
	ListItems(ctx context.Context, kind models.ItemKind, limit int) ([]models.Item, error)
	// ListUnseenItems returns items of kind the user has no review state for,
	// ordered by difficulty then id.
	ListUnseenItems(ctx context.Context, userID int64, kind models.ItemKind, limit int) ([]models.Item, error)
	// ListDueItems returns items whose review state is due at or before
	// before, soonest first.
	ListDueItems(ctx context.Context, userID int64, kind models.ItemKind, before time.Time, limit int) ([]models.Item, error)
	ListLearnedItems(ctx context.Context, userID int64, kind models.ItemKind) ([]models.Item, error)
	CountDueStates(ctx context.Context, userID int64, before time.Time) (int, error)
	CountStates(ctx context.Context, userID int64) (int, error)

	// ListRecentSessions returns at most limit ledger rows, newest date first.
	ListRecentSessions(ctx context.Context, userID int64, limit int) ([]models.DailySession, error)
	// ListSessionsSince returns ledger rows with date >= since, oldest first.
	ListSessionsSince(ctx context.Context, userID int64, since string) ([]models.DailySession, error)

	AddQuizAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	CountQuizAttempts(ctx context.Context, userID int64) (total, correct int, err error)

	GetUser(ctx context.Context, userID int64) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	// ListReminderUsers returns active users linked to a chat.
	ListReminderUsers(ctx context.Context) ([]models.User, error)
}

// Tx is the write side of a Store, scoped to one transaction.
type Tx interface {
	// LockUser serializes concurrent transactions of the same user.
	LockUser(ctx context.Context, userID int64) error
	GetItem(ctx context.Context, kind models.ItemKind, id int64) (*models.Item, error)
	GetReviewState(ctx context.Context, userID int64, kind models.ItemKind, itemID int64) (*models.ReviewState, error)
	// SaveReviewState inserts or updates the row keyed by (user, kind, item).
	SaveReviewState(ctx context.Context, state *models.ReviewState) error
	// IncrementSession adds to the day's counters, creating the row if absent.
	IncrementSession(ctx context.Context, userID int64, date string, newItems, reviewed int) error
	// MarkSession sets one completion flag, creating the row if absent.
	MarkSession(ctx context.Context, userID int64, date string, activity models.Activity) error
	GetSession(ctx context.Context, userID int64, date string) (*models.DailySession, error)
}
