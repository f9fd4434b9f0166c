package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/wowoyong/voca-app/pkg/models"
)

const itemColumns = "i.id, i.kind, i.term, i.reading, i.meaning, i.example, i.difficulty, i.created_at, i.updated_at"

// GetItem returns an item by kind and ID
func (r *Repository) GetItem(ctx context.Context, kind models.ItemKind, id int64) (*models.Item, error) {
	return getItem(ctx, r.db, kind, id)
}

func (t *txRepository) GetItem(ctx context.Context, kind models.ItemKind, id int64) (*models.Item, error) {
	return getItem(ctx, t.tx, kind, id)
}

func getItem(ctx context.Context, q sqlx.ExtContext, kind models.ItemKind, id int64) (*models.Item, error) {
	var item models.Item
	query := q.Rebind("SELECT " + itemColumns + " FROM items i WHERE i.id = ? AND i.kind = ?")
	if err := sqlx.GetContext(ctx, q, &item, query, id, kind); err != nil {
		return nil, notFound(err, "failed to get item")
	}
	return &item, nil
}

// ListItems returns the catalog of one kind, easiest first
func (r *Repository) ListItems(ctx context.Context, kind models.ItemKind, limit int) ([]models.Item, error) {
	query := r.db.Rebind("SELECT " + itemColumns + " FROM items i WHERE i.kind = ? ORDER BY i.difficulty ASC, i.id ASC" + limitClause(limit))
	items := []models.Item{}
	if err := r.db.SelectContext(ctx, &items, query, kind); err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}
	return items, nil
}

// ListUnseenItems returns items the user has never rated, easiest first
func (r *Repository) ListUnseenItems(ctx context.Context, userID int64, kind models.ItemKind, limit int) ([]models.Item, error) {
	query := r.db.Rebind(`
		SELECT ` + itemColumns + ` FROM items i
		WHERE i.kind = ? AND NOT EXISTS (
			SELECT 1 FROM review_states rs
			WHERE rs.user_id = ? AND rs.item_kind = i.kind AND rs.item_id = i.id
		)
		ORDER BY i.difficulty ASC, i.id ASC` + limitClause(limit))
	items := []models.Item{}
	if err := r.db.SelectContext(ctx, &items, query, kind, userID); err != nil {
		return nil, errors.Wrap(err, "failed to list unseen items")
	}
	return items, nil
}

// ListDueItems returns items whose review is due at or before before, soonest first
func (r *Repository) ListDueItems(ctx context.Context, userID int64, kind models.ItemKind, before time.Time, limit int) ([]models.Item, error) {
	query := r.db.Rebind(`
		SELECT ` + itemColumns + ` FROM review_states rs
		JOIN items i ON i.id = rs.item_id AND i.kind = rs.item_kind
		WHERE rs.user_id = ? AND rs.item_kind = ? AND rs.next_due_at <= ?
		ORDER BY rs.next_due_at ASC, i.id ASC` + limitClause(limit))
	items := []models.Item{}
	if err := r.db.SelectContext(ctx, &items, query, userID, kind, dbTime(before)); err != nil {
		return nil, errors.Wrap(err, "failed to list due items")
	}
	return items, nil
}

// ListLearnedItems returns every item the user has rated at least once
func (r *Repository) ListLearnedItems(ctx context.Context, userID int64, kind models.ItemKind) ([]models.Item, error) {
	query := r.db.Rebind(`
		SELECT ` + itemColumns + ` FROM review_states rs
		JOIN items i ON i.id = rs.item_id AND i.kind = rs.item_kind
		WHERE rs.user_id = ? AND rs.item_kind = ?
		ORDER BY i.id ASC`)
	items := []models.Item{}
	if err := r.db.SelectContext(ctx, &items, query, userID, kind); err != nil {
		return nil, errors.Wrap(err, "failed to list learned items")
	}
	return items, nil
}

// UpsertItem creates an item or updates the one with the same kind and term.
// It reports whether a new row was created.
func (r *Repository) UpsertItem(ctx context.Context, item *models.Item) (created bool, err error) {
	now := dbTime(time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var id int64
	err = tx.GetContext(ctx, &id, tx.Rebind("SELECT id FROM items WHERE kind = ? AND term = ?"), item.Kind, item.Term)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE items SET reading = ?, meaning = ?, example = ?, difficulty = ?, updated_at = ?
			WHERE id = ?`),
			item.Reading, item.Meaning, item.Example, item.Difficulty, now, id)
		if err != nil {
			return false, errors.Wrap(err, "failed to update item")
		}
		item.ID = id
		item.UpdatedAt = now
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowxContext(ctx, tx.Rebind(`
			INSERT INTO items (kind, term, reading, meaning, example, difficulty, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			item.Kind, item.Term, item.Reading, item.Meaning, item.Example, item.Difficulty, now, now,
		).Scan(&item.ID)
		if err != nil {
			return false, errors.Wrap(err, "failed to create item")
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		created = true
	default:
		return false, errors.Wrap(err, "failed to look up item")
	}

	if err = tx.Commit(); err != nil {
		return false, errors.Wrap(err, "failed to commit item")
	}
	return created, nil
}
