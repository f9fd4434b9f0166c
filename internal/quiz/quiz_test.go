package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/pkg/models"
)

type staticSource struct {
	items []models.Item
	err   error
}

func (s staticSource) ListItems(_ context.Context, kind models.ItemKind, _ int) ([]models.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Item
	for _, it := range s.items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out, nil
}

func catalog(n int) []models.Item {
	items := make([]models.Item, n)
	for i := range items {
		items[i] = models.Item{
			ID:      int64(i + 1),
			Kind:    models.KindWord,
			Term:    fmt.Sprintf("term-%d", i+1),
			Meaning: fmt.Sprintf("meaning-%d", i+1),
		}
	}
	return items
}

func TestGenerate(t *testing.T) {
	g := NewGenerator(staticSource{items: catalog(30)})

	questions, err := g.Generate(context.Background(), models.KindWord, 5)
	require.NoError(t, err)
	require.Len(t, questions, 5)

	seen := map[int64]bool{}
	for _, q := range questions {
		assert.False(t, seen[q.ItemID], "items are not repeated")
		seen[q.ItemID] = true

		assert.Equal(t, q.ItemID, q.CorrectID)
		assert.Equal(t, fmt.Sprintf("term-%d", q.ItemID), q.Question)
		require.Len(t, q.Options, Distractors+1)

		texts := map[string]bool{}
		correct := 0
		for _, opt := range q.Options {
			texts[opt.Text] = true
			if opt.ID == q.CorrectID {
				correct++
				assert.Equal(t, fmt.Sprintf("meaning-%d", q.ItemID), opt.Text)
			}
		}
		assert.Equal(t, 1, correct)
		assert.Len(t, texts, Distractors+1, "options are distinct")
	}
}

func TestGenerate_CountBounds(t *testing.T) {
	g := NewGenerator(staticSource{items: catalog(50)})

	questions, err := g.Generate(context.Background(), models.KindWord, 0)
	require.NoError(t, err)
	assert.Len(t, questions, DefaultCount)

	questions, err = g.Generate(context.Background(), models.KindWord, 100)
	require.NoError(t, err)
	assert.Len(t, questions, MaxCount)

	g = NewGenerator(staticSource{items: catalog(6)})
	questions, err = g.Generate(context.Background(), models.KindWord, 10)
	require.NoError(t, err)
	assert.Len(t, questions, 6)
}

func TestGenerate_NotEnoughItems(t *testing.T) {
	g := NewGenerator(staticSource{items: catalog(3)})

	_, err := g.Generate(context.Background(), models.KindWord, 10)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	_, err = g.Generate(context.Background(), models.KindGrammar, 10)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestGenerate_Errors(t *testing.T) {
	g := NewGenerator(staticSource{err: errors.New("db down")})
	_, err := g.Generate(context.Background(), models.KindWord, 10)
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))

	_, err = g.Generate(context.Background(), "verb", 10)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestDistractors_PreferDistinctMeanings(t *testing.T) {
	items := catalog(6)
	items[1].Meaning = items[0].Meaning

	for i := 0; i < 20; i++ {
		opts := distractors(items[0], items)
		require.Len(t, opts, Distractors)
		for _, opt := range opts {
			assert.NotEqual(t, items[0].Meaning, opt.Text)
			assert.NotEqual(t, items[0].ID, opt.ID)
		}
	}
}
