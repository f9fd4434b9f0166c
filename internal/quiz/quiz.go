// Package quiz builds multiple choice questions from a language domain's
// item catalog.
package quiz

import (
	"context"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/internal/shuffle"
	"github.com/wowoyong/voca-app/pkg/models"
)

const (
	// DefaultCount is the number of questions when none is requested
	DefaultCount = 10
	// MaxCount caps a single quiz
	MaxCount = 20
	// Distractors is the number of wrong options per question
	Distractors = 3
)

// ItemSource lists catalog items.
type ItemSource interface {
	ListItems(ctx context.Context, kind models.ItemKind, limit int) ([]models.Item, error)
}

// Option is one answer choice
type Option struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Question asks for the meaning of one item
type Question struct {
	ItemID    int64           `json:"wordId"`
	Kind      models.ItemKind `json:"kind"`
	Question  string          `json:"question"`
	Reading   string          `json:"reading,omitempty"`
	TTSText   string          `json:"ttsText"`
	CorrectID int64           `json:"correctId"`
	Options   []Option        `json:"options"`
}

// Generator creates quizzes
type Generator struct {
	items ItemSource
}

// NewGenerator creates a generator reading from items
func NewGenerator(items ItemSource) *Generator {
	return &Generator{items: items}
}

// Generate picks count random items of kind and attaches three wrong
// meanings to each. count is clamped to 1..MaxCount, 0 means DefaultCount.
func (g *Generator) Generate(ctx context.Context, kind models.ItemKind, count int) ([]Question, error) {
	if !kind.Valid() {
		return nil, apperr.InvalidArgument("unknown item kind %q", kind)
	}
	switch {
	case count <= 0:
		count = DefaultCount
	case count > MaxCount:
		count = MaxCount
	}

	all, err := g.items.ListItems(ctx, kind, 0)
	if err != nil {
		return nil, apperr.Unavailable(err, "list items")
	}
	if len(all) < Distractors+1 {
		return nil, apperr.InvalidArgument("not enough items for a quiz: have %d, need %d", len(all), Distractors+1)
	}

	picked := shuffle.Random(all)
	if len(picked) > count {
		picked = picked[:count]
	}

	questions := make([]Question, 0, len(picked))
	for _, item := range picked {
		options := append(distractors(item, all), Option{ID: item.ID, Text: item.Meaning})
		questions = append(questions, Question{
			ItemID:    item.ID,
			Kind:      item.Kind,
			Question:  item.Term,
			Reading:   item.Reading,
			TTSText:   item.Term,
			CorrectID: item.ID,
			Options:   shuffle.Random(options),
		})
	}
	return questions, nil
}

// distractors returns up to Distractors options from other items. Meanings
// equal to the correct one are skipped when enough other candidates exist.
func distractors(item models.Item, all []models.Item) []Option {
	out := make([]Option, 0, Distractors+1)
	seen := map[string]bool{item.Meaning: true}
	var fallback []Option

	for _, w := range shuffle.Random(all) {
		if len(out) == Distractors {
			break
		}
		if w.ID == item.ID {
			continue
		}
		opt := Option{ID: w.ID, Text: w.Meaning}
		if seen[w.Meaning] {
			fallback = append(fallback, opt)
			continue
		}
		seen[w.Meaning] = true
		out = append(out, opt)
	}
	for _, opt := range fallback {
		if len(out) == Distractors {
			break
		}
		out = append(out, opt)
	}
	return out
}
