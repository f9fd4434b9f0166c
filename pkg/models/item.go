package models

import "time"

// ItemKind distinguishes the kinds of learnable content in a language domain
type ItemKind string

const (
	// KindWord is a single vocabulary word
	KindWord ItemKind = "word"
	// KindExpression is an idiom or set expression
	KindExpression ItemKind = "expression"
	// KindGrammar is a grammar point
	KindGrammar ItemKind = "grammar"
)

// ItemKinds lists every kind in display order
var ItemKinds = []ItemKind{KindWord, KindExpression, KindGrammar}

// Valid reports whether k is a known item kind
func (k ItemKind) Valid() bool {
	switch k {
	case KindWord, KindExpression, KindGrammar:
		return true
	}
	return false
}

// Item is an immutable piece of learnable content
type Item struct {
	ID         int64     `json:"id" db:"id"`
	Kind       ItemKind  `json:"kind" db:"kind"`
	Term       string    `json:"term" db:"term"`
	Reading    string    `json:"reading" db:"reading"`       // pronunciation or kana reading
	Meaning    string    `json:"meaning" db:"meaning"`       // translation shown on the back of the card
	Example    string    `json:"example" db:"example"`
	Difficulty int       `json:"difficulty" db:"difficulty"` // ordering only, never used by the scheduler
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
