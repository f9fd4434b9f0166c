// Package spaced_repetition implements the SuperMemo-2 update rule used to
// schedule reviews. Everything here is pure: no storage, no clock reads.
package spaced_repetition

import (
	"fmt"
	"math"
	"time"
)

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

const (
	// DefaultEaseFactor is the ease of an item that has never been rated
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor applied after every update
	MinEaseFactor = 1.3
	// PassThreshold is the lowest quality counted as a successful recall
	PassThreshold = QualityCorrectDifficult
)

// Validate rejects qualities outside 0..5
func (q QualityResponse) Validate() error {
	if q < QualityBlackout || q > QualityPerfect {
		return fmt.Errorf("quality must be between %d and %d, got %d", QualityBlackout, QualityPerfect, q)
	}
	return nil
}

// State is the scheduling part of a review state
type State struct {
	RepetitionCount int
	EaseFactor      float64
	Interval        int
}

// InitialState is the prior used for an item's first rating
func InitialState() State {
	return State{
		RepetitionCount: 0,
		EaseFactor:      DefaultEaseFactor,
		Interval:        1,
	}
}

// Result is the outcome of one rating
type Result struct {
	State
	NextDueAt time.Time
}

// ComputeNextInterval applies one SM-2 step to prev
func ComputeNextInterval(quality QualityResponse, prev State) State {
	q := float64(quality)
	newEF := prev.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if newEF < MinEaseFactor {
		newEF = MinEaseFactor
	}

	next := State{EaseFactor: newEF}
	if quality < PassThreshold {
		next.RepetitionCount = 0
		next.Interval = 1
		return next
	}

	next.RepetitionCount = prev.RepetitionCount + 1
	switch next.RepetitionCount {
	case 1:
		next.Interval = 1
	case 2:
		next.Interval = 6
	default:
		next.Interval = int(math.Round(float64(prev.Interval) * newEF))
	}
	return next
}

// Schedule computes the next state and the local midnight on which the item
// becomes due again.
func Schedule(quality QualityResponse, prev State, now time.Time, loc *time.Location) Result {
	next := ComputeNextInterval(quality, prev)
	return Result{
		State:     next,
		NextDueAt: DueDate(now, next.Interval, loc),
	}
}

// DueDate returns 00:00:00 of the calendar day interval days after now in loc
func DueDate(now time.Time, interval int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+interval, 0, 0, 0, 0, loc)
}
