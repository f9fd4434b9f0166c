// Package shuffle provides the day-stable permutation used to pick the
// "today" study set, plus a plain random shuffle for review ordering.
//
// SeededRandom is a sine-based hash. Its output is not uniformly distributed
// and must never be used for anything security related; it only has to give a
// permutation that stays the same for a whole calendar day and changes when
// the date does.
package shuffle

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// DateLayout is the calendar-day key format used for seeds and the ledger
const DateLayout = "2006-01-02"

// DateKey formats t as a calendar day in loc
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// DaySeed hashes a YYYY-MM-DD key with h = h*31 + c using 32-bit wrap-around
// and returns the absolute value.
func DaySeed(date string) int64 {
	var hash int32
	for i := 0; i < len(date); i++ {
		hash = hash*31 + int32(date[i])
	}
	h := int64(hash)
	if h < 0 {
		h = -h
	}
	return h
}

// SeededRandom maps seed to a value in [0, 1)
func SeededRandom(seed int64) float64 {
	x := math.Sin(float64(seed)) * 10000
	return x - math.Floor(x)
}

// Seeded returns a Fisher-Yates permutation of items driven by seed.
// The input slice is not modified.
func Seeded[T any](items []T, seed int64) []T {
	out := slices.Clone(items)
	for i := len(out) - 1; i > 0; i-- {
		j := int(math.Floor(SeededRandom(seed+int64(i)) * float64(i+1)))
		if j > i {
			// x - floor(x) can round up to 1.0 for tiny negative x
			j = i
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Random returns a uniformly shuffled copy of items
func Random[T any](items []T) []T {
	out := slices.Clone(items)
	for i := len(out) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
