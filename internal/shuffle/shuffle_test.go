package shuffle

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaySeed(t *testing.T) {
	tests := []struct {
		date string
		want int64
	}{
		{"2025-06-15", 274311039},
		{"2025-06-16", 274311040},
		{"2024-01-01", 613341632},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, DaySeed(tt.date))
			assert.Equal(t, DaySeed(tt.date), DaySeed(tt.date))
		})
	}
}

func TestDaySeed_NeverNegative(t *testing.T) {
	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3650; i++ {
		seed := DaySeed(DateKey(day.AddDate(0, 0, i), time.UTC))
		require.GreaterOrEqual(t, seed, int64(0))
	}
}

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	ts := time.Date(2025, 6, 15, 16, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-06-15", DateKey(ts, time.UTC))
	assert.Equal(t, "2025-06-16", DateKey(ts, loc))
}

func TestSeededRandom_Range(t *testing.T) {
	for seed := int64(-1000); seed < 1000; seed++ {
		v := SeededRandom(seed)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)
	}
}

func TestSeeded_IsStableForSameSeed(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	seed := DaySeed("2025-06-15")

	first := Seeded(items, seed)
	second := Seeded(items, seed)

	assert.Equal(t, first, second)
}

func TestSeeded_IsPermutation(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	original := slices.Clone(items)

	got := Seeded(items, 42)

	assert.Equal(t, original, items, "input must not be mutated")
	assert.ElementsMatch(t, items, got)
}

func TestSeeded_ChangesAcrossDays(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	today := Seeded(items, DaySeed("2025-06-15"))
	tomorrow := Seeded(items, DaySeed("2025-06-16"))

	assert.NotEqual(t, today, tomorrow)
}

func TestSeeded_SmallInputs(t *testing.T) {
	assert.Empty(t, Seeded([]int{}, 1))
	assert.Equal(t, []int{7}, Seeded([]int{7}, 1))
}

func TestRandom_IsPermutation(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	got := Random(items)

	assert.ElementsMatch(t, items, got)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, items)
}
