package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chiSquare returns the statistic for observed counts against a uniform expectation.
func chiSquare(counts map[string]int, buckets, trials int) float64 {
	expected := float64(trials) / float64(buckets)
	var stat float64
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / expected
	}
	// Buckets never observed contribute their full expectation.
	stat += float64(buckets-len(counts)) * expected
	return stat
}

func TestShuffle_PermutationsAreUniform(t *testing.T) {
	src := newSeededSource(7)
	const trials = 24000
	counts := map[string]int{}
	for range trials {
		ids := []string{"A", "B", "C", "D"}
		require.NoError(t, Shuffle(src, ids))
		counts[strings.Join(ids, "")]++
	}
	assert.Len(t, counts, 24)
	// 23 degrees of freedom, p = 0.0001.
	assert.Less(t, chiSquare(counts, 24, trials), 57.0)
}

func TestPickWinners_EachEntrantEquallyLikely(t *testing.T) {
	pool := []string{"A", "B", "C", "D", "E"}
	for name, src := range map[string]RandomSource{
		"seeded": newSeededSource(99),
		"crypto": NewCryptoSource(),
	} {
		t.Run(name, func(t *testing.T) {
			const trials = 10000
			counts := map[string]int{}
			for range trials {
				winners, losers, err := pickWinners(src, pool, 1)
				require.NoError(t, err)
				require.Len(t, winners, 1)
				require.Len(t, losers, 4)
				counts[winners[0]]++
			}
			// 4 degrees of freedom, p = 0.0001.
			assert.Less(t, chiSquare(counts, len(pool), trials), 23.5)
		})
	}
}

func TestPickWinners_DistinctAndComplete(t *testing.T) {
	pool := []string{"A", "B", "C", "D"}
	winners, losers, err := pickWinners(newSeededSource(1), pool, 2)
	require.NoError(t, err)
	assert.Len(t, winners, 2)
	assert.ElementsMatch(t, pool, append(append([]string{}, winners...), losers...))
	// The caller's slice is untouched.
	assert.Equal(t, []string{"A", "B", "C", "D"}, pool)
}

type failingSource struct{}

func (failingSource) Intn(int) (int, error) { return 0, errors.New("entropy unavailable") }

func TestShuffle_SourceError(t *testing.T) {
	err := Shuffle(failingSource{}, []string{"A", "B"})
	require.Error(t, err)
	// Single-element pools need no randomness.
	require.NoError(t, Shuffle(failingSource{}, []string{"A"}))
}
