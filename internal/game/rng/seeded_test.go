package rng

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeded_SameSeedSameSequence(t *testing.T) {
	a := New("random:default")
	b := New("random:default")
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Next(), b.Next(), "draw %d diverged", i)
	}
}

func TestSeeded_DifferentSeedsDiverge(t *testing.T) {
	a := New("maze:alpha")
	b := New("maze:beta")
	same := 0
	for i := 0; i < 100; i++ {
		if a.Next() == b.Next() {
			same++
		}
	}
	assert.Less(t, same, 5)
}

func TestSeeded_Ranges(t *testing.T) {
	r := New("ranges")
	for i := 0; i < 5000; i++ {
		v := r.Next()
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 1.0)

		n := r.IntInclusive(40, 50)
		require.GreaterOrEqual(t, n, 40)
		require.LessOrEqual(t, n, 50)
	}
}

func TestSeeded_IntInclusiveCoversBounds(t *testing.T) {
	r := New("bounds")
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		seen[r.IntInclusive(0, 3)] = true
	}
	assert.Len(t, seen, 4)
}

func TestShuffle_IsPermutationAndDeterministic(t *testing.T) {
	base := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	a := append([]int(nil), base...)
	b := append([]int(nil), base...)
	Shuffle(a, New("shuffle"))
	Shuffle(b, New("shuffle"))

	assert.Equal(t, a, b)
	assert.ElementsMatch(t, base, a)
}

func TestSeedHelpers(t *testing.T) {
	assert.Equal(t, "random:default", ResolveMapSeed("random", "   "))
	assert.Equal(t, "maze:abc", ResolveMapSeed("maze", " abc "))
	assert.Equal(t, "abc", NormalizeMapToken("  abc  "))
	assert.Len(t, NormalizeMapToken(strings.Repeat("x", 40)), MapTokenMaxLength)
	assert.Equal(t, []rune(strings.Repeat("é", MapTokenMaxLength)), []rune(NormalizeMapToken(strings.Repeat("é", 40))))

	for _, key := range []string{"city_ratio", "mountain_ratio"} {
		v := SeededTerrainRatio("random:default", key)
		assert.GreaterOrEqual(t, v, 0.35)
		assert.LessOrEqual(t, v, 1.0)
		assert.Equal(t, v, SeededTerrainRatio("random:default", key))
	}
}
