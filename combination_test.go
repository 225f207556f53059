package canopy

import (
	"math"
	"testing"

	"github.com/pbanos/canopy/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(c *Combinations) []Subset {
	var result []Subset
	for s, ok := c.Next(); ok; s, ok = c.Next() {
		result = append(result, s)
	}
	return result
}

func TestCombinationsExactly(t *testing.T) {
	c := NewCombinations(4, Exactly(2))
	expected := []Subset{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	assert.Equal(t, expected, collect(c))
	assert.Equal(t, 6, c.Count())

	_, ok := c.Next()
	assert.False(t, ok, "stays exhausted")

	c.Reset()
	assert.Equal(t, expected, collect(c))
}

func TestCombinationsUpTo(t *testing.T) {
	c := NewCombinations(3, UpTo(2))
	assert.Equal(t, []Subset{{0}, {1}, {2}, {0, 1}, {0, 2}, {1, 2}}, collect(c))
	assert.Equal(t, 6, c.Count())
}

func TestCombinationsAllSizes(t *testing.T) {
	c := NewCombinations(5, UpTo(5))
	subsets := collect(c)
	assert.Len(t, subsets, 31)
	assert.Equal(t, 31, c.Count())
	seen := make(map[string]bool)
	for i, s := range subsets {
		assert.False(t, seen[s.String()], "%v repeated", s)
		seen[s.String()] = true
		assert.Equal(t, NewSubset(s...), s, "subsets are ascending")
		if i > 0 && len(subsets[i-1]) == len(s) {
			assert.True(t, lexLess(subsets[i-1], s), "%v before %v", subsets[i-1], s)
		}
	}
	assert.Equal(t, Subset{0, 1, 2, 3, 4}, subsets[30])
}

func TestCombinationsEmpty(t *testing.T) {
	for name, c := range map[string]*Combinations{
		"size over feature count": NewCombinations(4, Exactly(5)),
		"zero size":               NewCombinations(4, Exactly(0)),
		"min over max":            NewCombinations(4, Between(3, 2)),
		"min below one":           NewCombinations(4, Between(0, 2)),
		"no features":             NewCombinations(0, UpTo(3)),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, collect(c))
			assert.Equal(t, 0, c.Count())
		})
	}
}

func TestCombinationsClampsMax(t *testing.T) {
	c := NewCombinations(3, Between(2, 10))
	assert.Equal(t, []Subset{{0, 1}, {0, 2}, {1, 2}, {0, 1, 2}}, collect(c))
	assert.Equal(t, 4, c.Count())
}

func TestCombinationsCountSaturates(t *testing.T) {
	assert.Equal(t, 118264581564861424, NewCombinations(60, Exactly(30)).Count())
	assert.Equal(t, math.MaxInt, NewCombinations(70, Exactly(35)).Count())
	assert.Equal(t, math.MaxInt, NewCombinations(70, UpTo(70)).Count())

	c := NewCombinations(70, Exactly(35))
	s, ok := c.Next()
	require.True(t, ok)
	assert.Len(t, s, 35)
}

func TestNextReturnsIndependentSubsets(t *testing.T) {
	c := NewCombinations(3, Exactly(2))
	first, _ := c.Next()
	c.Next()
	assert.Equal(t, Subset{0, 1}, first)
}

func TestParseSizeRule(t *testing.T) {
	tests := map[string]SizeRule{
		"3":           {3, 3},
		"exactly:2":   {2, 2},
		"up-to:4":     {1, 4},
		"between:2:5": {2, 5},
		" exactly:1 ": {1, 1},
	}
	for input, expected := range tests {
		r, err := ParseSizeRule(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, r, input)
	}
	for _, input := range []string{"", "all", "exactly", "up-to:x", "between:1", "around:3"} {
		_, err := ParseSizeRule(input)
		assert.Error(t, err, input)
	}
	assert.Equal(t, "exactly:2", Exactly(2).String())
	assert.Equal(t, "up-to:3", UpTo(3).String())
	assert.Equal(t, "between:2:3", Between(2, 3).String())
}

func TestSubset(t *testing.T) {
	assert.Equal(t, Subset{0, 2, 5}, NewSubset(5, 2, 0, 2, 5))
	assert.Equal(t, Subset{}, NewSubset())
	assert.Equal(t, "1 3", Subset{0, 2}.IDs())
	assert.Equal(t, "{0,2}", Subset{0, 2}.String())

	universe := []feature.Feature{feature.NewContinuousFeature("a"), feature.NewContinuousFeature("b")}
	fs, err := Subset{1}.Features(universe)
	require.NoError(t, err)
	assert.Equal(t, []feature.Feature{universe[1]}, fs)
	_, err = Subset{2}.Features(universe)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// lexLess reports whether a comes before b comparing indices in order.
func lexLess(a, b Subset) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
