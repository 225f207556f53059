package canopy

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pbanos/canopy/feature"
)

/*
Subset is a set of feature indices into a feature universe, kept
deduplicated and in ascending order.
*/
type Subset []int

/*
NewSubset takes feature indices in any order, possibly repeated, and
returns them as a Subset.
*/
func NewSubset(indices ...int) Subset {
	s := make(Subset, 0, len(indices))
	s = append(s, indices...)
	sort.Ints(s)
	j := 0
	for i, v := range s {
		if i == 0 || v != s[j-1] {
			s[j] = v
			j++
		}
	}
	return s[:j]
}

/*
Features takes the feature universe the subset indexes into and returns
the features in the subset, or an error wrapping ErrInvalidInput if an
index is out of range.
*/
func (s Subset) Features(universe []feature.Feature) ([]feature.Feature, error) {
	features := make([]feature.Feature, len(s))
	for i, idx := range s {
		if idx < 0 || idx >= len(universe) {
			return nil, fmt.Errorf("%w: feature index %d out of range [0, %d)", ErrInvalidInput, idx, len(universe))
		}
		features[i] = universe[idx]
	}
	return features, nil
}

// IDs returns the subset as space-separated 1-based feature ids.
func (s Subset) IDs() string {
	ids := make([]string, len(s))
	for i, idx := range s {
		ids[i] = strconv.Itoa(idx + 1)
	}
	return strings.Join(ids, " ")
}

func (s Subset) String() string {
	idx := make([]string, len(s))
	for i, v := range s {
		idx[i] = strconv.Itoa(v)
	}
	return fmt.Sprintf("{%s}", strings.Join(idx, ","))
}

/*
SizeRule delimits the sizes of the feature subsets to search: from Min
to Max features, both included.
*/
type SizeRule struct {
	Min int
	Max int
}

// Exactly returns a SizeRule for subsets of k features.
func Exactly(k int) SizeRule {
	return SizeRule{k, k}
}

// UpTo returns a SizeRule for subsets of 1 to k features.
func UpTo(k int) SizeRule {
	return SizeRule{1, k}
}

// Between returns a SizeRule for subsets of min to max features.
func Between(min, max int) SizeRule {
	return SizeRule{min, max}
}

/*
ParseSizeRule takes a string in one of the forms "exactly:K", "up-to:K",
"between:MIN:MAX" or just "K" (same as "exactly:K") and returns the
SizeRule it describes or an error if it cannot be parsed.
*/
func ParseSizeRule(s string) (SizeRule, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	ints := func(values []string) ([]int, error) {
		result := make([]int, len(values))
		for i, v := range values {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("parsing size rule %q: %v", s, err)
			}
			result[i] = n
		}
		return result, nil
	}
	switch {
	case len(parts) == 1:
		n, err := ints(parts)
		if err != nil {
			return SizeRule{}, err
		}
		return Exactly(n[0]), nil
	case len(parts) == 2 && parts[0] == "exactly":
		n, err := ints(parts[1:])
		if err != nil {
			return SizeRule{}, err
		}
		return Exactly(n[0]), nil
	case len(parts) == 2 && parts[0] == "up-to":
		n, err := ints(parts[1:])
		if err != nil {
			return SizeRule{}, err
		}
		return UpTo(n[0]), nil
	case len(parts) == 3 && parts[0] == "between":
		n, err := ints(parts[1:])
		if err != nil {
			return SizeRule{}, err
		}
		return Between(n[0], n[1]), nil
	}
	return SizeRule{}, fmt.Errorf("parsing size rule %q: expected exactly:K, up-to:K, between:MIN:MAX or K", s)
}

func (r SizeRule) String() string {
	switch {
	case r.Min == r.Max:
		return fmt.Sprintf("exactly:%d", r.Min)
	case r.Min == 1:
		return fmt.Sprintf("up-to:%d", r.Max)
	}
	return fmt.Sprintf("between:%d:%d", r.Min, r.Max)
}

// bounds returns the sizes the rule yields for n features, with ok false
// when it yields none.
func (r SizeRule) bounds(n int) (min, max int, ok bool) {
	min, max = r.Min, r.Max
	if max > n {
		max = n
	}
	return min, max, min >= 1 && min <= max
}

/*
Combinations enumerates the feature subsets of a universe of features
allowed by a SizeRule: smaller subsets first and, among subsets of the same
size, in lexicographic order of their indices. It is not safe for
concurrent use.
*/
type Combinations struct {
	n        int
	rule     SizeRule
	current  []int
	started  bool
	finished bool
}

/*
NewCombinations takes the number of features in a universe and a SizeRule
and returns the Combinations of feature indices the rule allows. Sizes over
featureCount are ignored.
*/
func NewCombinations(featureCount int, rule SizeRule) *Combinations {
	return &Combinations{n: featureCount, rule: rule}
}

/*
Next returns the next subset and true, or nil and false once every subset
has been returned.
*/
func (c *Combinations) Next() (Subset, bool) {
	if c.finished {
		return nil, false
	}
	min, max, ok := c.rule.bounds(c.n)
	if !ok {
		c.finished = true
		return nil, false
	}
	if !c.started {
		c.started = true
		c.current = firstCombination(min)
		return c.subset(), true
	}
	k := len(c.current)
	i := k - 1
	for i >= 0 && c.current[i] == c.n-k+i {
		i--
	}
	if i >= 0 {
		c.current[i]++
		for j := i + 1; j < k; j++ {
			c.current[j] = c.current[j-1] + 1
		}
		return c.subset(), true
	}
	if k+1 > max {
		c.finished = true
		return nil, false
	}
	c.current = firstCombination(k + 1)
	return c.subset(), true
}

// Reset restarts the enumeration from the first subset.
func (c *Combinations) Reset() {
	c.current = nil
	c.started = false
	c.finished = false
}

// Count returns the number of subsets the enumeration yields in total,
// saturating at math.MaxInt.
func (c *Combinations) Count() int {
	min, max, ok := c.rule.bounds(c.n)
	if !ok {
		return 0
	}
	var total int
	for k := min; k <= max; k++ {
		b := binomial(c.n, k)
		if total > math.MaxInt-b {
			return math.MaxInt
		}
		total += b
	}
	return total
}

func (c *Combinations) subset() Subset {
	s := make(Subset, len(c.current))
	copy(s, c.current)
	return s
}

func firstCombination(k int) []int {
	first := make([]int, k)
	for i := range first {
		first[i] = i
	}
	return first
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 1; i <= k; i++ {
		if result > math.MaxInt/(n-k+i) {
			return math.MaxInt
		}
		result = result * (n - k + i) / i
	}
	return result
}
