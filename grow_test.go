package canopy

import (
	"errors"
	"testing"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
	"github.com/pbanos/canopy/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowSeparable(t *testing.T) {
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{x}
	ds := newDataset(features, []string{"A", "A", "B", "B"}, floats(0, 0, 1, 1))

	tr, h, err := Grow(ds, label, features, Subset{0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, h)
	root, ok := tr.Root.(*tree.Branch)
	require.True(t, ok)
	assert.Equal(t, 1.0, root.Entropy)
	assert.Len(t, tr.Leaves(), 2)

	p, err := tr.Predict(dataset.NewSample(map[string]interface{}{"x": 0.2}))
	require.NoError(t, err)
	v, _ := p.PredictedValue()
	assert.Equal(t, "A", v)
}

func TestGrowNoSeparation(t *testing.T) {
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{x}
	ds := newDataset(features, []string{"A", "A", "B", "B"}, floats(1, 1, 1, 1))

	tr, h, err := Grow(ds, label, features, Subset{0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, h)
	leaf, ok := tr.Root.(*tree.Leaf)
	require.True(t, ok)
	v, _ := leaf.Prediction.PredictedValue()
	assert.Equal(t, "A", v)
}

func TestGrowWithoutAllowedFeatures(t *testing.T) {
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{x}
	ds := newDataset(features, []string{"B", "A", "B"}, floats(0, 1, 2))

	tr, h, err := Grow(ds, label, features, Subset{})
	require.NoError(t, err)
	leaf, ok := tr.Root.(*tree.Leaf)
	require.True(t, ok)
	assert.Equal(t, 3, leaf.Weight())
	assert.InDelta(t, 0.9182958340544896, h, 1e-12)
	v, _ := leaf.Prediction.PredictedValue()
	assert.Equal(t, "B", v)
}

func TestGrowReusesFeatures(t *testing.T) {
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{x}
	ds := newDataset(features, []string{"A", "B", "A"}, floats(1, 2, 3))

	tr, h, err := Grow(ds, label, features, Subset{0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, h)
	assert.Len(t, tr.Leaves(), 3, "x is split on twice")
}

func TestGrowEntropyMatchesTree(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		ds, features := randomDataset(seed, 80)
		c := NewCombinations(len(features), UpTo(3))
		for s, ok := c.Next(); ok; s, ok = c.Next() {
			tr, h, err := Grow(ds, label, features, s)
			require.NoError(t, err)
			assert.Equal(t, h, tr.Entropy(), "seed %d subset %v", seed, s)
			assert.GreaterOrEqual(t, h, 0.0)

			var leafWeights int
			for _, l := range tr.Leaves() {
				assert.GreaterOrEqual(t, l.Entropy, 0.0)
				leafWeights += l.Weight()
			}
			assert.Equal(t, 80, leafWeights, "leaves partition the dataset")

			require.NoError(t, tr.Traverse(false, func(n tree.Node) error {
				if b, ok := n.(*tree.Branch); ok {
					assert.Less(t, tree.WeightedEntropy(b, b.Weight()), b.Entropy+tolerance)
					assert.Contains(t, []int(s), b.FeatureIndex)
					assert.Equal(t, b.Weight(), b.Left.Weight()+b.Right.Weight())
				}
				return nil
			}))
		}
	}
}

func TestGrowInvalidInput(t *testing.T) {
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{x}

	_, _, err := Grow(dataset.New(nil), label, features, Subset{0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	ds := newDataset(features, []string{"A", "B"}, floats(0, 1))
	_, _, err = Grow(ds, label, features, Subset{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGrowMissingValues(t *testing.T) {
	ds, features := withMissing()
	tr, h, err := Grow(ds, label, features, Subset{0})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, tr)
	assert.Equal(t, 0.0, h)

	tr, h, err = Grow(ds, label, features, Subset{1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, h)
	var weight int
	for _, l := range tr.Leaves() {
		weight += l.Weight()
	}
	assert.Equal(t, 4, weight, "leaves hold every sample")
}

var errSubsetting = errors.New("subsetting failed")

// nestedFailureDataset fails to subset once it is itself a subset.
type nestedFailureDataset struct {
	dataset.Dataset
	depth int
}

func (d *nestedFailureDataset) SubsetWith(c feature.Criterion) (dataset.Dataset, error) {
	if d.depth > 0 {
		return nil, errSubsetting
	}
	sub, err := d.Dataset.SubsetWith(c)
	if err != nil {
		return nil, err
	}
	return &nestedFailureDataset{Dataset: sub, depth: d.depth + 1}, nil
}

func TestGrowReportsCriteriaOnSplitFailure(t *testing.T) {
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{x}
	ds := &nestedFailureDataset{Dataset: newDataset(features, []string{"A", "A", "B", "C"}, floats(0, 0, 1, 2))}

	tr, _, err := Grow(ds, label, features, Subset{0})
	assert.Nil(t, tr)
	require.ErrorIs(t, err, errSubsetting)
	assert.Contains(t, err.Error(), "splitting samples with")
	assert.Contains(t, err.Error(), "x")
}
