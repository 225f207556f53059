package canopy

import (
	"context"
	"strconv"
	"testing"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchPicksSeparatingFeature(t *testing.T) {
	noise := feature.NewContinuousFeature("noise")
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{noise, x}
	ds := newDataset(features, []string{"A", "A", "B", "B"}, floats(5, 6, 5, 6), floats(0, 0, 1, 1))

	r, err := Search(context.Background(), ds, label, features, Exactly(1))
	require.NoError(t, err)
	assert.Equal(t, Subset{1}, r.Subset)
	assert.Equal(t, []feature.Feature{x}, r.Features)
	assert.Equal(t, 0.0, r.Entropy)
	assert.Equal(t, 2, r.Evaluated)
	assert.Equal(t, r.Entropy, r.Tree.Entropy())
	assert.Equal(t, "2", r.Subset.IDs())
}

func TestSearchNoSeparation(t *testing.T) {
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{x}
	ds := newDataset(features, []string{"A", "A", "B", "B"}, floats(1, 1, 1, 1))

	r, err := Search(context.Background(), ds, label, features, Exactly(1))
	require.NoError(t, err)
	assert.Equal(t, Subset{0}, r.Subset)
	assert.Equal(t, 1.0, r.Entropy)
}

func TestSearchTieBreak(t *testing.T) {
	a := feature.NewContinuousFeature("a")
	b := feature.NewContinuousFeature("b")
	c := feature.NewContinuousFeature("c")
	features := []feature.Feature{a, b, c}
	ds := newDataset(features, []string{"A", "A", "B", "B"}, floats(1, 1, 1, 1), floats(0, 0, 1, 1), floats(3, 3, 9, 9))

	for _, workers := range []int{1, 3} {
		r, err := Search(context.Background(), ds, label, features, Exactly(1), WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, Subset{1}, r.Subset, "first of the equally good subsets wins")

		r, err = Search(context.Background(), ds, label, features, UpTo(2), WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, Subset{1}, r.Subset, "smaller subsets are enumerated first")
		assert.Equal(t, 6, r.Evaluated)
	}
}

func TestSearchSequentialAndConcurrentAgree(t *testing.T) {
	for seed := int64(1); seed <= 4; seed++ {
		ds, features := randomDataset(seed, 70)
		var observed []Evaluation
		sequential, err := Search(context.Background(), ds, label, features, UpTo(3), WithObserver(func(e Evaluation) {
			observed = append(observed, e)
		}))
		require.NoError(t, err)

		var observedConcurrently []Evaluation
		concurrent, err := Search(context.Background(), ds, label, features, UpTo(3), WithWorkers(4), WithObserver(func(e Evaluation) {
			observedConcurrently = append(observedConcurrently, e)
		}))
		require.NoError(t, err)

		assert.Equal(t, sequential.Subset, concurrent.Subset)
		assert.Equal(t, sequential.Entropy, concurrent.Entropy)
		assert.Equal(t, sequential.Evaluated, concurrent.Evaluated)
		assert.Equal(t, sequential.Tree.String(), concurrent.Tree.String())
		assert.Equal(t, observed, observedConcurrently)
		assert.Len(t, observed, 25)

		again, err := Search(context.Background(), ds, label, features, UpTo(3))
		require.NoError(t, err)
		assert.Equal(t, sequential.Subset, again.Subset)
		assert.Equal(t, sequential.Entropy, again.Entropy)

		for _, e := range observed {
			assert.GreaterOrEqual(t, e.Entropy, sequential.Entropy-tolerance, "%v beats the winner", e.Subset)
		}
	}
}

func TestSearchInvalidInput(t *testing.T) {
	ctx := context.Background()
	x := feature.NewContinuousFeature("x")
	features := []feature.Feature{x}
	ds := newDataset(features, []string{"A", "B"}, floats(0, 1))

	tests := map[string]func() (*Result, error){
		"empty dataset": func() (*Result, error) {
			return Search(ctx, dataset.New(nil), label, features, Exactly(1))
		},
		"no features": func() (*Result, error) {
			return Search(ctx, ds, label, nil, Exactly(1))
		},
		"rule allows nothing": func() (*Result, error) {
			return Search(ctx, ds, label, features, Exactly(2))
		},
		"label among features": func() (*Result, error) {
			return Search(ctx, ds, label, []feature.Feature{x, label}, Exactly(1))
		},
	}
	for name, search := range tests {
		t.Run(name, func(t *testing.T) {
			r, err := search()
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, r)
		})
	}
}

func TestSearchCancelled(t *testing.T) {
	ds, features := randomDataset(3, 40)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 4} {
		r, err := Search(ctx, ds, label, features, UpTo(2), WithWorkers(workers))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, r)
	}
}

func TestSearchMissingValues(t *testing.T) {
	ds, features := withMissing()
	for _, workers := range []int{1, 3} {
		r, err := Search(context.Background(), ds, label, features, Exactly(1), WithWorkers(workers))
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, r)
	}
}

func TestSearchManyFeaturesCancelled(t *testing.T) {
	features := make([]feature.Feature, 70)
	samples := make([]dataset.Sample, 2)
	for i := range samples {
		values := map[string]interface{}{label.Name(): strconv.Itoa(i)}
		for j := range features {
			features[j] = feature.NewContinuousFeature("f" + strconv.Itoa(j))
			values[features[j].Name()] = float64(i * j)
		}
		samples[i] = dataset.NewSample(values)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() {
		r, err := Search(ctx, dataset.New(samples), label, features, Exactly(35), WithWorkers(4))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, r)
	})
}
