package dataset

import (
	"math"
	"sync"
	"testing"

	"github.com/pbanos/canopy/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	width   = feature.NewContinuousFeature("width")
	colour  = feature.NewDiscreteFeature("colour", []string{"red", "blue"})
	species = feature.NewDiscreteFeature("species", []string{"A", "B"})
)

func fixtureSamples() []Sample {
	return []Sample{
		NewSample(map[string]interface{}{"width": 1.0, "colour": "red", "species": "A"}),
		NewSample(map[string]interface{}{"width": 2.0, "colour": "red", "species": "A"}),
		NewSample(map[string]interface{}{"width": 3.0, "colour": "blue", "species": "B"}),
		NewSample(map[string]interface{}{"width": 2.0, "colour": "blue", "species": "B"}),
	}
}

func implementations() map[string]Generator {
	return map[string]Generator{
		"memory-intensive": NewMemoryIntensive,
		"cpu-intensive":    NewCPUIntensive,
		"default":          New,
	}
}

func TestDatasetQueries(t *testing.T) {
	for name, gen := range implementations() {
		t.Run(name, func(t *testing.T) {
			ds := gen(fixtureSamples())

			count, err := ds.Count()
			require.NoError(t, err)
			assert.Equal(t, 4, count)

			h, err := ds.Entropy(species)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, h, 1e-12)

			values, err := ds.FeatureValues(width)
			require.NoError(t, err)
			assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, values)

			counts, err := ds.CountFeatureValues(colour)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"red": 2, "blue": 2}, counts)

			assert.Empty(t, ds.Criteria())
		})
	}
}

func TestSubsetWithDoesNotMutate(t *testing.T) {
	for name, gen := range implementations() {
		t.Run(name, func(t *testing.T) {
			ds := gen(fixtureSamples())
			red := feature.NewDiscreteCriterion(colour, "red")
			sub, err := ds.SubsetWith(red)
			require.NoError(t, err)

			count, err := sub.Count()
			require.NoError(t, err)
			assert.Equal(t, 2, count)
			h, err := sub.Entropy(species)
			require.NoError(t, err)
			assert.Equal(t, 0.0, h)
			assert.Equal(t, []feature.Criterion{red}, sub.Criteria())

			narrow := feature.NewContinuousCriterion(width, math.Inf(-1), 1.5)
			subsub, err := sub.SubsetWith(narrow)
			require.NoError(t, err)
			count, err = subsub.Count()
			require.NoError(t, err)
			assert.Equal(t, 1, count)
			assert.Equal(t, []feature.Criterion{narrow, red}, subsub.Criteria())

			count, err = ds.Count()
			require.NoError(t, err)
			assert.Equal(t, 4, count, "parent dataset keeps all its samples")
			assert.Len(t, sub.Criteria(), 1)
		})
	}
}

func TestSamplesReturnsACopy(t *testing.T) {
	ds := NewMemoryIntensive(fixtureSamples())
	samples, err := ds.Samples()
	require.NoError(t, err)
	samples[0] = nil
	again, err := ds.Samples()
	require.NoError(t, err)
	assert.NotNil(t, again[0])
}

func TestNewSampleCopiesValues(t *testing.T) {
	values := map[string]interface{}{"width": 1.0}
	s := NewSample(values)
	values["width"] = 2.0
	v, err := s.ValueFor(width)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestConcurrentReaders(t *testing.T) {
	for name, gen := range implementations() {
		t.Run(name, func(t *testing.T) {
			ds := gen(fixtureSamples())
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					h, err := ds.Entropy(species)
					assert.NoError(t, err)
					assert.InDelta(t, 1.0, h, 1e-12)
					_, err = ds.SubsetWith(feature.NewDiscreteCriterion(colour, "blue"))
					assert.NoError(t, err)
				}()
			}
			wg.Wait()
		})
	}
}

func TestValueKey(t *testing.T) {
	assert.Equal(t, "A", ValueKey("A"))
	assert.Equal(t, "2.5", ValueKey(2.5))
	assert.Equal(t, "3", ValueKey(3))
}
