package sqlite3adapter

import (
	"context"
	"testing"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/dataset/sqldataset"
	"github.com/pbanos/canopy/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var features = []feature.Feature{
	feature.NewContinuousFeature("width"),
	feature.NewDiscreteFeature("colour", []string{"red", "blue"}),
	feature.NewDiscreteFeature("species", nil),
}

func samples() []dataset.Sample {
	return []dataset.Sample{
		dataset.NewSample(map[string]interface{}{"width": 0.5, "colour": "red", "species": "A"}),
		dataset.NewSample(map[string]interface{}{"width": 1.25, "colour": "blue", "species": "B"}),
		dataset.NewSample(map[string]interface{}{"width": 2.0, "colour": "red", "species": "C"}),
	}
}

func TestWriteAndRead(t *testing.T) {
	ctx := context.Background()
	a, err := New(":memory:")
	require.NoError(t, err)
	store, err := sqldataset.Create(ctx, a, features)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Write(ctx, samples())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ds, err := store.Read(ctx, dataset.New)
	require.NoError(t, err)
	read, err := ds.Samples()
	require.NoError(t, err)
	require.Len(t, read, 3)
	for i, s := range samples() {
		for _, f := range features {
			expected, _ := s.ValueFor(f)
			actual, err := read[i].ValueFor(f)
			require.NoError(t, err)
			assert.Equal(t, expected, actual, "sample %d feature %s", i, f.Name())
		}
	}

	more, err := store.Write(ctx, []dataset.Sample{
		dataset.NewSample(map[string]interface{}{"width": 3.0, "colour": "blue", "species": "D"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, more)

	reopened, err := sqldataset.Open(ctx, a, features)
	require.NoError(t, err)
	ds, err = reopened.Read(ctx, dataset.New)
	require.NoError(t, err)
	values, err := ds.FeatureValues(features[2])
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"A", "B", "C", "D"}, values)
}

func TestColumnName(t *testing.T) {
	a, err := New(":memory:")
	require.NoError(t, err)
	defer a.Close()
	_, err = a.ColumnName("id")
	assert.Error(t, err)
	_, err = a.ColumnName(`say "hi"`)
	assert.Error(t, err)
	name, err := a.ColumnName("petal width")
	require.NoError(t, err)
	assert.Equal(t, "petal width", name)
}

func TestRejectsInvalidSamples(t *testing.T) {
	ctx := context.Background()
	a, err := New(":memory:")
	require.NoError(t, err)
	store, err := sqldataset.Create(ctx, a, features)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Write(ctx, []dataset.Sample{
		dataset.NewSample(map[string]interface{}{"width": "wide", "colour": "red", "species": "A"}),
	})
	assert.Error(t, err)
}
