package csv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var features = []feature.Feature{
	feature.NewContinuousFeature("wings"),
	feature.NewDiscreteFeature("colour", []string{"red", "blue"}),
	feature.NewDiscreteFeature("species", nil),
}

const input = `id,species,wings,colour
1,A,0.5,red
2,B,1.25,blue
3,A,2,red
`

func TestReadDataset(t *testing.T) {
	ds, err := ReadDataset(strings.NewReader(input), features, dataset.New)
	require.NoError(t, err)
	count, err := ds.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	samples, err := ds.Samples()
	require.NoError(t, err)
	v, err := samples[1].ValueFor(features[0])
	require.NoError(t, err)
	assert.Equal(t, 1.25, v)
	v, err = samples[1].ValueFor(features[2])
	require.NoError(t, err)
	assert.Equal(t, "B", v)
}

func TestReadDatasetBySampleStops(t *testing.T) {
	var seen []int
	err := ReadDatasetBySample(strings.NewReader(input), features, func(i int, _ dataset.Sample) (bool, error) {
		seen = append(seen, i)
		return i < 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestReadDatasetErrors(t *testing.T) {
	tests := map[string]string{
		"missing column": "species,wings\nA,1\n",
		"not a number":   "species,wings,colour\nA,wide,red\n",
		"unknown value":  "species,wings,colour\nA,1,green\n",
		"short row":      "species,wings,colour\nA,1\n",
		"empty":          "",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadDataset(strings.NewReader(doc), features, dataset.New)
			assert.Error(t, err)
		})
	}
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	ds, err := ReadDataset(strings.NewReader(input), features, dataset.New)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, ds, features))
	assert.Equal(t, "wings,colour,species\n0.5,red,A\n1.25,blue,B\n2,red,A\n", buf.String())

	again, err := ReadDataset(&buf, features, dataset.New)
	require.NoError(t, err)
	count, err := again.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
