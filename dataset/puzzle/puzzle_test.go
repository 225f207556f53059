package puzzle

import (
	"strings"
	"testing"

	"github.com/pbanos/canopy/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const input = `4
3
2
0 1 5 1 7
1 1 6 2 7
2 2 5 3 7
3 2 6 4 7
`

func TestRead(t *testing.T) {
	p, err := Read(strings.NewReader(input), dataset.New)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Size)
	require.Len(t, p.Features, 3)
	assert.Equal(t, "f1", p.Features[0].Name())
	assert.Equal(t, "f3", p.Features[2].Name())
	assert.Equal(t, "species", p.Label.Name())

	count, err := p.Dataset.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	counts, err := p.Dataset.CountFeatureValues(p.Label)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"1": 2, "2": 2}, counts)
	values, err := p.Dataset.FeatureValues(p.Features[1])
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0, 4.0}, values)
}

func TestReadErrors(t *testing.T) {
	for name, in := range map[string]string{
		"empty":             "",
		"bad count":         "x\n1\n1\n",
		"missing samples":   "2\n1\n1\n0 1 5\n",
		"short sample line": "1\n2\n1\n0 1 5\n",
		"bad feature value": "1\n1\n1\n0 1 five\n",
		"two values a line": "1 1\n1\n1\n0 1 5\n",
		"negative size":     "1\n1\n-1\n0 1 5\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in), dataset.New)
			assert.Error(t, err)
		})
	}
}
