package json

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
	fjson "github.com/pbanos/canopy/feature/json"
	"github.com/pbanos/canopy/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	colour  = feature.NewDiscreteFeature("colour", []string{"red", "blue"})
	width   = feature.NewContinuousFeature("width")
	species = feature.NewDiscreteFeature("species", []string{"A", "B", "C"})
)

func features() []feature.Feature {
	return []feature.Feature{colour, width, species}
}

func nestedTree() *tree.Tree {
	leaf := func(label string, w int) *tree.Leaf {
		return &tree.Leaf{Prediction: tree.NewPrediction(map[string]float64{label: 1}, w)}
	}
	inner := &tree.Branch{
		Criterion:    feature.NewContinuousCriterion(width, math.Inf(-1), 0.1+0.2),
		Complement:   feature.NewContinuousCriterion(width, 0.1+0.2, math.Inf(1)),
		FeatureIndex: 1,
		Left:         leaf("B", 1),
		Right:        leaf("C", 1),
		Prediction:   tree.NewPrediction(map[string]float64{"B": 0.5, "C": 0.5}, 2),
		Entropy:      1,
	}
	return tree.New(&tree.Branch{
		Criterion:    feature.NewDiscreteCriterion(colour, "red"),
		Complement:   feature.NewDiscreteComplementCriterion(colour, "red"),
		FeatureIndex: 0,
		Left:         leaf("A", 2),
		Right:        inner,
		Prediction:   tree.NewPrediction(map[string]float64{"A": 0.5, "B": 0.25, "C": 0.25}, 4),
		Entropy:      1.5,
	}, species)
}

func TestTreeRoundTrip(t *testing.T) {
	ctx := context.Background()
	ned := NewNodeEncodeDecoder(fjson.NewCriteriaEncodeDecoder(features()))
	original := nestedTree()

	var buf bytes.Buffer
	require.NoError(t, WriteJSONTree(ctx, original, ned, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), `{"rootID":"1","label":"species","nodes":[`))

	decoded, err := ReadJSONTree(ctx, ned, features(), &buf)
	require.NoError(t, err)
	assert.Equal(t, original.String(), decoded.String())
	assert.Equal(t, original.Entropy(), decoded.Entropy())

	root := decoded.Root.(*tree.Branch)
	assert.Equal(t, 0, root.FeatureIndex)
	assert.Equal(t, 1, root.Right.(*tree.Branch).FeatureIndex)

	s := dataset.NewSample(map[string]interface{}{"colour": "blue", "width": 0.3})
	p, err := decoded.Predict(s)
	require.NoError(t, err)
	v, _ := p.PredictedValue()
	assert.Equal(t, "B", v)
}

func TestReadJSONTreeErrors(t *testing.T) {
	ctx := context.Background()
	ned := NewNodeEncodeDecoder(fjson.NewCriteriaEncodeDecoder(features()))
	for _, doc := range []string{
		`{"rootID":"1","label":"unknown","nodes":[]}`,
		`{"label":"species","nodes":[]}`,
		`{"rootID":"1","label":"species","nodes":[]}`,
		`{"rootID":"1","label":"species","nodes":[{"id":"1","stIds":["2"]}]}`,
		`[`,
	} {
		_, err := ReadJSONTree(ctx, ned, features(), strings.NewReader(doc))
		assert.Error(t, err, doc)
	}
}
