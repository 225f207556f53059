/*
Package json encodes feature criteria as JSON and decodes them back
against a known set of features.
*/
package json

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pbanos/canopy/feature"
)

/*
CriteriaEncodeDecoder is an interface for objects
that allow encoding criteria into slices of
bytes and decoding them back to criteria.
*/
type CriteriaEncodeDecoder interface {

	//Encode receives a feature.Criterion
	//and returns a slice of bytes with the criterion
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(feature.Criterion) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a feature.Criterion decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (feature.Criterion, error)
}

type jsonCriteriaEncodeDecoder []feature.Feature

type jsonCriterion struct {
	Type    string `json:"t"`
	Feature string `json:"f"`
	Value   string `json:"v,omitempty"`
	Negated bool   `json:"n,omitempty"`
	A       string `json:"a,omitempty"`
	B       string `json:"b,omitempty"`
}

// NewCriteriaEncodeDecoder takes a slice of feature.Feature and returns a
// CriteriaEncodeDecoder that marshals and unmarshals
// criteria into/from slices of bytes as JSON.
// Specifically, criteria are encoded as a JSON object
// with a "f" property set to the name of the feature
// of the criteria and a "t" property that can be one of
// "continuous" or "discrete":
//   - If the criteria is continuous it will have "a" and "b"
//     properties with the start (excluded) and end (included)
//     of the interval for the feature, "-Inf" and "+Inf" for open ends
//   - If the criteria is discrete it will have a "v"
//     property with the value for the feature and an "n"
//     property set to true when the value is excluded
//
// Decoding fails for criteria on features not in the given slice.
func NewCriteriaEncodeDecoder(features []feature.Feature) CriteriaEncodeDecoder {
	return jsonCriteriaEncodeDecoder(features)
}

func (jced jsonCriteriaEncodeDecoder) Encode(fc feature.Criterion) ([]byte, error) {
	switch c := fc.(type) {
	case feature.ContinuousCriterion:
		a, b := c.Interval()
		return json.Marshal(&jsonCriterion{
			Type:    "continuous",
			Feature: c.Feature().Name(),
			A:       strconv.FormatFloat(a, 'g', -1, 64),
			B:       strconv.FormatFloat(b, 'g', -1, 64),
		})
	case feature.DiscreteCriterion:
		return json.Marshal(&jsonCriterion{
			Type:    "discrete",
			Feature: c.Feature().Name(),
			Value:   c.Value(),
			Negated: c.Negated(),
		})
	default:
		return nil, fmt.Errorf("unknown type of feature.Criterion %T", fc)
	}
}

func (jced jsonCriteriaEncodeDecoder) Decode(data []byte) (feature.Criterion, error) {
	jc := &jsonCriterion{}
	err := json.Unmarshal(data, jc)
	if err != nil {
		return nil, err
	}
	return jc.Criterion(jced)
}

func (jc *jsonCriterion) Criterion(features []feature.Feature) (feature.Criterion, error) {
	f := feature.Find(features, jc.Feature)
	if f == nil {
		return nil, fmt.Errorf("unknown feature '%s'", jc.Feature)
	}
	switch jc.Type {
	case "continuous":
		return jc.toContinuousCriterion(f)
	case "discrete":
		return jc.toDiscreteCriterion(f)
	}
	return nil, fmt.Errorf("unknown feature criterion type '%s'", jc.Type)
}

func (jc *jsonCriterion) toDiscreteCriterion(f feature.Feature) (feature.Criterion, error) {
	df, ok := f.(*feature.DiscreteFeature)
	if !ok {
		return nil, fmt.Errorf("expected discrete feature for discrete criterion but found %T feature %v", f, f.Name())
	}
	if jc.Negated {
		return feature.NewDiscreteComplementCriterion(df, jc.Value), nil
	}
	return feature.NewDiscreteCriterion(df, jc.Value), nil
}

func (jc *jsonCriterion) toContinuousCriterion(f feature.Feature) (feature.Criterion, error) {
	cf, ok := f.(*feature.ContinuousFeature)
	if !ok {
		return nil, fmt.Errorf("expected continuous feature for continuous criterion but found %T feature %v", f, f.Name())
	}
	a, err := strconv.ParseFloat(jc.A, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing interval start: %v", err)
	}
	b, err := strconv.ParseFloat(jc.B, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing interval end: %v", err)
	}
	return feature.NewContinuousCriterion(cf, a, b), nil
}
