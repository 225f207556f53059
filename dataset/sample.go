package dataset

import (
	"fmt"

	"github.com/pbanos/canopy/feature"
)

/*
Sample represents an item to process or from which to learn how to process them.

Its ValueFor method returns the value of the sample corresponding to the feature
passed as parameter.
*/
type Sample interface {
	ValueFor(feature.Feature) (interface{}, error)
}

type sample struct {
	featureValues map[string]interface{}
}

/*
NewSample takes a map of feature string names to values and returns
a sample. The map is copied, so later changes to it do not affect the sample.
*/
func NewSample(featureValues map[string]interface{}) Sample {
	values := make(map[string]interface{}, len(featureValues))
	for k, v := range featureValues {
		values[k] = v
	}
	return &sample{values}
}

func (s *sample) ValueFor(feature feature.Feature) (interface{}, error) {
	return s.featureValues[feature.Name()], nil
}

func (s *sample) String() string {
	return fmt.Sprintf("[%v]", s.featureValues)
}

// ValueKey returns the string under which a feature value is counted.
func ValueKey(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
