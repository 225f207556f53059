package feature

import (
	"fmt"
	"math"
	"strconv"
)

/*
Criterion represents a constraint on a feature

Its SatisfiedBy method takes a sample and returns a boolean indicating if
the given value satisfies the feature criterion.

Its Feature method returns the feature on which the criterion is applied.
*/
type Criterion interface {
	Feature() Feature
	SatisfiedBy(sample Sample) (bool, error)
}

/*
Sample is an interface for something that can satisfy a Criterion.

Its ValueFor method returns the value corresponding to the feature
passed as parameter.
*/
type Sample interface {
	ValueFor(Feature) (interface{}, error)
}

/*
ContinuousCriterion represents a constraint on a continuous feature, a
range a < value <= b that delimits which values it may take. The interval
can be open on one end, thus representing -Infinity or +Infinity

Its Interval method returns the start and end of the interval to which the
feature is constrained as a pair of float64 values.
*/
type ContinuousCriterion interface {
	Criterion
	Interval() (float64, float64)
}

/*
DiscreteCriterion represents a constraint on a discrete feature: a value it
must take or, when negated, a value it must not take.
*/
type DiscreteCriterion interface {
	Criterion
	Value() string
	Negated() bool
}

type continuousCriterion struct {
	feature *ContinuousFeature
	a, b    float64
}

type discreteCriterion struct {
	feature *DiscreteFeature
	value   string
	negated bool
}

/*
NewContinuousCriterion takes a ContinuousFeature feature and a pair of
float64 values indicating the start (excluded) and the end (included) of an
interval and returns a ContinuousCriterion with the feature and interval. The
interval can be open on any end by providing -Inf and/or +Inf.
*/
func NewContinuousCriterion(feature *ContinuousFeature, a float64, b float64) ContinuousCriterion {
	return &continuousCriterion{feature, a, b}
}

/*
NewDiscreteCriterion takes a DiscreteFeature and a value and returns a
DiscreteCriterion satisfied by samples taking that value for the feature.
*/
func NewDiscreteCriterion(feature *DiscreteFeature, value string) DiscreteCriterion {
	return &discreteCriterion{feature, value, false}
}

/*
NewDiscreteComplementCriterion takes a DiscreteFeature and a value and returns
a DiscreteCriterion satisfied by samples taking any other value for the feature.
*/
func NewDiscreteComplementCriterion(feature *DiscreteFeature, value string) DiscreteCriterion {
	return &discreteCriterion{feature, value, true}
}

/*
Complement takes a criterion and returns the criterion satisfied exactly by
the samples that do not satisfy it. Only half-bounded continuous criteria and
discrete criteria have a complement; an error is returned otherwise.
*/
func Complement(c Criterion) (Criterion, error) {
	switch c := c.(type) {
	case *continuousCriterion:
		switch {
		case math.IsInf(c.a, -1) && !math.IsInf(c.b, 1):
			return &continuousCriterion{c.feature, c.b, math.Inf(1)}, nil
		case math.IsInf(c.b, 1) && !math.IsInf(c.a, -1):
			return &continuousCriterion{c.feature, math.Inf(-1), c.a}, nil
		}
		return nil, fmt.Errorf("criterion %v has no complement interval", c)
	case *discreteCriterion:
		return &discreteCriterion{c.feature, c.value, !c.negated}, nil
	}
	return nil, fmt.Errorf("unknown criterion type %T", c)
}

/*
Feature returns the feature to which the constraint applies.
*/
func (cfc *continuousCriterion) Feature() Feature {
	return cfc.feature
}

/*
SatisfiedBy receives a sample as parameter and returns a boolean indicating if the
sample satisfies the criterion. Specifically, it returns false if the sample does
not define a value for the feature, true if the value, being a float64, is in the
range defined by the criterion; and false otherwise.
*/
func (cfc *continuousCriterion) SatisfiedBy(sample Sample) (bool, error) {
	val, err := sample.ValueFor(cfc.feature)
	if err != nil {
		return false, err
	}
	floatVal, ok := val.(float64)
	if !ok {
		return false, nil
	}
	return (math.IsInf(cfc.a, -1) || cfc.a < floatVal) && (math.IsInf(cfc.b, 1) || floatVal <= cfc.b), nil
}

func (cfc *continuousCriterion) Interval() (float64, float64) {
	return cfc.a, cfc.b
}

func (cfc *continuousCriterion) String() string {
	if math.IsInf(cfc.a, -1) {
		return fmt.Sprintf("%s <= %s", cfc.feature.Name(), formatFloat(cfc.b))
	}
	if math.IsInf(cfc.b, 1) {
		return fmt.Sprintf("%s > %s", cfc.feature.Name(), formatFloat(cfc.a))
	}
	return fmt.Sprintf("%s < %s <= %s", formatFloat(cfc.a), cfc.feature.Name(), formatFloat(cfc.b))
}

/*
Feature returns the feature to which the constraint applies.
*/
func (dfc *discreteCriterion) Feature() Feature {
	return dfc.feature
}

/*
SatisfiedBy receives a sample as parameter and returns a boolean indicating if the
sample satisfies the criterion. Specifically, it returns false if the sample does
not define a string value for the feature. Otherwise it returns whether the value
equals the criterion's, negated if the criterion is.
*/
func (dfc *discreteCriterion) SatisfiedBy(sample Sample) (bool, error) {
	val, err := sample.ValueFor(dfc.feature)
	if err != nil {
		return false, err
	}
	stringVal, ok := val.(string)
	if !ok {
		return false, nil
	}
	return (dfc.value == stringVal) != dfc.negated, nil
}

func (dfc *discreteCriterion) Value() string {
	return dfc.value
}

func (dfc *discreteCriterion) Negated() bool {
	return dfc.negated
}

func (dfc *discreteCriterion) String() string {
	if dfc.negated {
		return fmt.Sprintf("%s is not %s", dfc.feature.Name(), dfc.value)
	}
	return fmt.Sprintf("%s is %s", dfc.feature.Name(), dfc.value)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
