/*
Package feature defines the properties observed on samples (features) and
the constraints a decision tree imposes on them (criteria).
*/
package feature

import "fmt"

/*
Feature represents a property that can be observed
*/
type Feature interface {
	Name() string
	Valid(interface{}) (bool, error)
}

/*
DiscreteFeature represents a property that can be observed and that can only
take a value among a finite set. Its values are strings.
*/
type DiscreteFeature struct {
	name            string
	availableValues []string
}

/*
ContinuousFeature represents a property that can be observed and that can take
a numeric value. Its values are float64.
*/
type ContinuousFeature struct {
	name string
}

/*
NewDiscreteFeature takes a name string and a slice of available value strings
and returns a discrete feature with the given names and available values.
An empty slice of available values means any string value is accepted.
*/
func NewDiscreteFeature(name string, availableValues []string) *DiscreteFeature {
	return &DiscreteFeature{name, availableValues}
}

/*
NewContinuousFeature takes a name string and returns a continuous feature with
the given name.
*/
func NewContinuousFeature(name string) *ContinuousFeature {
	return &ContinuousFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (df *DiscreteFeature) Name() string {
	return df.name
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value parameter is included in the available values of the feature (or the
feature does not restrict its values), the method returns true and nil.
Otherwise it returns false and an error describing the reason.
*/
func (df *DiscreteFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return false, fmt.Errorf("discrete feature %s got undefined value", df.Name())
	}
	vs, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("discrete feature %s expects string value, got %T value", df.Name(), value)
	}
	if len(df.availableValues) == 0 {
		return true, nil
	}
	for _, av := range df.availableValues {
		if av == vs {
			return true, nil
		}
	}
	return false, fmt.Errorf("discrete feature %s got unknown value %s", df.Name(), vs)
}

/*
AvailableValues returns a string slice with the values available for the feature
*/
func (df *DiscreteFeature) AvailableValues() []string {
	return df.availableValues
}

func (df *DiscreteFeature) String() string {
	return df.name
}

/*
Name returns a string with the name of the feature
*/
func (cf *ContinuousFeature) Name() string {
	return cf.name
}

/*
Valid receives an interface value and returns a boolean and an error. When the
value parameter is a float64 it returns true and nil, otherwise it returns
false and an error describing the reason.
*/
func (cf *ContinuousFeature) Valid(value interface{}) (bool, error) {
	if value == nil {
		return false, fmt.Errorf("continuous feature %s got undefined value", cf.Name())
	}
	_, ok := value.(float64)
	if !ok {
		return false, fmt.Errorf("continuous feature %s expects float64 value, got %T value", cf.Name(), value)
	}
	return true, nil
}

func (cf *ContinuousFeature) String() string {
	return cf.name
}

// Find returns the feature in the slice with the given name, or nil.
func Find(features []Feature, name string) Feature {
	for _, f := range features {
		if f.Name() == name {
			return f
		}
	}
	return nil
}
