/*
Package inputsample provides a dataset.Sample whose feature values are
asked for one at a time and read as lines from an io.Reader, so a tree can
predict for a sample while only the features on its path are answered.
*/
package inputsample

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
)

/*
Prompter asks for feature values and reports the values read that the
feature does not accept.
*/
type Prompter interface {
	Ask(feature.Feature) error
	Reject(f feature.Feature, line string) error
}

type promptedSample struct {
	answers   map[string]interface{}
	undefined string
	scanner   *bufio.Scanner
	prompter  Prompter
	features  []feature.Feature
}

/*
New takes an io.Reader, the features that may be asked for, a Prompter and
the line that marks a value as undefined, and returns a Sample.

The first time the value for a feature is needed the Prompter is asked for
it and lines are read until one is accepted: a float64 for continuous
features, an available value for discrete ones (any value if the feature
declares none). Rejected lines are reported to the Prompter. Answers are
remembered, and the undefined line answers nil.

Asking for a feature not among the given ones returns an error.
*/
func New(r io.Reader, features []feature.Feature, p Prompter, undefined string) dataset.Sample {
	return &promptedSample{
		answers:   make(map[string]interface{}),
		undefined: undefined,
		scanner:   bufio.NewScanner(r),
		prompter:  p,
		features:  features,
	}
}

func (ps *promptedSample) ValueFor(f feature.Feature) (interface{}, error) {
	if value, ok := ps.answers[f.Name()]; ok {
		return value, nil
	}
	known := feature.Find(ps.features, f.Name())
	if known == nil {
		return nil, fmt.Errorf("have no information about feature %s, do not know how to read its value", f.Name())
	}
	err := ps.prompter.Ask(known)
	if err != nil {
		return nil, err
	}
	for ps.scanner.Scan() {
		line := ps.scanner.Text()
		if line == ps.undefined {
			ps.answers[known.Name()] = nil
			return nil, nil
		}
		value, ok := parse(known, line)
		if ok {
			ps.answers[known.Name()] = value
			return value, nil
		}
		err = ps.prompter.Reject(known, line)
		if err != nil {
			return nil, err
		}
	}
	if err = ps.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("EOF when requesting value for %s", known.Name())
}

func parse(f feature.Feature, line string) (interface{}, bool) {
	switch f := f.(type) {
	case *feature.ContinuousFeature:
		value, err := strconv.ParseFloat(line, 64)
		return value, err == nil
	case *feature.DiscreteFeature:
		ok, _ := f.Valid(line)
		return line, ok
	}
	return nil, false
}
