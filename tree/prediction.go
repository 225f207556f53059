package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
)

/*
Prediction represents a prediction made by a decision Tree
*/
type Prediction struct {
	probabilities map[string]float64
	weight        int
}

// PredictionError represents an error related with predictions
type PredictionError string

/*
ErrCannotPredictFromSample is the error returned by the Predict method of a tree
when the prediction cannot be made because the tree itself cannot make
a prediction for that kind of sample, as opposed to cases where values
for a feature cannot be obtained for example.
*/
const ErrCannotPredictFromSample = PredictionError("no prediction available for this kind of sample")

/*
ErrCannotPredictFromEmptyDataset is the error returned when trying to build a prediction
based on an empty dataset.
*/
const ErrCannotPredictFromEmptyDataset = PredictionError("cannot make prediction for empty dataset")

func (pe PredictionError) Error() string {
	return string(pe)
}

/*
ProbabilityOf takes a string value and returns the float64 probability of that
value according to the prediction.
*/
func (p *Prediction) ProbabilityOf(value string) float64 {
	return p.probabilities[value]
}

func (p *Prediction) String() string {
	labels := p.labels()
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s:%s", l, strconv.FormatFloat(p.probabilities[l], 'g', 4, 64))
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " "))
}

/*
Probabilities returns a map of string to float64 containing
the probabilities of each available value
*/
func (p *Prediction) Probabilities() map[string]float64 {
	return p.probabilities
}

/*
Weight returns the weight of the prediction: an
int equal to the number of samples in the dataset from which
the prediction was made
*/
func (p *Prediction) Weight() int {
	return p.weight
}

/*
NewPrediction takes a map[string]float64 with the probabilities
of each value in the prediction and an integer with the number
of samples in the dataset from which those probabilities were computed
and returns a prediction representing those values.
*/
func NewPrediction(probs map[string]float64, weight int) *Prediction {
	return &Prediction{probabilities: probs, weight: weight}
}

/*
PredictedValue returns a string with the most probable value and a float64 with
its prevalence. Ties are broken in favour of the smallest value, compared
numerically when both values are numbers.
*/
func (p *Prediction) PredictedValue() (value string, prob float64) {
	for i, k := range p.labels() {
		v := p.probabilities[k]
		if i == 0 || v > prob {
			value = k
			prob = v
		}
	}
	return
}

// labels returns the predicted values in LabelLess order.
func (p *Prediction) labels() []string {
	labels := make([]string, 0, len(p.probabilities))
	for k := range p.probabilities {
		labels = append(labels, k)
	}
	sort.Slice(labels, func(i, j int) bool { return LabelLess(labels[i], labels[j]) })
	return labels
}

/*
LabelLess reports whether label value a sorts before b: numerically when
both parse as numbers, lexicographically otherwise.
*/
func LabelLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil && fa != fb {
		return fa < fb
	}
	return a < b
}

// NewPredictionFromDataset takes a dataset and a feature and returns
// a prediction for the feature based on the (training) data in the dataset
// or an error if there are no samples in the dataset, or the dataset cannot
// be queried
func NewPredictionFromDataset(ds dataset.Dataset, f feature.Feature) (*Prediction, error) {
	weight, err := ds.Count()
	if err != nil {
		return nil, err
	}
	if weight == 0 {
		return nil, ErrCannotPredictFromEmptyDataset
	}
	probs := make(map[string]float64)
	fvc, err := ds.CountFeatureValues(f)
	if err != nil {
		return nil, err
	}
	for v, c := range fvc {
		probs[v] = float64(c) / float64(weight)
	}
	return &Prediction{probs, weight}, nil
}
