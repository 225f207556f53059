package canopy

import (
	"fmt"
	"math"
	"sort"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/entropy"
	"github.com/pbanos/canopy/feature"
)

// tolerance is the margin by which an entropy must fall below another
// to count as lower.
const tolerance = 1e-12

/*
Split represents a binary partition of a dataset on a feature: samples
satisfying Criterion form the Left dataset, the rest (satisfying
Complement) form the Right dataset.
*/
type Split struct {
	// Index of the feature in the feature universe
	FeatureIndex int
	Feature      feature.Feature
	// The threshold: a float64 for continuous features (left takes
	// values <= threshold), a string for discrete ones (left takes the
	// threshold value).
	Threshold  interface{}
	Criterion  feature.Criterion
	Complement feature.Criterion
	Left       dataset.Dataset
	Right      dataset.Dataset
	// The label entropy of both sides weighted by their sizes
	Entropy float64
}

/*
FindBestSplit takes a dataset, a label feature, the feature universe and
the subset of it that may be split on, and returns the split with the
lowest weighted label entropy.

Candidate splits are tried feature by feature in ascending index order:
continuous features are split at the midpoints between consecutive distinct
observed values, discrete features on each observed value (compared as
strings). Candidates that leave a side empty are skipped and ties keep the
first candidate found.

FindBestSplit returns nil and no error when no candidate lowers the entropy
of the dataset. An error wrapping ErrInvalidInput is returned if the dataset
is empty, the allowed subset is empty or it refers to features not in the
universe.
*/
func FindBestSplit(ds dataset.Dataset, label feature.Feature, features []feature.Feature, allowed Subset) (*Split, error) {
	count, err := ds.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: cannot split an empty dataset", ErrInvalidInput)
	}
	allowed = NewSubset(allowed...)
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no features allowed to split on", ErrInvalidInput)
	}
	if _, err = allowed.Features(features); err != nil {
		return nil, err
	}
	if err = checkValues(ds, label, features, allowed); err != nil {
		return nil, err
	}
	return findBestSplit(ds, label, features, allowed)
}

/*
checkValues returns an error wrapping ErrInvalidInput if a sample of the
dataset lacks a valid value for the label or for one of the allowed
features. Continuous values must also be finite.
*/
func checkValues(ds dataset.Dataset, label feature.Feature, features []feature.Feature, allowed Subset) error {
	checked := make([]feature.Feature, 0, len(allowed)+1)
	checked = append(checked, label)
	for _, idx := range allowed {
		checked = append(checked, features[idx])
	}
	samples, err := ds.Samples()
	if err != nil {
		return err
	}
	for i, s := range samples {
		for _, f := range checked {
			v, err := s.ValueFor(f)
			if err != nil {
				return err
			}
			if ok, err := f.Valid(v); !ok {
				return fmt.Errorf("%w: sample %d: %v", ErrInvalidInput, i, err)
			}
			if fv, ok := v.(float64); ok && (math.IsNaN(fv) || math.IsInf(fv, 0)) {
				return fmt.Errorf("%w: sample %d: value %v for feature %s is not finite", ErrInvalidInput, i, fv, f.Name())
			}
		}
	}
	return nil
}

func findBestSplit(ds dataset.Dataset, label feature.Feature, features []feature.Feature, allowed Subset) (*Split, error) {
	h, err := ds.Entropy(label)
	if err != nil {
		return nil, err
	}
	var best *Split
	for _, idx := range allowed {
		candidates, err := candidateCriteria(ds, features[idx])
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			s, err := evaluateCandidate(ds, label, c)
			if err != nil {
				return nil, err
			}
			if s == nil {
				continue
			}
			if best == nil || s.Entropy < best.Entropy {
				s.FeatureIndex = idx
				best = s
			}
		}
	}
	if best == nil || !improves(best.Entropy, h) {
		return nil, nil
	}
	return best, nil
}

type candidate struct {
	threshold  interface{}
	criterion  feature.Criterion
	complement feature.Criterion
}

func candidateCriteria(ds dataset.Dataset, f feature.Feature) ([]candidate, error) {
	values, err := ds.FeatureValues(f)
	if err != nil {
		return nil, err
	}
	switch f := f.(type) {
	case *feature.ContinuousFeature:
		points := make([]float64, 0, len(values))
		for _, v := range values {
			fv, ok := v.(float64)
			if !ok || math.IsNaN(fv) || math.IsInf(fv, 0) {
				return nil, fmt.Errorf("%w: value %v of type %T for continuous feature %s", ErrInvalidInput, v, v, f.Name())
			}
			points = append(points, fv)
		}
		sort.Float64s(points)
		var candidates []candidate
		for i := 0; i+1 < len(points); i++ {
			if points[i] == points[i+1] {
				continue
			}
			t := midpoint(points[i], points[i+1])
			c, err := withComplement(t, feature.NewContinuousCriterion(f, math.Inf(-1), t))
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, c)
		}
		return candidates, nil
	case *feature.DiscreteFeature:
		keys := make([]string, 0, len(values))
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: value %v of type %T for discrete feature %s", ErrInvalidInput, v, v, f.Name())
			}
			keys = append(keys, s)
		}
		sort.Strings(keys)
		candidates := make([]candidate, len(keys))
		for i, k := range keys {
			c, err := withComplement(k, feature.NewDiscreteCriterion(f, k))
			if err != nil {
				return nil, err
			}
			candidates[i] = c
		}
		return candidates, nil
	}
	return nil, fmt.Errorf("%w: unknown feature type %T", ErrInvalidInput, f)
}

func withComplement(threshold interface{}, c feature.Criterion) (candidate, error) {
	complement, err := feature.Complement(c)
	if err != nil {
		return candidate{}, err
	}
	return candidate{threshold: threshold, criterion: c, complement: complement}, nil
}

// midpoint returns a threshold t with a <= t < b for finite a < b.
func midpoint(a, b float64) float64 {
	t := a + (b-a)/2
	if math.IsInf(t, 0) {
		t = a/2 + b/2
	}
	if t >= b {
		t = a
	}
	return t
}

// evaluateCandidate returns the split for the candidate, or nil if it
// leaves a side empty.
func evaluateCandidate(ds dataset.Dataset, label feature.Feature, c candidate) (*Split, error) {
	left, err := ds.SubsetWith(c.criterion)
	if err != nil {
		return nil, err
	}
	right, err := ds.SubsetWith(c.complement)
	if err != nil {
		return nil, err
	}
	leftCount, err := left.Count()
	if err != nil {
		return nil, err
	}
	rightCount, err := right.Count()
	if err != nil {
		return nil, err
	}
	if leftCount == 0 || rightCount == 0 {
		return nil, nil
	}
	leftCounts, err := left.CountFeatureValues(label)
	if err != nil {
		return nil, err
	}
	rightCounts, err := right.CountFeatureValues(label)
	if err != nil {
		return nil, err
	}
	return &Split{
		Feature:    c.criterion.Feature(),
		Threshold:  c.threshold,
		Criterion:  c.criterion,
		Complement: c.complement,
		Left:       left,
		Right:      right,
		Entropy:    entropy.Weighted(leftCounts, rightCounts),
	}, nil
}
