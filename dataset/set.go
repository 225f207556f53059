package dataset

import (
	"fmt"

	"github.com/pbanos/canopy/entropy"
	"github.com/pbanos/canopy/feature"
)

const (
	sampleCountThresholdForDatasetImplementation = 1000
)

/*
Dataset represents an immutable collection of samples.

Its Entropy method returns the entropy in bits of the dataset for a given
Feature: a measure of the disinformation we have on the values of that
feature for samples that belong to it.

Its SubsetWith method takes a feature.Criterion and returns a subset that only
contains samples that satisfy it. The receiver is never modified: subsets are
views that share the samples of the dataset they come from.

Its FeatureValues method returns the distinct values samples take for a
feature, in order of first appearance.

Its CountFeatureValues method returns how many samples take each value
for a feature, keyed by ValueKey.

Its Samples method returns the samples it contains, in order.

Its Criteria method returns the criteria applied to obtain the dataset,
the most recent first.

Implementations are safe for concurrent use by multiple goroutines.
*/
type Dataset interface {
	Entropy(feature.Feature) (float64, error)
	SubsetWith(feature.Criterion) (Dataset, error)
	FeatureValues(feature.Feature) ([]interface{}, error)
	CountFeatureValues(feature.Feature) (map[string]int, error)
	Samples() ([]Sample, error)
	Count() (int, error)
	Criteria() []feature.Criterion
}

/*
Generator is a function that takes a slice of samples
and generates a dataset with them.
*/
type Generator func([]Sample) Dataset

type memoryIntensiveSubsettingDataset struct {
	samples  []Sample
	criteria []feature.Criterion
}

type cpuIntensiveSubsettingDataset struct {
	samples  []Sample
	criteria []feature.Criterion
}

/*
New takes a slice of samples and returns a dataset built with them.
The dataset will be a CPU intensive one when the number of samples is
over sampleCountThresholdForDatasetImplementation
*/
func New(samples []Sample) Dataset {
	if len(samples) > sampleCountThresholdForDatasetImplementation {
		return NewCPUIntensive(samples)
	}
	return NewMemoryIntensive(samples)
}

/*
NewMemoryIntensive takes a slice of samples and returns a Dataset
built with them. A memory-intensive dataset is an implementation that
replicates the slice of samples when subsetting to reduce
calculations at the cost of increased memory.
*/
func NewMemoryIntensive(samples []Sample) Dataset {
	return &memoryIntensiveSubsettingDataset{copySamples(samples), nil}
}

/*
NewCPUIntensive takes a slice of samples and returns a Dataset
built with them. A cpu-intensive dataset is an implementation that
instead of replicating the samples when subsetting, stores the
applying feature criteria to define the subset and keeps the same
sample slice. This can achieve a drastic reduction in memory use
that comes at the cost of CPU time: every calculation that goes over
the samples of the dataset will apply the feature criteria of the dataset
on all original samples (the ones provided to this method).
*/
func NewCPUIntensive(samples []Sample) Dataset {
	return &cpuIntensiveSubsettingDataset{copySamples(samples), nil}
}

func (s *memoryIntensiveSubsettingDataset) Count() (int, error) {
	return len(s.samples), nil
}

func (s *cpuIntensiveSubsettingDataset) Count() (int, error) {
	var length int
	err := s.iterateOnDataset(func(_ Sample) (bool, error) {
		length++
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return length, nil
}

func (s *memoryIntensiveSubsettingDataset) Entropy(f feature.Feature) (float64, error) {
	return datasetEntropy(s, f)
}

func (s *cpuIntensiveSubsettingDataset) Entropy(f feature.Feature) (float64, error) {
	return datasetEntropy(s, f)
}

func (s *memoryIntensiveSubsettingDataset) FeatureValues(f feature.Feature) ([]interface{}, error) {
	return featureValues(s.iterateOnDataset, f)
}

func (s *cpuIntensiveSubsettingDataset) FeatureValues(f feature.Feature) ([]interface{}, error) {
	return featureValues(s.iterateOnDataset, f)
}

func (s *memoryIntensiveSubsettingDataset) CountFeatureValues(f feature.Feature) (map[string]int, error) {
	return countFeatureValues(s.iterateOnDataset, f)
}

func (s *cpuIntensiveSubsettingDataset) CountFeatureValues(f feature.Feature) (map[string]int, error) {
	return countFeatureValues(s.iterateOnDataset, f)
}

func (s *memoryIntensiveSubsettingDataset) SubsetWith(fc feature.Criterion) (Dataset, error) {
	var samples []Sample
	for _, sample := range s.samples {
		ok, err := fc.SatisfiedBy(sample)
		if err != nil {
			return nil, err
		}
		if ok {
			samples = append(samples, sample)
		}
	}
	return &memoryIntensiveSubsettingDataset{samples, prependCriterion(fc, s.criteria)}, nil
}

func (s *cpuIntensiveSubsettingDataset) SubsetWith(fc feature.Criterion) (Dataset, error) {
	return &cpuIntensiveSubsettingDataset{s.samples, prependCriterion(fc, s.criteria)}, nil
}

func (s *memoryIntensiveSubsettingDataset) Samples() ([]Sample, error) {
	return copySamples(s.samples), nil
}

func (s *cpuIntensiveSubsettingDataset) Samples() ([]Sample, error) {
	var samples []Sample
	err := s.iterateOnDataset(func(sample Sample) (bool, error) {
		samples = append(samples, sample)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *memoryIntensiveSubsettingDataset) Criteria() []feature.Criterion {
	return s.criteria
}

func (s *cpuIntensiveSubsettingDataset) Criteria() []feature.Criterion {
	return s.criteria
}

func (s *memoryIntensiveSubsettingDataset) String() string {
	return fmt.Sprintf("[ %v ]", len(s.samples))
}

func (s *cpuIntensiveSubsettingDataset) String() string {
	count, _ := s.Count()
	return fmt.Sprintf("[ %v ]", count)
}

func (s *memoryIntensiveSubsettingDataset) iterateOnDataset(lambda func(Sample) (bool, error)) error {
	for _, sample := range s.samples {
		ok, err := lambda(sample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return nil
}

func (s *cpuIntensiveSubsettingDataset) iterateOnDataset(lambda func(Sample) (bool, error)) error {
	for _, sample := range s.samples {
		skip := false
		for _, criterion := range s.criteria {
			ok, err := criterion.SatisfiedBy(sample)
			if err != nil {
				return err
			}
			if !ok {
				skip = true
				break
			}
		}
		if !skip {
			ok, err := lambda(sample)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
		}
	}
	return nil
}

type iterator func(func(Sample) (bool, error)) error

func datasetEntropy(s Dataset, f feature.Feature) (float64, error) {
	counts, err := s.CountFeatureValues(f)
	if err != nil {
		return 0.0, err
	}
	return entropy.Shannon(counts), nil
}

func featureValues(iterate iterator, f feature.Feature) ([]interface{}, error) {
	result := []interface{}{}
	encountered := make(map[string]bool)
	err := iterate(func(sample Sample) (bool, error) {
		v, err := sample.ValueFor(f)
		if err != nil {
			return false, err
		}
		if v == nil {
			return true, nil
		}
		vString := ValueKey(v)
		if !encountered[vString] {
			encountered[vString] = true
			result = append(result, v)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func countFeatureValues(iterate iterator, f feature.Feature) (map[string]int, error) {
	result := make(map[string]int)
	err := iterate(func(sample Sample) (bool, error) {
		v, err := sample.ValueFor(f)
		if err != nil {
			return false, err
		}
		if v != nil {
			result[ValueKey(v)]++
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func prependCriterion(fc feature.Criterion, criteria []feature.Criterion) []feature.Criterion {
	result := make([]feature.Criterion, 0, len(criteria)+1)
	result = append(result, fc)
	return append(result, criteria...)
}

func copySamples(samples []Sample) []Sample {
	result := make([]Sample, len(samples))
	copy(result, samples)
	return result
}
