package canopy

import (
	"context"
	"fmt"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
	"github.com/pbanos/canopy/tree"
	"golang.org/x/sync/errgroup"
)

/*
Evaluation is the outcome of growing a tree on a feature subset
*/
type Evaluation struct {
	Subset  Subset
	Entropy float64
}

/*
Result is the outcome of a search: the winning feature subset, its
features, the tree grown on it and its total entropy, together with the
number of subsets evaluated.
*/
type Result struct {
	Subset    Subset
	Features  []feature.Feature
	Tree      *tree.Tree
	Entropy   float64
	Evaluated int
}

type searchOptions struct {
	workers  int
	observer func(Evaluation)
}

// Option configures a Search.
type Option func(*searchOptions)

/*
WithWorkers sets the number of subsets evaluated concurrently. Values
below 2 make the search sequential, which is the default.
*/
func WithWorkers(n int) Option {
	return func(o *searchOptions) {
		o.workers = n
	}
}

/*
WithObserver sets a function to be called with the evaluation of every
subset, in enumeration order.
*/
func WithObserver(f func(Evaluation)) Option {
	return func(o *searchOptions) {
		o.observer = f
	}
}

/*
Search takes a context, a dataset, a label feature, the feature universe
and a SizeRule, grows a tree on every feature subset the rule allows and
returns the subset whose tree has the lowest total entropy.

Subsets are evaluated in the order Combinations yields them, and a later
subset only replaces the current best when its entropy is strictly lower,
so among equally good subsets the first enumerated wins. Results do not
depend on the number of workers.

An error wrapping ErrInvalidInput is returned if the dataset is empty, there
are no features, the label is among the features, the rule allows no
subset or a sample lacks a valid value for the label or any feature. If the context is done before the search completes, its error is
returned. No result is returned along with an error.
*/
func Search(ctx context.Context, ds dataset.Dataset, label feature.Feature, features []feature.Feature, rule SizeRule, opts ...Option) (*Result, error) {
	o := &searchOptions{workers: 1}
	for _, opt := range opts {
		opt(o)
	}
	count, err := ds.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrInvalidInput)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no features to search", ErrInvalidInput)
	}
	if label == nil {
		return nil, fmt.Errorf("%w: no label feature", ErrInvalidInput)
	}
	if feature.Find(features, label.Name()) != nil {
		return nil, fmt.Errorf("%w: label %s is among the features to search", ErrInvalidInput, label.Name())
	}
	combinations := NewCombinations(len(features), rule)
	if combinations.Count() == 0 {
		return nil, fmt.Errorf("%w: size rule %v allows no subset of %d features", ErrInvalidInput, rule, len(features))
	}
	// every feature is part of some subset
	all := make(Subset, len(features))
	for i := range all {
		all[i] = i
	}
	if err = checkValues(ds, label, features, all); err != nil {
		return nil, err
	}
	s := &searcher{ds, label, features, count}
	if o.workers > 1 {
		return s.searchConcurrently(ctx, combinations, o)
	}
	return s.searchSequentially(ctx, combinations, o)
}

type searcher struct {
	ds       dataset.Dataset
	label    feature.Feature
	features []feature.Feature
	count    int
}

func (s *searcher) grow(subset Subset) (*tree.Tree, float64, error) {
	t, h, err := growTree(s.ds, s.label, s.features, subset, s.count)
	if err != nil {
		return nil, 0.0, fmt.Errorf("growing tree on features %v: %w", subset, err)
	}
	return t, h, nil
}

func (s *searcher) searchSequentially(ctx context.Context, combinations *Combinations, o *searchOptions) (*Result, error) {
	var best *Result
	var evaluated int
	for subset, ok := combinations.Next(); ok; subset, ok = combinations.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, h, err := s.grow(subset)
		if err != nil {
			return nil, err
		}
		evaluated++
		if o.observer != nil {
			o.observer(Evaluation{subset, h})
		}
		if best == nil || improves(h, best.Entropy) {
			best = &Result{Subset: subset, Tree: t, Entropy: h}
		}
	}
	return finishResult(best, s.features, evaluated)
}

// maxPreallocated bounds the subsets buffer allocated up front, as counts
// saturate for large feature universes.
const maxPreallocated = 1 << 16

func (s *searcher) searchConcurrently(ctx context.Context, combinations *Combinations, o *searchOptions) (*Result, error) {
	subsets := make([]Subset, 0, min(combinations.Count(), maxPreallocated))
	for subset, ok := combinations.Next(); ok; subset, ok = combinations.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		subsets = append(subsets, subset)
	}
	entropies := make([]float64, len(subsets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, subset := range subsets {
		i, subset := i, subset
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, h, err := s.grow(subset)
			if err != nil {
				return err
			}
			entropies[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	winner := 0
	for i, h := range entropies {
		if o.observer != nil {
			o.observer(Evaluation{subsets[i], h})
		}
		if improves(h, entropies[winner]) {
			winner = i
		}
	}
	t, h, err := s.grow(subsets[winner])
	if err != nil {
		return nil, err
	}
	return finishResult(&Result{Subset: subsets[winner], Tree: t, Entropy: h}, s.features, len(subsets))
}

func finishResult(best *Result, features []feature.Feature, evaluated int) (*Result, error) {
	if best == nil {
		return nil, fmt.Errorf("%w: no subset evaluated", ErrInvalidInput)
	}
	fs, err := best.Subset.Features(features)
	if err != nil {
		return nil, err
	}
	best.Features = fs
	best.Evaluated = evaluated
	return best, nil
}

// improves reports whether entropy h is lower than best by more than the
// tolerance, so differences within rounding error never change a choice.
func improves(h, best float64) bool {
	return h < best-tolerance
}
