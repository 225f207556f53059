package canopy

import (
	"fmt"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
	"github.com/pbanos/canopy/tree"
)

/*
Grow takes a dataset, a label feature, the feature universe and the subset
of it the tree may split on, and grows a decision tree greedily: every node
is split with FindBestSplit until its samples share a label or no split
lowers their entropy. Both sides of a split keep the whole allowed subset
available, so a feature may be split on more than once along a path.

It returns the tree and its total entropy, which equals the tree's Entropy
method result exactly. An error wrapping ErrInvalidInput is returned if the
dataset is empty, the subset refers to features not in the universe or a
sample lacks a valid value for the label or an allowed feature.
*/
func Grow(ds dataset.Dataset, label feature.Feature, features []feature.Feature, allowed Subset) (*tree.Tree, float64, error) {
	count, err := ds.Count()
	if err != nil {
		return nil, 0.0, err
	}
	if count == 0 {
		return nil, 0.0, fmt.Errorf("%w: cannot grow a tree from an empty dataset", ErrInvalidInput)
	}
	allowed = NewSubset(allowed...)
	if _, err = allowed.Features(features); err != nil {
		return nil, 0.0, err
	}
	if err = checkValues(ds, label, features, allowed); err != nil {
		return nil, 0.0, err
	}
	return growTree(ds, label, features, allowed, count)
}

// growTree grows the tree on a dataset of count samples whose values have
// already been checked.
func growTree(ds dataset.Dataset, label feature.Feature, features []feature.Feature, allowed Subset, count int) (*tree.Tree, float64, error) {
	root, h, err := grow(ds, label, features, allowed, count)
	if err != nil {
		return nil, 0.0, err
	}
	return tree.New(root, label), h, nil
}

// grow returns the subtree for ds and the entropy of its leaves weighted
// over total samples.
func grow(ds dataset.Dataset, label feature.Feature, features []feature.Feature, allowed Subset, total int) (tree.Node, float64, error) {
	prediction, err := tree.NewPredictionFromDataset(ds, label)
	if err != nil {
		return nil, 0.0, err
	}
	h, err := ds.Entropy(label)
	if err != nil {
		return nil, 0.0, err
	}
	leaf := &tree.Leaf{Prediction: prediction, Entropy: h}
	if h == 0 || len(allowed) == 0 {
		return leaf, tree.LeafContribution(leaf, total), nil
	}
	split, err := findBestSplit(ds, label, features, allowed)
	if err != nil {
		return nil, 0.0, fmt.Errorf("splitting samples with %v: %w", ds.Criteria(), err)
	}
	if split == nil {
		return leaf, tree.LeafContribution(leaf, total), nil
	}
	left, lh, err := grow(split.Left, label, features, allowed, total)
	if err != nil {
		return nil, 0.0, err
	}
	right, rh, err := grow(split.Right, label, features, allowed, total)
	if err != nil {
		return nil, 0.0, err
	}
	return &tree.Branch{
		Criterion:    split.Criterion,
		Complement:   split.Complement,
		FeatureIndex: split.FeatureIndex,
		Left:         left,
		Right:        right,
		Prediction:   prediction,
		Entropy:      h,
	}, lh + rh, nil
}
