package tree

import (
	"github.com/pbanos/canopy/feature"
)

/*
Node is a node of the tree: either a *Leaf or a *Branch.

Its Weight method returns the number of training samples that reached the
node.
*/
type Node interface {
	Weight() int
	node()
}

/*
Leaf is a terminal node of the tree
*/
type Leaf struct {
	// The label distribution of the samples that reached the leaf.
	Prediction *Prediction
	// The entropy in bits of the label over those samples.
	Entropy float64
}

/*
Branch is an internal node of the tree. Samples satisfying Criterion go
to Left, samples satisfying Complement go to Right.
*/
type Branch struct {
	// The constraint satisfied by the samples in the left subtree.
	Criterion feature.Criterion
	// The constraint satisfied by the samples in the right subtree.
	Complement feature.Criterion
	// Index of the split feature in the feature universe the tree was
	// grown with.
	FeatureIndex int
	Left         Node
	Right        Node
	// The label distribution of the samples that reached the branch.
	Prediction *Prediction
	// The entropy in bits of the label over those samples, before splitting.
	Entropy float64
}

// Weight returns the number of samples the leaf was built from.
func (l *Leaf) Weight() int {
	return l.Prediction.Weight()
}

// Weight returns the number of samples the branch was built from.
func (b *Branch) Weight() int {
	return b.Prediction.Weight()
}

func (*Leaf) node()   {}
func (*Branch) node() {}

/*
SplitFeature returns the feature the branch splits on.
*/
func (b *Branch) SplitFeature() feature.Feature {
	return b.Criterion.Feature()
}

/*
WeightedEntropy takes a node and the total number of samples of the tree
it belongs to, and returns the contribution of the node's leaves to the
total entropy of the tree: the sum of each leaf's entropy weighted by its
share of the total.
*/
func WeightedEntropy(n Node, total int) float64 {
	switch n := n.(type) {
	case *Leaf:
		return LeafContribution(n, total)
	case *Branch:
		return WeightedEntropy(n.Left, total) + WeightedEntropy(n.Right, total)
	}
	return 0.0
}

/*
LeafContribution returns the entropy of the leaf weighted by its share of
total samples, or 0 if total is 0.
*/
func LeafContribution(l *Leaf, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(l.Weight()) / float64(total) * l.Entropy
}
