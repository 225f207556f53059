package tree

import (
	"fmt"
	"strings"

	"github.com/pbanos/canopy/dataset"
	"github.com/pbanos/canopy/feature"
)

// Tree represents a binary decision tree. It is composed of
// its root node and the label feature it is able to predict.
type Tree struct {
	Root  Node
	Label feature.Feature
}

// New takes a root Node and a label feature and returns a tree
// that predicts the label with the given nodes.
func New(root Node, label feature.Feature) *Tree {
	return &Tree{root, label}
}

/*
Entropy returns the total weighted entropy of the tree: the sum over its
leaves of the leaf entropy times the leaf weight divided by the number of
samples the tree was grown from.
*/
func (t *Tree) Entropy() float64 {
	if t == nil || t.Root == nil {
		return 0.0
	}
	return WeightedEntropy(t.Root, t.Root.Weight())
}

// Leaves returns the leaves of the tree from left to right.
func (t *Tree) Leaves() []*Leaf {
	var leaves []*Leaf
	t.Traverse(false, func(n Node) error {
		if l, ok := n.(*Leaf); ok {
			leaves = append(leaves, l)
		}
		return nil
	})
	return leaves
}

// Predict takes a sample and returns a prediction according to the tree and an
// error if the prediction could not be made.
func (t *Tree) Predict(s feature.Sample) (*Prediction, error) {
	if t == nil || t.Root == nil {
		return nil, fmt.Errorf("nil tree cannot predict samples")
	}
	n := t.Root
	for {
		switch nn := n.(type) {
		case *Leaf:
			if nn.Prediction == nil {
				return nil, ErrCannotPredictFromSample
			}
			return nn.Prediction, nil
		case *Branch:
			ok, err := nn.Criterion.SatisfiedBy(s)
			if err != nil {
				return nil, err
			}
			if ok {
				n = nn.Left
				continue
			}
			ok, err = nn.Complement.SatisfiedBy(s)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrCannotPredictFromSample
			}
			n = nn.Right
		default:
			return nil, fmt.Errorf("unknown node type %T", n)
		}
	}
}

/*
Test takes a Dataset and returns three values:
  - the prediction success rate of the tree over the given Dataset for the label
  - the number of failing predictions for the dataset because of ErrCannotPredictFromSample errors
  - an error if a prediction could not be made for reasons other than the tree not
    being able to do so. If this is not nil, the other values will be 0.0 and 0
    respectively
*/
func (t *Tree) Test(ds dataset.Dataset) (float64, int, error) {
	if t == nil {
		return 0.0, 0, nil
	}
	var result float64
	var errCount int
	samples, err := ds.Samples()
	if err != nil {
		return 0.0, 0, err
	}
	if len(samples) == 0 {
		return 0.0, 0, nil
	}
	for _, sample := range samples {
		p, err := t.Predict(sample)
		if err != nil {
			if err != ErrCannotPredictFromSample {
				return 0.0, 0, err
			}
			errCount++
			continue
		}
		pV, _ := p.PredictedValue()
		v, err := sample.ValueFor(t.Label)
		if err != nil {
			return 0.0, 0, err
		}
		if v != nil && pV == dataset.ValueKey(v) {
			result += 1.0
		}
	}
	return result / float64(len(samples)), errCount, nil
}

// Traverse takes a bottomup boolean and an error-returning function
// that takes a node as parameter, and goes through the tree running the
// function with every traversed node.
// Traverse will call the function with a parent node before
// calling it for its children if bottomup is false, and
// call it after its children if bottomup is true. Left children are
// visited before right ones.
// If the call to the function returns an error, the traversing is
// aborted and the error is returned.
func (t *Tree) Traverse(bottomup bool, f func(Node) error) error {
	if t == nil || t.Root == nil {
		return nil
	}
	return traverse(t.Root, bottomup, f)
}

func traverse(n Node, bottomup bool, f func(Node) error) error {
	if !bottomup {
		if err := f(n); err != nil {
			return err
		}
	}
	if b, ok := n.(*Branch); ok {
		if err := traverse(b.Left, bottomup, f); err != nil {
			return err
		}
		if err := traverse(b.Right, bottomup, f); err != nil {
			return err
		}
	}
	if bottomup {
		return f(n)
	}
	return nil
}

func (t *Tree) String() string {
	if t == nil || t.Root == nil {
		return "[empty]\n"
	}
	return subtreeString(t.Root, nil)
}

func subtreeString(n Node, c feature.Criterion) string {
	result := "[root]\n"
	if c != nil {
		result = fmt.Sprintf("{ %v }\n", c)
	}
	var children []Node
	var criteria []feature.Criterion
	switch nn := n.(type) {
	case *Leaf:
		result = fmt.Sprintf("%s{ %v H=%.4g }\n \n", result, nn.Prediction, nn.Entropy)
	case *Branch:
		result = fmt.Sprintf("%s{ %v H=%.4g }\n|\n", result, nn.Prediction, nn.Entropy)
		children = []Node{nn.Left, nn.Right}
		criteria = []feature.Criterion{nn.Criterion, nn.Complement}
	}
	for i, child := range children {
		for j, line := range strings.Split(subtreeString(child, criteria[i]), "\n") {
			if len(line) == 0 {
				continue
			}
			switch {
			case j == 0:
				result = fmt.Sprintf("%s|__%s\n", result, line)
			case i == len(children)-1:
				result = fmt.Sprintf("%s   %s\n", result, line)
			default:
				result = fmt.Sprintf("%s|  %s\n", result, line)
			}
		}
	}
	return result
}
