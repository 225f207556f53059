/*
Package json serializes trees and their node records as JSON.
*/
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pbanos/canopy/feature"
	"github.com/pbanos/canopy/tree"
)

/*
WriteJSONTree takes a context.Context, a pointer to a tree.Tree
a NodeEncodeDecoder and an io.Writer and serializes the given tree
as JSON onto the io.Writer.
A tree is serialized as a JSON object with the following fields:
  - "rootID": a string with the ID of the node at the root of the tree
  - "label": a string with the name of the feature the tree predicts
  - "nodes": an array containing the node records of the tree, parents
    first, serialized by the given NodeEncodeDecoder.

An error is returned if the tree cannot be traversed, serialized or written
onto the io.Writer.
*/
func WriteJSONTree(ctx context.Context, t *tree.Tree, ned NodeEncodeDecoder, w io.Writer) error {
	ns := tree.NewMemoryNodeStore()
	rootID, err := tree.Save(ctx, t, ns)
	if err != nil {
		return err
	}
	err = marshalJSONTreeHeader(rootID, t.Label, w)
	if err != nil {
		return err
	}
	var i int
	err = tree.WalkRecords(ctx, ns, rootID, func(n *tree.NodeRecord) error {
		err := writeNode(i, n, ned, w)
		i++
		return err
	})
	if err != nil {
		return err
	}
	return marshalJSONTreeFooter(w)
}

/*
ReadJSONTree takes a context.Context, a NodeEncodeDecoder, the slice
of features the tree may refer to and an io.Reader and returns the
tree unmarshalled from the contents of the io.Reader.
A tree is expected to be a JSON object with the following fields:
  - "rootID": a string with the ID of the node at the root of the tree
  - "label": a string with the name of the feature the tree predicts
  - "nodes": an array containing the node records of the tree
    unmarshalled by the NodeEncodeDecoder.

An error is returned if the JSON cannot be read from the io.Reader or
does not describe a tree.
*/
func ReadJSONTree(ctx context.Context, ned NodeEncodeDecoder, features []feature.Feature, r io.Reader) (*tree.Tree, error) {
	dec := json.NewDecoder(r)
	jt := &struct {
		RootID string             `json:"rootID"`
		Label  string             `json:"label"`
		Nodes  []*json.RawMessage `json:"nodes"`
	}{}
	err := dec.Decode(jt)
	if err != nil {
		return nil, err
	}
	label := feature.Find(features, jt.Label)
	if label == nil {
		return nil, fmt.Errorf("no label feature defined")
	}
	if jt.RootID == "" {
		return nil, fmt.Errorf("no root node id available")
	}
	ns := tree.NewMemoryNodeStore()
	for _, jn := range jt.Nodes {
		if jn == nil {
			return nil, fmt.Errorf("null node in tree")
		}
		n, err := ned.Decode(*jn)
		if err != nil {
			return nil, err
		}
		err = ns.Store(ctx, n)
		if err != nil {
			return nil, err
		}
	}
	return tree.Load(ctx, ns, jt.RootID, label)
}

func marshalJSONTreeHeader(rootID string, label feature.Feature, w io.Writer) error {
	jrootID, err := json.Marshal(rootID)
	if err != nil {
		return err
	}
	jFeatureName, err := json.Marshal(label.Name())
	if err != nil {
		return err
	}
	header := fmt.Sprintf(`{"rootID":%s,"label":%s,"nodes":[`, jrootID, jFeatureName)
	_, err = w.Write([]byte(header))
	return err
}

func writeNode(i int, n *tree.NodeRecord, ned NodeEncodeDecoder, w io.Writer) error {
	if i != 0 {
		_, err := w.Write([]byte(","))
		if err != nil {
			return err
		}
	}
	jn, err := ned.Encode(n)
	if err != nil {
		return err
	}
	_, err = w.Write(jn)
	return err
}

func marshalJSONTreeFooter(w io.Writer) error {
	_, err := w.Write([]byte(`]}`))
	return err
}
