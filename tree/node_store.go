package tree

import (
	"context"
	"fmt"
	"sync"

	"github.com/pbanos/canopy/feature"
)

/*
NodeRecord is the storable form of a node of a tree
*/
type NodeRecord struct {
	// An ID to identify the node
	ID string
	// The ID for the parent of the node in the tree
	ParentID string
	// The IDs of the nodes directly under this node, left first.
	// Empty for leaves.
	SubtreeIDs []string
	// The constraint that, applied to the samples of the parent node,
	// selects the samples of this node. Nil for the root.
	Criterion feature.Criterion
	// For branches, the index of the split feature in the feature universe.
	FeatureIndex int
	// The prediction for samples that satisfied node constraints from the
	// root of the tree up to this node.
	Prediction *Prediction
	// The entropy of the label over the samples of the node.
	Entropy float64
}

/*
NodeStore is an interface to manage a store
where node records can be created, retrieved, updated
and deleted.

All it methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type NodeStore interface {
	// Create takes a node record and stores it for the
	// first time in the store, creating an ID for
	// it and setting it for the record. It returns
	// an error if the record cannot be stored.
	Create(ctx context.Context, n *NodeRecord) error
	// Get takes an id and returns the record in the
	// store with that id (or nil if it cannot be
	// found) or an error if the store cannot be
	// queried
	Get(ctx context.Context, id string) (*NodeRecord, error)
	// Store takes a record already existing in the store
	// and updates it on the store. It expect the record
	// to have an ID which it will not alter. It returns
	// an error if the update cannot be performed.
	Store(ctx context.Context, n *NodeRecord) error
	// Delete takes a record already existing in the store
	// and deletes it on the store. It returns an error
	// if the record exist but the deletion cannot be
	// performed.
	Delete(ctx context.Context, n *NodeRecord) error
	// Close closes the store, implementations should
	// free any resources in use as well as ensure
	// any pending changes are applied before returning
	// (unless the context expires). It returns an error
	// if the Close cannot be completed (because of the
	// context or another error)
	Close(ctx context.Context) error
}

type memoryNodeStore struct {
	nodes  map[string]*NodeRecord
	lock   *sync.RWMutex
	nextID uint64
}

// NewMemoryNodeStore returns an implementation
// of NodeStore with the process memory space
// as underlying backend
func NewMemoryNodeStore() NodeStore {
	return &memoryNodeStore{
		nodes: make(map[string]*NodeRecord),
		lock:  &sync.RWMutex{},
	}
}

/*
Save takes a context, a tree and a NodeStore and creates a record for
every node of the tree in the store, parents before children. It returns
the ID of the record for the root node or an error if a record cannot be
created or updated.
*/
func Save(ctx context.Context, t *Tree, ns NodeStore) (string, error) {
	if t == nil || t.Root == nil {
		return "", fmt.Errorf("saving tree: empty tree")
	}
	return save(ctx, ns, t.Root, "", nil)
}

func save(ctx context.Context, ns NodeStore, n Node, parentID string, c feature.Criterion) (string, error) {
	r := &NodeRecord{ParentID: parentID, Criterion: c}
	var children []Node
	var criteria []feature.Criterion
	switch nn := n.(type) {
	case *Leaf:
		r.Prediction = nn.Prediction
		r.Entropy = nn.Entropy
	case *Branch:
		r.Prediction = nn.Prediction
		r.Entropy = nn.Entropy
		r.FeatureIndex = nn.FeatureIndex
		children = []Node{nn.Left, nn.Right}
		criteria = []feature.Criterion{nn.Criterion, nn.Complement}
	default:
		return "", fmt.Errorf("saving tree: unknown node type %T", n)
	}
	err := ns.Create(ctx, r)
	if err != nil {
		return "", fmt.Errorf("saving tree: creating node: %v", err)
	}
	if len(children) == 0 {
		return r.ID, nil
	}
	for i, child := range children {
		id, err := save(ctx, ns, child, r.ID, criteria[i])
		if err != nil {
			return "", err
		}
		r.SubtreeIDs = append(r.SubtreeIDs, id)
	}
	err = ns.Store(ctx, r)
	if err != nil {
		return "", fmt.Errorf("saving tree: storing node %v: %v", r.ID, err)
	}
	return r.ID, nil
}

/*
Load takes a context, a NodeStore, the ID of a root node record and a label
feature, and returns the tree formed by the records reachable from the root
record. An error is returned if a record cannot be retrieved or the records
do not form a binary tree.
*/
func Load(ctx context.Context, ns NodeStore, rootID string, label feature.Feature) (*Tree, error) {
	root, err := load(ctx, ns, rootID)
	if err != nil {
		return nil, fmt.Errorf("loading tree: %v", err)
	}
	return New(root, label), nil
}

func load(ctx context.Context, ns NodeStore, id string) (Node, error) {
	r, err := ns.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("retrieving node %v: %v", id, err)
	}
	if r == nil {
		return nil, fmt.Errorf("node %v not found", id)
	}
	if len(r.SubtreeIDs) == 0 {
		return &Leaf{Prediction: r.Prediction, Entropy: r.Entropy}, nil
	}
	if len(r.SubtreeIDs) != 2 {
		return nil, fmt.Errorf("node %v has %d subtrees, expected 2", id, len(r.SubtreeIDs))
	}
	b := &Branch{FeatureIndex: r.FeatureIndex, Prediction: r.Prediction, Entropy: r.Entropy}
	subtrees := make([]Node, 2)
	criteria := make([]feature.Criterion, 2)
	for i, sid := range r.SubtreeIDs {
		sr, err := ns.Get(ctx, sid)
		if err != nil {
			return nil, fmt.Errorf("retrieving node %v: %v", sid, err)
		}
		if sr == nil || sr.Criterion == nil {
			return nil, fmt.Errorf("subtree %v of node %v missing or without criterion", sid, id)
		}
		criteria[i] = sr.Criterion
		subtrees[i], err = load(ctx, ns, sid)
		if err != nil {
			return nil, err
		}
	}
	b.Criterion, b.Complement = criteria[0], criteria[1]
	b.Left, b.Right = subtrees[0], subtrees[1]
	return b, nil
}

/*
WalkRecords takes a context, a NodeStore, the ID of a root node record and
a function, and calls the function with every record reachable from the
root, parents before children. The walk stops at the first error, which is
returned, or when the context is done.
*/
func WalkRecords(ctx context.Context, ns NodeStore, rootID string, f func(*NodeRecord) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, err := ns.Get(ctx, rootID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("node %v not found", rootID)
	}
	if err = f(r); err != nil {
		return err
	}
	for _, sid := range r.SubtreeIDs {
		if err = WalkRecords(ctx, ns, sid, f); err != nil {
			return err
		}
	}
	return nil
}

func (mns *memoryNodeStore) Create(ctx context.Context, n *NodeRecord) error {
	return mns.withLock(ctx, func(ctx context.Context) error {
		taken := true
		for taken {
			if err := ctx.Err(); err != nil {
				return err
			}
			mns.nextID++
			n.ID = fmt.Sprintf("%d", mns.nextID)
			_, taken = mns.nodes[n.ID]
		}
		mns.nodes[n.ID] = n
		return nil
	})
}

func (mns *memoryNodeStore) Store(ctx context.Context, n *NodeRecord) error {
	return mns.withLock(ctx, func(ctx context.Context) error {
		mns.nodes[n.ID] = n
		return nil
	})
}

func (mns *memoryNodeStore) Get(ctx context.Context, id string) (*NodeRecord, error) {
	var n *NodeRecord
	err := mns.withRLock(ctx, func(ctx context.Context) error {
		n = mns.nodes[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (mns *memoryNodeStore) Delete(ctx context.Context, n *NodeRecord) error {
	return mns.withLock(ctx, func(ctx context.Context) error {
		delete(mns.nodes, n.ID)
		return nil
	})
}

func (mns *memoryNodeStore) Close(ctx context.Context) error {
	return nil
}

func (mns *memoryNodeStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mns.lock.Lock()
		select {
		case <-ctx.Done():
			mns.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mns.lock.Unlock()
	}
	return f(ctx)
}

func (mns *memoryNodeStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	gotLock := make(chan struct{})
	go func() {
		mns.lock.RLock()
		select {
		case <-ctx.Done():
			mns.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer mns.lock.RUnlock()
	}
	return f(ctx)
}
