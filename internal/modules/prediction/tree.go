package prediction

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TreeNode is one node of a gradient boosted tree in XGBoost's JSON dump layout.
// Leaves carry Leaf; split nodes carry Split, SplitCondition and child ids.
type TreeNode struct {
	NodeID         int         `json:"nodeid" msgpack:"nodeid"`
	Split          string      `json:"split,omitempty" msgpack:"split,omitempty"`
	SplitCondition float64     `json:"split_condition,omitempty" msgpack:"split_condition,omitempty"`
	Yes            int         `json:"yes,omitempty" msgpack:"yes,omitempty"`
	No             int         `json:"no,omitempty" msgpack:"no,omitempty"`
	Missing        int         `json:"missing,omitempty" msgpack:"missing,omitempty"`
	Leaf           *float64    `json:"leaf,omitempty" msgpack:"leaf,omitempty"`
	Children       []*TreeNode `json:"children,omitempty" msgpack:"children,omitempty"`
}

type compiledNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
}

type compiledTree map[int]compiledNode

// TreeEnsemble sums the leaf values of every tree on top of a base score
type TreeEnsemble struct {
	name      string
	baseScore float64
	nFeatures int
	trees     []compiledTree
}

// NewTreeEnsemble compiles dumped trees against the ordered feature names.
// Split features may be named "f<i>" or by their feature name.
func NewTreeEnsemble(name string, baseScore float64, featureNames []string, trees []*TreeNode) (*TreeEnsemble, error) {
	if name == "" {
		name = "tree_ensemble"
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: ensemble has no trees", ErrInvalidArtifact)
	}

	index := make(map[string]int, len(featureNames))
	for i, n := range featureNames {
		index[n] = i
	}

	e := &TreeEnsemble{
		name:      name,
		baseScore: baseScore,
		nFeatures: len(featureNames),
		trees:     make([]compiledTree, len(trees)),
	}

	for t, root := range trees {
		if root == nil {
			return nil, fmt.Errorf("%w: tree %d is empty", ErrInvalidArtifact, t)
		}
		compiled := make(compiledTree)
		if err := compileNode(root, index, len(featureNames), compiled); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidArtifact, t, err)
		}
		if _, ok := compiled[0]; !ok {
			return nil, fmt.Errorf("%w: tree %d has no root node", ErrInvalidArtifact, t)
		}
		e.trees[t] = compiled
	}

	return e, nil
}

func compileNode(n *TreeNode, index map[string]int, nFeatures int, out compiledTree) error {
	if _, dup := out[n.NodeID]; dup {
		return fmt.Errorf("duplicate node id %d", n.NodeID)
	}

	if n.Leaf != nil {
		out[n.NodeID] = compiledNode{leaf: true, value: *n.Leaf}
		return nil
	}

	feature, err := resolveFeature(n.Split, index, nFeatures)
	if err != nil {
		return fmt.Errorf("node %d: %w", n.NodeID, err)
	}

	out[n.NodeID] = compiledNode{
		feature:   feature,
		threshold: n.SplitCondition,
		yes:       n.Yes,
		no:        n.No,
		missing:   n.Missing,
	}

	children := make(map[int]bool, len(n.Children))
	for _, child := range n.Children {
		if child == nil {
			return fmt.Errorf("node %d has a nil child", n.NodeID)
		}
		if err := compileNode(child, index, nFeatures, out); err != nil {
			return err
		}
		children[child.NodeID] = true
	}

	// Branches may only point at direct children so walks always terminate
	for _, id := range []int{n.Yes, n.No, n.Missing} {
		if !children[id] {
			return fmt.Errorf("node %d references missing child %d", n.NodeID, id)
		}
	}

	return nil
}

func resolveFeature(split string, index map[string]int, nFeatures int) (int, error) {
	if i, ok := index[split]; ok {
		return i, nil
	}
	if strings.HasPrefix(split, "f") {
		if i, err := strconv.Atoi(split[1:]); err == nil && i >= 0 && i < nFeatures {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}

// Name returns the model name
func (e *TreeEnsemble) Name() string {
	return e.name
}

// Predict walks every tree; NaN features follow the missing branch
func (e *TreeEnsemble) Predict(features []float64) (float64, error) {
	if len(features) != e.nFeatures {
		return 0, fmt.Errorf("%w: model %s expects %d features, got %d",
			ErrDimensionMismatch, e.name, e.nFeatures, len(features))
	}

	sum := e.baseScore
	for _, tree := range e.trees {
		node := tree[0]
		for !node.leaf {
			x := features[node.feature]
			next := node.no
			switch {
			case math.IsNaN(x):
				next = node.missing
			case x < node.threshold:
				next = node.yes
			}
			node = tree[next]
		}
		sum += node.value
	}

	return sum, nil
}
