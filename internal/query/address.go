package query

import (
	"fmt"
	"strings"

	"github.com/agentic-research/conftree/api"
	"github.com/agentic-research/conftree/internal/conftree"
)

// NodeAddress computes the positional address of n relative to its file root.
// The result reflects the tree's current shape only: it is invalidated by any
// structural mutation of earlier siblings. Returns nil for detached nodes.
func NodeAddress(n *conftree.Node) api.Address {
	if n == nil {
		return nil
	}
	var steps []api.Step
	cur := n
	for !cur.IsFileRoot() {
		parent := cur.Parent()
		if parent == nil {
			return nil
		}
		steps = append(steps, api.Step{Label: stepLabel(cur), Index: occurrence(parent, cur)})
		cur = parent
	}
	addr := api.Address{{Label: cur.SourceFile(), Index: 1}}
	for i := len(steps) - 1; i >= 0; i-- {
		addr = append(addr, steps[i])
	}
	return addr
}

// ResolveIn walks the relative steps of an address down from a file root.
// A step that no longer matches the tree shape yields api.ErrInvalidTarget.
func ResolveIn(root *conftree.Node, rel []api.Step) (*conftree.Node, error) {
	cur := root
	for _, st := range rel {
		if cur.Kind() != conftree.KindBlock {
			return nil, fmt.Errorf("%w: %q is not a block", api.ErrInvalidTarget, cur.Name())
		}
		var matches []*conftree.Node
		for _, c := range cur.Children() {
			if strings.EqualFold(stepLabel(c), st.Label) {
				matches = append(matches, c)
			}
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no %q under %q", api.ErrInvalidTarget, st.Label, stepLabel(cur))
		}
		if st.Index == api.Last {
			cur = matches[len(matches)-1]
			continue
		}
		if st.Index < 1 || st.Index > len(matches) {
			return nil, fmt.Errorf("%w: %q occurrence %d of %d", api.ErrInvalidTarget, st.Label, st.Index, len(matches))
		}
		cur = matches[st.Index-1]
	}
	return cur, nil
}

// stepLabel is the address label of a node: its name for directives and
// blocks, api.CommentLabel for comments, the file path for file roots.
func stepLabel(n *conftree.Node) string {
	switch {
	case n.Kind() == conftree.KindComment:
		return api.CommentLabel
	case n.IsFileRoot():
		return n.SourceFile()
	default:
		return n.Name()
	}
}

// occurrence is the 1-based position of child among parent's children whose
// label matches child's, case-insensitively.
func occurrence(parent, child *conftree.Node) int {
	label := stepLabel(child)
	idx := 0
	for _, c := range parent.Children() {
		if strings.EqualFold(stepLabel(c), label) {
			idx++
		}
		if c == child {
			return idx
		}
	}
	return idx
}
