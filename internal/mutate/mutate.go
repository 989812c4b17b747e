// Package mutate implements the structural edit operations: appending
// directives, find-or-create of module-conditional guard blocks, and child
// deletion. Every successful mutation marks the touched parent dirty so the
// save step knows which files to rewrite.
package mutate

import (
	"fmt"
	"strings"

	"github.com/agentic-research/conftree/api"
	"github.com/agentic-research/conftree/internal/conftree"
)

// guardName is the module-conditional block recognized by the find-or-create
// operations.
const guardName = "IfModule"

// AppendDirective creates a new directive and appends it as the last child of
// block. The block must be a currently attached block node; anything else is
// an invalid target.
func AppendDirective(block *conftree.Node, name string, args ...string) (*conftree.Node, error) {
	if err := checkBlock(block); err != nil {
		return nil, err
	}
	d := conftree.NewDirective(name, args...)
	d.SetStyle(block.Style())
	block.AppendChild(d)
	d.MarkDirty()
	block.MarkDirty()
	return d, nil
}

// EnsureConditionalBlock returns the guard block <IfModule module> directly
// under scope, creating it as scope's last child when absent. The module
// token is compared case-sensitively and exactly, e.g. "mod_ssl.c". Calling
// twice with the same module never creates a duplicate; created reports
// whether this call added the block.
func EnsureConditionalBlock(scope *conftree.Node, module string) (blk *conftree.Node, created bool, err error) {
	if err := checkBlock(scope); err != nil {
		return nil, false, err
	}
	for _, c := range scope.Children() {
		if c.Kind() != conftree.KindBlock || !strings.EqualFold(c.Name(), guardName) {
			continue
		}
		params := c.Params()
		if len(params) == 1 && params[0] == module {
			return c, false, nil
		}
	}
	blk = conftree.NewBlock(guardName, module)
	blk.SetStyle(conftree.StyleApache)
	scope.AppendChild(blk)
	blk.MarkDirty()
	scope.MarkDirty()
	return blk, true, nil
}

// AddDirectiveInConditional appends a directive guarded by a module-presence
// check: EnsureConditionalBlock followed by AppendDirective inside the guard.
// This is the primary entry point for edits like "Listen 443, only when
// mod_ssl is loaded".
func AddDirectiveInConditional(scope *conftree.Node, module, name string, args ...string) (*conftree.Node, error) {
	guard, _, err := EnsureConditionalBlock(scope, module)
	if err != nil {
		return nil, err
	}
	return AppendDirective(guard, name, args...)
}

// DeleteChild detaches child from its parent and marks the parent dirty. The
// detached subtree is no longer addressable; no further invariant applies to
// it.
func DeleteChild(child *conftree.Node) error {
	if child == nil || child.IsFileRoot() {
		return fmt.Errorf("%w: cannot delete a file root", api.ErrInvalidTarget)
	}
	parent := child.Parent()
	if parent == nil || !parent.Attached() {
		return fmt.Errorf("%w: node is already detached", api.ErrInvalidTarget)
	}
	if !parent.RemoveChild(child) {
		return fmt.Errorf("%w: node not among parent's children", api.ErrInvalidTarget)
	}
	parent.MarkDirty()
	return nil
}

func checkBlock(block *conftree.Node) error {
	if block == nil {
		return fmt.Errorf("%w: nil block", api.ErrInvalidTarget)
	}
	if block.Kind() != conftree.KindBlock {
		return fmt.Errorf("%w: %q is not a block", api.ErrInvalidTarget, block.Name())
	}
	if !block.Attached() {
		return fmt.Errorf("%w: block %q is detached", api.ErrInvalidTarget, block.Name())
	}
	return nil
}
