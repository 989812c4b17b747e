package query

import (
	"regexp"
	"strings"

	"github.com/agentic-research/conftree/internal/conftree"
)

// includeRE matches the file-inclusion directive names of both syntax
// families; the case classes already cover nginx's lowercase "include".
var includeRE = compileExact(
	CaseInsensitive("Include") + "|" + CaseInsensitive("IncludeOptional"))

// findInTree returns every directive or block under scope (excluding scope
// itself) whose name matches nameRE, depth-first in encounter order. When
// valueRE is non-nil, at least one parameter must match it.
func findInTree(scope *conftree.Node, nameRE, valueRE *regexp.Regexp) []*conftree.Node {
	var out []*conftree.Node
	walkChildren(scope, func(n *conftree.Node) {
		if n.Kind() == conftree.KindComment {
			return
		}
		if !nameRE.MatchString(n.Name()) {
			return
		}
		if valueRE != nil && !hasParam(n, valueRE) {
			return
		}
		out = append(out, n)
	})
	return out
}

// blocksInTree is findInTree restricted to block nodes.
func blocksInTree(scope *conftree.Node, nameRE *regexp.Regexp) []*conftree.Node {
	var out []*conftree.Node
	walkChildren(scope, func(n *conftree.Node) {
		if n.Kind() == conftree.KindBlock && nameRE.MatchString(n.Name()) {
			out = append(out, n)
		}
	})
	return out
}

// commentsInTree returns comments under scope containing text as a substring.
func commentsInTree(scope *conftree.Node, text string) []*conftree.Node {
	var out []*conftree.Node
	walkChildren(scope, func(n *conftree.Node) {
		if n.Kind() == conftree.KindComment && strings.Contains(n.Text(), text) {
			out = append(out, n)
		}
	})
	return out
}

// includesInTree returns the Include/IncludeOptional directives under scope,
// in encounter order.
func includesInTree(scope *conftree.Node) []*conftree.Node {
	var out []*conftree.Node
	walkChildren(scope, func(n *conftree.Node) {
		if n.Kind() == conftree.KindDirective && includeRE.MatchString(n.Name()) && len(n.Params()) > 0 {
			out = append(out, n)
		}
	})
	return out
}

// walkChildren visits every node strictly below scope, depth-first, parents
// before their children, in child order.
func walkChildren(scope *conftree.Node, visit func(*conftree.Node)) {
	for _, c := range scope.Children() {
		visit(c)
		if c.Kind() == conftree.KindBlock {
			walkChildren(c, visit)
		}
	}
}

func hasParam(n *conftree.Node, valueRE *regexp.Regexp) bool {
	for _, p := range n.Params() {
		if valueRE.MatchString(p) {
			return true
		}
	}
	return false
}
