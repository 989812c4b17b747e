package query

import (
	"regexp"

	"github.com/agentic-research/conftree/api"
	"github.com/agentic-research/conftree/internal/conftree"
)

// FragmentSource supplies registered file fragments. Implemented by the node
// store.
type FragmentSource interface {
	Fragment(path string) (*conftree.Node, bool)
}

// IncludeResolver maps an Include/IncludeOptional directive to the concrete,
// already-registered file paths it pulls in, in match order. Implemented by
// the include expander.
type IncludeResolver interface {
	Targets(inc *conftree.Node) []string
}

// Match pairs a found node with its current address. The address is only
// valid until the next structural mutation.
type Match struct {
	Node *conftree.Node
	Addr api.Address
}

// Engine performs recursive, case-insensitive, include-transparent search.
// Callers are expected to run include expansion to fixpoint before querying;
// the engine itself never touches the filesystem.
type Engine struct {
	frags    FragmentSource
	includes IncludeResolver
}

func NewEngine(frags FragmentSource, includes IncludeResolver) *Engine {
	return &Engine{frags: frags, includes: includes}
}

// FindDirectives returns every directive or block under scope named name
// (case-insensitive), folding in matches from every included file reachable
// from scope. Matches found directly in scope come first, then per include
// directive in encounter order. When value is non-empty at least one
// parameter must match it, same case folding as the name. An empty result is
// a valid no-matches outcome.
func (e *Engine) FindDirectives(scope *conftree.Node, name, value string) []Match {
	nameRE := compileExact(CaseInsensitive(name))
	var valueRE *regexp.Regexp
	if value != "" {
		valueRE = compileExact(CaseInsensitive(value))
	}
	return e.fold(scope, func(s *conftree.Node) []*conftree.Node {
		return findInTree(s, nameRE, valueRE)
	})
}

// FindBlocks is FindDirectives restricted to block nodes, without value
// filtering.
func (e *Engine) FindBlocks(scope *conftree.Node, name string) []Match {
	nameRE := compileExact(CaseInsensitive(name))
	return e.fold(scope, func(s *conftree.Node) []*conftree.Node {
		return blocksInTree(s, nameRE)
	})
}

// FindComments returns comments under scope containing text, folding included
// files the same way directive search does.
func (e *Engine) FindComments(scope *conftree.Node, text string) []Match {
	return e.fold(scope, func(s *conftree.Node) []*conftree.Node {
		return commentsInTree(s, text)
	})
}

// FindAncestors walks the parent chain of n collecting blocks named name,
// nearest first. The chain never crosses file boundaries.
func (e *Engine) FindAncestors(n *conftree.Node, name string) []Match {
	nameRE := compileExact(CaseInsensitive(name))
	var out []Match
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if cur.Kind() == conftree.KindBlock && !cur.IsFileRoot() && nameRE.MatchString(cur.Name()) {
			out = append(out, Match{Node: cur, Addr: NodeAddress(cur)})
		}
	}
	return out
}

// Includes exposes the include directives under scope, for the expander and
// the CLI.
func Includes(scope *conftree.Node) []*conftree.Node {
	return includesInTree(scope)
}

// fold runs search over scope, then recurses into every included fragment
// reachable from it. A visited set keeps cyclic includes from recursing
// forever; re-entering a fragment contributes nothing new.
func (e *Engine) fold(scope *conftree.Node, search func(*conftree.Node) []*conftree.Node) []Match {
	visited := make(map[*conftree.Node]bool)
	var collect func(s *conftree.Node) []Match
	collect = func(s *conftree.Node) []Match {
		if visited[s] {
			return nil
		}
		visited[s] = true

		var out []Match
		for _, n := range search(s) {
			out = append(out, Match{Node: n, Addr: NodeAddress(n)})
		}
		for _, inc := range includesInTree(s) {
			for _, path := range e.includes.Targets(inc) {
				if frag, ok := e.frags.Fragment(path); ok {
					out = append(out, collect(frag)...)
				}
			}
		}
		return out
	}
	return collect(scope)
}
