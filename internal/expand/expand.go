// Package expand discovers Include/IncludeOptional directives in the
// registered forest, resolves their arguments to concrete files, and feeds the
// node store until no new files turn up.
package expand

import (
	"path"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/conftree/internal/conftree"
	"github.com/agentic-research/conftree/internal/query"
	"github.com/agentic-research/conftree/internal/store"
)

// Expander walks the registered trees and lazily parses every file reachable
// through include directives.
type Expander struct {
	store *store.Store
}

func New(s *store.Store) *Expander {
	return &Expander{store: s}
}

// Expand runs discovery passes until a pass registers no new file. Newly
// included files may themselves contain includes, hence the loop. Already
// registered paths are left alone, which both preserves in-memory mutations
// and guarantees termination on cyclic or repeated includes.
func (e *Expander) Expand() error {
	for {
		before := e.store.Count()
		for _, p := range e.store.Paths() {
			frag, ok := e.store.Fragment(p)
			if !ok {
				continue
			}
			for _, inc := range query.Includes(frag) {
				e.register(inc)
			}
		}
		if e.store.Count() == before {
			return nil
		}
	}
}

// register resolves one include directive and parses whatever concrete files
// it names that are not yet registered.
func (e *Expander) register(inc *conftree.Node) {
	resolved := e.resolve(inc)
	matches, err := util.Glob(e.store.FS(), resolved)
	if err != nil {
		// malformed pattern; nothing to register
		return
	}
	for _, m := range matches {
		if !e.store.IsRegistered(m) && !e.store.HasFailed(m) {
			e.store.RegisterFile(m, inc.SourceFile())
		}
	}
}

// Targets maps an include directive onto the registered-path address space:
// the concrete, already-parsed files the directive pulls in, in registration
// order. Glob arguments match per translated path segment rather than by
// re-globbing the filesystem, so queries see exactly the parsed forest.
func (e *Expander) Targets(inc *conftree.Node) []string {
	resolved := e.resolve(inc)
	if query.HasGlobMeta(resolved) {
		return e.store.MatchRegistered(query.PathPattern(resolved))
	}
	if e.store.IsRegistered(resolved) {
		return []string{resolved}
	}
	return nil
}

// resolve turns an include argument into an absolute path or glob: absolute
// arguments pass through, the "conf/" marker is rewritten against the server
// root, anything else is relative to the including file's directory. A
// trailing slash means every file in that directory.
func (e *Expander) resolve(inc *conftree.Node) string {
	arg := inc.Params()[0]
	isDir := strings.HasSuffix(arg, "/")

	var resolved string
	switch {
	case path.IsAbs(arg):
		resolved = path.Clean(arg)
	case strings.HasPrefix(arg, "conf/"):
		resolved = path.Join(e.store.ServerRoot(), strings.TrimPrefix(arg, "conf/"))
	default:
		resolved = path.Join(path.Dir(inc.SourceFile()), arg)
	}
	if isDir {
		resolved = path.Join(resolved, "*")
	}
	return resolved
}
