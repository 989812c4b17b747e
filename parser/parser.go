// Package parser is the caller-facing surface of conftree: it owns the parsed
// forest for one server configuration, answers include-transparent queries,
// and applies minimally invasive mutations that certificate tooling needs.
package parser

import (
	"fmt"
	"path"

	billy "github.com/go-git/go-billy/v5"

	"github.com/agentic-research/conftree/api"
	"github.com/agentic-research/conftree/internal/conftree"
	"github.com/agentic-research/conftree/internal/expand"
	"github.com/agentic-research/conftree/internal/mutate"
	"github.com/agentic-research/conftree/internal/query"
	"github.com/agentic-research/conftree/internal/store"
	"github.com/agentic-research/conftree/internal/writeback"
)

// Parser maintains the editable configuration AST for a single server root.
// It is single-threaded, single-owner state: callers using it from multiple
// goroutines must serialize access themselves.
type Parser struct {
	store    *store.Store
	expander *expand.Expander
	engine   *query.Engine
	rootFile string
}

type options struct {
	rootCandidates []string
	vhostGlob      string
}

// Option customizes Open.
type Option func(*options)

// WithRootCandidates replaces the file names tried when locating the
// configuration root.
func WithRootCandidates(names ...string) Option {
	return func(o *options) { o.rootCandidates = names }
}

// WithVhostGlob replaces the glob, relative to the server root, that Open
// parses eagerly. Debian-style layouts keep available-but-unlinked vhosts
// there, unreachable through includes. Empty disables the eager parse.
func WithVhostGlob(glob string) Option {
	return func(o *options) { o.vhostGlob = glob }
}

// Open locates the root configuration file under serverRoot, parses it,
// eagerly parses the vhost glob, and expands includes to fixpoint. A missing
// root is fatal (api.ErrRootNotFound): without it there is no search scope.
// Individual broken included files are skipped and reported via Failures.
func Open(fs billy.Filesystem, serverRoot string, opts ...Option) (*Parser, error) {
	o := options{
		rootCandidates: []string{"nginx.conf", "httpd.conf", "apache2.conf"},
		vhostGlob:      "sites-available/*.conf",
	}
	for _, opt := range opts {
		opt(&o)
	}

	st := store.New(fs, serverRoot)
	ex := expand.New(st)
	p := &Parser{
		store:    st,
		expander: ex,
		engine:   query.NewEngine(st, ex),
	}

	for _, cand := range o.rootCandidates {
		full := path.Join(serverRoot, cand)
		if _, err := fs.Stat(full); err == nil {
			p.rootFile = full
			break
		}
	}
	if p.rootFile == "" {
		return nil, fmt.Errorf("%w: tried %v under %s", api.ErrRootNotFound, o.rootCandidates, serverRoot)
	}

	st.RegisterFile(p.rootFile, "")
	if !st.IsRegistered(p.rootFile) {
		// The root is the one file whose parse failure cannot be contained.
		for _, f := range st.Failures() {
			if f.Path == p.rootFile {
				return nil, f
			}
		}
		return nil, fmt.Errorf("root %s did not register", p.rootFile)
	}

	if o.vhostGlob != "" {
		if err := st.ParseAndRegister(path.Join(serverRoot, o.vhostGlob), ""); err != nil {
			return nil, fmt.Errorf("vhost glob: %w", err)
		}
	}
	if err := ex.Expand(); err != nil {
		return nil, err
	}
	return p, nil
}

// RootFile is the resolved root configuration file path.
func (p *Parser) RootFile() string { return p.rootFile }

// Match describes one query result. Addr is positional and only valid until
// the next structural mutation.
type Match struct {
	Addr         api.Address
	Name         string
	Params       []string
	Text         string // comment matches only
	SourceFile   string
	IncludedFrom string
	Enabled      bool
	IsBlock      bool
}

type findOpts struct {
	value string
	scope api.Address
}

// FindOption narrows a query.
type FindOption func(*findOpts)

// WithValue requires at least one directive parameter to match v,
// case-insensitively.
func WithValue(v string) FindOption {
	return func(o *findOpts) { o.value = v }
}

// WithScope starts the search at the given address instead of the root tree.
func WithScope(addr api.Address) FindOption {
	return func(o *findOpts) { o.scope = addr }
}

// FindDirectives searches for directives or blocks named name, matching any
// case variant, following every reachable include. Results preserve encounter
// order: scope-local matches first, then included files in include-directive
// order. An empty result is not an error.
func (p *Parser) FindDirectives(name string, opts ...FindOption) ([]Match, error) {
	scope, fo, err := p.prepare(opts)
	if err != nil {
		return nil, err
	}
	return p.convert(p.engine.FindDirectives(scope, name, fo.value)), nil
}

// FindBlocks is FindDirectives restricted to blocks.
func (p *Parser) FindBlocks(name string, opts ...FindOption) ([]Match, error) {
	scope, _, err := p.prepare(opts)
	if err != nil {
		return nil, err
	}
	return p.convert(p.engine.FindBlocks(scope, name)), nil
}

// FindComments searches comments containing text as a substring.
func (p *Parser) FindComments(text string, opts ...FindOption) ([]Match, error) {
	scope, _, err := p.prepare(opts)
	if err != nil {
		return nil, err
	}
	return p.convert(p.engine.FindComments(scope, text)), nil
}

// FindAncestors collects the blocks named name on addr's parent chain,
// nearest first.
func (p *Parser) FindAncestors(addr api.Address, name string) ([]Match, error) {
	n, err := p.Resolve(addr)
	if err != nil {
		return nil, err
	}
	return p.convert(p.engine.FindAncestors(n, name)), nil
}

// AddDirective appends a new directive as the last child of the block at
// addr. The block is marked dirty for the save step.
func (p *Parser) AddDirective(addr api.Address, name string, args ...string) error {
	block, err := p.Resolve(addr)
	if err != nil {
		return err
	}
	_, err = mutate.AppendDirective(block, name, args...)
	return err
}

// EnsureConditionalBlock returns the address of the <IfModule module> guard
// directly under scope, creating it when absent. Idempotent: a second call
// with the same module returns the same address without adding a block.
func (p *Parser) EnsureConditionalBlock(scope api.Address, module string) (api.Address, error) {
	parent, err := p.Resolve(scope)
	if err != nil {
		return nil, err
	}
	guard, _, err := mutate.EnsureConditionalBlock(parent, module)
	if err != nil {
		return nil, err
	}
	return query.NodeAddress(guard), nil
}

// AddDirectiveInConditional appends a directive inside the module guard under
// scope, creating the guard if needed, and returns the new directive's
// address.
func (p *Parser) AddDirectiveInConditional(scope api.Address, module, name string, args ...string) (api.Address, error) {
	parent, err := p.Resolve(scope)
	if err != nil {
		return nil, err
	}
	d, err := mutate.AddDirectiveInConditional(parent, module, name, args...)
	if err != nil {
		return nil, err
	}
	return query.NodeAddress(d), nil
}

// DeleteChild detaches the node at addr from its parent and marks the parent
// dirty.
func (p *Parser) DeleteChild(addr api.Address) error {
	n, err := p.Resolve(addr)
	if err != nil {
		return err
	}
	return mutate.DeleteChild(n)
}

// UnsavedFiles lists files containing unsaved mutations, in parse order.
func (p *Parser) UnsavedFiles() []string { return p.store.UnsavedFiles() }

// ParsedPaths lists every parsed configuration file, in parse order: the root
// first, then files in discovery order.
func (p *Parser) ParsedPaths() []string { return p.store.Paths() }

// Failures lists the files that could not be parsed and were skipped.
func (p *Parser) Failures() []*api.ParseFailure { return p.store.Failures() }

// Save rewrites every dirty file and returns the rewritten paths.
func (p *Parser) Save() ([]string, error) { return writeback.Save(p.store) }

// Expand re-runs include expansion. Idempotent: immediately after a completed
// pass it registers nothing new.
func (p *Parser) Expand() error { return p.expander.Expand() }

// Resolve walks addr against the current tree shape. An empty address means
// the root file's tree. Addresses do not survive structural mutation of
// earlier siblings; re-resolve after mutating, the engine never heals stale
// addresses.
func (p *Parser) Resolve(addr api.Address) (*conftree.Node, error) {
	if len(addr) == 0 {
		frag, _ := p.store.Fragment(p.rootFile)
		return frag, nil
	}
	frag, ok := p.store.Fragment(addr.File())
	if !ok {
		return nil, fmt.Errorf("%w: file %s is not parsed", api.ErrInvalidTarget, addr.File())
	}
	return query.ResolveIn(frag, addr[1:])
}

// prepare expands includes under the scope before querying, then resolves the
// scope address.
func (p *Parser) prepare(opts []FindOption) (*conftree.Node, *findOpts, error) {
	var fo findOpts
	for _, opt := range opts {
		opt(&fo)
	}
	if err := p.expander.Expand(); err != nil {
		return nil, nil, err
	}
	scope, err := p.Resolve(fo.scope)
	if err != nil {
		return nil, nil, err
	}
	return scope, &fo, nil
}

func (p *Parser) convert(ms []query.Match) []Match {
	out := make([]Match, 0, len(ms))
	for _, m := range ms {
		includedFrom := ""
		if root := m.Node.Root(); root != nil {
			includedFrom = root.IncludedFrom()
		}
		out = append(out, Match{
			Addr:         m.Addr,
			Name:         m.Node.Name(),
			Params:       m.Node.Params(),
			Text:         m.Node.Text(),
			SourceFile:   m.Node.SourceFile(),
			IncludedFrom: includedFrom,
			Enabled:      m.Node.Enabled(),
			IsBlock:      m.Node.Kind() == conftree.KindBlock,
		})
	}
	return out
}
