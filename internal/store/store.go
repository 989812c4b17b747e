// Package store owns the parsed configuration forest: a registry from
// physical file path to that file's tree fragment, fed lazily as include
// expansion discovers new files.
package store

import (
	"io"
	"log"
	"path"
	"regexp"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/conftree/api"
	"github.com/agentic-research/conftree/internal/conftree"
)

// Store maps file paths to parsed fragments. It is process-local, single-owner
// mutable state with no internal locking; callers serialize access.
type Store struct {
	fs         billy.Filesystem
	serverRoot string

	frags map[string]*conftree.Node
	order []string

	failed   map[string]bool
	failures []*api.ParseFailure
}

func New(fs billy.Filesystem, serverRoot string) *Store {
	return &Store{
		fs:         fs,
		serverRoot: path.Clean(serverRoot),
		frags:      make(map[string]*conftree.Node),
		failed:     make(map[string]bool),
	}
}

func (s *Store) FS() billy.Filesystem { return s.fs }

func (s *Store) ServerRoot() string { return s.serverRoot }

// ParseAndRegister expands pattern as a filesystem glob and parses every
// match, registering each fragment under its concrete path. A failure on one
// matched file is contained: it is recorded, logged, and the rest of the
// matches are still processed. Re-registering a path re-parses it but keeps
// its original position in registration order.
//
// includedFrom, when non-empty, records which file's Include directive led
// here; it is stamped on the fragment for provenance reporting.
func (s *Store) ParseAndRegister(pattern, includedFrom string) error {
	matches, err := util.Glob(s.fs, pattern)
	if err != nil {
		// only malformed patterns error here
		return err
	}
	for _, m := range matches {
		s.parseOne(path.Clean(m), includedFrom)
	}
	return nil
}

func (s *Store) parseOne(filePath, includedFrom string) {
	data, err := s.readFile(filePath)
	if err != nil {
		s.recordFailure(&api.ParseFailure{Path: filePath, Kind: api.FailureIo, Err: err})
		return
	}
	frag, err := conftree.Parse(data, filePath)
	if err != nil {
		s.recordFailure(&api.ParseFailure{Path: filePath, Kind: api.FailureSyntax, Err: err})
		return
	}
	if includedFrom != "" {
		frag.SetIncludedFrom(includedFrom)
	}
	if _, seen := s.frags[filePath]; !seen {
		s.order = append(s.order, filePath)
	}
	s.frags[filePath] = frag
	delete(s.failed, filePath)
}

// recordFailure keeps one entry per path. Include expansion revisits the same
// directives every pass; a file that failed once must not pile up duplicate
// failure records or log spam.
func (s *Store) recordFailure(f *api.ParseFailure) {
	if s.failed[f.Path] {
		return
	}
	s.failed[f.Path] = true
	log.Printf("conftree: skipping %s: %v", f.Path, f.Err)
	s.failures = append(s.failures, f)
}

func (s *Store) readFile(filePath string) ([]byte, error) {
	f, err := s.fs.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// RegisterFile parses a single concrete path, no glob expansion, replacing
// any prior fragment for it. Failures are contained the same way
// ParseAndRegister contains them.
func (s *Store) RegisterFile(filePath, includedFrom string) {
	s.parseOne(path.Clean(filePath), includedFrom)
}

// IsRegistered reports whether path holds a parsed fragment. O(1).
func (s *Store) IsRegistered(filePath string) bool {
	_, ok := s.frags[path.Clean(filePath)]
	return ok
}

// HasFailed reports whether path was already tried and recorded as a failure.
// The expander consults it so a broken file is skipped, not retried, on every
// subsequent pass.
func (s *Store) HasFailed(filePath string) bool {
	return s.failed[path.Clean(filePath)]
}

// Fragment returns the parsed tree for a registered path.
func (s *Store) Fragment(filePath string) (*conftree.Node, bool) {
	frag, ok := s.frags[path.Clean(filePath)]
	return frag, ok
}

// Paths returns every registered path in registration order: root file(s)
// first, then included files in discovery order.
func (s *Store) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Count is the number of registered files. The include expander compares it
// across passes to detect its fixpoint.
func (s *Store) Count() int { return len(s.frags) }

// MatchRegistered returns the registered paths whose full path matches re, in
// registration order. Glob-expanded includes resolve against this address
// space rather than re-touching the filesystem.
func (s *Store) MatchRegistered(re *regexp.Regexp) []string {
	var out []string
	for _, p := range s.order {
		if re.MatchString(p) {
			out = append(out, p)
		}
	}
	return out
}

// UnsavedFiles returns the paths of files containing dirty nodes, in
// registration order.
func (s *Store) UnsavedFiles() []string {
	var out []string
	for _, p := range s.order {
		if s.frags[p].SubtreeDirty() {
			out = append(out, p)
		}
	}
	return out
}

// Failures lists the files skipped so far, in encounter order.
func (s *Store) Failures() []*api.ParseFailure {
	out := make([]*api.ParseFailure, len(s.failures))
	copy(out, s.failures)
	return out
}
