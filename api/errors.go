package api

import (
	"errors"
	"fmt"
)

// ErrRootNotFound reports that no root configuration file could be located
// under the server root. This is fatal: without a root there is no search
// scope.
var ErrRootNotFound = errors.New("configuration root not found")

// ErrInvalidTarget reports a mutation or resolution against an address that no
// longer resolves, typically because an earlier structural edit shifted
// sibling indices. Surfaced to the caller rather than silently retargeted.
var ErrInvalidTarget = errors.New("target no longer resolves")

// FailureKind classifies a per-file parse failure.
type FailureKind int

const (
	// FailureIo means the file could not be read.
	FailureIo FailureKind = iota
	// FailureSyntax means the file content was not parseable.
	FailureSyntax
)

func (k FailureKind) String() string {
	switch k {
	case FailureIo:
		return "io"
	case FailureSyntax:
		return "syntax"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// ParseFailure records a single file that could not be brought into the
// searchable space. These are contained: the file is skipped and the rest of
// the pass continues.
type ParseFailure struct {
	Path string
	Kind FailureKind
	Err  error
}

func (f *ParseFailure) Error() string {
	return fmt.Sprintf("parse %s: %s failure: %v", f.Path, f.Kind, f.Err)
}

func (f *ParseFailure) Unwrap() error { return f.Err }
