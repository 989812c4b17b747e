// Package api holds the shared types of the conftree engine: the positional
// addressing scheme used to refer to nodes across the parsed forest, and the
// error taxonomy surfaced to callers.
package api

import (
	"fmt"
	"strconv"
	"strings"
)

// Last is the occurrence index meaning "last sibling with this label".
const Last = 0

// CommentLabel is the address label shared by all comment nodes.
const CommentLabel = "#comment"

// Step is one component of an Address: a label (directive or block name,
// CommentLabel for comments, the file path for the root step) and a 1-based
// occurrence index among siblings carrying the same label. Index Last selects
// the final occurrence.
type Step struct {
	Label string
	Index int
}

// Address is a positional path from a file root down to a node. The first
// step's label is the physical file path. Addresses are recomputed against the
// current tree shape on every resolution and are invalidated by structural
// mutation of earlier siblings; callers must re-resolve after mutating, never
// cache.
type Address []Step

// Child returns a new Address extended by one step. The receiver is not
// modified.
func (a Address) Child(label string, index int) Address {
	out := make(Address, len(a), len(a)+1)
	copy(out, a)
	return append(out, Step{Label: label, Index: index})
}

// File returns the physical file path of the root step, or "" for an empty
// address.
func (a Address) File() string {
	if len(a) == 0 {
		return ""
	}
	return a[0].Label
}

// String renders the address in the Augeas-flavored form used by logs and the
// CLI, e.g. "/etc/nginx/nginx.conf[1]/IfModule[2]/Listen[last()]".
func (a Address) String() string {
	var b strings.Builder
	for i, s := range a {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(s.Label)
		if s.Index == Last {
			b.WriteString("[last()]")
		} else {
			fmt.Fprintf(&b, "[%d]", s.Index)
		}
	}
	return b.String()
}

// ParseAddress parses the String form back into an Address. Labels may not
// contain '[' or ']'. A step without an explicit index defaults to 1.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return nil, fmt.Errorf("parse address: empty string")
	}
	var out Address
	for _, part := range splitSteps(s) {
		label := part
		index := 1
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("parse address: malformed step %q", part)
			}
			label = part[:i]
			idx := part[i+1 : len(part)-1]
			if idx == "last()" {
				index = Last
			} else {
				n, err := strconv.Atoi(idx)
				if err != nil || n < 1 {
					return nil, fmt.Errorf("parse address: bad index in step %q", part)
				}
				index = n
			}
		}
		if label == "" {
			return nil, fmt.Errorf("parse address: empty label in step %q", part)
		}
		out = append(out, Step{Label: label, Index: index})
	}
	return out, nil
}

// splitSteps splits on '/' but keeps the root step intact: the file path in
// the first step contains slashes, so everything up to the first "]" belongs
// to it.
func splitSteps(s string) []string {
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return strings.Split(s, "/")
	}
	first := s[:end+1]
	rest := s[end+1:]
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return []string{first}
	}
	return append([]string{first}, strings.Split(rest, "/")...)
}
