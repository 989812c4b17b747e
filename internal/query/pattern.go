// Package query implements directive search over the configuration forest:
// the glob-to-pattern translator, case-insensitive name matching, positional
// addressing, and the include-transparent query engine.
package query

import (
	"regexp"
	"strings"
)

// CaseInsensitive returns a regular expression source matching s literally
// but ignoring letter case. Case folding is structural: every alphabetic
// character expands into a two-member character class, so the pattern behaves
// identically on engines without a reliable case-insensitive mode.
func CaseInsensitive(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlpha(r) {
			b.WriteByte('[')
			b.WriteRune(upper(r))
			b.WriteRune(lower(r))
			b.WriteByte(']')
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

// GlobToPattern converts a shell-style fnmatch pattern into a regular
// expression source: '.' is escaped, '*' becomes any run of characters within
// one path segment, '?' exactly one such character. Wildcards never match '/',
// matching fnmatch applied segment by segment. Alphabetic literals expand into
// case classes the same way CaseInsensitive does. Every input is valid; there
// is no error case.
func GlobToPattern(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch {
		case r == '.':
			b.WriteString(`\.`)
		case r == '*':
			b.WriteString(`[^/]*`)
		case r == '?':
			b.WriteString(`[^/]`)
		case isAlpha(r):
			b.WriteByte('[')
			b.WriteRune(upper(r))
			b.WriteRune(lower(r))
			b.WriteByte(']')
		default:
			// literal, escaped so any input stays a valid pattern
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// PathPattern compiles a slash-separated path into an anchored regular
// expression over the registered-path address space. Segments containing glob
// metacharacters are translated with GlobToPattern; literal segments stay
// exact (paths are case-sensitive, only the glob segments case-fold).
func PathPattern(p string) *regexp.Regexp {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		if HasGlobMeta(seg) {
			segs[i] = GlobToPattern(seg)
		} else {
			segs[i] = regexp.QuoteMeta(seg)
		}
	}
	return regexp.MustCompile("^" + strings.Join(segs, "/") + "$")
}

// HasGlobMeta reports whether s contains fnmatch metacharacters.
func HasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// compileExact anchors a pattern source to the whole string. The sources
// produced by CaseInsensitive and GlobToPattern are always valid, so a compile
// failure here is a programming error.
func compileExact(pattern string) *regexp.Regexp {
	return regexp.MustCompile("^(?:" + pattern + ")$")
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func upper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

func lower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}
