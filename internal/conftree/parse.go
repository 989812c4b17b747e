package conftree

import (
	"fmt"
	"strings"
)

// ParseError reports a syntax problem with its location in the source file.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// Parse turns raw configuration bytes into a file-root block whose children
// are the file's top-level entries in source order. Both syntax families are
// accepted, mixed freely:
//
//	<IfModule mod_ssl.c>          server {
//	    Listen 443                    listen 443 ssl;
//	</IfModule>                   }
//
// Comments ('#' to end of line) are preserved as nodes. Directives end at a
// newline or ';'; a trailing backslash continues the line. Every parsed node
// carries the byte span of its source text.
func Parse(src []byte, path string) (*Node, error) {
	p := &parser{src: src, path: path, line: 1}
	root := NewFileRoot(path)
	if err := p.parseBody(root, true, termEOF, ""); err != nil {
		return nil, err
	}
	return root, nil
}

type terminator int

const (
	termEOF    terminator = iota // file root: body ends at end of input
	termApache                   // body ends at </Name>
	termNginx                    // body ends at '}'
)

type parser struct {
	src  []byte
	path string
	pos  int
	line int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Path: p.path, Line: p.line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) peekAt(off int) byte {
	if p.pos+off >= len(p.src) {
		return 0
	}
	return p.src[p.pos+off]
}

// advance consumes one byte, tracking line numbers.
func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
	}
	return c
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.advance()
		default:
			return
		}
	}
}

// parseBody consumes entries until the given terminator. closeName is the
// block name expected in the closing tag for termApache bodies; matched
// case-insensitively, the way the servers themselves do.
func (p *parser) parseBody(parent *Node, enabled bool, term terminator, closeName string) error {
	for {
		p.skipSpace()
		if p.eof() {
			if term != termEOF {
				return p.errorf("unexpected end of file inside block %q", closeName)
			}
			return nil
		}

		start := uint32(p.pos)
		switch c := p.peek(); {
		case c == ';':
			// empty statement
			p.advance()

		case c == '#':
			n := NewComment(p.readComment())
			n.origin = &Span{StartByte: start, EndByte: uint32(p.pos)}
			p.attach(parent, n, enabled)

		case c == '}':
			if term != termNginx {
				return p.errorf("unexpected '}'")
			}
			p.advance()
			return nil

		case c == '<' && p.peekAt(1) == '/':
			if term != termApache {
				return p.errorf("unexpected closing tag")
			}
			name, err := p.readCloseTag()
			if err != nil {
				return err
			}
			if !strings.EqualFold(name, closeName) {
				return p.errorf("mismatched closing tag </%s>, open block is <%s>", name, closeName)
			}
			return nil

		case c == '<':
			p.advance()
			name, params, err := p.readTagHeader()
			if err != nil {
				return err
			}
			blk := NewBlock(name, params...)
			blk.style = StyleApache
			p.attach(parent, blk, enabled)
			if err := p.parseBody(blk, enabled && !negatedGuard(name, params), termApache, name); err != nil {
				return err
			}
			blk.origin = &Span{StartByte: start, EndByte: uint32(p.pos)}

		default:
			words, opensBlock, err := p.readStatement()
			if err != nil {
				return err
			}
			if len(words) == 0 {
				continue
			}
			if opensBlock {
				blk := NewBlock(words[0], words[1:]...)
				blk.style = StyleNginx
				p.attach(parent, blk, enabled)
				if err := p.parseBody(blk, enabled && !negatedGuard(words[0], words[1:]), termNginx, words[0]); err != nil {
					return err
				}
				blk.origin = &Span{StartByte: start, EndByte: uint32(p.pos)}
				continue
			}
			d := NewDirective(words[0], words[1:]...)
			d.style = p.styleFor()
			d.origin = &Span{StartByte: start, EndByte: uint32(p.pos)}
			p.attach(parent, d, enabled)
		}
	}
}

// styleFor picks the render style for a just-read directive: nginx when the
// statement ended with ';', apache otherwise. readStatement leaves pos right
// after the terminator, so look one byte back.
func (p *parser) styleFor() Style {
	if p.pos > 0 && p.src[p.pos-1] == ';' {
		return StyleNginx
	}
	return StyleApache
}

func (p *parser) attach(parent, n *Node, enabled bool) {
	parent.AppendChild(n)
	if !enabled {
		n.setDisabled()
	}
}

// negatedGuard reports whether a block header of the form <IfModule !mod>
// disables its body.
func negatedGuard(name string, params []string) bool {
	return strings.EqualFold(name, "IfModule") &&
		len(params) > 0 && strings.HasPrefix(params[0], "!")
}

// readComment consumes '#' up to (not including) the newline and returns the
// text with a single leading space stripped.
func (p *parser) readComment() string {
	p.advance() // '#'
	start := p.pos
	for !p.eof() && p.peek() != '\n' {
		p.advance()
	}
	return strings.TrimPrefix(string(p.src[start:p.pos]), " ")
}

// readCloseTag consumes "</Name>" and returns Name.
func (p *parser) readCloseTag() (string, error) {
	p.advance() // '<'
	p.advance() // '/'
	start := p.pos
	for {
		if p.eof() || p.peek() == '\n' {
			return "", p.errorf("unterminated closing tag")
		}
		if p.peek() == '>' {
			name := strings.TrimSpace(string(p.src[start:p.pos]))
			p.advance()
			if name == "" {
				return "", p.errorf("empty closing tag")
			}
			return name, nil
		}
		p.advance()
	}
}

// readTagHeader consumes the remainder of "<Name arg arg>" after '<' and
// returns the name and arguments. Apache tags are single-line.
func (p *parser) readTagHeader() (string, []string, error) {
	var words []string
	for {
		p.skipInlineSpace()
		if p.eof() || p.peek() == '\n' {
			return "", nil, p.errorf("unterminated block tag")
		}
		if p.peek() == '>' {
			p.advance()
			if len(words) == 0 {
				return "", nil, p.errorf("empty block tag")
			}
			return words[0], words[1:], nil
		}
		w, err := p.readWord(">")
		if err != nil {
			return "", nil, err
		}
		words = append(words, w)
	}
}

// readStatement consumes one directive line. It returns the words and whether
// the statement opened an nginx-style block ('{' terminator).
func (p *parser) readStatement() ([]string, bool, error) {
	var words []string
	for {
		p.skipInlineSpace()
		if p.eof() {
			return words, false, nil
		}
		switch p.peek() {
		case '\n':
			p.advance()
			return words, false, nil
		case ';':
			p.advance()
			return words, false, nil
		case '{':
			p.advance()
			return words, true, nil
		case '#':
			// trailing comment ends the directive; left for the caller
			return words, false, nil
		case '\\':
			if p.peekAt(1) == '\n' || (p.peekAt(1) == '\r' && p.peekAt(2) == '\n') {
				// line continuation
				p.advance()
				for !p.eof() && p.peek() != '\n' {
					p.advance()
				}
				if !p.eof() {
					p.advance()
				}
				continue
			}
			w, err := p.readWord("")
			if err != nil {
				return nil, false, err
			}
			words = append(words, w)
		default:
			w, err := p.readWord("")
			if err != nil {
				return nil, false, err
			}
			words = append(words, w)
		}
	}
}

// skipInlineSpace skips spaces and tabs but not newlines.
func (p *parser) skipInlineSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == '\r') {
		p.advance()
	}
}

// readWord reads a single argument: a quoted string (quotes stripped, spaces
// kept) or a bare word ending at whitespace, a statement terminator, or any
// byte in extraStops.
func (p *parser) readWord(extraStops string) (string, error) {
	if q := p.peek(); q == '"' || q == '\'' {
		p.advance()
		var b strings.Builder
		for {
			if p.eof() || p.peek() == '\n' {
				return "", p.errorf("unterminated quoted argument")
			}
			c := p.advance()
			if c == q {
				return b.String(), nil
			}
			if c == '\\' && !p.eof() && p.peek() == q {
				c = p.advance()
			}
			b.WriteByte(c)
		}
	}
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' ||
			c == ';' || c == '{' || c == '#' ||
			strings.IndexByte(extraStops, c) >= 0 {
			break
		}
		p.advance()
	}
	return string(p.src[start:p.pos]), nil
}
