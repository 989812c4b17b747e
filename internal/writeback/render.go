// Package writeback is the save collaborator: it renders dirty file trees
// back into directive text and rewrites the files atomically.
package writeback

import (
	"bytes"
	"strings"

	"github.com/agentic-research/conftree/internal/conftree"
)

const indentUnit = "    "

// Render serializes a file root back to configuration text. Each node is
// emitted in the syntax family it was parsed in (or assigned at creation), so
// an Apache file stays Apache and an nginx file stays nginx.
func Render(root *conftree.Node) []byte {
	var b bytes.Buffer
	renderChildren(&b, root, 0)
	return b.Bytes()
}

func renderChildren(b *bytes.Buffer, parent *conftree.Node, depth int) {
	for _, n := range parent.Children() {
		renderNode(b, n, depth)
	}
}

func renderNode(b *bytes.Buffer, n *conftree.Node, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	switch n.Kind() {
	case conftree.KindComment:
		b.WriteString(indent)
		b.WriteString("# ")
		b.WriteString(n.Text())
		b.WriteByte('\n')

	case conftree.KindDirective:
		b.WriteString(indent)
		b.WriteString(statement(n))
		if n.Style() == conftree.StyleNginx {
			b.WriteByte(';')
		}
		b.WriteByte('\n')

	case conftree.KindBlock:
		b.WriteString(indent)
		if n.Style() == conftree.StyleNginx {
			b.WriteString(statement(n))
			b.WriteString(" {\n")
			renderChildren(b, n, depth+1)
			b.WriteString(indent)
			b.WriteString("}\n")
			return
		}
		b.WriteByte('<')
		b.WriteString(statement(n))
		b.WriteString(">\n")
		renderChildren(b, n, depth+1)
		b.WriteString(indent)
		b.WriteString("</")
		b.WriteString(n.Name())
		b.WriteString(">\n")
	}
}

func statement(n *conftree.Node) string {
	parts := []string{n.Name()}
	for _, p := range n.Params() {
		parts = append(parts, quoteArg(p))
	}
	return strings.Join(parts, " ")
}

// quoteArg wraps arguments that would not survive re-tokenization.
func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t;{}#") {
		return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
	}
	return arg
}
