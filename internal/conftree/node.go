// Package conftree implements the configuration AST: a tagged-variant node
// model for directive-style server configuration (Apache/nginx family) and the
// grammar that produces it from raw file bytes.
package conftree

// Kind discriminates the three node shapes.
type Kind int

const (
	KindComment Kind = iota
	KindDirective
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindDirective:
		return "directive"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Style records which syntax family a node was written in, so write-back can
// render it the way it appeared in source. Apache blocks use <Name>...</Name>,
// nginx blocks use name { ... } and ';'-terminated directives.
type Style int

const (
	StyleApache Style = iota
	StyleNginx
)

// Span is the opaque handle into the underlying parsed text: the byte range a
// node's source occupies in its file. Nodes created by mutation have no span.
type Span struct {
	StartByte uint32
	EndByte   uint32
}

// Node is the universal AST primitive. A Block is a Directive that also owns
// children; a Comment carries only text. The parent back-reference is used for
// upward traversal only, never for ownership: a child belongs to exactly one
// parent and appears exactly once in its children sequence.
type Node struct {
	kind   Kind
	name   string
	params []string
	text   string // comment text, without the leading '#'

	enabled bool
	style   Style

	parent   *Node
	children []*Node

	sourceFile   string
	includedFrom string
	dirty        bool
	origin       *Span
}

// NewFileRoot returns the synthetic block that owns a file's top-level
// entries. It has no name and no parent.
func NewFileRoot(path string) *Node {
	return &Node{kind: KindBlock, enabled: true, sourceFile: path}
}

// NewDirective returns a detached directive node. SourceFile is assigned when
// the node is attached to a parent.
func NewDirective(name string, params ...string) *Node {
	return &Node{kind: KindDirective, name: name, params: params, enabled: true}
}

// NewBlock returns a detached block node.
func NewBlock(name string, params ...string) *Node {
	return &Node{kind: KindBlock, name: name, params: params, enabled: true}
}

// NewComment returns a detached comment node. text excludes the '#'.
func NewComment(text string) *Node {
	return &Node{kind: KindComment, text: text, enabled: true}
}

func (n *Node) Kind() Kind       { return n.kind }
func (n *Node) Name() string     { return n.name }
func (n *Node) Params() []string { return n.params }
func (n *Node) Text() string     { return n.text }
func (n *Node) Enabled() bool    { return n.enabled }
func (n *Node) Style() Style     { return n.style }
func (n *Node) Parent() *Node    { return n.parent }
func (n *Node) Origin() *Span    { return n.origin }

// SourceFile is the physical file this node's text originates from. Immutable
// once the node is attached; edits never move a node to another file.
func (n *Node) SourceFile() string { return n.sourceFile }

// IncludedFrom names the file whose Include directive pulled this node's file
// into the forest, or "" for nodes of directly loaded files.
func (n *Node) IncludedFrom() string { return n.includedFrom }

func (n *Node) SetIncludedFrom(path string) { n.includedFrom = path }

func (n *Node) SetStyle(s Style) { n.style = s }

// Children returns the ordered child sequence. Blocks only; nil otherwise.
func (n *Node) Children() []*Node { return n.children }

// IsFileRoot reports whether n is the synthetic root owning a file's
// top-level entries.
func (n *Node) IsFileRoot() bool {
	return n.kind == KindBlock && n.name == "" && n.parent == nil
}

// Attached reports whether n still belongs to the forest: it is a file root
// or reachable from one through parent links. Detached nodes are invalid
// mutation targets.
func (n *Node) Attached() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.IsFileRoot() {
			return true
		}
	}
	return false
}

// Dirty reports whether this node was touched by a mutation.
func (n *Node) Dirty() bool { return n.dirty }

// MarkDirty flags the node for the save step.
func (n *Node) MarkDirty() { n.dirty = true }

// ClearDirty recursively clears dirty flags, called after a successful save.
func (n *Node) ClearDirty() {
	n.dirty = false
	for _, c := range n.children {
		c.ClearDirty()
	}
}

// AppendChild attaches child as the last element of n's children. The child
// inherits n's source file. Panics if n is not a block; the parser and the
// mutation engine only ever append under blocks.
func (n *Node) AppendChild(child *Node) {
	if n.kind != KindBlock {
		panic("conftree: AppendChild on non-block node")
	}
	child.parent = n
	child.sourceFile = n.sourceFile
	n.children = append(n.children, child)
}

// RemoveChild detaches child from n, preserving the order of the remaining
// children. Returns false when child is not one of n's children.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Root walks up to the file root owning this node. Returns n itself when
// already a root, nil when the node is detached mid-chain.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	if cur.IsFileRoot() {
		return cur
	}
	return nil
}

// SubtreeDirty reports whether n or any descendant carries the dirty flag.
// The save step uses this per file root to pick which files to rewrite.
func (n *Node) SubtreeDirty() bool {
	if n.dirty {
		return true
	}
	for _, c := range n.children {
		if c.SubtreeDirty() {
			return true
		}
	}
	return false
}

// setDisabled marks the whole subtree inert. Used by the parser for content
// guarded by a negated <IfModule !mod> condition.
func (n *Node) setDisabled() {
	n.enabled = false
	for _, c := range n.children {
		c.setDisabled()
	}
}
