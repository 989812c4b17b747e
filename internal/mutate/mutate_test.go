package mutate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/conftree/api"
	"github.com/agentic-research/conftree/internal/conftree"
)

func parseFile(t *testing.T, src string) *conftree.Node {
	t.Helper()
	root, err := conftree.Parse([]byte(src), "/etc/apache2/ports.conf")
	require.NoError(t, err)
	return root
}

func TestAppendDirective(t *testing.T) {
	root := parseFile(t, "Listen 80\n")

	d, err := AppendDirective(root, "Listen", "443", "https")
	require.NoError(t, err)
	require.Len(t, root.Children(), 2)
	assert.Same(t, d, root.Children()[1])
	assert.Equal(t, []string{"443", "https"}, d.Params())
	assert.Equal(t, "/etc/apache2/ports.conf", d.SourceFile())
	assert.True(t, root.SubtreeDirty())
}

func TestAppendDirectiveInheritsStyle(t *testing.T) {
	root, err := conftree.Parse([]byte("http {\n}\n"), "/etc/nginx/nginx.conf")
	require.NoError(t, err)
	httpBlk := root.Children()[0]

	d, err := AppendDirective(httpBlk, "keepalive_timeout", "65")
	require.NoError(t, err)
	assert.Equal(t, conftree.StyleNginx, d.Style())
}

func TestAppendDirectiveInvalidTargets(t *testing.T) {
	root := parseFile(t, "Listen 80\n<Dir a>\n</Dir>\n")
	listen := root.Children()[0]
	blk := root.Children()[1]

	_, err := AppendDirective(listen, "Allow", "all")
	assert.ErrorIs(t, err, api.ErrInvalidTarget, "directives take no children")

	require.True(t, root.RemoveChild(blk))
	_, err = AppendDirective(blk, "Allow", "all")
	assert.ErrorIs(t, err, api.ErrInvalidTarget, "detached blocks are not editable")

	_, err = AppendDirective(nil, "Allow", "all")
	assert.ErrorIs(t, err, api.ErrInvalidTarget)
}

func TestEnsureConditionalBlockCreates(t *testing.T) {
	root := parseFile(t, "Listen 80\n")

	blk, created, err := EnsureConditionalBlock(root, "mod_ssl.c")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "IfModule", blk.Name())
	assert.Equal(t, []string{"mod_ssl.c"}, blk.Params())
	assert.Same(t, blk, root.Children()[1], "created guard lands last")
}

func TestEnsureConditionalBlockFindsExisting(t *testing.T) {
	root := parseFile(t, "<ifmodule mod_ssl.c>\nListen 443\n</ifmodule>\n")

	blk, created, err := EnsureConditionalBlock(root, "mod_ssl.c")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, root.Children()[0], blk, "guard lookup folds the block name's case")
	assert.False(t, root.SubtreeDirty(), "finding an existing guard edits nothing")
}

func TestEnsureConditionalBlockModuleTokenIsExact(t *testing.T) {
	root := parseFile(t, "<IfModule MOD_SSL.C>\n</IfModule>\n")

	_, created, err := EnsureConditionalBlock(root, "mod_ssl.c")
	require.NoError(t, err)
	assert.True(t, created, "module tokens compare case-sensitively")
	require.Len(t, root.Children(), 2)
}

func TestEnsureConditionalBlockIgnoresMultiParamGuards(t *testing.T) {
	root := parseFile(t, "<IfModule mod_ssl.c extra>\n</IfModule>\n")

	_, created, err := EnsureConditionalBlock(root, "mod_ssl.c")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestAddDirectiveInConditionalIdempotentGuard(t *testing.T) {
	root := parseFile(t, "Listen 80\n")

	_, err := AddDirectiveInConditional(root, "mod_ssl.c", "Listen", "443")
	require.NoError(t, err)
	_, err = AddDirectiveInConditional(root, "mod_ssl.c", "Listen", "8443")
	require.NoError(t, err)

	require.Len(t, root.Children(), 2, "both directives share one guard")
	guard := root.Children()[1]
	require.Len(t, guard.Children(), 2)
	assert.Equal(t, []string{"443"}, guard.Children()[0].Params())
	assert.Equal(t, []string{"8443"}, guard.Children()[1].Params())
}

func TestDeleteChild(t *testing.T) {
	root := parseFile(t, "Listen 80\nListen 443\n")
	first := root.Children()[0]

	require.NoError(t, DeleteChild(first))
	require.Len(t, root.Children(), 1)
	assert.Equal(t, []string{"443"}, root.Children()[0].Params())
	assert.True(t, root.SubtreeDirty())

	assert.ErrorIs(t, DeleteChild(first), api.ErrInvalidTarget, "already detached")
	assert.ErrorIs(t, DeleteChild(root), api.ErrInvalidTarget, "file roots are not deletable")
	assert.ErrorIs(t, DeleteChild(nil), api.ErrInvalidTarget)
}
