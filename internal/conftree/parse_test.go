package conftree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApacheBlock(t *testing.T) {
	src := []byte(`# global settings
Listen 80
<IfModule mod_ssl.c>
    Listen 443 https
</IfModule>
`)
	root, err := Parse(src, "/etc/apache2/ports.conf")
	require.NoError(t, err)
	require.True(t, root.IsFileRoot())
	require.Len(t, root.Children(), 3)

	comment := root.Children()[0]
	assert.Equal(t, KindComment, comment.Kind())
	assert.Equal(t, "global settings", comment.Text())

	listen := root.Children()[1]
	assert.Equal(t, KindDirective, listen.Kind())
	assert.Equal(t, "Listen", listen.Name())
	assert.Equal(t, []string{"80"}, listen.Params())
	assert.Equal(t, StyleApache, listen.Style())
	assert.Equal(t, "/etc/apache2/ports.conf", listen.SourceFile())

	blk := root.Children()[2]
	require.Equal(t, KindBlock, blk.Kind())
	assert.Equal(t, "IfModule", blk.Name())
	assert.Equal(t, []string{"mod_ssl.c"}, blk.Params())
	require.Len(t, blk.Children(), 1)
	inner := blk.Children()[0]
	assert.Equal(t, []string{"443", "https"}, inner.Params())
	assert.Same(t, blk, inner.Parent())
}

func TestParseNginxBlock(t *testing.T) {
	src := []byte(`user www-data;
http {
    server {
        listen 443 ssl;
        server_name example.org;
    }
}
`)
	root, err := Parse(src, "/etc/nginx/nginx.conf")
	require.NoError(t, err)
	require.Len(t, root.Children(), 2)

	user := root.Children()[0]
	assert.Equal(t, StyleNginx, user.Style())

	httpBlk := root.Children()[1]
	require.Equal(t, KindBlock, httpBlk.Kind())
	assert.Equal(t, StyleNginx, httpBlk.Style())
	require.Len(t, httpBlk.Children(), 1)

	server := httpBlk.Children()[0]
	require.Equal(t, "server", server.Name())
	require.Len(t, server.Children(), 2)
	assert.Equal(t, "server_name", server.Children()[1].Name())
}

func TestParseQuotedArgs(t *testing.T) {
	src := []byte(`ErrorDocument 404 "Not Found, sorry"
LogFormat "%h \"%r\"" combined
`)
	root, err := Parse(src, "t.conf")
	require.NoError(t, err)
	require.Len(t, root.Children(), 2)
	assert.Equal(t, []string{"404", "Not Found, sorry"}, root.Children()[0].Params())
	assert.Equal(t, []string{`%h "%r"`, "combined"}, root.Children()[1].Params())
}

func TestParseLineContinuation(t *testing.T) {
	src := []byte("SSLCipherSuite HIGH \\\n    !aNULL\n")
	root, err := Parse(src, "t.conf")
	require.NoError(t, err)
	require.Len(t, root.Children(), 1)
	assert.Equal(t, []string{"HIGH", "!aNULL"}, root.Children()[0].Params())
}

func TestParseTrailingComment(t *testing.T) {
	root, err := Parse([]byte("Listen 80 # default port\n"), "t.conf")
	require.NoError(t, err)
	require.Len(t, root.Children(), 2)
	assert.Equal(t, KindDirective, root.Children()[0].Kind())
	assert.Equal(t, "default port", root.Children()[1].Text())
}

func TestParseClosingTagCaseInsensitive(t *testing.T) {
	root, err := Parse([]byte("<VirtualHost *:80>\n</virtualhost>\n"), "t.conf")
	require.NoError(t, err)
	require.Len(t, root.Children(), 1)
	assert.Equal(t, []string{"*:80"}, root.Children()[0].Params())
}

func TestParseNegatedGuardDisablesSubtree(t *testing.T) {
	src := []byte(`<IfModule !mod_ssl.c>
    Listen 80
</IfModule>
`)
	root, err := Parse(src, "t.conf")
	require.NoError(t, err)
	blk := root.Children()[0]
	assert.True(t, blk.Enabled(), "the guard block itself stays active")
	require.Len(t, blk.Children(), 1)
	assert.False(t, blk.Children()[0].Enabled())
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unclosed block":     "<IfModule mod_ssl.c>\nListen 443\n",
		"mismatched close":   "<IfModule mod_ssl.c>\n</VirtualHost>\n",
		"stray brace":        "}\n",
		"unterminated quote": "ServerName \"half\n",
		"unterminated tag":   "<VirtualHost *:80\nServerName x\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), "bad.conf")
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "bad.conf", pe.Path)
			assert.Greater(t, pe.Line, 0)
		})
	}
}

func TestParseRecordsOrigins(t *testing.T) {
	src := []byte("Listen 80\n<Dir a>\nAllow all\n</Dir>\n")
	root, err := Parse(src, "t.conf")
	require.NoError(t, err)

	listen := root.Children()[0]
	require.NotNil(t, listen.Origin())
	assert.Equal(t, "Listen 80\n", string(src[listen.Origin().StartByte:listen.Origin().EndByte]))

	blk := root.Children()[1]
	require.NotNil(t, blk.Origin())
	assert.Equal(t, "<Dir a>\nAllow all\n</Dir>", string(src[blk.Origin().StartByte:blk.Origin().EndByte]))
}

func TestRemoveChildDetaches(t *testing.T) {
	root, err := Parse([]byte("a 1\nb 2\nc 3\n"), "t.conf")
	require.NoError(t, err)
	b := root.Children()[1]
	require.True(t, root.RemoveChild(b))
	assert.Nil(t, b.Parent())
	assert.False(t, b.Attached())
	require.Len(t, root.Children(), 2)
	assert.Equal(t, "c", root.Children()[1].Name())
	assert.False(t, root.RemoveChild(b), "second removal finds nothing")
}
