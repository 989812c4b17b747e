package writeback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/conftree/internal/conftree"
)

func TestRenderApache(t *testing.T) {
	root, err := conftree.Parse([]byte("# ports\nListen 80\n<IfModule mod_ssl.c>\nListen 443 https\n</IfModule>\n"), "ports.conf")
	require.NoError(t, err)

	want := `# ports
Listen 80
<IfModule mod_ssl.c>
    Listen 443 https
</IfModule>
`
	assert.Equal(t, want, string(Render(root)))
}

func TestRenderNginx(t *testing.T) {
	root, err := conftree.Parse([]byte("user www-data;\nhttp {\nserver {\nlisten 443 ssl;\n}\n}\n"), "nginx.conf")
	require.NoError(t, err)

	want := `user www-data;
http {
    server {
        listen 443 ssl;
    }
}
`
	assert.Equal(t, want, string(Render(root)))
}

func TestRenderQuotesArgs(t *testing.T) {
	root := conftree.NewFileRoot("t.conf")
	d := conftree.NewDirective("ErrorDocument", "404", `Not "really" found`)
	root.AppendChild(d)

	assert.Equal(t, "ErrorDocument 404 \"Not \\\"really\\\" found\"\n", string(Render(root)))
}

func TestRenderRoundTrips(t *testing.T) {
	srcs := []string{
		"Listen 80\n<VirtualHost *:80>\n    ServerName example.org\n    <Dir /var/www>\n        Allow all\n    </Dir>\n</VirtualHost>\n",
		"user www-data;\nevents {\n    worker_connections 768;\n}\nhttp {\n    include conf.d/*.conf;\n}\n",
	}
	for _, src := range srcs {
		first, err := conftree.Parse([]byte(src), "t.conf")
		require.NoError(t, err)
		rendered := Render(first)
		second, err := conftree.Parse(rendered, "t.conf")
		require.NoError(t, err, "rendered text must stay parseable:\n%s", rendered)
		assertSameShape(t, first, second)
	}
}

func assertSameShape(t *testing.T, a, b *conftree.Node) {
	t.Helper()
	assert.Equal(t, a.Kind(), b.Kind())
	assert.Equal(t, a.Name(), b.Name())
	assert.Equal(t, a.Params(), b.Params())
	assert.Equal(t, a.Text(), b.Text())
	require.Len(t, b.Children(), len(a.Children()))
	for i := range a.Children() {
		assertSameShape(t, a.Children()[i], b.Children()[i])
	}
}
