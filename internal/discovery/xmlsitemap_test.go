
package discovery

import (
	"bytes"
	"compress/gzip"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSitemap(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind SitemapKind
		locs []string
		err  bool
	}{
		{
			name: "url set",
			body: urlset("https://example.com/a/", "https://example.com/b/"),
			kind: URLSet,
			locs: []string{"https://example.com/a/", "https://example.com/b/"},
		},
		{
			name: "index",
			body: sitemapIndex("https://example.com/s1.xml"),
			kind: SitemapIndex,
			locs: []string{"https://example.com/s1.xml"},
		},
		{
			name: "prefixed namespace and whitespace",
			body: `<sm:urlset xmlns:sm="http://www.sitemaps.org/schemas/sitemap/0.9">
				<sm:url><sm:loc>
					https://example.com/spaced/
				</sm:loc></sm:url>
				<sm:url><sm:loc></sm:loc></sm:url>
			</sm:urlset>`,
			kind: URLSet,
			locs: []string{"https://example.com/spaced/"},
		},
		{
			name: "image extension ignored",
			body: `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">
				<url><loc>https://example.com/p/</loc><image:image><image:loc>https://example.com/i.png</image:loc></image:image></url>
			</urlset>`,
			kind: URLSet,
			locs: []string{"https://example.com/p/"},
		},
		{
			name: "latin1 declared",
			body: `<?xml version="1.0" encoding="ISO-8859-1"?><urlset><url><loc>https://example.com/x/</loc></url></urlset>`,
			kind: URLSet,
			locs: []string{"https://example.com/x/"},
		},
		{name: "html root", body: "<html><body></body></html>", err: true},
		{name: "truncated", body: "<urlset><url><loc>x", err: true},
		{name: "empty", body: "", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseSitemap([]byte(tt.body))
			if tt.err {
				assert.Error(t, err)
				assert.Equal(t, Unparseable, doc.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, doc.Kind)
			assert.Equal(t, tt.locs, doc.Locs)
		})
	}
}

func TestParseSitemap_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(urlset("https://example.com/zipped/")))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	doc, err := ParseSitemap(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/zipped/"}, doc.Locs)

	_, err = ParseSitemap([]byte{0x1f, 0x8b, 0x00})
	assert.Error(t, err)
}

func TestIsXMLResponse(t *testing.T) {
	assert.True(t, IsXMLResponse("https://example.com/feed", "application/xml"))
	assert.True(t, IsXMLResponse("https://example.com/feed", "text/xml; charset=utf-8"))
	assert.True(t, IsXMLResponse("https://example.com/Sitemap.XML", "text/plain"))
	assert.True(t, IsXMLResponse("https://example.com/sitemap.xml.gz", "application/octet-stream"))
	assert.False(t, IsXMLResponse("https://example.com/sitemap/", "text/html"))
}

func TestPacer(t *testing.T) {
	ctx := context.Background()

	assert.IsType(t, NopPacer{}, NewPacer(0))
	assert.NoError(t, NewPacer(-time.Second).Wait(ctx))

	p := NewPacer(20 * time.Millisecond)
	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	slow := NewPacer(time.Hour)
	assert.ErrorIs(t, slow.Wait(cancelled), context.Canceled)
}

func TestSessionFetchPacesFailures(t *testing.T) {
	f := newFakeFetcher(nil)
	p := &countingPacer{}
	s := newTestDiscoverer(f, p).newSession(opts())

	_, err := s.fetch(context.Background(), base+"missing", "fetch page")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.StatusCode())
	assert.Equal(t, 1, p.n)
}
