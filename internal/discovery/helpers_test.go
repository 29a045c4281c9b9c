package discovery

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"sitescribe/internal/crawler"
	"sitescribe/internal/models"
	"sitescribe/pkg/logger"
)

const base = "https://example.com/"

type route struct {
	status      int
	contentType string
	body        string
	err         error
}

// fakeFetcher serves canned routes; unknown URLs are 404s.
type fakeFetcher struct {
	routes map[string]route
	calls  []string
}

func newFakeFetcher(routes map[string]route) *fakeFetcher {
	return &fakeFetcher{routes: routes}
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*crawler.Response, error) {
	f.calls = append(f.calls, rawURL)
	r, ok := f.routes[rawURL]
	if !ok {
		return nil, &crawler.StatusError{URL: rawURL, StatusCode: 404}
	}
	if r.err != nil {
		return nil, r.err
	}
	status := r.status
	if status == 0 {
		status = 200
	}
	if status < 200 || status >= 300 {
		return nil, &crawler.StatusError{URL: rawURL, StatusCode: status}
	}
	ct := r.contentType
	if ct == "" {
		ct = "text/html; charset=utf-8"
	}
	return &crawler.Response{URL: rawURL, FinalURL: rawURL, StatusCode: status, ContentType: ct, Body: []byte(r.body)}, nil
}

func (f *fakeFetcher) count(rawURL string) int {
	n := 0
	for _, c := range f.calls {
		if c == rawURL {
			n++
		}
	}
	return n
}

type countingPacer struct{ n int }

func (p *countingPacer) Wait(ctx context.Context) error {
	p.n++
	return ctx.Err()
}

func newTestDiscoverer(f Fetcher, p Pacer, opts ...Option) *Discoverer {
	all := append([]Option{WithPacer(p), WithLogger(logger.Discard())}, opts...)
	return New(f, all...)
}

func urlset(locs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, l := range locs {
		fmt.Fprintf(&b, "<url><loc>%s</loc><lastmod>2024-01-01</lastmod></url>", l)
	}
	b.WriteString("</urlset>")
	return b.String()
}

func sitemapIndex(locs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, l := range locs {
		fmt.Fprintf(&b, "<sitemap><loc>%s</loc></sitemap>", l)
	}
	b.WriteString("</sitemapindex>")
	return b.String()
}

func page(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><title>t</title></head><body><ul>")
	for _, h := range hrefs {
		fmt.Fprintf(&b, `<li><a href="%s">link</a></li>`, h)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func xmlRoute(body string) route {
	return route{contentType: "application/xml", body: body}
}

func htmlRoute(body string) route {
	return route{contentType: "text/html; charset=utf-8", body: body}
}

func opts() models.Options {
	return models.Options{BaseURL: base}
}

func mustRun(t *testing.T, d *Discoverer, o models.Options) models.LinkSet {
	t.Helper()
	links, err := d.Run(context.Background(), o)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return links
}
