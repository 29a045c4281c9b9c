package discovery

import (
	"context"
	"net/url"
	"strings"

	"sitescribe/internal/crawler"
	"sitescribe/internal/models"
)

// genericSitemaps are tried, in order, for every site.
var genericSitemaps = []string{"sitemap.xml", "sitemap_index.xml", "post-sitemap.xml"}

// HostRule adds site-specific candidates for one host. Candidates are tried
// after the generic ones; Fallback, when set, is treated as an HTML sitemap
// if no candidate succeeds.
type HostRule struct {
	Host       string
	Candidates []models.Candidate
	Fallback   string
}

// Matches reports whether rawURL is on the rule's host or a subdomain of it.
func (r HostRule) Matches(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || r.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	want := strings.ToLower(r.Host)
	return host == want || strings.HasSuffix(host, "."+want)
}

// HostTable is an ordered list of per-host rules; the first match wins.
type HostTable []HostRule

// DefaultHosts holds the built-in site rules.
func DefaultHosts() HostTable {
	return HostTable{
		{
			Host: "take1bit.com",
			Candidates: []models.Candidate{
				{URL: "https://take1bit.com/page-sitemap.xml"},
				{URL: "https://take1bit.com/page-448/"},
			},
			Fallback: "https://take1bit.com/page-448/",
		},
	}
}

func (t HostTable) Lookup(baseURL string) (HostRule, bool) {
	for _, r := range t {
		if r.Matches(baseURL) {
			return r, true
		}
	}
	return HostRule{}, false
}

// With returns a table where rules replace existing rules for the same host
// and otherwise take precedence over them.
func (t HostTable) With(rules ...HostRule) HostTable {
	out := make(HostTable, 0, len(t)+len(rules))
	out = append(out, rules...)
	for _, r := range t {
		replaced := false
		for _, n := range rules {
			if strings.EqualFold(n.Host, r.Host) {
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, r)
		}
	}
	return out
}

// Candidates returns the ordered sitemap candidates for baseURL and the
// final HTML fallback, if any. An explicit sitemap URL is the only
// candidate and disables the fallback.
func (t HostTable) Candidates(baseURL, explicit string) ([]models.Candidate, *models.Candidate) {
	if explicit != "" {
		return []models.Candidate{{URL: explicit}}, nil
	}
	cands := make([]models.Candidate, 0, len(genericSitemaps))
	for _, name := range genericSitemaps {
		cands = append(cands, models.Candidate{URL: join(baseURL, name)})
	}
	rule, ok := t.Lookup(baseURL)
	if !ok {
		return cands, nil
	}
	for _, c := range rule.Candidates {
		c.URL = join(baseURL, c.URL)
		cands = append(cands, c)
	}
	if rule.Fallback == "" {
		return cands, nil
	}
	return cands, &models.Candidate{URL: join(baseURL, rule.Fallback), Format: models.FormatHTML}
}

// tryCandidates fetches candidates in order; the first successful fetch is
// resolved and its result returned, however small.
func (s *session) tryCandidates(ctx context.Context, explicit string) []string {
	cands, fallback := s.hosts.Candidates(s.base, explicit)
	for _, c := range cands {
		if s.stopped(ctx) {
			return nil
		}
		s.log.Infof("checking sitemap candidate %s", c.URL)
		resp, err := s.fetch(ctx, c.URL, "fetch sitemap candidate")
		if err != nil {
			s.log.Warnf("%v", err)
			continue
		}
		s.log.Infof("found sitemap %s", c.URL)
		return s.resolveCandidate(ctx, c, resp)
	}

	if fallback == nil || s.stopped(ctx) {
		return nil
	}
	s.log.Infof("no sitemap found, using %s as an html sitemap", fallback.URL)
	resp, err := s.fetch(ctx, fallback.URL, "fetch fallback page")
	if err != nil {
		s.log.Warnf("%v", err)
		return nil
	}
	return s.resolveCandidate(ctx, *fallback, resp)
}

// resolveCandidate handles a fetched candidate as XML or HTML. An XML parse
// failure retries the same body as an HTML sitemap.
func (s *session) resolveCandidate(ctx context.Context, c models.Candidate, resp *crawler.Response) []string {
	if wantsXML(c, resp.ContentType) {
		s.markSitemap(c.URL)
		links, err := s.resolveXML(ctx, c.URL, resp.Body, 0)
		if err == nil {
			return links
		}
		s.log.Warnf("%v; retrying as html sitemap", err)
	}

	doc, err := s.parser.Parse(resp.Body, resp.ContentType)
	if err != nil {
		s.log.Warnf("%v", &ParseError{URL: c.URL, Err: err})
		return nil
	}
	s.log.Infof("processing %s as an html sitemap", c.URL)
	return s.resolveHTML(ctx, doc, c.URL).Sorted()
}

func wantsXML(c models.Candidate, contentType string) bool {
	switch c.Format {
	case models.FormatXML:
		return true
	case models.FormatHTML:
		return false
	}
	return IsXMLResponse(c.URL, contentType)
}

// join resolves ref against base the way a browser resolves a relative href.
func join(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
