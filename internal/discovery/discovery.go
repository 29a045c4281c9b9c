// Package discovery finds the article URLs of a website.
//
// A run tries sitemap candidates in priority order (generic sitemap names
// plus per-host rules), resolves the first one that answers as an XML
// sitemap or an HTML pseudo-sitemap, and falls back to the standard
// WordPress sitemaps and then to site feeds while the result is empty.
// Fetches are issued one at a time with a polite delay after each; every
// fetch or parse failure is logged and the run moves on.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"sitescribe/internal/classifier"
	"sitescribe/internal/crawler"
	"sitescribe/internal/models"
	"sitescribe/internal/parser"
	"sitescribe/pkg/logger"
)

// DefaultMaxDepth bounds sitemap index nesting.
const DefaultMaxDepth = 5

// wordPressSitemaps are the per-type sitemaps WordPress SEO plugins publish.
var wordPressSitemaps = []string{"post-sitemap.xml", "page-sitemap.xml", "category-sitemap.xml", "tag-sitemap.xml"}

// Fetcher retrieves a URL. Non-2xx responses are errors.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*crawler.Response, error)
}

type Discoverer struct {
	fetcher    Fetcher
	parser     *parser.Parser
	fixedPacer Pacer
	log        *logger.Logger
	hosts      HostTable
	newPattern func(baseURL string) classifier.ArticlePattern
}

type Option func(*Discoverer)

// WithPacer replaces the delay-based pacer built from Options.Delay.
func WithPacer(p Pacer) Option { return func(d *Discoverer) { d.fixedPacer = p } }

func WithLogger(l *logger.Logger) Option { return func(d *Discoverer) { d.log = l } }

func WithHosts(t HostTable) Option { return func(d *Discoverer) { d.hosts = t } }

// WithArticlePattern replaces the two-segment fallback pattern.
func WithArticlePattern(f func(baseURL string) classifier.ArticlePattern) Option {
	return func(d *Discoverer) { d.newPattern = f }
}

func New(f Fetcher, opts ...Option) *Discoverer {
	d := &Discoverer{
		fetcher: f,
		parser:  parser.New(),
		log:     logger.New(),
		hosts:   DefaultHosts(),
		newPattern: func(baseURL string) classifier.ArticlePattern {
			return classifier.NewTwoSegmentPattern(baseURL)
		},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run discovers the deduplicated set of article links for opts.BaseURL. It
// fails only for an invalid base URL or a cancelled context; an empty set
// means every candidate and fallback tier came up empty.
func (d *Discoverer) Run(ctx context.Context, opts models.Options) (models.LinkSet, error) {
	if err := ValidateBaseURL(opts.BaseURL); err != nil {
		return nil, err
	}
	s := d.newSession(opts)

	s.log.Infof("discovering links for %s", s.base)
	links := s.tryCandidates(ctx, opts.SitemapURL)

	if len(links) == 0 && (opts.TryWordPress || strings.Contains(strings.ToLower(s.base), "wordpress")) {
		s.log.Infof("no links yet, checking wordpress sitemaps")
		links = append(links, s.tryWordPress(ctx)...)
	}
	if len(links) == 0 && opts.TryFeeds {
		s.log.Infof("no links yet, checking feeds")
		links = append(links, s.tryFeeds(ctx)...)
	}

	result := models.NewLinkSet(links...)
	s.log.Infof("discovered %d unique article links", result.Len())
	return result, ctx.Err()
}

// ValidateBaseURL requires an absolute http(s) URL.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base url %q: want an absolute http(s) url", raw)
	}
	return nil
}

// session is the state of one Run. Nothing in it is shared between runs.
type session struct {
	*Discoverer
	base     string
	cls      *classifier.Classifier
	pattern  classifier.ArticlePattern
	pacer    Pacer
	maxDepth int
	sitemaps map[string]bool
}

func (d *Discoverer) newSession(opts models.Options) *session {
	s := &session{
		Discoverer: d,
		base:       opts.BaseURL,
		cls:        classifier.New(opts.BaseURL),
		pattern:    d.newPattern(opts.BaseURL),
		pacer:      d.fixedPacer,
		maxDepth:   opts.MaxDepth,
		sitemaps:   make(map[string]bool),
	}
	if s.pacer == nil {
		s.pacer = NewPacer(opts.Delay)
	}
	if s.maxDepth <= 0 {
		s.maxDepth = DefaultMaxDepth
	}
	return s
}

// fetch issues one request and then waits out the polite delay.
func (s *session) fetch(ctx context.Context, rawURL, op string) (*crawler.Response, error) {
	resp, err := s.fetcher.Fetch(ctx, rawURL)
	if werr := s.pacer.Wait(ctx); err == nil && werr != nil {
		err = werr
	}
	if err != nil {
		return nil, &FetchError{URL: rawURL, Op: op, Err: err}
	}
	return resp, nil
}

// markSitemap records a sitemap URL and reports whether it was new.
func (s *session) markSitemap(rawURL string) bool {
	if s.sitemaps[rawURL] {
		return false
	}
	s.sitemaps[rawURL] = true
	return true
}

func (s *session) stopped(ctx context.Context) bool { return ctx.Err() != nil }

// tryWordPress resolves every standard WordPress sitemap independently and
// concatenates what each yields. A sitemap that is not valid XML is read as
// an HTML sitemap, like any other candidate.
func (s *session) tryWordPress(ctx context.Context) []string {
	var out []string
	for _, name := range wordPressSitemaps {
		if s.stopped(ctx) {
			break
		}
		u := join(s.base, name)
		s.log.Infof("checking wordpress sitemap %s", u)
		resp, err := s.fetch(ctx, u, "fetch wordpress sitemap")
		if err != nil {
			s.log.Warnf("%v", err)
			continue
		}
		links := s.resolveCandidate(ctx, models.Candidate{URL: u}, resp)
		if len(links) > 0 {
			s.log.Infof("got %d links from %s", len(links), u)
		}
		out = append(out, links...)
	}
	return out
}
