
// Package classifier decides what role a discovered URL plays on a site.
//
// Every predicate here is a string heuristic. "category" and "/page/" are
// matched as substrings of the URL path, so a post slug such as
// /uncategorized-notes/ is classified as a category page, and listing pages
// that use query-string pagination are classified as articles. Callers should
// treat the result as a guess.
package classifier

import (
	"net/url"
	"regexp"
	"strings"
)

type Kind int

const (
	Article Kind = iota
	Category
	Pagination
)

func (k Kind) String() string {
	switch k {
	case Category:
		return "category"
	case Pagination:
		return "pagination"
	}
	return "article"
}

type Classifier struct {
	base string
}

// New returns a classifier scoped to baseURL. A link belongs to the site when
// it contains baseURL as a substring.
func New(baseURL string) *Classifier { return &Classifier{base: baseURL} }

func (c *Classifier) Base() string { return c.base }

func (c *Classifier) SameDomain(link string) bool {
	return c.base != "" && strings.Contains(link, c.base)
}

// Qualifies reports whether link may enter a discovery result from an HTML
// page: same site and no fragment.
func (c *Classifier) Qualifies(link string) bool {
	return c.SameDomain(link) && !strings.Contains(link, "#")
}

func (c *Classifier) Classify(link string) Kind {
	switch {
	case IsCategory(link):
		return Category
	case IsPagination(link):
		return Pagination
	}
	return Article
}

func IsCategory(link string) bool {
	return strings.Contains(strings.ToLower(pathOf(link)), "category")
}

func IsPagination(link string) bool {
	return IsPageSegment(link) || strings.Contains(pathOf(link), "/page-")
}

// IsPageSegment is the narrower pagination test used inside category pages,
// where a "/page-N/" link is an ordinary page rather than a listing.
func IsPageSegment(link string) bool {
	return strings.Contains(pathOf(link), "/page/")
}

// pathOf falls back to the raw string for unparseable links.
func pathOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || (u.Path == "" && u.Host == "") {
		return link
	}
	return u.Path
}

// ArticlePattern recognizes article hrefs when structural discovery found
// nothing.
type ArticlePattern interface {
	Match(href string) bool
}

// TwoSegmentPattern matches hrefs of the form <base><segment>/<segment>/,
// e.g. https://example.com/2024/hello-world/. It over-matches listing pages
// with two-level paths and misses flat permalinks.
type TwoSegmentPattern struct {
	re *regexp.Regexp
}

func NewTwoSegmentPattern(baseURL string) *TwoSegmentPattern {
	return &TwoSegmentPattern{re: regexp.MustCompile(regexp.QuoteMeta(baseURL) + `[^/]+/[^/]+/`)}
}

func (p *TwoSegmentPattern) Match(href string) bool { return p.re.MatchString(href) }

// PatternFunc adapts a plain function to ArticlePattern.
type PatternFunc func(href string) bool

func (f PatternFunc) Match(href string) bool { return f(href) }
