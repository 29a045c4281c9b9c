
package models

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// Format is the expected encoding of a sitemap candidate.
type Format int

const (
	// FormatAuto decides between XML and HTML from the response.
	FormatAuto Format = iota
	FormatXML
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatHTML:
		return "html"
	}
	return "auto"
}

// ParseFormat accepts "xml", "html" and "" / "auto".
func ParseFormat(s string) Format {
	switch s {
	case "xml":
		return FormatXML
	case "html":
		return FormatHTML
	}
	return FormatAuto
}

type Candidate struct {
	URL    string `json:"url" yaml:"url"`
	Format Format `json:"format" yaml:"-"`
}

// LinkSet is a set of absolute article URLs. Iteration order is not significant.
type LinkSet map[string]struct{}

func NewLinkSet(links ...string) LinkSet {
	s := make(LinkSet, len(links))
	for _, l := range links {
		s[l] = struct{}{}
	}
	return s
}

// Add reports whether link was not already present.
func (s LinkSet) Add(link string) bool {
	if _, ok := s[link]; ok {
		return false
	}
	s[link] = struct{}{}
	return true
}

func (s LinkSet) Has(link string) bool {
	_, ok := s[link]
	return ok
}

func (s LinkSet) Merge(other LinkSet) {
	for l := range other {
		s[l] = struct{}{}
	}
}

func (s LinkSet) Len() int { return len(s) }

// Sorted returns the links in lexical order.
func (s LinkSet) Sorted() []string {
	out := lo.Keys(s)
	slices.Sort(out)
	return out
}

// Options shape a single discovery and scrape run.
type Options struct {
	BaseURL      string
	SitemapURL   string
	TryWordPress bool
	TryFeeds     bool
	Delay        time.Duration
	MaxPages     int
	MaxDepth     int
}

// Article is the extracted main content of one page.
type Article struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	ContentHTML string `json:"-"`
	WordCount   int    `json:"wordCount,omitempty"`
}

// Document is a converted article ready to be written to disk.
type Document struct {
	Title    string
	URL      string
	Date     string
	Markdown string
}
