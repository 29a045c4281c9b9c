package discovery

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"sitescribe/internal/classifier"
	"sitescribe/internal/models"
	"sitescribe/internal/parser"
)

// resolveHTML treats a parsed page as a pseudo-sitemap. Article links on the
// page seed the result; each category page and the pagination pages it links
// to are fetched and their article links added. When nothing is found the
// raw hrefs of the page are matched against the article pattern.
func (s *session) resolveHTML(ctx context.Context, doc *goquery.Document, pageURL string) models.LinkSet {
	found := models.NewLinkSet()
	var categories []string
	for _, link := range s.siteLinks(doc, pageURL) {
		switch s.cls.Classify(link) {
		case classifier.Category:
			categories = append(categories, link)
		case classifier.Article:
			found.Add(link)
		}
	}

	visited := make(map[string]bool)
	for _, cat := range lo.Uniq(categories) {
		if s.stopped(ctx) {
			break
		}
		s.log.Infof("collecting article links from category page %s", cat)
		found.Merge(s.resolveCategory(ctx, cat, visited))
	}

	if found.Len() == 0 {
		for _, href := range parser.Hrefs(doc) {
			if s.pattern.Match(href) {
				found.Add(href)
			}
		}
		if found.Len() > 0 {
			s.log.Infof("article pattern matched %d links on %s", found.Len(), pageURL)
		}
	}
	return found
}

// resolveCategory fetches one category page and every pagination page it
// links to. visited is shared across categories so a pagination page is
// fetched at most once per resolution.
func (s *session) resolveCategory(ctx context.Context, catURL string, visited map[string]bool) models.LinkSet {
	out := models.NewLinkSet()
	visited[catURL] = true
	doc, ok := s.fetchPage(ctx, catURL, "fetch category page")
	if !ok {
		return out
	}

	var pages []string
	for _, link := range s.siteLinks(doc, catURL) {
		switch {
		case classifier.IsPageSegment(link):
			pages = append(pages, link)
		case !classifier.IsCategory(link):
			out.Add(link)
		}
	}

	for _, page := range lo.Uniq(pages) {
		if s.stopped(ctx) {
			break
		}
		if visited[page] {
			continue
		}
		visited[page] = true
		s.log.Infof("following pagination %s", page)
		pageDoc, ok := s.fetchPage(ctx, page, "fetch pagination page")
		if !ok {
			continue
		}
		for _, link := range s.siteLinks(pageDoc, page) {
			if !classifier.IsCategory(link) && !classifier.IsPageSegment(link) {
				out.Add(link)
			}
		}
	}
	return out
}

// siteLinks returns the page's anchors that belong to the site and carry no
// fragment.
func (s *session) siteLinks(doc *goquery.Document, pageURL string) []string {
	return lo.Filter(parser.Links(doc, pageURL), func(link string, _ int) bool {
		return s.cls.Qualifies(link)
	})
}

// fetchPage fetches and parses an HTML page. Failures are logged and
// reported as !ok; the page then contributes no links.
func (s *session) fetchPage(ctx context.Context, pageURL, op string) (*goquery.Document, bool) {
	resp, err := s.fetch(ctx, pageURL, op)
	if err != nil {
		s.log.Warnf("%v", err)
		return nil, false
	}
	doc, err := s.parser.Parse(resp.Body, resp.ContentType)
	if err != nil {
		s.log.Warnf("%v", &ParseError{URL: pageURL, Err: err})
		return nil, false
	}
	return doc, true
}
