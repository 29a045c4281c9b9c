
package parser

import (
	"bytes"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"sitescribe/internal/models"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

var whitespaceRe = regexp.MustCompile(`\s+`)

// ErrNoDocument is returned when the input yields no HTML document at all.
var ErrNoDocument = errors.New("no html document")

// chromeSelector matches page furniture that is never part of an article.
const chromeSelector = "header, footer, nav, aside, .sidebar, .advertisement, script, style, .widget, .wp-block-social-links"

// Parse decodes data to UTF-8 using the content type and any in-document
// charset hints, then builds a navigable document.
func (p *Parser) Parse(data []byte, contentType string) (*goquery.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoDocument
	}
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		utf8data = data
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
}

// Links returns every anchor href on the page resolved against pageURL, in
// document order. Unparseable hrefs are skipped.
func Links(doc *goquery.Document, pageURL string) []string {
	if doc == nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		out = append(out, base.ResolveReference(ref).String())
	})
	return out
}

// Hrefs returns the raw href attribute of every anchor, unresolved.
func Hrefs(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}
	var out []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			out = append(out, href)
		}
	})
	return out
}

// ExtractArticle pulls the title, publication date and main content out of
// an article page. The document is modified: page chrome is removed.
func (p *Parser) ExtractArticle(doc *goquery.Document, pageURL string) models.Article {
	art := models.Article{URL: pageURL, Title: "No Title"}
	if doc == nil {
		return art
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		art.Title = title
	}
	art.Date = extractDate(doc)
	art.Description = strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if art.Description == "" {
		art.Description = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}
	art.Language = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))

	doc.Find(chromeSelector).Remove()

	content := doc.Find("article, .entry-content, .post-content, main").First()
	if content.Length() == 0 {
		content = doc.Find("main, .main, #main, #content").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		return art
	}

	// images are not carried into documents
	content.Find("img, picture").Remove()

	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(content.Text(), " "))
	if text != "" {
		art.WordCount = len(strings.Fields(text))
	}
	if html, err := goquery.OuterHtml(content); err == nil {
		art.ContentHTML = html
	}
	return art
}

var dateClasses = []string{"date", "published", "post-date", "entry-date"}

func extractDate(doc *goquery.Document) string {
	if v := doc.Find(`meta[property="article:published_time"]`).First().AttrOr("content", ""); v != "" {
		return datePart(v)
	}
	if v := doc.Find("time").First().AttrOr("datetime", ""); v != "" {
		return datePart(v)
	}
	for _, cls := range dateClasses {
		if s := doc.Find("." + cls).First(); s.Length() > 0 {
			return strings.TrimSpace(s.Text())
		}
	}
	return ""
}

// datePart keeps the date portion of an ISO 8601 timestamp.
func datePart(v string) string {
	d, _, _ := strings.Cut(v, "T")
	return strings.TrimSpace(d)
}
