package discovery

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
)

// maxSitemapSize bounds a decompressed sitemap body.
const maxSitemapSize = 50 * 1024 * 1024

type SitemapKind int

const (
	Unparseable SitemapKind = iota
	SitemapIndex
	URLSet
)

// SitemapDocument is a parsed sitemap: the child sitemap locations of an
// index, or the page locations of a URL set, in document order.
type SitemapDocument struct {
	Kind SitemapKind
	Locs []string
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// ParseSitemap reads a sitemap index or URL set. Element names are matched
// without their namespace. Gzip-compressed bodies are accepted.
func ParseSitemap(body []byte) (SitemapDocument, error) {
	body, err := gunzip(body)
	if err != nil {
		return SitemapDocument{Kind: Unparseable}, err
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		doc   SitemapDocument
		entry string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return SitemapDocument{Kind: Unparseable}, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if doc.Kind == Unparseable {
			switch se.Name.Local {
			case "sitemapindex":
				doc.Kind, entry = SitemapIndex, "sitemap"
			case "urlset":
				doc.Kind, entry = URLSet, "url"
			default:
				return SitemapDocument{Kind: Unparseable}, fmt.Errorf("unexpected root element <%s>", se.Name.Local)
			}
			continue
		}
		if se.Name.Local != entry {
			continue
		}
		var e locEntry
		if err := dec.DecodeElement(&e, &se); err != nil {
			return SitemapDocument{Kind: Unparseable}, err
		}
		if loc := strings.TrimSpace(e.Loc); loc != "" {
			doc.Locs = append(doc.Locs, loc)
		}
	}
	if doc.Kind == Unparseable {
		return doc, errors.New("no root element")
	}
	return doc, nil
}

func gunzip(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(io.LimitReader(gz, maxSitemapSize))
}

// IsXMLResponse reports whether a response should be handled as an XML
// sitemap: an xml content type or a .xml (or .xml.gz) URL.
func IsXMLResponse(rawURL, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "xml") {
		return true
	}
	u := strings.ToLower(rawURL)
	return strings.HasSuffix(u, ".xml") || strings.HasSuffix(u, ".xml.gz")
}

// resolveXML turns a sitemap body into page links on the base domain. Child
// sitemaps of an index are fetched in document order; a failing child is
// logged and skipped. A ParseError is returned only for sitemapURL itself.
func (s *session) resolveXML(ctx context.Context, sitemapURL string, body []byte, depth int) ([]string, error) {
	doc, err := ParseSitemap(body)
	if err != nil {
		return nil, &ParseError{URL: sitemapURL, Err: err}
	}

	if doc.Kind == URLSet {
		links := lo.Filter(doc.Locs, func(loc string, _ int) bool {
			return s.cls.SameDomain(loc)
		})
		s.log.Infof("extracted %d urls from xml sitemap %s", len(links), sitemapURL)
		return links, nil
	}

	s.log.Infof("sitemap index %s lists %d sitemaps", sitemapURL, len(doc.Locs))
	if depth >= s.maxDepth {
		s.log.Warnf("sitemap index %s: %v (%d)", sitemapURL, ErrDepthExceeded, s.maxDepth)
		return nil, nil
	}

	var out []string
	for _, child := range doc.Locs {
		if s.stopped(ctx) {
			break
		}
		if !s.markSitemap(child) {
			s.log.Debugf("sitemap %s already visited", child)
			continue
		}
		s.log.Infof("processing child sitemap %s", child)
		resp, err := s.fetch(ctx, child, "fetch child sitemap")
		if err != nil {
			s.log.Warnf("%v", err)
			continue
		}
		links, err := s.resolveXML(ctx, child, resp.Body, depth+1)
		if err != nil {
			s.log.Warnf("skipping child sitemap: %v", err)
			continue
		}
		out = append(out, links...)
	}
	return out, nil
}
