package discovery

import (
	"bytes"
	"context"
	"strings"

	"github.com/mmcdole/gofeed"
)

// feedPaths are the usual RSS/Atom locations; WordPress serves feed/.
var feedPaths = []string{"feed/", "rss/", "atom.xml", "index.xml"}

// tryFeeds returns the same-site item links of the first feed that has any.
func (s *session) tryFeeds(ctx context.Context) []string {
	for _, p := range feedPaths {
		if s.stopped(ctx) {
			break
		}
		u := join(s.base, p)
		resp, err := s.fetch(ctx, u, "fetch feed")
		if err != nil {
			s.log.Warnf("%v", err)
			continue
		}
		feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
		if err != nil {
			s.log.Warnf("%v", &ParseError{URL: u, Err: err})
			continue
		}
		var links []string
		for _, item := range feed.Items {
			link := strings.TrimSpace(item.Link)
			if link != "" && s.cls.SameDomain(link) {
				links = append(links, link)
			}
		}
		if len(links) > 0 {
			s.log.Infof("got %d links from feed %s (%s)", len(links), u, feed.FeedType)
			return links
		}
	}
	return nil
}
