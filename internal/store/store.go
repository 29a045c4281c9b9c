
// Package store keeps converted articles on disk and remembers which URLs
// have already been saved.
package store

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"sitescribe/internal/convert"
	"sitescribe/internal/models"
	"sitescribe/pkg/logger"
)

const maxFilenameBytes = 100

var (
	// urlLine recovers the source URL from files whose front matter does not
	// parse as YAML.
	urlLine      = regexp.MustCompile(`url: (https?://[^\n]+)`)
	illegalChars = strings.NewReplacer(`\`, "", "/", "", "*", "", "?", "", ":", "", `"`, "", "<", "", ">", "", "|", "", " ", "_")
)

// Store is a directory of Markdown documents, one per article.
type Store struct {
	dir string
	log *logger.Logger
}

// New creates dir if needed.
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Store{dir: dir, log: log}, nil
}

func (s *Store) Dir() string { return s.dir }

// ProcessedURLs returns the source URL of every saved document. Files that
// cannot be read or carry no URL are logged and skipped.
func (s *Store) ProcessedURLs() (models.LinkSet, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}
	out := models.NewLinkSet()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		p := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			s.log.Warnf("error reading %s: %v", p, err)
			continue
		}
		if u := sourceURL(data); u != "" {
			out.Add(u)
		} else {
			s.log.Debugf("no url in %s", p)
		}
	}
	return out, nil
}

func sourceURL(data []byte) string {
	if fm, err := convert.ParseFrontMatter(data); err == nil && fm.URL != "" {
		return fm.URL
	}
	if m := urlLine.FindSubmatch(data); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

// Save writes doc and returns the file path. An existing file of the same
// name is replaced.
func (s *Store) Save(doc models.Document) (string, error) {
	data, err := convert.Render(doc)
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, Filename(doc))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}

// Filename names a document after the last path segment of its URL, or
// after its title when the URL ends in an empty or "index" segment.
func Filename(doc models.Document) string {
	slug := ""
	if u, err := url.Parse(doc.URL); err == nil {
		slug = path.Base(strings.TrimRight(u.Path, "/"))
	}
	if slug == "" || slug == "." || slug == "/" || slug == "index" {
		slug = SanitizeFilename(doc.Title)
	} else {
		slug = SanitizeFilename(slug)
	}
	if slug == "" {
		slug = "article"
	}
	return slug + ".md"
}

// SanitizeFilename drops characters that are illegal in file names on common
// platforms, replaces spaces with underscores and caps the length.
func SanitizeFilename(name string) string {
	name = illegalChars.Replace(strings.TrimSpace(name))
	if len(name) <= maxFilenameBytes {
		return name
	}
	name = name[:maxFilenameBytes]
	for !utf8.ValidString(name) {
		name = name[:len(name)-1]
	}
	return name
}
