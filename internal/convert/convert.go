
// Package convert turns extracted article HTML into Markdown documents with a
// YAML front matter header.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"gopkg.in/yaml.v3"

	"sitescribe/internal/models"
)

const delimiter = "---"

// ErrNoFrontMatter is returned for documents that do not start with a
// front matter block.
var ErrNoFrontMatter = errors.New("no front matter")

// FrontMatter is the metadata header written above every document.
type FrontMatter struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	Date  string `yaml:"date,omitempty"`
}

type Converter struct{}

func New() *Converter { return &Converter{} }

// Markdown converts an HTML fragment to Markdown.
func (c *Converter) Markdown(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// Document converts an extracted article into a document ready to save.
func (c *Converter) Document(a models.Article) (models.Document, error) {
	md, err := c.Markdown(a.ContentHTML)
	if err != nil {
		return models.Document{}, err
	}
	return models.Document{Title: a.Title, URL: a.URL, Date: a.Date, Markdown: md}, nil
}

// Render serializes doc as front matter, a blank line and the Markdown body.
func Render(doc models.Document) ([]byte, error) {
	fm, err := yaml.Marshal(FrontMatter{Title: doc.Title, URL: doc.URL, Date: doc.Date})
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	buf.Write(fm)
	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(doc.Markdown)
	if !strings.HasSuffix(doc.Markdown, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ParseFrontMatter reads the header of a rendered document.
func ParseFrontMatter(data []byte) (FrontMatter, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return FrontMatter{}, ErrNoFrontMatter
	}
	rest := text[len(delimiter)+1:]
	end := strings.Index(rest, "\n"+delimiter)
	if end < 0 {
		return FrontMatter{}, ErrNoFrontMatter
	}
	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return FrontMatter{}, fmt.Errorf("parse front matter: %w", err)
	}
	return fm, nil
}
