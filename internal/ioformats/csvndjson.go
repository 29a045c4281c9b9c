
// Package ioformats reads and writes link lists as CSV or NDJSON.
package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// LinkRecord is one NDJSON line of a link list.
type LinkRecord struct {
	URL string `json:"url"`
}

// Format of a link list file, chosen by extension.
type Format int

const (
	CSV Format = iota
	NDJSON
)

// FormatFor picks NDJSON for .ndjson and .jsonl files and CSV otherwise.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return NDJSON
	}
	return CSV
}

// ReadURLs reads a link list: a CSV with a "url" header column, or NDJSON
// lines that are {"url": ...} objects or bare URLs. Duplicates are dropped
// and first-seen order kept. Files of unknown type are tried as CSV, then
// NDJSON.
func ReadURLs(path string) ([]string, error) {
	var (
		urls []string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		urls, err = readCSV(path)
	case ".ndjson", ".jsonl":
		urls, err = readNDJSON(path)
	default:
		urls, err = readCSV(path)
		if err != nil || len(urls) == 0 {
			urls, err = readNDJSON(path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read urls from %s: %w", path, err)
	}
	return lo.Uniq(urls), nil
}

func readCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, err
	}
	_, col, ok := lo.FindIndexOf(header, func(h string) bool {
		return strings.EqualFold(strings.TrimSpace(h), "url")
	})
	if !ok {
		return nil, errors.New("csv must contain a 'url' header column")
	}

	var out []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col < len(row) {
			if u := strings.TrimSpace(row[col]); u != "" {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func readNDJSON(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var rec LinkRecord
			if err := json.Unmarshal([]byte(line), &rec); err == nil && rec.URL != "" {
				out = append(out, rec.URL)
				continue
			}
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found in ndjson")
	}
	return out, nil
}

// WriteLinks writes links to path in the format its extension selects.
func WriteLinks(path string, links []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if FormatFor(path) == NDJSON {
		err = WriteNDJSON(f, links)
	} else {
		err = WriteCSV(f, links)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write links to %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes a "url" header followed by one link per row.
func WriteCSV(w io.Writer, links []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"url"}); err != nil {
		return err
	}
	for _, l := range links {
		if err := cw.Write([]string{l}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteNDJSON writes one {"url": ...} object per line.
func WriteNDJSON(w io.Writer, links []string) error {
	enc := json.NewEncoder(w)
	for _, l := range links {
		if err := enc.Encode(LinkRecord{URL: l}); err != nil {
			return err
		}
	}
	return nil
}
