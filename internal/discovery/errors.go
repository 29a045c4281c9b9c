package discovery

import (
	"errors"
	"fmt"

	"sitescribe/internal/crawler"
)

// ErrDepthExceeded marks a sitemap index nested deeper than the configured
// limit. Its children are not fetched.
var ErrDepthExceeded = errors.New("sitemap index nesting exceeds depth limit")

// FetchError is a network failure or non-2xx response. It is always
// recovered by the caller that issued the fetch.
type FetchError struct {
	URL string
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status for status failures, 0 otherwise.
func (e *FetchError) StatusCode() int {
	var se *crawler.StatusError
	if errors.As(e.Err, &se) {
		return se.StatusCode
	}
	return 0
}

// ParseError is malformed XML or an HTML body that yields no document.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
