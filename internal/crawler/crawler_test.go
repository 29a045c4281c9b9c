
package crawler

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHTML(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><title>x</title></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	resp, err := client.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "text/html", resp.ContentType)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.FinalURL)
	assert.Contains(t, string(resp.Body), "<title>x</title>")
}

func TestFetchAcceptsXML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte("<urlset/>"))
	}))
	defer ts.Close()

	resp, err := NewHTTPClient(5*time.Second, 2*time.Second, 1024).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "<urlset/>", string(resp.Body))
}

func TestFetchStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := NewHTTPClient(5*time.Second, 2*time.Second, 1024).Fetch(context.Background(), ts.URL)
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestFetchGzipAndSizeCap(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write(bytes.Repeat([]byte("a"), 100))
	require.NoError(t, gz.Close())

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write(buf.Bytes())
	}))
	defer ts.Close()

	resp, err := NewHTTPClient(5*time.Second, 2*time.Second, 10).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "aaaaaaaaaa", string(resp.Body))
}

func TestFetchInvalidURL(t *testing.T) {
	_, err := NewHTTPClient(time.Second, time.Second, 10).Fetch(context.Background(), "not a url")
	assert.Error(t, err)
}
