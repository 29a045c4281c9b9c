
package ioformats

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadURLs_CSV(t *testing.T) {
	p := writeFile(t, "links.csv", "id,URL\n1,https://example.com/a/\n2, https://example.com/b/ \n3,\n4,https://example.com/a/\n")
	urls, err := ReadURLs(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a/", "https://example.com/b/"}, urls)

	_, err = ReadURLs(writeFile(t, "nourl.csv", "id,link\n1,x\n"))
	assert.Error(t, err)

	_, err = ReadURLs(writeFile(t, "empty.csv", ""))
	assert.Error(t, err)
}

func TestReadURLs_NDJSON(t *testing.T) {
	p := writeFile(t, "links.ndjson", `{"url":"https://example.com/a/"}`+"\n\nhttps://example.com/b/\n"+`{"other":1}`+"\n")
	urls, err := ReadURLs(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a/", "https://example.com/b/", `{"other":1}`}, urls)

	_, err = ReadURLs(writeFile(t, "blank.jsonl", "\n\n"))
	assert.Error(t, err)
}

func TestReadURLs_UnknownExtension(t *testing.T) {
	urls, err := ReadURLs(writeFile(t, "links.txt", "https://example.com/a/\nhttps://example.com/b/\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a/", "https://example.com/b/"}, urls)

	_, err = ReadURLs(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestWriteLinks_RoundTrip(t *testing.T) {
	links := []string{"https://example.com/a/", "https://example.com/b,c/"}
	for _, name := range []string{"out.csv", "out.ndjson"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteLinks(p, links))
			got, err := ReadURLs(p)
			require.NoError(t, err)
			assert.Equal(t, links, got)
		})
	}
}

func TestWriteFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []string{"https://example.com/a/"}))
	assert.Equal(t, "url\nhttps://example.com/a/\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteNDJSON(&buf, []string{"https://example.com/a/"}))
	assert.Equal(t, "{\"url\":\"https://example.com/a/\"}\n", buf.String())

	assert.Equal(t, NDJSON, FormatFor("x.JSONL"))
	assert.Equal(t, CSV, FormatFor("x.csv"))
	assert.Equal(t, CSV, FormatFor("x"))
}

func TestWriteLinks_BadPath(t *testing.T) {
	err := WriteLinks(filepath.Join(t.TempDir(), "no", "such", "dir.csv"), nil)
	assert.Error(t, err)
}
