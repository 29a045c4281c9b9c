
package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitescribe/internal/models"
	"sitescribe/pkg/logger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "out"), logger.Discard())
	require.NoError(t, err)
	return s
}

func TestFilename(t *testing.T) {
	tests := []struct {
		url, title, want string
	}{
		{"https://example.com/2024/hello-world/", "Hello", "hello-world.md"},
		{"https://example.com/2024/hello-world", "Hello", "hello-world.md"},
		{"https://example.com/", "My Title: part 2?", "My_Title_part_2.md"},
		{"https://example.com/blog/index", "Index Page", "Index_Page.md"},
		{"https://example.com/", "", "article.md"},
		{"https://example.com/a/b?page=2", "x", "b.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(models.Document{URL: tt.url, Title: tt.title}), tt.url)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "ab_c", SanitizeFilename(` a\/*?:"<>|b c `))

	long := SanitizeFilename(strings.Repeat("x", 150))
	assert.Len(t, long, 100)

	multi := SanitizeFilename(strings.Repeat("x", 99) + "é")
	assert.Equal(t, strings.Repeat("x", 99), multi)
}

func TestSaveAndProcessedURLs(t *testing.T) {
	s := newStore(t)

	p, err := s.Save(models.Document{Title: "First", URL: "https://example.com/2024/first/", Date: "2024-01-02", Markdown: "Body"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "first.md"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "---\ntitle: First\n"))

	_, err = s.Save(models.Document{Title: "Second: the sequel", URL: "https://example.com/", Markdown: "More"})
	require.NoError(t, err)

	// Hand-written header that is not valid YAML.
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "legacy.md"),
		[]byte("---\ntitle: Broken: [yaml\nurl: https://example.com/legacy/\n---\n\ntext"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.md"), []byte("no header here"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "skip.txt"), []byte("url: https://example.com/txt/"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "dir.md"), 0o755))

	got, err := s.ProcessedURLs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/2024/first/",
		"https://example.com/legacy/",
	}, got.Sorted())
}

func TestProcessedURLs_MissingDir(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.RemoveAll(s.Dir()))
	_, err := s.ProcessedURLs()
	assert.Error(t, err)
}

func TestLedger(t *testing.T) {
	l, err := NewLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer l.Close()

	run1, run2 := uuid.New(), uuid.New()
	require.NoError(t, l.Record(run1, "https://example.com/a/", "out/a.md"))
	require.NoError(t, l.Record(run1, "https://example.com/b/", "out/b.md"))
	require.NoError(t, l.Record(run2, "https://example.com/a/", "out/a2.md"))

	urls, err := l.URLs()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a/", "https://example.com/b/"}, urls.Sorted())

	entries, err := l.Run(run1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/b/", entries[0].URL)
	assert.Equal(t, run1, entries[0].RunID)

	entries, err = l.Run(run2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out/a2.md", entries[0].Path)
	assert.False(t, entries[0].SavedAt.IsZero())
}

func TestLedger_Reopen(t *testing.T) {
	p := filepath.Join(t.TempDir(), "ledger.db")
	l, err := NewLedger(p)
	require.NoError(t, err)
	require.NoError(t, l.Record(uuid.New(), "https://example.com/kept/", "kept.md"))
	require.NoError(t, l.Close())

	l, err = NewLedger(p)
	require.NoError(t, err)
	defer l.Close()
	urls, err := l.URLs()
	require.NoError(t, err)
	assert.True(t, urls.Has("https://example.com/kept/"))
}
