package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reshub/internal/domain/content"
	domainerr "reshub/internal/domain/errors"
)

const sampleCatalog = `[
  {"slug":"a","title":"Pricing Guide","tags":["pricing","guide"],"category":"Guides","date":"2024-01-01","content":"/content/a.html"},
  {"slug":"b","title":"Enforcement","tags":["pricing"],"category":"Articles","date":"2024-06-01"},
  {"slug":"a","title":"Duplicate"},
  {"title":"No slug"}
]`

func newFileFetcher(t *testing.T, files map[string]string) *Fetcher {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	return NewFetcher(FetchOptions{Root: root, Timeout: time.Second, RPS: 100})
}

func TestLoaderFromFile(t *testing.T) {
	f := newFileFetcher(t, map[string]string{"data/resources.json": sampleCatalog})
	l := &Loader{Fetcher: f, URI: "/data/resources.json"}

	cat, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Len(t, cat.Warns, 2)

	a, ok := cat.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Pricing Guide", a.Title)
	assert.Equal(t, content.CategoryGuides, a.Category)

	_, err = cat.Lookup("zzz")
	assert.ErrorIs(t, err, domainerr.ErrNotFound)
}

func TestLoadCatalogErrors(t *testing.T) {
	f := newFileFetcher(t, map[string]string{
		"bad.json":    `{"slug":"a"}`,
		"broken.json": `[{"slug":"a"`,
		"mixed.json":  `[{"slug":"a"}, 3]`,
	})
	ctx := context.Background()

	_, err := LoadCatalog(ctx, f, "missing.json")
	assert.ErrorIs(t, err, domainerr.ErrLoad)

	for _, name := range []string{"bad.json", "broken.json", "mixed.json"} {
		_, err := LoadCatalog(ctx, f, name)
		assert.ErrorIs(t, err, domainerr.ErrParse, name)
	}
}

func TestLoadCatalogHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/data/resources.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(sampleCatalog))
		default:
			http.Error(w, "gone", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetchOptions{Timeout: time.Second, RPS: 100})
	ctx := context.Background()

	raws, err := LoadCatalog(ctx, f, srv.URL+"/data/resources.json")
	require.NoError(t, err)
	assert.Len(t, raws, 4)

	_, err = LoadCatalog(ctx, f, srv.URL+"/data/resources.json")
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load(), "every load goes back to the source")

	_, err = LoadCatalog(ctx, f, srv.URL+"/down.json")
	require.Error(t, err)
	var le *domainerr.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, http.StatusServiceUnavailable, le.Status)
}

func TestLoadBody(t *testing.T) {
	f := newFileFetcher(t, map[string]string{
		"content/a.html": "<h2>Intro</h2><p>Hello</p>",
		"content/b.md":   "---\ntitle: B\n---\n# Heading\n\nBody text\n",
	})
	ctx := context.Background()

	body, err := LoadBody(ctx, f, content.CatalogItem{Slug: "a", ContentRef: "/content/a.html"})
	require.NoError(t, err)
	assert.Equal(t, BodyHTML, body.Format)
	assert.Contains(t, string(body.Source), "<h2>Intro</h2>")

	body, err = LoadBody(ctx, f, content.CatalogItem{Slug: "b", ContentRef: "content/b.md?v=2"})
	require.NoError(t, err)
	assert.Equal(t, BodyMarkdown, body.Format)
	assert.NotContains(t, string(body.Source), "title: B")
	assert.Contains(t, string(body.Source), "# Heading")

	_, err = LoadBody(ctx, f, content.CatalogItem{Slug: "c", ContentRef: "/content/c.html"})
	assert.ErrorIs(t, err, domainerr.ErrBodyLoad)

	_, err = LoadBody(ctx, f, content.CatalogItem{Slug: "d"})
	assert.ErrorIs(t, err, domainerr.ErrBodyLoad)
}

func TestLocalPathStaysUnderRoot(t *testing.T) {
	f := NewFetcher(FetchOptions{Root: "/srv/site"})
	assert.Equal(t, filepath.FromSlash("/srv/site/etc/passwd"), f.localPath("../../etc/passwd"))
	assert.Equal(t, filepath.FromSlash("/srv/site/data/x.json"), f.localPath("/data/x.json"))
}

func TestNewCatalogSkipsPathSlugs(t *testing.T) {
	raws := []content.RawItem{
		{"slug": "../../escaped"},
		{"slug": "nested/slug"},
		{"slug": `back\slash`},
		{"slug": "."},
		{"slug": "pricing-101"},
		{"slug": "v1.2-notes"},
	}
	cat := NewCatalog(raws, content.Normalizer{})

	var slugs []string
	for _, it := range cat.Items() {
		slugs = append(slugs, it.Slug)
	}
	assert.Equal(t, []string{"pricing-101", "v1.2-notes"}, slugs)
	require.Len(t, cat.Warns, 4)
	assert.Equal(t, "../../escaped", cat.Warns[0].Slug)
	_, ok := cat.Get("../../escaped")
	assert.False(t, ok)
}
