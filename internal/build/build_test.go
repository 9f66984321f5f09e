package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reshub/internal/app"
	"reshub/internal/domain/config"
	"reshub/internal/domain/content"
	domainerr "reshub/internal/domain/errors"
	"reshub/internal/domain/site"
	"reshub/internal/index"
	"reshub/internal/seo"
)

const siteCatalog = `[
  {"slug":"dynamic-pricing","title":"Dynamic Pricing","category":"Guides","tags":["pricing"],"date":"2024-03-01","lastmod":"2024-05-10","content":"/content/dynamic-pricing.md","featured":true},
  {"slug":"garage-turnaround","title":"Garage Turnaround","category":"Case Studies","tags":["pricing","garages"],"date":"2024-02-01","content":"/content/garage-turnaround.html"},
  {"slug":"enforcement-basics","title":"Enforcement Basics","category":"Articles","tags":["enforcement"],"date":"2024-01-15","content":"/content/enforcement-basics.html"},
  {"slug":"press","title":"In the News","external":true,"ctaUrl":"https://news.example.com/a","sourceName":"Parking Today","date":"2024-04-01"}
]`

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
}

func newSite(t *testing.T, catalog string) (string, *Builder) {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"data/resources.json":             catalog,
		"content/dynamic-pricing.md":      "---\ntitle: Dynamic Pricing\n---\n## Why\n\nRates follow demand.\n\n![lot](/images/lot.jpg)\n",
		"content/garage-turnaround.html":  "<h2>Before</h2><p>Flat rates.</p><h2>After</h2><p>Demand rates.</p>",
		"content/enforcement-basics.html": "<p>Tickets.</p>",
		"static/css/site.css":             "body{}",
	})

	cfg := config.Default()
	cfg.Catalog.BodyRoot = root
	cfg.Catalog.URI = "data/resources.json"
	cfg.Catalog.SeriesFile = filepath.Join(root, "series.yaml")
	cfg.Build.PublicDir = filepath.Join(root, "public")
	cfg.Build.StaticDir = filepath.Join(root, "static")
	cfg.Build.IndexPath = filepath.Join(root, ".reshub", "manifest.db")
	cfg.Build.Now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	a, err := app.New(cfg, zap.NewNop())
	require.NoError(t, err)
	return root, &Builder{App: a}
}

func TestBuildWritesSite(t *testing.T) {
	root, b := newSite(t, siteCatalog)
	res, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Articles)
	// 4 listings, 3 articles, 404, sitemap, robots, catalog copy.
	assert.Equal(t, 11, res.Written)
	assert.Zero(t, res.Unchanged)

	public := filepath.Join(root, "public")
	for _, p := range []string{
		"resources/index.html",
		"resources/guides/index.html",
		"resources/case-studies/index.html",
		"resources/articles/index.html",
		"articles/dynamic-pricing/index.html",
		"articles/garage-turnaround/index.html",
		"articles/enforcement-basics/index.html",
		"404.html",
		"sitemap.xml",
		"robots.txt",
		"data/resources.json",
		"css/site.css",
	} {
		assert.FileExists(t, filepath.Join(public, filepath.FromSlash(p)))
	}
	assert.NoDirExists(t, filepath.Join(public, "articles", "press"))

	page, err := os.ReadFile(filepath.Join(public, "articles", "dynamic-pricing", "index.html"))
	require.NoError(t, err)
	doc, err := seo.ParseString(string(page))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://monetize-parking.com/articles/dynamic-pricing/"}, doc.Canonicals())
	assert.Contains(t, string(page), `loading="lazy"`)
	assert.Contains(t, string(page), `href="/resources/guides/"`)

	listing, err := os.ReadFile(filepath.Join(public, "resources", "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(listing), "data-stream")
	assert.Contains(t, string(listing), `href="/resources/case-studies/"`)

	notFound, err := os.ReadFile(filepath.Join(public, "404.html"))
	require.NoError(t, err)
	doc, err = seo.ParseString(string(notFound))
	require.NoError(t, err)
	assert.Equal(t, []string{seo.RobotsNoIndex}, doc.MetaContents("name", "robots"))

	raw, err := os.ReadFile(filepath.Join(public, "data", "resources.json"))
	require.NoError(t, err)
	assert.Equal(t, siteCatalog, string(raw))
}

func TestBuildIsIncremental(t *testing.T) {
	root, b := newSite(t, siteCatalog)
	_, err := b.Run(context.Background())
	require.NoError(t, err)

	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Written)
	assert.Equal(t, 11, res.Unchanged)

	// A deleted output is rewritten even though the manifest knows it.
	require.NoError(t, os.Remove(filepath.Join(root, "public", "robots.txt")))
	res, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	assert.FileExists(t, filepath.Join(root, "public", "robots.txt"))

	b.Force = true
	res, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, res.Written)
}

func TestBuildRemovesStaleOutputs(t *testing.T) {
	root, b := newSite(t, siteCatalog)
	_, err := b.Run(context.Background())
	require.NoError(t, err)

	trimmed := `[{"slug":"dynamic-pricing","title":"Dynamic Pricing","category":"Guides","date":"2024-03-01","content":"/content/dynamic-pricing.md"}]`
	writeTree(t, root, map[string]string{"data/resources.json": trimmed})

	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)
	assert.NoFileExists(t, filepath.Join(root, "public", "articles", "garage-turnaround", "index.html"))
	assert.FileExists(t, filepath.Join(root, "public", "articles", "dynamic-pricing", "index.html"))

	st, err := index.Open(index.OpenOptions{Path: b.App.Cfg.Build.IndexPath})
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Get("articles/garage-turnaround/index.html")
	assert.ErrorIs(t, err, index.ErrNotFound)
	info, err := st.LastBuild()
	require.NoError(t, err)
	assert.Equal(t, 1, info.Items)
	assert.Equal(t, 2, info.Removed)
}

func TestBuildFailures(t *testing.T) {
	_, b := newSite(t, `{"not":"an array"}`)
	_, err := b.Run(context.Background())
	assert.ErrorIs(t, err, domainerr.ErrParse)

	_, b = newSite(t, `[{"slug":"orphan","title":"Orphan","content":"/content/missing.html"}]`)
	_, err = b.Run(context.Background())
	assert.ErrorIs(t, err, domainerr.ErrBodyLoad)
	assert.Contains(t, err.Error(), "orphan")
}

func TestBuildKeepsOutputsUnderPublic(t *testing.T) {
	catalog := `[
  {"slug":"../../escaped","title":"Escaped","content":"/content/enforcement-basics.html"},
  {"slug":"enforcement-basics","title":"Enforcement Basics","content":"/content/enforcement-basics.html"}
]`
	root, b := newSite(t, catalog)
	res, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Articles)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "../../escaped", res.Warnings[0].Slug)
	assert.NoDirExists(t, filepath.Join(root, "escaped"))
	assert.FileExists(t, filepath.Join(root, "public", "articles", "enforcement-basics", "index.html"))
}

func TestOutputsRefuseEscapingPaths(t *testing.T) {
	root := t.TempDir()
	public := filepath.Join(root, "public")
	outside := filepath.Join(root, "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	err := writeFile(public, "../outside.txt", []byte("x"))
	assert.Error(t, err)
	err = writeFile(public, "/abs.txt", []byte("x"))
	assert.Error(t, err)

	w := newOutputs(public, map[string]index.Entry{"../outside.txt": {OutPath: "../outside.txt"}}, "", time.Now())
	assert.Error(t, w.put(site.Route{Kind: site.RouteArticle, OutPath: "articles/../../outside.txt"}, []byte("x")))
	n, err := w.prune()
	require.NoError(t, err)
	assert.Zero(t, n)

	kept, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(kept))
}

func TestBuildPaginatesListings(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 12; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"slug":"x` + string(rune('a'+i)) + `","title":"X","category":"Guides","date":"2024-01-01","content":"/content/enforcement-basics.html"}`)
	}
	sb.WriteString("]")

	root, b := newSite(t, sb.String())
	_, err := b.Run(context.Background())
	require.NoError(t, err)

	public := filepath.Join(root, "public")
	assert.FileExists(t, filepath.Join(public, "resources", "page", "2", "index.html"))
	assert.FileExists(t, filepath.Join(public, "resources", "more", "2.html"))
	assert.FileExists(t, filepath.Join(public, "resources", "guides", "more", "2.html"))
	assert.NoFileExists(t, filepath.Join(public, "resources", "articles", "more", "2.html"))

	first, err := os.ReadFile(filepath.Join(public, "resources", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(first), `data-more-url="/resources/more/2.html"`)
	assert.Contains(t, string(first), `href="/resources/page/2/"`)

	frag, err := os.ReadFile(filepath.Join(public, "resources", "more", "2.html"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(frag), `class="res-card"`))
	assert.NotContains(t, string(frag), "<html")
}

func TestSitemap(t *testing.T) {
	s := seo.Site{Brand: "Monetize Parking", Origin: "https://monetize-parking.com"}
	items := []content.CatalogItem{
		{Slug: "a", Type: content.ItemInternal, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), LastModified: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)},
		{Slug: "b", Type: content.ItemInternal, CanonicalOverride: "https://partner.example.com/b?x=1&y=2"},
		{Slug: "c", Type: content.ItemExternal, CTAURL: "https://news.example.com/c"},
	}
	out, err := Sitemap(s, items)
	require.NoError(t, err)
	xml := string(out)

	assert.True(t, strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, xml, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, r := range StaticRoutes {
		assert.Contains(t, xml, "<loc>https://monetize-parking.com"+r+"</loc>")
	}
	assert.Contains(t, xml, "<loc>https://monetize-parking.com/articles/a/</loc>")
	assert.Contains(t, xml, "<lastmod>2024-05-10</lastmod>")
	assert.Contains(t, xml, "<loc>https://partner.example.com/b?x=1&amp;y=2</loc>")
	assert.NotContains(t, xml, "news.example.com")
	assert.Equal(t, len(StaticRoutes)+2, strings.Count(xml, "<url>"))
}

func TestRobots(t *testing.T) {
	got := string(Robots(seo.Site{Origin: "https://monetize-parking.com"}))
	assert.Contains(t, got, "Sitemap: https://monetize-parking.com/sitemap.xml")
}
