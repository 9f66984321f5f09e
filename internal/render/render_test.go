package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reshub/internal/domain/config"
	"reshub/internal/domain/content"
	domainerr "reshub/internal/domain/errors"
	"reshub/internal/ingest"
	"reshub/internal/rank"
	"reshub/internal/seo"
	"reshub/internal/view"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(config.Default().Site, "")
	require.NoError(t, err)
	return e
}

func article() content.CatalogItem {
	return content.CatalogItem{
		Slug:        "dynamic-pricing",
		Title:       "Dynamic Pricing for Garages",
		Description: "How operators raise yield with demand pricing.",
		Excerpt:     "Demand pricing in practice.",
		Category:    content.CategoryGuides,
		Tags:        []string{"pricing", "garages"},
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Author:      "Monetize Parking",
		ReadTime:    "6 min read",
		Image:       "/images/pricing.jpg",
		Thumbnail:   "/images/pricing-thumb.jpg",
		ImageAlt:    "Garage entrance",
		Type:        content.ItemInternal,
	}
}

func TestEnhanceInlineCTAPlacement(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		after  string
		before string
	}{
		{
			name:   "third heading",
			body:   `<h2>A</h2><p>1</p><h2>B</h2><p>2</p><h3>C</h3><p>3</p><h2>D</h2>`,
			after:  "<p>2</p>",
			before: "<h3>C</h3>",
		},
		{
			name:   "last heading when fewer than three",
			body:   `<p>intro</p><h2>A</h2><p>1</p><h2>B</h2><p>2</p>`,
			after:  "<p>1</p>",
			before: "<h2>B</h2>",
		},
		{
			name:   "first child without headings",
			body:   `<p>only</p><p>text</p>`,
			after:  "",
			before: "<p>only</p>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Enhance([]byte(tc.body), "Title")
			require.NoError(t, err)
			s := string(out)
			require.Equal(t, 1, strings.Count(s, `class="cta-inline"`))
			cta := strings.Index(s, `class="cta-inline"`)
			assert.Less(t, cta, strings.Index(s, tc.before))
			if tc.after != "" {
				assert.Greater(t, cta, strings.Index(s, tc.after))
			}
			assert.Contains(t, s, `data-cta="inline"`)
		})
	}
}

func TestEnhanceIdempotent(t *testing.T) {
	once, err := Enhance([]byte(`<h2>A</h2><img src="/images/a.png"><h2>B</h2>`), "Lot Pricing")
	require.NoError(t, err)
	twice, err := Enhance(once, "Lot Pricing")
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))
	assert.Equal(t, 1, strings.Count(string(twice), "cta-inline"))
}

func TestEnhanceImages(t *testing.T) {
	out, err := Enhance([]byte(`<p><img src="/a.png"><img src="/b.png" alt="Kept"><img src="/c.png" alt="  "></p>`), "Lot Pricing")
	require.NoError(t, err)
	s := string(out)
	assert.Equal(t, 3, strings.Count(s, `loading="lazy"`))
	assert.Equal(t, 2, strings.Count(s, `alt="Lot Pricing"`))
	assert.Contains(t, s, `alt="Kept"`)

	out, err = Enhance([]byte(`<img src="/a.png">`), "")
	require.NoError(t, err)
	assert.Contains(t, string(out), `alt="Article image"`)
}

func TestBodyPipelineMarkdownAndSanitize(t *testing.T) {
	p := NewBodyPipeline()
	out, err := p.Process(ingest.Body{
		Format: ingest.BodyMarkdown,
		Source: []byte("## Why price by demand\n\nText with <script>alert(1)</script> inside.\n\n![](/images/lot.jpg)\n"),
	}, "Dynamic Pricing")
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "Why price by demand</h2>")
	assert.NotContains(t, s, "<script>")
	assert.Contains(t, s, `alt="Dynamic Pricing"`)
	assert.Contains(t, s, "cta-inline")

	out, err = p.Process(ingest.Body{
		Format: ingest.BodyHTML,
		Source: []byte(`<h2 onclick="x()">Intro</h2><a href="javascript:alert(1)">bad</a>`),
	}, "T")
	require.NoError(t, err)
	assert.NotContains(t, string(out), "onclick")
	assert.NotContains(t, string(out), "javascript:")
}

func TestMetaLine(t *testing.T) {
	it := article()
	assert.Equal(t, "By Monetize Parking • Published Mar 2024 • 6 min read", MetaLine(it))

	it.LastModified = time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "By Monetize Parking • Updated Aug 2024 • 6 min read", MetaLine(it))

	it.LastModified = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	it.ReadTime = ""
	assert.Equal(t, "By Monetize Parking • Published Mar 2024", MetaLine(it))

	it.Date, it.LastModified = time.Time{}, time.Time{}
	assert.Equal(t, "By Monetize Parking", MetaLine(it))
}

func TestSidebarModes(t *testing.T) {
	related := NewSidebar(rank.Result{Mode: rank.ModeRelated, Items: []content.CatalogItem{article()}})
	assert.Equal(t, SidebarRelated, related.Heading)
	assert.False(t, related.Series)
	require.Len(t, related.Cards, 1)
	assert.Empty(t, related.Message)

	empty := NewSidebar(rank.Result{Mode: rank.ModeRelated})
	assert.Equal(t, SidebarEmpty, empty.Message)

	def := &content.SeriesDefinition{
		ID:       "playbook",
		Title:    "Revenue Playbook",
		MainSlug: "overview",
		Parts:    []content.SeriesPart{{Slug: "dynamic-pricing", PartNumber: 2}},
	}
	series := NewSidebar(rank.Result{Mode: rank.ModeSeries, Series: def, Items: []content.CatalogItem{
		{Slug: "overview", Title: "Overview", Category: content.CategoryGuides},
		article(),
	}})
	assert.Equal(t, "In This Series: Revenue Playbook", series.Heading)
	assert.True(t, series.Series)
	assert.Equal(t, "Start Here", series.Cards[0].Part)
	assert.Equal(t, "Part 2", series.Cards[1].Part)

	assert.Equal(t, SidebarFailed, FailedSidebar().Message)
}

func TestSidebarSeriesCapped(t *testing.T) {
	def := content.SeriesDefinition{ID: "long", Title: "Long Series", MainSlug: "m", MainTitle: "Main"}
	catalog := []content.CatalogItem{{Slug: "m", Title: "Main", Type: content.ItemInternal}}
	for i, slug := range []string{"b", "c", "d", "e", "f", "g", "h"} {
		def.Parts = append(def.Parts, content.SeriesPart{Slug: slug, PartNumber: i + 1})
		catalog = append(catalog, content.CatalogItem{Slug: slug, Title: "Part " + slug, Type: content.ItemInternal})
	}
	reg, err := content.NewSeriesRegistry([]content.SeriesDefinition{def})
	require.NoError(t, err)

	res := rank.New(reg, rank.Options{}).Rank(catalog[1], catalog, "")
	require.Equal(t, rank.ModeSeries, res.Mode)
	require.Len(t, res.Items, 7)

	p := NewSidebar(res)
	require.Len(t, p.Cards, rank.MaxResults)
	var parts []string
	for _, c := range p.Cards {
		parts = append(parts, c.Part)
	}
	assert.Equal(t, []string{"Start Here", "Part 2", "Part 3", "Part 4", "Part 5"}, parts)
}

func TestRendererNilWriterIsNoop(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	renderers := []Renderer{
		GridRenderer{Engine: e},
		SidebarRenderer{Engine: e},
		ArticleRenderer{Engine: e},
		NotFoundRenderer{Engine: e},
	}
	for _, r := range renderers {
		assert.NoError(t, r.Render(ctx, nil), fmt.Sprintf("%T", r))
	}
}

func catalog(n int) []content.CatalogItem {
	items := make([]content.CatalogItem, 0, n)
	for i := 0; i < n; i++ {
		it := article()
		it.Slug = fmt.Sprintf("item-%02d", i)
		it.Title = fmt.Sprintf("Item %d", i)
		it.Date = it.Date.AddDate(0, 0, i)
		it.SearchBlob = strings.ToLower(it.Title)
		items = append(items, it)
	}
	return items
}

func TestGridRenderer(t *testing.T) {
	e := newEngine(t)
	items := catalog(12)
	items[0].IsFeatured = true
	items[10].Type = content.ItemExternal
	items[10].CTAURL = "https://news.example.com/story"
	items[10].CTAText = "Read on Parking Today"
	items[9].Thumbnail = content.Placeholder(content.CategoryCaseStudies)

	g := view.NewGrid(items, view.ViewState{})
	var buf bytes.Buffer
	require.NoError(t, GridRenderer{Engine: e, Page: NewGridPage(e.Site(), g, 6*time.Second)}.Render(context.Background(), &buf))
	s := buf.String()

	assert.Equal(t, view.PageSize, strings.Count(s, `class="res-card"`))
	assert.Equal(t, 1, strings.Count(s, `class="res-card is-featured"`))
	assert.Contains(t, s, `href="https://news.example.com/story" target="_blank"`)
	assert.Contains(t, s, "Read on Parking Today")
	assert.Contains(t, s, `data-more-url="/resources/more?page=2"`)
	assert.Contains(t, s, `src="data:image/svg+xml`)
	assert.NotContains(t, s, "ZgotmplZ")

	doc, err := seo.ParseString(s)
	require.NoError(t, err)
	assert.Equal(t, "Resources | Monetize Parking", doc.Title())
	assert.Equal(t, []string{"https://monetize-parking.com/resources/"}, doc.Canonicals())
}

func TestGridRendererFragmentAndEmpty(t *testing.T) {
	e := newEngine(t)
	g := view.NewGrid(catalog(12), view.ViewState{})
	page := NewGridPage(e.Site(), g, 0)
	more := g.LoadMore()

	var buf bytes.Buffer
	require.NoError(t, GridRenderer{Engine: e, Page: page.Page(more, g), Fragment: true}.Render(context.Background(), &buf))
	s := buf.String()
	assert.Equal(t, 3, strings.Count(s, `class="res-card"`))
	assert.NotContains(t, s, "<html")
	assert.NotContains(t, s, "data-more-url")

	g = view.NewGrid(catalog(3), view.ViewState{Search: "nothing matches"})
	buf.Reset()
	require.NoError(t, GridRenderer{Engine: e, Page: NewGridPage(e.Site(), g, 0), Fragment: true}.Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No resources found. Adjust your filters or try a new search term.")

	buf.Reset()
	require.NoError(t, GridRenderer{Engine: e, Page: GridPage{Site: e.Site(), Failed: true}}.Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "We couldn’t load resources right now.")
}

func TestArticleRenderer(t *testing.T) {
	e := newEngine(t)
	it := article()
	body, err := NewBodyPipeline().Process(ingest.Body{Format: ingest.BodyHTML, Source: []byte(`<h2>One</h2><p>a</p><h2>Two</h2><p>b</p><h2>Three</h2>`)}, it.Title)
	require.NoError(t, err)

	page := NewArticlePage(e.Site(), it, body, NewSidebar(rank.Result{Mode: rank.ModeRelated}))
	page.TrackCTA = true

	var buf bytes.Buffer
	require.NoError(t, ArticleRenderer{Engine: e, Page: page}.Render(context.Background(), &buf))
	s := buf.String()

	assert.Contains(t, s, "By Monetize Parking • Published Mar 2024 • 6 min read")
	assert.Contains(t, s, SidebarEmpty)
	assert.Equal(t, 1, strings.Count(s, "cta-inline"))
	assert.Equal(t, 1, strings.Count(s, "__reshubCtaTracking = true"))
	assert.Contains(t, s, `href="/resources/?category=Guides"`)

	doc, err := seo.ParseString(s)
	require.NoError(t, err)
	assert.Equal(t, "Dynamic Pricing for Garages | Monetize Parking", doc.Title())
	assert.Equal(t, []string{"https://monetize-parking.com/articles/dynamic-pricing/"}, doc.Canonicals())
	assert.Equal(t, []string{"pricing", "garages"}, doc.MetaContents("property", "article:tag"))
	assert.Equal(t, []string{seo.RobotsIndex}, doc.MetaContents("name", "robots"))
	assert.Len(t, doc.StructuredData(seo.ArticleKind), 1)
}

func TestNotFoundRenderer(t *testing.T) {
	e := newEngine(t)
	var buf bytes.Buffer
	page := NotFoundPage{Site: e.Site(), Message: NotFoundMessage, Cause: &domainerr.NotFoundError{Slug: "gone"}}
	require.NoError(t, NotFoundRenderer{Engine: e, Page: page}.Render(context.Background(), &buf))

	doc, err := seo.ParseString(buf.String())
	require.NoError(t, err)
	assert.Equal(t, "Article Not Found | Monetize Parking", doc.Title())
	assert.Equal(t, []string{seo.RobotsNoIndex}, doc.MetaContents("name", "robots"))
	assert.Contains(t, buf.String(), NotFoundMessage)

	buf.Reset()
	page = NotFoundPage{Site: e.Site(), Message: UnavailableMessage, Cause: &domainerr.LoadError{URI: "x"}}
	require.NoError(t, NotFoundRenderer{Engine: e, Page: page}.Render(context.Background(), &buf))
	doc, err = seo.ParseString(buf.String())
	require.NoError(t, err)
	assert.Equal(t, []string{seo.RobotsIndex}, doc.MetaContents("name", "robots"))
}

func TestThemeOverride(t *testing.T) {
	dir := t.TempDir()
	tplDir := filepath.Join(dir, "plain", "templates")
	require.NoError(t, os.MkdirAll(tplDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tplDir, "sidebar.tmpl"),
		[]byte(`{{define "sidebar"}}<ul class="plain">{{range .Cards}}<li>{{.Item.Title}}</li>{{end}}</ul>{{end}}`), 0o644))

	site := config.Default().Site
	site.Theme = "plain"
	e, err := NewEngine(site, dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	side := NewSidebar(rank.Result{Items: []content.CatalogItem{article()}})
	require.NoError(t, SidebarRenderer{Engine: e, Page: side}.Render(context.Background(), &buf))
	assert.Equal(t, `<ul class="plain"><li>Dynamic Pricing for Garages</li></ul>`, buf.String())

	missing, err := CheckThemeTemplates(tplDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"resources", "cards", "article", "notfound"}, missing)
}
