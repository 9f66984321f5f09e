// Package app wires the catalog, ranking and rendering stages into the page
// views shared by the static builder and the dev server.
package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"reshub/internal/analytics"
	"reshub/internal/domain/config"
	"reshub/internal/domain/content"
	domainerr "reshub/internal/domain/errors"
	"reshub/internal/ingest"
	"reshub/internal/rank"
	"reshub/internal/render"
	"reshub/internal/view"
)

type App struct {
	Cfg config.Config
	Log *zap.Logger
	// Report receives page views. Builds leave it nil.
	Report analytics.Reporter

	fetcher *ingest.Fetcher
	loader  *ingest.Loader
	bodies  *render.BodyPipeline
	engine  atomic.Pointer[render.Engine]
	series  atomic.Pointer[content.SeriesRegistry]
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := ingest.NewFetcher(ingest.FetchOptions{
		Root:    cfg.Catalog.BodyRoot,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
	})
	a := &App{
		Cfg:     cfg,
		Log:     log,
		fetcher: f,
		loader: &ingest.Loader{
			Fetcher:    f,
			URI:        cfg.Catalog.URI,
			Normalizer: content.Normalizer{DefaultAuthor: cfg.Site.Brand},
		},
		bodies: render.NewBodyPipeline(),
	}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload re-reads the theme templates and the series file. Page views
// already in flight keep what they started with.
func (a *App) Reload() error {
	if err := a.ReloadTemplates(); err != nil {
		return err
	}
	return a.ReloadSeries()
}

func (a *App) ReloadTemplates() error {
	eng, err := render.NewEngine(a.Cfg.Site, a.Cfg.Build.ThemeDir)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	a.engine.Store(eng)
	return nil
}

func (a *App) Engine() *render.Engine { return a.engine.Load() }

func (a *App) ReloadSeries() error {
	reg, err := content.LoadSeries(a.Cfg.Catalog.SeriesFile)
	if err != nil {
		return fmt.Errorf("load series(%s): %w", a.Cfg.Catalog.SeriesFile, err)
	}
	a.series.Store(reg)
	return nil
}

func (a *App) Series() *content.SeriesRegistry { return a.series.Load() }

func (a *App) ranker() *rank.Ranker {
	return rank.New(a.series.Load(), rank.Options{})
}

// LoadCatalog fetches and normalizes the catalog for one page view.
func (a *App) LoadCatalog(ctx context.Context) (*ingest.Catalog, error) {
	cat, _, err := a.Snapshot(ctx)
	return cat, err
}

// Snapshot is LoadCatalog that also returns the payload as fetched.
func (a *App) Snapshot(ctx context.Context) (*ingest.Catalog, []byte, error) {
	cat, raw, err := a.loader.Snapshot(ctx)
	if err != nil {
		a.Log.Warn("catalog load failed", zap.String("uri", a.loader.URI), zap.Error(err))
		return nil, nil, err
	}
	for _, w := range cat.Warns {
		a.Log.Debug("catalog record skipped", zap.String("slug", w.Slug), zap.String("reason", w.Msg))
	}
	return cat, raw, nil
}

// Listing renders the resources page for st. A catalog that failed to load
// renders the retry state instead.
func (a *App) Listing(ctx context.Context, cat *ingest.Catalog, loadErr error, st view.ViewState, links render.Links, stream string) render.GridRenderer {
	if loadErr != nil {
		return render.GridRenderer{Engine: a.Engine(), Page: render.GridPage{Site: a.Cfg.Site, Failed: true}}
	}
	g := view.NewGrid(cat.Items(), st)
	p := render.NewGridPage(a.Cfg.Site, g, a.Cfg.Featured.Interval).WithLinks(links, g)
	p.QuietMillis = a.Cfg.Featured.QuietPeriod.Milliseconds()
	p.Stream = stream

	a.Report.Emit(ctx, analytics.PageView(a.Engine().SEO().ListingURL()))
	return render.GridRenderer{Engine: a.Engine(), Page: p}
}

// Fragment renders only the cards that page st.Page adds to the page before
// it, with the control that loads the page after.
func (a *App) Fragment(cat *ingest.Catalog, loadErr error, st view.ViewState, links render.Links) render.GridRenderer {
	if loadErr != nil {
		return render.GridRenderer{Engine: a.Engine(), Page: render.GridPage{Site: a.Cfg.Site, Failed: true}, Fragment: true}
	}
	if st.Page <= 1 {
		g := view.NewGrid(cat.Items(), st)
		return render.GridRenderer{Engine: a.Engine(), Page: render.NewGridPage(a.Cfg.Site, g, 0).WithLinks(links, g), Fragment: true}
	}
	prev := st
	prev.Page--
	g := view.NewGrid(cat.Items(), prev)
	p := render.NewGridPage(a.Cfg.Site, g, 0).WithLinks(links, g)
	more := g.LoadMore()
	return render.GridRenderer{Engine: a.Engine(), Page: p.Page(more, g), Fragment: true}
}

// Article resolves slug into a full article page and the HTTP status that
// goes with it: 200, 404 for a slug with no internal article, or 503 when
// the catalog or the body could not be loaded.
func (a *App) Article(ctx context.Context, cat *ingest.Catalog, loadErr error, slug string, links render.Links) (render.Renderer, int) {
	if loadErr != nil {
		return a.NotFound(render.UnavailableMessage, loadErr), 503
	}
	it, err := cat.Lookup(slug)
	if err == nil && it.External() {
		err = &domainerr.NotFoundError{Slug: slug}
	}
	if err != nil {
		return a.NotFound(render.NotFoundMessage, err), 404
	}

	body, err := ingest.LoadBody(ctx, a.fetcher, it)
	if err != nil {
		a.Log.Warn("article body load failed", zap.String("slug", it.Slug), zap.Error(err))
		return a.NotFound(render.UnavailableMessage, err), 503
	}
	html, err := a.bodies.Process(body, it.Title)
	if err != nil {
		a.Log.Warn("article body render failed", zap.String("slug", it.Slug), zap.Error(err))
		return a.NotFound(render.UnavailableMessage, &domainerr.BodyLoadError{Slug: it.Slug, Ref: it.ContentRef, Err: err}), 503
	}

	sidebar := render.NewSidebar(a.ranker().Rank(it, cat.Items(), it.Slug))
	page := render.NewArticlePage(a.Cfg.Site, it, html, sidebar)
	page.Crumb.CategoryHref = links.Listing(view.ViewState{Filter: string(it.Category)})
	page.TrackCTA = true

	a.Report.Emit(ctx, analytics.PageView(a.Engine().SEO().Canonical(it)))
	return render.ArticleRenderer{Engine: a.Engine(), Page: page}, 200
}

// Sidebar renders the related list of slug on its own.
func (a *App) Sidebar(cat *ingest.Catalog, loadErr error, slug string) render.SidebarRenderer {
	if loadErr != nil {
		return render.SidebarRenderer{Engine: a.Engine(), Page: render.FailedSidebar()}
	}
	it, ok := cat.Get(slug)
	if !ok {
		return render.SidebarRenderer{Engine: a.Engine(), Page: render.NewSidebar(rank.Result{Mode: rank.ModeRelated})}
	}
	return render.SidebarRenderer{Engine: a.Engine(), Page: render.NewSidebar(a.ranker().Rank(it, cat.Items(), it.Slug))}
}

func (a *App) NotFound(message string, cause error) render.NotFoundRenderer {
	return render.NotFoundRenderer{Engine: a.Engine(), Page: render.NotFoundPage{
		Site:    a.Cfg.Site,
		Message: message,
		Cause:   cause,
	}}
}
