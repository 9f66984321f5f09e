package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"reshub/internal/app"
	domainbuild "reshub/internal/domain/build"
	domainerr "reshub/internal/domain/errors"
	"reshub/internal/domain/site"
	"reshub/internal/index"
	"reshub/internal/ingest"
	"reshub/internal/render"
	"reshub/internal/view"
)

type Builder struct {
	App *app.App
	// Force rewrites every output whatever the manifest says.
	Force bool
}

type Result struct {
	Articles  int
	Written   int
	Unchanged int
	Removed   int
	Warnings  []ingest.Warning
}

// Run writes the whole site under the public directory. A catalog that
// cannot be loaded aborts the build before anything is written.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	cfg := b.App.Cfg
	log := b.App.Log

	cat, raw, err := b.App.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	st, err := index.Open(index.OpenOptions{Path: cfg.Build.IndexPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer st.Close()

	prev, err := st.Entries()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if b.Force {
		prev = map[string]index.Entry{}
	}

	outDir := cfg.Build.PublicDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir public: %w", err)
	}

	siteYAML, err := yaml.Marshal(cfg.Site)
	if err != nil {
		return nil, fmt.Errorf("hash site config: %w", err)
	}
	w := newOutputs(outDir, prev, domainbuild.HashBytes(siteYAML), cfg.Build.Now)

	rb := app.RouteBuilder{}
	items := cat.Items()

	if err := b.buildListings(ctx, w, cat, rb.ListingRoutes(items)); err != nil {
		return nil, fmt.Errorf("build listings: %w", err)
	}

	articles := rb.ArticleRoutes(items)
	if err := b.buildArticles(ctx, w, cat, articles); err != nil {
		return nil, fmt.Errorf("build articles: %w", err)
	}

	for _, r := range rb.FixedRoutes() {
		data, err := b.fixed(ctx, r, cat, raw)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", r.Kind, err)
		}
		if err := w.put(r, data); err != nil {
			return nil, err
		}
	}

	if err := b.copyStaticAssets(outDir); err != nil {
		return nil, fmt.Errorf("copy static assets: %w", err)
	}

	removed, err := w.prune()
	if err != nil {
		return nil, fmt.Errorf("remove stale outputs: %w", err)
	}

	res := &Result{
		Articles:  len(articles),
		Written:   w.written,
		Unchanged: w.unchanged,
		Removed:   removed,
		Warnings:  cat.Warns,
	}
	if err := st.Commit(w.list(), index.BuildInfo{
		At:        cfg.Build.Now,
		Items:     cat.Len(),
		Written:   res.Written,
		Unchanged: res.Unchanged,
		Removed:   res.Removed,
	}); err != nil {
		return nil, fmt.Errorf("failed to commit manifest: %w", err)
	}

	log.Info("build complete",
		zap.String("public", outDir),
		zap.Int("articles", res.Articles),
		zap.Int("written", res.Written),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("removed", res.Removed),
	)
	return res, nil
}

func (b *Builder) buildListings(ctx context.Context, w *outputs, cat *ingest.Catalog, routes []site.Route) error {
	for _, r := range routes {
		st := view.ViewState{Filter: r.Filter, Page: r.Page}
		var rr render.Renderer
		if r.Kind == site.RouteFragment {
			rr = b.App.Fragment(cat, nil, st, render.StaticLinks{})
		} else {
			rr = b.App.Listing(ctx, cat, nil, st, render.StaticLinks{}, "")
		}
		data, err := renderBytes(ctx, rr)
		if err != nil {
			return fmt.Errorf("render %s: %w", r.URLPath(), err)
		}
		if err := w.put(r, data); err != nil {
			return err
		}
	}
	return nil
}

// buildArticles renders article pages concurrently. Any article whose body
// cannot be loaded fails the build rather than publishing an error page.
func (b *Builder) buildArticles(ctx context.Context, w *outputs, cat *ingest.Catalog, routes []site.Route) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.App.Cfg.Build.Workers, 1))

	for _, r := range routes {
		r := r
		g.Go(func() error {
			rr, status := b.App.Article(gctx, cat, nil, r.Slug, render.StaticLinks{})
			if status != 200 {
				var cause error = fmt.Errorf("status %d", status)
				if nf, ok := rr.(render.NotFoundRenderer); ok && nf.Page.Cause != nil {
					cause = nf.Page.Cause
				}
				return fmt.Errorf("article(%s): %w", r.Slug, cause)
			}
			data, err := renderBytes(gctx, rr)
			if err != nil {
				return fmt.Errorf("render article(%s): %w", r.Slug, err)
			}
			return w.put(r, data)
		})
	}
	return g.Wait()
}

func (b *Builder) fixed(ctx context.Context, r site.Route, cat *ingest.Catalog, raw []byte) ([]byte, error) {
	switch r.Kind {
	case site.RouteNotFound:
		return renderBytes(ctx, b.App.NotFound(render.NotFoundMessage, &domainerr.NotFoundError{}))
	case site.RouteSitemap:
		return Sitemap(b.App.Engine().SEO(), cat.Items())
	case site.RouteRobots:
		return Robots(b.App.Engine().SEO()), nil
	case site.RouteCatalog:
		return raw, nil
	default:
		return nil, errors.New("unknown route kind")
	}
}

func renderBytes(ctx context.Context, r render.Renderer) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// copyStaticAssets mirrors the static directory and the theme's static
// directory into the public directory, theme files last.
func (b *Builder) copyStaticAssets(outDir string) error {
	cfg := b.App.Cfg
	dirs := []string{cfg.Build.StaticDir}
	if cfg.Build.ThemeDir != "" && cfg.Site.Theme != "" {
		dirs = append(dirs, filepath.Join(cfg.Build.ThemeDir, cfg.Site.Theme, "static"))
	}
	for _, src := range dirs {
		if src == "" {
			continue
		}
		if err := copyTree(src, outDir); err != nil {
			return err
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		in, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return writeFile(dst, rel, in)
	})
}

func writeFile(root, rel string, data []byte) error {
	full, err := underRoot(root, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// underRoot joins rel onto root, refusing any rel that would leave it.
func underRoot(root, rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("output path %q escapes %s", rel, root)
	}
	return filepath.Join(root, local), nil
}
