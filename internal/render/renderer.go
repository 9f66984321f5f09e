package render

import (
	"context"
	"io"

	"reshub/internal/seo"
)

// Renderer paints one view into a sink. A nil sink means the target region
// does not exist on the page, and rendering is silently skipped.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// GridRenderer paints the resources listing. With Fragment set it writes only
// the cards and the load-more control, for appending to a page on screen.
type GridRenderer struct {
	Engine   *Engine
	Page     GridPage
	Fragment bool
}

func (r GridRenderer) Render(ctx context.Context, w io.Writer) error {
	if w == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Fragment {
		out, err := r.Engine.exec("cards", r.Page)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	return r.Engine.page(w, "resources", r.Page, func(d *seo.Document) {
		seo.Inject(d, seo.ListingMeta(r.Engine.seo, r.Engine.site.Description))
	})
}

// SidebarRenderer paints the related or series list on its own.
type SidebarRenderer struct {
	Engine *Engine
	Page   SidebarPage
}

func (r SidebarRenderer) Render(ctx context.Context, w io.Writer) error {
	if w == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := r.Engine.exec("sidebar", r.Page)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// ArticleRenderer paints a full article page, including the sidebar, and
// writes the article's metadata into the head.
type ArticleRenderer struct {
	Engine *Engine
	Page   ArticlePage
}

func (r ArticleRenderer) Render(ctx context.Context, w io.Writer) error {
	if w == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Engine.page(w, "article", r.Page, func(d *seo.Document) {
		seo.InjectArticle(d, r.Engine.seo, r.Page.Item)
	})
}

// NotFoundRenderer paints the article error state. The robots directive
// follows the failure cause.
type NotFoundRenderer struct {
	Engine *Engine
	Page   NotFoundPage
}

func (r NotFoundRenderer) Render(ctx context.Context, w io.Writer) error {
	if w == nil {
		return nil
	}
	return r.Engine.page(w, "notfound", r.Page, func(d *seo.Document) {
		seo.InjectNotFound(d, r.Engine.seo, r.Page.Cause)
	})
}
