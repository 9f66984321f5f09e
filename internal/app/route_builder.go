package app

import (
	"path"
	"strconv"

	"reshub/internal/domain/content"
	"reshub/internal/domain/site"
	"reshub/internal/render"
	"reshub/internal/view"
)

// RouteBuilder lays a catalog out as static files.
type RouteBuilder struct{}

// ArticleRoutes has one route per internal item. External items have no page.
func (rb RouteBuilder) ArticleRoutes(items []content.CatalogItem) []site.Route {
	var routes []site.Route
	for _, it := range items {
		if it.External() {
			continue
		}
		routes = append(routes, site.Route{
			Kind:    site.RouteArticle,
			Slug:    it.Slug,
			OutPath: path.Join("articles", it.Slug, "index.html"),
		})
	}
	return routes
}

// ListingRoutes covers every filter: a full listing for each page and a
// load-more fragment for every page after the first.
func (rb RouteBuilder) ListingRoutes(items []content.CatalogItem) []site.Route {
	filters := []string{content.FilterAll}
	for _, c := range content.Categories {
		filters = append(filters, string(c))
	}

	var routes []site.Route
	for _, f := range filters {
		g := view.NewGrid(items, view.ViewState{Filter: f})
		pages := (len(g.Filtered()) + view.PageSize - 1) / view.PageSize
		if pages < 1 {
			pages = 1
		}
		dir := render.StaticDir(f)
		for p := 1; p <= pages; p++ {
			out := path.Join(dir, "index.html")
			if p > 1 {
				out = path.Join(dir, "page", strconv.Itoa(p), "index.html")
			}
			routes = append(routes, site.Route{Kind: site.RouteListing, Filter: f, Page: p, OutPath: out})
			if p > 1 {
				routes = append(routes, site.Route{
					Kind:    site.RouteFragment,
					Filter:  f,
					Page:    p,
					OutPath: path.Join(dir, "more", strconv.Itoa(p)+".html"),
				})
			}
		}
	}
	return routes
}

// FixedRoutes are written once per build regardless of the catalog.
func (rb RouteBuilder) FixedRoutes() []site.Route {
	return []site.Route{
		{Kind: site.RouteNotFound, OutPath: "404.html"},
		{Kind: site.RouteSitemap, OutPath: "sitemap.xml"},
		{Kind: site.RouteRobots, OutPath: "robots.txt"},
		{Kind: site.RouteCatalog, OutPath: path.Join("data", "resources.json")},
	}
}
