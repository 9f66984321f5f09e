// Package site names the files a static build lays out.
package site

import (
	"strconv"
	"strings"
)

type RouteKind string

const (
	RouteListing  RouteKind = "listing"
	RouteFragment RouteKind = "fragment"
	RouteArticle  RouteKind = "article"
	RouteNotFound RouteKind = "404"
	RouteSitemap  RouteKind = "sitemap"
	RouteRobots   RouteKind = "robots"
	RouteCatalog  RouteKind = "catalog"
)

// Route is one output of a static build. Filter and Page place listing and
// fragment routes in the grid; Slug names an article.
type Route struct {
	Kind    RouteKind
	Slug    string
	Filter  string
	Page    int
	OutPath string
}

// URLPath is where a static host serves OutPath: directory indexes lose
// their index.html.
func (r Route) URLPath() string {
	p := "/" + strings.TrimPrefix(r.OutPath, "/")
	if strings.HasSuffix(p, "/index.html") {
		return strings.TrimSuffix(p, "index.html")
	}
	return p
}

func (r Route) String() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))
	if r.Slug != "" {
		b.WriteString(" slug=" + r.Slug)
	}
	if r.Filter != "" {
		b.WriteString(" filter=" + strconv.Quote(r.Filter))
	}
	if r.Page > 0 {
		b.WriteString(" page=" + strconv.Itoa(r.Page))
	}
	if r.OutPath != "" {
		b.WriteString(" out=" + r.OutPath)
	}
	return b.String()
}
