package render

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reshub/internal/domain/config"
	"reshub/internal/domain/content"
	"reshub/internal/rank"
	"reshub/internal/view"
)

// Card is one resource tile, in the grid, the featured region or the sidebar.
type Card struct {
	Item     content.CatalogItem
	Href     string
	Label    string
	Category string
	Featured bool
	External bool
	Disabled bool
	Part     string
}

func NewCard(it content.CatalogItem) Card {
	return Card{
		Item:     it,
		Href:     it.URL(),
		Label:    it.CTALabel(),
		Category: it.Category.Label(),
		External: it.External(),
		Disabled: it.Disabled(),
	}
}

func cardsOf(items []content.CatalogItem) []Card {
	out := make([]Card, 0, len(items))
	for _, it := range items {
		out = append(out, NewCard(it))
	}
	return out
}

type FilterLink struct {
	Name   string
	Href   string
	Active bool
}

type GridPage struct {
	Site config.SiteConfig

	Filters []FilterLink
	Filter  string
	Search  string

	ShowFeatured bool
	Featured     []Card
	RotateMillis int64
	QuietMillis  int64
	// Stream is the carousel event endpoint. Without one the page rotates
	// the featured region on its own.
	Stream string

	Cards   []Card
	Empty   bool
	HasMore bool
	MoreURL string
	NextURL string

	// Failed replaces the listing with a retry message.
	Failed bool

	links Links
}

// Links addresses grid states. The dev server encodes state in the query
// string; a static build has one file per filter and page.
type Links interface {
	Listing(st view.ViewState) string
	Fragment(st view.ViewState) string
}

type QueryLinks struct{}

func (QueryLinks) Listing(st view.ViewState) string {
	if q := st.Query(); q != "" {
		return "/resources/?" + q
	}
	return "/resources/"
}

func (QueryLinks) Fragment(st view.ViewState) string {
	return "/resources/more?" + st.Query()
}

// StaticLinks ignores the search term; a static host cannot filter.
type StaticLinks struct{}

// StaticDir is the directory of a filter's listing, relative to the site root.
func StaticDir(filter string) string {
	if c, ok := content.LookupCategory(filter); ok {
		return "resources/" + content.Slugify(string(c)) + "/"
	}
	return "resources/"
}

func (StaticLinks) Listing(st view.ViewState) string {
	p := "/" + StaticDir(st.Filter)
	if st.Page > 1 {
		p += "page/" + strconv.Itoa(st.Page) + "/"
	}
	return p
}

func (StaticLinks) Fragment(st view.ViewState) string {
	return "/" + StaticDir(st.Filter) + "more/" + strconv.Itoa(max(st.Page, 1)) + ".html"
}

// NewGridPage projects the grid's current state. Cards holds the visible
// items; the fragment endpoint passes only the newly revealed page instead.
func NewGridPage(site config.SiteConfig, g *view.Grid, rotate time.Duration) GridPage {
	st := g.State()
	p := GridPage{
		Site:         site,
		Filter:       st.Filter,
		Search:       st.Search,
		ShowFeatured: g.ShowFeatured(),
		Cards:        cardsOf(g.Visible()),
		Empty:        g.Empty(),
		HasMore:      g.HasMore(),
		RotateMillis: rotate.Milliseconds(),
		links:        QueryLinks{},
	}
	for _, c := range cardsOf(g.Featured()) {
		c.Featured = true
		p.Featured = append(p.Featured, c)
	}
	p.setMore(st)
	p.Filters = filterLinks(st, p.links)
	return p
}

// WithLinks re-addresses the page's navigation.
func (p GridPage) WithLinks(l Links, g *view.Grid) GridPage {
	p.links = l
	p.setMore(g.State())
	p.Filters = filterLinks(g.State(), l)
	return p
}

// Page swaps the cards for one page's worth of newly revealed items, for the
// additive load-more fragment.
func (p GridPage) Page(items []content.CatalogItem, g *view.Grid) GridPage {
	p.Cards = cardsOf(items)
	p.HasMore = g.HasMore()
	p.setMore(g.State())
	return p
}

// setMore links the next page twice: as a fragment for the load-more script
// and as a full listing for clients without it.
func (p *GridPage) setMore(st view.ViewState) {
	p.MoreURL, p.NextURL = "", ""
	if !p.HasMore {
		return
	}
	if p.links == nil {
		p.links = QueryLinks{}
	}
	next := st
	next.Page++
	p.MoreURL = p.links.Fragment(next)
	p.NextURL = p.links.Listing(next)
}

func filterLinks(st view.ViewState, l Links) []FilterLink {
	names := []string{content.FilterAll}
	for _, c := range content.Categories {
		names = append(names, string(c))
	}
	out := make([]FilterLink, 0, len(names))
	for _, n := range names {
		href := l.Listing(view.ViewState{Filter: n, Search: st.Search})
		out = append(out, FilterLink{Name: n, Href: href, Active: n == st.Filter})
	}
	return out
}

const (
	SidebarRelated = "Related Resources"
	SidebarEmpty   = "Check back soon for more related resources."
	SidebarFailed  = "We couldn’t load related resources right now."
)

type SidebarPage struct {
	Heading string
	Series  bool
	Cards   []Card
	Message string
}

// NewSidebar turns a ranking into the sidebar model. The series branch of the
// ranker switches the heading and labels every card with its part. At most
// rank.MaxResults cards are painted, in ranked order.
func NewSidebar(res rank.Result) SidebarPage {
	p := SidebarPage{Heading: SidebarRelated}
	if res.Mode == rank.ModeSeries && res.Series != nil {
		p.Series = true
		p.Heading = "In This Series: " + res.Series.Title
	}
	items := res.Items
	if len(items) > rank.MaxResults {
		items = items[:rank.MaxResults]
	}
	for _, it := range items {
		c := NewCard(it)
		if p.Series {
			if part, ok := res.Series.PartOf(it.Slug); ok {
				c.Part = partLabel(part.PartNumber)
			}
		}
		p.Cards = append(p.Cards, c)
	}
	if len(p.Cards) == 0 {
		p.Message = SidebarEmpty
	}
	return p
}

// FailedSidebar is shown when the related content could not be computed.
func FailedSidebar() SidebarPage {
	return SidebarPage{Heading: SidebarRelated, Message: SidebarFailed}
}

func partLabel(n int) string {
	if n <= 0 {
		return "Start Here"
	}
	return "Part " + strconv.Itoa(n)
}

const FooterCopy = "Ready to turn this strategy into new parking revenue? Let’s build the plan together."

type Breadcrumb struct {
	CategoryName string
	CategoryHref string
	Title        string
}

type ArticlePage struct {
	Site     config.SiteConfig
	Item     content.CatalogItem
	MetaLine string
	Body     template.HTML
	Sidebar  SidebarPage
	Crumb    Breadcrumb
	Footer   string
	// TrackCTA includes the click tracking script. It is set for the first
	// render of a page view only.
	TrackCTA bool
}

func NewArticlePage(site config.SiteConfig, it content.CatalogItem, body template.HTML, sidebar SidebarPage) ArticlePage {
	return ArticlePage{
		Site:     site,
		Item:     it,
		MetaLine: MetaLine(it),
		Body:     body,
		Sidebar:  sidebar,
		Crumb: Breadcrumb{
			CategoryName: string(it.Category),
			CategoryHref: "/resources/?category=" + url.QueryEscape(string(it.Category)),
			Title:        it.Title,
		},
		Footer: FooterCopy,
	}
}

const (
	NotFoundMessage    = "We couldn’t find that article."
	UnavailableMessage = "We couldn’t load this article right now. Please try again soon."
	ListingUnavailable = "We couldn’t load resources right now. Please try again soon."
)

type NotFoundPage struct {
	Site    config.SiteConfig
	Path    string
	Message string
	// Cause decides the robots directive of the page.
	Cause error
}

// MetaLine is the byline under an article title.
func MetaLine(it content.CatalogItem) string {
	parts := []string{"By " + it.Author}
	published := monthYear(it.Date)
	updated := monthYear(it.Timestamp())
	switch {
	case updated != "" && updated != published:
		parts = append(parts, "Updated "+updated)
	case published != "":
		parts = append(parts, "Published "+published)
	}
	if rt := strings.TrimSpace(it.ReadTime); rt != "" {
		parts = append(parts, rt)
	}
	return strings.Join(parts, " • ")
}

func monthYear(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2006")
}
