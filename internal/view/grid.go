// Package view holds the read-only view state derived from a catalog load:
// the filterable resource grid, the featured ordering and the carousel.
package view

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"reshub/internal/domain/content"
)

const PageSize = 9

// ViewState is the user-controlled part of the grid. Page is 1-based.
type ViewState struct {
	Filter string
	Search string
	Page   int
}

// Grid is one page view's resources listing. Items are never modified; every
// accessor returns a projection of the date-ordered catalog.
type Grid struct {
	items    []content.CatalogItem
	featured []content.CatalogItem
	state    ViewState
	pageSize int

	filtered []content.CatalogItem
}

// NewGrid orders items newest first and applies state. The filter is matched
// against the known categories the same way a query parameter is.
func NewGrid(items []content.CatalogItem, state ViewState) *Grid {
	sorted := make([]content.CatalogItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	g := &Grid{
		items:    sorted,
		featured: Featured(sorted),
		pageSize: PageSize,
	}
	g.state = ViewState{
		Filter: ParseFilter(state.Filter),
		Search: searchTerm(state.Search),
		Page:   max(state.Page, 1),
	}
	g.refilter()
	g.state.Page = min(g.state.Page, g.pages())
	return g
}

// ParseFilter maps a raw query value onto a category name, or FilterAll when
// it names none.
func ParseFilter(raw string) string {
	if c, ok := content.LookupCategory(raw); ok {
		return string(c)
	}
	return content.FilterAll
}

func searchTerm(s string) string {
	return content.LowerSearch(strings.TrimSpace(s))
}

func (g *Grid) State() ViewState { return g.state }

func (g *Grid) SetFilter(filter string) {
	g.state.Filter = ParseFilter(filter)
	g.state.Page = 1
	g.refilter()
}

func (g *Grid) SetSearch(term string) {
	g.state.Search = searchTerm(term)
	g.state.Page = 1
	g.refilter()
}

// ShowFeatured reports whether the featured region is expanded. It collapses
// as soon as a category or search term narrows the listing.
func (g *Grid) ShowFeatured() bool {
	return len(g.featured) > 0 && g.state.Filter == content.FilterAll && g.state.Search == ""
}

// Featured returns the featured items in display order.
func (g *Grid) Featured() []content.CatalogItem { return g.featured }

// Lead is the featured item shown first, if any.
func (g *Grid) Lead() (content.CatalogItem, bool) {
	if len(g.featured) == 0 {
		return content.CatalogItem{}, false
	}
	return g.featured[0], true
}

// refilter recomputes Filtered. While the featured region is expanded the
// items it rotates through are left out of the grid.
func (g *Grid) refilter() {
	inCarousel := make(map[string]bool)
	if g.ShowFeatured() {
		for _, it := range g.featured {
			inCarousel[it.Slug] = true
		}
	}
	filtered := make([]content.CatalogItem, 0, len(g.items))
	for _, it := range g.items {
		if inCarousel[it.Slug] {
			continue
		}
		if it.Matches(g.state.Filter, g.state.Search) {
			filtered = append(filtered, it)
		}
	}
	g.filtered = filtered
}

// Filtered is every item that satisfies the current filter and search.
func (g *Grid) Filtered() []content.CatalogItem { return g.filtered }

// Visible is the revealed prefix of Filtered.
func (g *Grid) Visible() []content.CatalogItem {
	return g.filtered[:g.limit(g.state.Page)]
}

func (g *Grid) HasMore() bool {
	return g.state.Page < g.pages()
}

// pages is the number of pages Filtered spans, at least 1.
func (g *Grid) pages() int {
	return max((len(g.filtered)+g.pageSize-1)/g.pageSize, 1)
}

// LoadMore reveals the next page and returns only the newly visible items.
// Items already on screen stay where they are.
func (g *Grid) LoadMore() []content.CatalogItem {
	if !g.HasMore() {
		return nil
	}
	from := g.limit(g.state.Page)
	g.state.Page++
	return g.filtered[from:g.limit(g.state.Page)]
}

// Empty reports a listing with nothing to show for the current state.
func (g *Grid) Empty() bool { return len(g.filtered) == 0 }

// limit is the length of the prefix pages 1..page reveal. page is compared
// before multiplying so an outsized page cannot overflow.
func (g *Grid) limit(page int) int {
	if page >= g.pages() {
		return len(g.filtered)
	}
	return max(page, 0) * g.pageSize
}

// Query encodes the state the way the listing page reads it back.
func (s ViewState) Query() string {
	v := url.Values{}
	if s.Filter != "" && s.Filter != content.FilterAll {
		v.Set("category", s.Filter)
	}
	if s.Search != "" {
		v.Set("q", s.Search)
	}
	if s.Page > 1 {
		v.Set("page", strconv.Itoa(s.Page))
	}
	return v.Encode()
}
