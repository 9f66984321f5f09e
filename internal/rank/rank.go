// Package rank selects the related content shown next to an article.
//
// Authored series take absolute precedence. Otherwise candidates are ordered
// by shared tag count, then category match, then recency, with catalog order
// breaking any remaining ties.
package rank

import (
	"sort"

	"reshub/internal/domain/content"
)

const (
	MinResults = 3
	MaxResults = 5
)

type Mode string

const (
	ModeRelated Mode = "related"
	ModeSeries  Mode = "series"
)

type Result struct {
	Mode   Mode
	Series *content.SeriesDefinition
	Items  []content.CatalogItem
}

func (r Result) Empty() bool { return len(r.Items) == 0 }

type Options struct {
	Min int
	Max int
}

type Ranker struct {
	Series *content.SeriesRegistry
	opt    Options
}

func New(series *content.SeriesRegistry, opt Options) *Ranker {
	if opt.Max <= 0 {
		opt.Max = MaxResults
	}
	if opt.Min <= 0 {
		opt.Min = MinResults
	}
	if opt.Min > opt.Max {
		opt.Min = opt.Max
	}
	return &Ranker{Series: series, opt: opt}
}

type candidate struct {
	item       content.CatalogItem
	sharedTags int
	sameCat    bool
}

// Rank orders catalog relative to current. excludeSlug is dropped in addition
// to current itself.
func (r *Ranker) Rank(current content.CatalogItem, catalog []content.CatalogItem, excludeSlug string) Result {
	if def, ok := r.Series.Lookup(current.Slug); ok {
		return Result{
			Mode:   ModeSeries,
			Series: def,
			Items:  seriesItems(def, current.Slug, excludeSlug, catalog),
		}
	}

	cands := make([]candidate, 0, len(catalog))
	for _, it := range catalog {
		if it.Slug == current.Slug || (excludeSlug != "" && it.Slug == excludeSlug) {
			continue
		}
		cands = append(cands, candidate{
			item:       it,
			sharedTags: sharedTagCount(current.Tags, it.Tags),
			sameCat:    it.Category == current.Category,
		})
	}
	if len(cands) == 0 {
		return Result{Mode: ModeRelated}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.sharedTags != b.sharedTags {
			return a.sharedTags > b.sharedTags
		}
		if a.sameCat != b.sameCat {
			return a.sameCat
		}
		return a.item.Timestamp().After(b.item.Timestamp())
	})

	return Result{Mode: ModeRelated, Items: r.selectItems(cands)}
}

// selectItems takes tag and category matches first, then backfills from the
// remaining ranked candidates until the minimum is reached.
func (r *Ranker) selectItems(sorted []candidate) []content.CatalogItem {
	out := make([]content.CatalogItem, 0, r.opt.Max)
	taken := make([]bool, len(sorted))

	for i, c := range sorted {
		if len(out) >= r.opt.Max {
			break
		}
		if c.sharedTags > 0 || c.sameCat {
			out = append(out, c.item)
			taken[i] = true
		}
	}
	for i, c := range sorted {
		if len(out) >= r.opt.Min {
			break
		}
		if !taken[i] {
			out = append(out, c.item)
		}
	}
	return out
}

func sharedTagCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	n := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}

func seriesItems(def *content.SeriesDefinition, currentSlug, excludeSlug string, catalog []content.CatalogItem) []content.CatalogItem {
	bySlug := make(map[string]content.CatalogItem, len(catalog))
	for _, it := range catalog {
		bySlug[it.Slug] = it
	}

	var out []content.CatalogItem
	for _, p := range def.Ordered() {
		if p.Slug == currentSlug || (excludeSlug != "" && p.Slug == excludeSlug) {
			continue
		}
		if it, ok := bySlug[p.Slug]; ok {
			out = append(out, it)
			continue
		}
		out = append(out, stubItem(p))
	}
	return out
}

// stubItem stands in for a series part the catalog does not carry yet.
func stubItem(p content.SeriesPart) content.CatalogItem {
	title := p.Title
	if title == "" {
		title = p.Slug
	}
	return content.CatalogItem{
		Slug:      p.Slug,
		Title:     title,
		Category:  content.CategoryArticles,
		Type:      content.ItemInternal,
		Image:     content.Placeholder(content.CategoryArticles),
		Thumbnail: content.Placeholder(content.CategoryArticles),
		ImageAlt:  title,
	}
}
