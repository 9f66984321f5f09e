package view

import (
	"sort"

	"reshub/internal/domain/content"
)

// Featured returns the flagged items ordered by priority, highest first, then
// newest first. Ties keep catalog order.
func Featured(items []content.CatalogItem) []content.CatalogItem {
	var out []content.CatalogItem
	for _, it := range items {
		if it.IsFeatured {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FeaturedPriority != out[j].FeaturedPriority {
			return out[i].FeaturedPriority > out[j].FeaturedPriority
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}
