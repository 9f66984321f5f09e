package content

import (
	"net/url"
	"strings"
	"time"
)

type Category string

const (
	CategoryCaseStudies Category = "Case Studies"
	CategoryGuides      Category = "Guides"
	CategoryArticles    Category = "Articles"

	// FilterAll is the grid filter that matches every category.
	FilterAll = "All"
)

// Categories lists the recognized categories in display order.
var Categories = []Category{CategoryCaseStudies, CategoryGuides, CategoryArticles}

type ItemType string

const (
	ItemInternal ItemType = "internal"
	ItemExternal ItemType = "external"
)

// CatalogItem is the canonical, post-normalization form of a catalog record.
// Values are never mutated once Normalize returns them.
type CatalogItem struct {
	Slug     string
	Title    string
	Category Category
	Tags     []string

	Date         time.Time
	LastModified time.Time

	Description string
	Excerpt     string
	Author      string
	ReadTime    string

	Image     string
	ImageAlt  string
	Thumbnail string

	ContentRef string

	Type       ItemType
	SourceName string
	CTAURL     string
	CTAText    string

	IsFeatured       bool
	FeaturedPriority int

	CanonicalOverride string

	SearchBlob string
}

// ArticlePath is the site-relative URL of an internal article.
func ArticlePath(slug string) string {
	return "/articles/" + url.PathEscape(slug) + "/"
}

func (it CatalogItem) External() bool { return it.Type == ItemExternal }

// URL is where a card for this item links to. External items without a usable
// absolute CTA resolve to "#".
func (it CatalogItem) URL() string {
	if !it.External() {
		return ArticlePath(it.Slug)
	}
	if isHTTPURL(it.CTAURL) {
		return it.CTAURL
	}
	return "#"
}

// Disabled reports an external item whose link could not be derived.
func (it CatalogItem) Disabled() bool {
	return it.External() && !isHTTPURL(it.CTAURL)
}

// Timestamp is the recency key used for ranking.
func (it CatalogItem) Timestamp() time.Time {
	if !it.LastModified.IsZero() {
		return it.LastModified
	}
	return it.Date
}

func (it CatalogItem) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Matches reports whether the item satisfies the grid filter and search term.
// The search term is expected to be lower-cased already.
func (it CatalogItem) Matches(filter, search string) bool {
	if filter != "" && filter != FilterAll && string(it.Category) != filter {
		return false
	}
	if search != "" && !strings.Contains(it.SearchBlob, search) {
		return false
	}
	return true
}

// CTALabel is the call-to-action copy for a card.
func (it CatalogItem) CTALabel() string {
	if it.External() {
		return it.CTAText
	}
	switch it.Category {
	case CategoryCaseStudies:
		return "Read Case Study"
	case CategoryGuides:
		return "Read Guide"
	default:
		return "Read Article"
	}
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
