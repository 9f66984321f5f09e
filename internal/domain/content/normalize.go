package content

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// RawItem is one record of the catalog payload before normalization. Field
// types are not trusted: any key may be missing or hold an unexpected value.
type RawItem map[string]any

// Normalizer turns raw records into CatalogItems. The zero value is usable.
type Normalizer struct {
	DefaultAuthor string
}

// Normalize uses the package defaults.
func Normalize(raw RawItem) CatalogItem {
	return Normalizer{}.Normalize(raw)
}

// Normalize never fails: every missing or malformed field maps to a default.
func (n Normalizer) Normalize(raw RawItem) CatalogItem {
	author := strings.TrimSpace(n.DefaultAuthor)
	if author == "" {
		author = DefaultBrand
	}

	it := CatalogItem{
		Slug:        raw.str("slug"),
		Title:       raw.str("title"),
		Description: raw.str("description"),
		ReadTime:    raw.str("readTime", "read_time"),
		ContentRef:  raw.str("content", "contentRef"),
		Author:      raw.str("author"),
	}
	it.Category = ParseCategory(raw.str("category"))
	it.Tags = normalizeStrings(raw.list("tags"))

	it.Date = ParseTime(raw.str("date"))
	it.LastModified = ParseTime(raw.str("lastModified", "lastmod", "updated"))
	if it.LastModified.IsZero() {
		it.LastModified = it.Date
	}

	it.Excerpt = raw.str("excerpt")
	if it.Excerpt == "" {
		it.Excerpt = it.Description
	}
	if it.Author == "" {
		it.Author = author
	}

	imageIn := raw.str("image")
	it.Image = ResolveImage(imageIn, it.Category)
	thumbIn := raw.str("thumbnail")
	if thumbIn == "" {
		thumbIn = imageIn
	}
	it.Thumbnail = ResolveImage(thumbIn, it.Category)
	it.ImageAlt = raw.str("imageAlt", "image_alt")
	if it.ImageAlt == "" {
		it.ImageAlt = it.Title
	}

	it.IsFeatured = raw.boolean("featured", "isFeatured")
	it.FeaturedPriority = raw.integer("featuredPriority", "priority")

	if c := raw.str("canonicalOverride", "canonical"); isHTTPURL(c) {
		it.CanonicalOverride = c
	}

	it.Type = ItemInternal
	ctaURL := raw.str("ctaUrl", "externalUrl")
	source := raw.str("sourceName", "source")
	link := raw.str("url")
	// A relative ctaUrl points back into the site and does not make an
	// item external on its own.
	if raw.boolean("external") || isHTTPURL(ctaURL) || (source != "" && isHTTPURL(link)) {
		it.Type = ItemExternal
		it.SourceName = source
		switch {
		case isHTTPURL(ctaURL):
			it.CTAURL = ctaURL
		case isHTTPURL(link):
			it.CTAURL = link
		}
		it.CTAText = raw.str("ctaText")
		if it.CTAText == "" {
			if it.SourceName != "" {
				it.CTAText = "Read on " + it.SourceName
			} else {
				it.CTAText = "Read Article"
			}
		}
	}

	it.SearchBlob = SearchBlob(it)
	return it
}

// SearchBlob is the lower-cased text a grid search term is matched against.
func SearchBlob(it CatalogItem) string {
	parts := []string{it.Title, it.Description, it.Excerpt, strings.Join(it.Tags, " "), it.SourceName}
	return LowerSearch(strings.Join(parts, " "))
}

// LowerSearch lower-cases s the same way for blobs and for search terms.
func LowerSearch(s string) string {
	return strings.ToLower(cases.Fold().String(s))
}

// ParseCategory maps input onto a recognized category, case-insensitively.
// Anything else is Articles.
func ParseCategory(s string) Category {
	c, ok := LookupCategory(s)
	if !ok {
		return CategoryArticles
	}
	return c
}

// LookupCategory is ParseCategory without the default.
func LookupCategory(s string) (Category, bool) {
	folded := cases.Fold().String(strings.TrimSpace(s))
	if folded == "" {
		return "", false
	}
	for _, c := range Categories {
		if cases.Fold().String(string(c)) == folded {
			return c, true
		}
	}
	return "", false
}

// ResolveImage resolves an authored image reference to a URL, falling back to
// the category placeholder.
func ResolveImage(path string, c Category) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return Placeholder(c)
	case strings.HasPrefix(path, "/images/"),
		strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "https://"),
		strings.HasPrefix(path, "data:"):
		return path
	default:
		return "/images/" + strings.TrimLeft(path, "/")
	}
}

func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		time.DateOnly,
		"2006-01-02 15:04",
		time.DateTime,
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r RawItem) str(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func (r RawItem) list(key string) []string {
	switch v := r[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		return strings.Split(v, ",")
	}
	return nil
}

func (r RawItem) boolean(keys ...string) bool {
	for _, k := range keys {
		switch v := r[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil && b {
				return true
			}
		}
	}
	return false
}

func (r RawItem) integer(keys ...string) int {
	for _, k := range keys {
		switch v := r[k].(type) {
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				return int(v)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}

func normalizeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		item = strings.ToLower(item)
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Slugify lower-cases s and collapses every run of non-alphanumerics to '-'.
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var out []rune
	lastDash := false

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]

		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, unicode.ToLower(r))
			lastDash = false
			continue
		}
		if !lastDash && len(out) > 0 {
			out = append(out, '-')
			lastDash = true
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}

func (c Category) String() string { return string(c) }
