package content

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultBrand is used for placeholder artwork and as the default author.
const DefaultBrand = "Monetize Parking"

type placeholderStyle struct {
	Color string
	Label string
}

var placeholderStyles = map[Category]placeholderStyle{
	CategoryCaseStudies: {Color: "#273d9a", Label: "Case Study"},
	CategoryGuides:      {Color: "#0a7c6b", Label: "Guide"},
	CategoryArticles:    {Color: "#3b3a3f", Label: "Article"},
}

var (
	placeholderOnce sync.Once
	placeholders    map[Category]string
)

// Placeholder returns the generated artwork for a category. Unknown categories
// get the Articles artwork.
func Placeholder(c Category) string {
	placeholderOnce.Do(func() {
		placeholders = make(map[Category]string, len(placeholderStyles))
		for cat, st := range placeholderStyles {
			placeholders[cat] = placeholderDataURI(st)
		}
	})
	if p, ok := placeholders[c]; ok {
		return p
	}
	return placeholders[CategoryArticles]
}

func placeholderDataURI(st placeholderStyle) string {
	gradientID := "grad-" + Slugify(st.Label)
	font := `'Inter', 'Helvetica Neue', Arial, sans-serif`

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="800" viewBox="0 0 1200 800" role="img" aria-label="%s">`, st.Label)
	fmt.Fprintf(&b, `<defs><linearGradient id="%s" x1="0%%" y1="0%%" x2="100%%" y2="100%%">`, gradientID)
	fmt.Fprintf(&b, `<stop offset="0%%" stop-color="%s" stop-opacity="0.95"/><stop offset="100%%" stop-color="%s" stop-opacity="0.7"/>`, st.Color, st.Color)
	fmt.Fprintf(&b, `</linearGradient></defs><rect width="1200" height="800" fill="url(#%s)"/>`, gradientID)
	fmt.Fprintf(&b, `<text x="50%%" y="52%%" fill="white" font-family="%s" font-weight="600" font-size="96" text-anchor="middle">%s</text>`, font, st.Label)
	fmt.Fprintf(&b, `<text x="50%%" y="64%%" fill="white" fill-opacity="0.7" font-family="%s" font-size="36" text-anchor="middle">%s</text>`, font, DefaultBrand)
	b.WriteString(`</svg>`)

	escaped := strings.ReplaceAll(url.QueryEscape(b.String()), "+", "%20")
	return "data:image/svg+xml;charset=UTF-8," + escaped
}

// Label is the singular display label of a category, e.g. "Case Study".
func (c Category) Label() string {
	if st, ok := placeholderStyles[c]; ok {
		return st.Label
	}
	return cases.Title(language.English).String(strings.TrimSuffix(string(c), "s"))
}
