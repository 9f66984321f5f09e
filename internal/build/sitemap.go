package build

import (
	"bytes"
	"encoding/xml"

	"reshub/internal/domain/content"
	"reshub/internal/seo"
)

// StaticRoutes are the hand-authored pages of the site, listed ahead of the
// articles in the sitemap.
var StaticRoutes = []string{
	"/",
	"/about/",
	"/calculator/",
	"/contact/",
	"/faq/",
	"/resources/",
	"/services/",
}

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap lists the static routes and every internal article at its
// canonical URL. An article whose canonical repeats an earlier entry is
// listed once.
func Sitemap(s seo.Site, items []content.CatalogItem) ([]byte, error) {
	set := urlset{Xmlns: sitemapNS}
	seen := make(map[string]bool)
	add := func(u sitemapURL) {
		if u.Loc == "" || seen[u.Loc] {
			return
		}
		seen[u.Loc] = true
		set.URLs = append(set.URLs, u)
	}

	for _, r := range StaticRoutes {
		add(sitemapURL{Loc: s.Absolute(r)})
	}
	for _, it := range items {
		if it.External() {
			continue
		}
		u := sitemapURL{Loc: s.Canonical(it)}
		if ts := it.Timestamp(); !ts.IsZero() {
			u.LastMod = ts.UTC().Format("2006-01-02")
		}
		add(u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots allows everything and points crawlers at the sitemap.
func Robots(s seo.Site) []byte {
	return []byte("User-agent: *\nAllow: /\n\nSitemap: " + s.Absolute("/sitemap.xml") + "\n")
}
