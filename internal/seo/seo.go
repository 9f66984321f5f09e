// Package seo computes page metadata and writes it into an HTML document head.
package seo

import (
	"strings"
	"time"

	"reshub/internal/domain/content"
)

type OpenGraph struct {
	Type          string
	Title         string
	Description   string
	URL           string
	Image         string
	SiteName      string
	PublishedTime string
	ModifiedTime  string
	Tags          []string
}

type Twitter struct {
	Card        string
	Title       string
	Description string
	Image       string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	JSONLD      map[string]any
}

// Site is the per-deployment identity every page's metadata is derived from.
type Site struct {
	Brand  string
	Origin string
	Logo   string
}

const (
	RobotsIndex   = "index,follow"
	RobotsNoIndex = "noindex,follow"
)

// Absolute resolves a site-relative path against the origin. Absolute http(s)
// URLs pass through; anything else that cannot be fetched by a crawler (data
// URIs, empty values) yields "".
func (s Site) Absolute(p string) string {
	p = strings.TrimSpace(p)
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"):
		return p
	case strings.HasPrefix(p, "data:"):
		return ""
	case strings.HasPrefix(p, "/"):
		return strings.TrimSuffix(s.Origin, "/") + p
	default:
		return strings.TrimSuffix(s.Origin, "/") + "/" + p
	}
}

func (s Site) brand() string {
	if s.Brand == "" {
		return content.DefaultBrand
	}
	return s.Brand
}

func (s Site) logo() string {
	if s.Logo == "" {
		return "/images/Logo.png"
	}
	return s.Logo
}

// PageTitle appends the brand to a page title.
func (s Site) PageTitle(title string) string {
	if title == "" {
		return s.brand()
	}
	return title + " | " + s.brand()
}

// Canonical is the authoritative URL for an article: the authored override
// when present, otherwise the pretty article path under the origin.
func (s Site) Canonical(it content.CatalogItem) string {
	if it.CanonicalOverride != "" {
		return it.CanonicalOverride
	}
	return s.Absolute(content.ArticlePath(it.Slug))
}

// ListingURL is the canonical of the resources listing.
func (s Site) ListingURL() string { return s.Absolute("/resources/") }

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ArticleMeta derives the full metadata set for one article.
func ArticleMeta(s Site, it content.CatalogItem) Meta {
	canonical := s.Canonical(it)
	image := s.Absolute(it.Image)
	if image == "" {
		image = s.Absolute(s.logo())
	}
	published := isoTime(it.Date)
	modified := isoTime(it.Timestamp())
	title := s.PageTitle(it.Title)

	return Meta{
		Title:       title,
		Description: it.Description,
		Canonical:   canonical,
		Robots:      RobotsIndex,
		OG: OpenGraph{
			Type:          "article",
			Title:         title,
			Description:   it.Description,
			URL:           canonical,
			Image:         image,
			SiteName:      s.brand(),
			PublishedTime: published,
			ModifiedTime:  modified,
			Tags:          it.Tags,
		},
		Twitter: Twitter{
			Card:        "summary_large_image",
			Title:       title,
			Description: it.Description,
			Image:       image,
		},
		JSONLD: Article(ArticleData{
			Headline:      it.Title,
			Description:   it.Description,
			URL:           canonical,
			Image:         image,
			DatePublished: published,
			DateModified:  modified,
			Author:        it.Author,
			Publisher:     s.brand(),
			PublisherLogo: s.Absolute(s.logo()),
			Keywords:      it.Tags,
		}),
	}
}

// NotFoundMeta is the metadata for a page whose article could not be shown.
// Only an unidentifiable slug is kept out of the index; a transient failure
// leaves the page indexable.
func NotFoundMeta(s Site, missing bool) Meta {
	robots := RobotsIndex
	if missing {
		robots = RobotsNoIndex
	}
	return Meta{
		Title:       s.PageTitle("Article Not Found"),
		Description: "The article you are looking for may have moved or been removed.",
		Canonical:   s.ListingURL(),
		Robots:      robots,
	}
}

// ListingMeta is the metadata of the resources listing page.
func ListingMeta(s Site, description string) Meta {
	title := s.PageTitle("Resources")
	return Meta{
		Title:       title,
		Description: description,
		Canonical:   s.ListingURL(),
		Robots:      RobotsIndex,
		OG: OpenGraph{
			Type:        "website",
			Title:       title,
			Description: description,
			URL:         s.ListingURL(),
			Image:       s.Absolute(s.logo()),
			SiteName:    s.brand(),
		},
		Twitter: Twitter{
			Card:        "summary_large_image",
			Title:       title,
			Description: description,
			Image:       s.Absolute(s.logo()),
		},
	}
}
