package seo

import (
	"errors"

	"reshub/internal/domain/content"
	domainerr "reshub/internal/domain/errors"
)

// ArticleKind tags the JSON-LD block owned by the article injector.
const ArticleKind = "article"

// Inject writes m into the document head. Singleton tags are replaced, never
// appended, so repeated calls leave one instance of each. Repeatable
// article:tag entries are cleared and rebuilt from m.OG.Tags. Empty OG and
// Twitter sections remove whatever a previous call left behind.
func Inject(d *Document, m Meta) {
	d.setTitle(m.Title)
	d.setMeta("name", "description", m.Description)
	d.setCanonical(m.Canonical)
	if m.Robots != "" {
		d.setMeta("name", "robots", m.Robots)
	}

	if m.OG.Type == "" {
		d.removeMetaPrefix("property", "og:")
		d.removeMetaPrefix("property", "article:")
	} else {
		d.setMeta("property", "og:type", m.OG.Type)
		d.setMeta("property", "og:title", m.OG.Title)
		d.setMeta("property", "og:description", m.OG.Description)
		d.setMeta("property", "og:url", m.OG.URL)
		d.setMeta("property", "og:image", m.OG.Image)
		d.setMeta("property", "og:site_name", m.OG.SiteName)
		setOrDrop(d, "article:published_time", m.OG.PublishedTime)
		setOrDrop(d, "article:modified_time", m.OG.ModifiedTime)
		d.setMetaList("property", "article:tag", m.OG.Tags)
	}

	if m.Twitter.Card == "" {
		d.removeMetaPrefix("name", "twitter:")
	} else {
		d.setMeta("name", "twitter:card", m.Twitter.Card)
		d.setMeta("name", "twitter:title", m.Twitter.Title)
		d.setMeta("name", "twitter:description", m.Twitter.Description)
		d.setMeta("name", "twitter:image", m.Twitter.Image)
	}

	if m.JSONLD == nil {
		d.removeStructuredData(ArticleKind)
	} else {
		d.setStructuredData(ArticleKind, JSON(m.JSONLD))
	}
}

func setOrDrop(d *Document, property, value string) {
	if value == "" {
		d.removeMeta("property", property)
		return
	}
	d.setMeta("property", property, value)
}

// InjectArticle writes the metadata of a successfully loaded article.
func InjectArticle(d *Document, s Site, it content.CatalogItem) Meta {
	m := ArticleMeta(s, it)
	Inject(d, m)
	return m
}

// InjectNotFound switches the head to the not-found presentation. cause picks
// the robots directive: only a NotFoundError marks the page noindex.
func InjectNotFound(d *Document, s Site, cause error) Meta {
	m := NotFoundMeta(s, errors.Is(cause, domainerr.ErrNotFound))
	Inject(d, m)
	return m
}
