package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@type": "Organization",
		"name":  name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = map[string]any{"@type": "ImageObject", "url": logoURL}
	}
	return m
}

type ArticleData struct {
	Headline      string
	Description   string
	URL           string
	Image         string
	DatePublished string
	DateModified  string
	Author        string
	Publisher     string
	PublisherLogo string
	Keywords      []string
}

// Article returns the schema.org Article payload for an article page.
func Article(a ArticleData) map[string]any {
	author := a.Author
	if author == "" {
		author = a.Publisher
	}
	m := map[string]any{
		"@context":  "https://schema.org",
		"@type":     "Article",
		"headline":  a.Headline,
		"author":    map[string]any{"@type": "Organization", "name": author},
		"publisher": Organization(a.Publisher, "", a.PublisherLogo),
	}
	if a.Description != "" {
		m["description"] = a.Description
	}
	if a.URL != "" {
		m["mainEntityOfPage"] = a.URL
	}
	if a.Image != "" {
		m["image"] = a.Image
	}
	if a.DatePublished != "" {
		m["datePublished"] = a.DatePublished
	}
	if a.DateModified != "" {
		m["dateModified"] = a.DateModified
	}
	keywords := a.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	m["keywords"] = keywords
	return m
}
