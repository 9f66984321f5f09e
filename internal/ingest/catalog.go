package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"reshub/internal/domain/content"
	domainerr "reshub/internal/domain/errors"
)

type Warning struct {
	Slug string
	Msg  string
}

// Catalog is one normalized load of the data source. It is read-only once
// NewCatalog returns.
type Catalog struct {
	items  []content.CatalogItem
	bySlug map[string]int
	Warns  []Warning
}

// NewCatalog normalizes raw records in order. Records without a slug, or
// with a slug that cannot name one directory, are dropped and later
// duplicates of a slug are skipped.
func NewCatalog(raws []content.RawItem, n content.Normalizer) *Catalog {
	c := &Catalog{
		items:  make([]content.CatalogItem, 0, len(raws)),
		bySlug: make(map[string]int, len(raws)),
	}
	for i, raw := range raws {
		it := n.Normalize(raw)
		if it.Slug == "" {
			c.Warns = append(c.Warns, Warning{Msg: fmt.Sprintf("record %d has no slug, skipped", i)})
			continue
		}
		if !pathSafeSlug(it.Slug) {
			c.Warns = append(c.Warns, Warning{Slug: it.Slug, Msg: "slug is not a single path segment, skipped"})
			continue
		}
		if _, ok := c.bySlug[it.Slug]; ok {
			c.Warns = append(c.Warns, Warning{Slug: it.Slug, Msg: "duplicate slug, skipped"})
			continue
		}
		c.bySlug[it.Slug] = len(c.items)
		c.items = append(c.items, it)
	}
	return c
}

// pathSafeSlug reports whether slug can be used as one directory name under
// articles/ without escaping it.
func pathSafeSlug(slug string) bool {
	if slug == "." || strings.Contains(slug, "..") {
		return false
	}
	return !strings.ContainsAny(slug, "/\\\x00")
}

// Items returns the catalog in source order.
func (c *Catalog) Items() []content.CatalogItem {
	if c == nil {
		return nil
	}
	return c.items
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

func (c *Catalog) Get(slug string) (content.CatalogItem, bool) {
	if c == nil {
		return content.CatalogItem{}, false
	}
	i, ok := c.bySlug[strings.TrimSpace(slug)]
	if !ok {
		return content.CatalogItem{}, false
	}
	return c.items[i], true
}

// Lookup is Get with the error taxonomy applied.
func (c *Catalog) Lookup(slug string) (content.CatalogItem, error) {
	it, ok := c.Get(slug)
	if !ok {
		return content.CatalogItem{}, &domainerr.NotFoundError{Slug: slug}
	}
	return it, nil
}

// ParseCatalog decodes a payload that must be a JSON array of objects.
func ParseCatalog(uri string, data []byte) ([]content.RawItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &domainerr.ParseError{URI: uri, Err: errors.New("payload is not an array")}
	}
	var raws []content.RawItem
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, &domainerr.ParseError{URI: uri, Err: err}
	}
	return raws, nil
}

// Loader fetches and normalizes the catalog for one page view.
type Loader struct {
	Fetcher    *Fetcher
	URI        string
	Normalizer content.Normalizer
}

func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	c, _, err := l.Snapshot(ctx)
	return c, err
}

// Snapshot is Load that also hands back the payload as fetched.
func (l *Loader) Snapshot(ctx context.Context) (*Catalog, []byte, error) {
	data, err := fetchCatalog(ctx, l.Fetcher, l.URI)
	if err != nil {
		return nil, nil, err
	}
	raws, err := ParseCatalog(l.URI, data)
	if err != nil {
		return nil, nil, err
	}
	return NewCatalog(raws, l.Normalizer), data, nil
}

// LoadCatalog retrieves the raw records behind uri.
func LoadCatalog(ctx context.Context, f *Fetcher, uri string) ([]content.RawItem, error) {
	data, err := fetchCatalog(ctx, f, uri)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(uri, data)
}

func fetchCatalog(ctx context.Context, f *Fetcher, uri string) ([]byte, error) {
	data, err := f.Fetch(ctx, uri)
	if err != nil {
		le := &domainerr.LoadError{URI: uri, Err: err}
		var se *StatusError
		if errors.As(err, &se) {
			le.Status = se.Code
		}
		return nil, le
	}
	return data, nil
}
