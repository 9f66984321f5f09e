package ingest

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"

	"github.com/adrg/frontmatter"

	"reshub/internal/domain/content"
	domainerr "reshub/internal/domain/errors"
)

type BodyFormat string

const (
	BodyHTML     BodyFormat = "html"
	BodyMarkdown BodyFormat = "markdown"
)

// Body is an article body as fetched, before rendering and sanitization.
type Body struct {
	Format BodyFormat
	Source []byte
}

// LoadBody fetches the content behind it.ContentRef. Markdown sources have
// their front matter stripped.
func LoadBody(ctx context.Context, f *Fetcher, it content.CatalogItem) (Body, error) {
	ref := strings.TrimSpace(it.ContentRef)
	if ref == "" {
		return Body{}, &domainerr.BodyLoadError{Slug: it.Slug, Err: errors.New("no content reference")}
	}
	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return Body{}, &domainerr.BodyLoadError{Slug: it.Slug, Ref: ref, Err: err}
	}

	switch strings.ToLower(path.Ext(refPath(ref))) {
	case ".md", ".markdown":
		var meta map[string]any
		rest, fmErr := frontmatter.Parse(bytes.NewReader(data), &meta)
		if fmErr != nil {
			rest = data
		}
		return Body{Format: BodyMarkdown, Source: rest}, nil
	default:
		return Body{Format: BodyHTML, Source: data}, nil
	}
}

func refPath(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i]
	}
	return ref
}
