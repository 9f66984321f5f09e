package content

import (
	"errors"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	domainerr "reshub/internal/domain/errors"
)

// SeriesPart is one authored entry of a series. The main article carries
// PartNumber 0.
type SeriesPart struct {
	Slug       string `yaml:"slug"`
	Title      string `yaml:"title"`
	PartNumber int    `yaml:"part"`
}

type SeriesDefinition struct {
	ID        string       `yaml:"id"`
	Title     string       `yaml:"title"`
	MainSlug  string       `yaml:"main"`
	MainTitle string       `yaml:"main_title"`
	Parts     []SeriesPart `yaml:"parts"`
}

// Ordered returns the main article followed by the parts in part order.
func (d *SeriesDefinition) Ordered() []SeriesPart {
	parts := make([]SeriesPart, 0, len(d.Parts)+1)
	if d.MainSlug != "" {
		parts = append(parts, SeriesPart{Slug: d.MainSlug, Title: d.MainTitle})
	}
	rest := make([]SeriesPart, 0, len(d.Parts))
	for _, p := range d.Parts {
		if p.Slug == d.MainSlug {
			continue
		}
		rest = append(rest, p)
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].PartNumber < rest[j].PartNumber
	})
	return append(parts, rest...)
}

// PartOf returns the authored entry for slug within the series.
func (d *SeriesDefinition) PartOf(slug string) (SeriesPart, bool) {
	for _, p := range d.Ordered() {
		if p.Slug == slug {
			return p, true
		}
	}
	return SeriesPart{}, false
}

// SeriesRegistry is built once and never modified afterwards.
type SeriesRegistry struct {
	defs   []*SeriesDefinition
	bySlug map[string]*SeriesDefinition
}

func NewSeriesRegistry(defs []SeriesDefinition) (*SeriesRegistry, error) {
	r := &SeriesRegistry{bySlug: make(map[string]*SeriesDefinition)}
	var ve domainerr.ValidationError

	for i := range defs {
		d := defs[i]
		d.ID = strings.TrimSpace(d.ID)
		d.MainSlug = strings.TrimSpace(d.MainSlug)
		if d.ID == "" {
			ve.Add("series.id", "must not be empty")
			continue
		}
		if d.MainSlug == "" && len(d.Parts) == 0 {
			ve.Add("series."+d.ID, "has no articles")
			continue
		}
		d.Parts = append([]SeriesPart(nil), d.Parts...)
		for j := range d.Parts {
			d.Parts[j].Slug = strings.TrimSpace(d.Parts[j].Slug)
		}
		def := &d
		r.defs = append(r.defs, def)
		for _, p := range def.Ordered() {
			slug := strings.TrimSpace(p.Slug)
			if slug == "" {
				ve.Add("series."+d.ID, "part with empty slug")
				continue
			}
			if other, ok := r.bySlug[slug]; ok && other != def {
				ve.Add("series."+d.ID, "slug "+slug+" already belongs to series "+other.ID)
				continue
			}
			r.bySlug[slug] = def
		}
	}
	if ve.HasAny() {
		return nil, ve
	}
	return r, nil
}

// LoadSeries reads series definitions from a YAML file. A missing file yields
// an empty registry.
func LoadSeries(path string) (*SeriesRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewSeriesRegistry(nil)
		}
		return nil, err
	}
	var doc struct {
		Series []SeriesDefinition `yaml:"series"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return NewSeriesRegistry(doc.Series)
}

// Lookup finds the series slug belongs to, if any. A nil registry has no series.
func (r *SeriesRegistry) Lookup(slug string) (*SeriesDefinition, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.bySlug[slug]
	return d, ok
}

func (r *SeriesRegistry) All() []*SeriesDefinition {
	if r == nil {
		return nil
	}
	return r.defs
}
