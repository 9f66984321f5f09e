package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reshub/internal/domain/config"
	"reshub/internal/seo"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Template names every theme must provide, either built in or overridden.
var requiredTemplates = []string{"resources", "cards", "sidebar", "article", "notfound"}

// Engine executes the page templates and owns the metadata identity of the
// site. It is safe for concurrent use once built.
type Engine struct {
	tpl  *template.Template
	site config.SiteConfig
	seo  seo.Site
}

// NewEngine parses the built-in templates, then any *.tmpl files under
// themeDir/<theme>/templates, whose definitions replace the built-in ones.
func NewEngine(site config.SiteConfig, themeDir string) (*Engine, error) {
	tpl, err := template.New("").Funcs(templateFuncs()).ParseFS(builtin, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	if themeDir != "" {
		pattern := filepath.Join(themeDir, site.Theme, "templates", "*.tmpl")
		if matches, _ := filepath.Glob(pattern); len(matches) > 0 {
			if tpl, err = tpl.ParseGlob(pattern); err != nil {
				return nil, fmt.Errorf("theme templates: %w", err)
			}
		}
	}
	for _, name := range requiredTemplates {
		if tpl.Lookup(name) == nil {
			return nil, fmt.Errorf("missing template: %s", name)
		}
	}
	return &Engine{
		tpl:  tpl,
		site: site,
		seo:  seo.Site{Brand: site.Brand, Origin: site.Origin, Logo: site.Logo},
	}, nil
}

func (e *Engine) Site() config.SiteConfig { return e.site }

func (e *Engine) SEO() seo.Site { return e.seo }

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time, layout string) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"nowYear": func() int {
			return time.Now().Year()
		},
		"add":    func(a, b int) int { return a + b },
		"imgsrc": imageSource,
	}
}

// imageSource admits the image references the normalizer produces. Placeholder
// artwork is an SVG data URI, which html/template would otherwise rewrite to
// #ZgotmplZ.
func imageSource(s string) template.URL {
	switch {
	case strings.HasPrefix(s, "data:image/svg+xml"),
		strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "http://"),
		strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"):
		return template.URL(s)
	default:
		return ""
	}
}

func (e *Engine) exec(name string, data any) ([]byte, error) {
	t := e.tpl.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// page executes a full page template and rewrites its head with inject.
func (e *Engine) page(w io.Writer, name string, data any, inject func(*seo.Document)) error {
	out, err := e.exec(name, data)
	if err != nil {
		return err
	}
	doc, err := seo.Parse(bytes.NewReader(out))
	if err != nil {
		return err
	}
	inject(doc)
	return doc.Render(w)
}

// CheckThemeTemplates reports which required templates a theme directory is
// missing. Themes only need the templates they override.
func CheckThemeTemplates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	tpl := template.New("").Funcs(templateFuncs())
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".tmpl" {
			continue
		}
		if _, err := tpl.ParseFiles(filepath.Join(dir, ent.Name())); err != nil {
			return nil, err
		}
	}
	var missing []string
	for _, name := range requiredTemplates {
		if tpl.Lookup(name) == nil {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
