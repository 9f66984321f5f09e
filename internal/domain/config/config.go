package config

import (
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"net/url"
	"os"
	domainerr "reshub/internal/domain/errors"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Build    BuildConfig    `yaml:"build"`
	Serve    ServeConfig    `yaml:"serve"`
	Featured FeaturedConfig `yaml:"featured"`
}

type SiteConfig struct {
	Title       string `yaml:"title"`
	Brand       string `yaml:"brand"`
	Origin      string `yaml:"origin"`
	Logo        string `yaml:"logo"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	AnalyticsID string `yaml:"analytics_id"`
	Theme       string `yaml:"theme"`
}

type CatalogConfig struct {
	URI        string        `yaml:"uri"`
	BodyRoot   string        `yaml:"body_root"`
	SeriesFile string        `yaml:"series_file"`
	Timeout    time.Duration `yaml:"timeout"`
	RPS        int           `yaml:"rps"`
}

type BuildConfig struct {
	PublicDir string    `yaml:"public_dir"`
	ThemeDir  string    `yaml:"theme_dir"`
	StaticDir string    `yaml:"static_dir"`
	IndexPath string    `yaml:"index_path"`
	Workers   int       `yaml:"workers"`
	Now       time.Time `yaml:"-"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

type FeaturedConfig struct {
	Interval    time.Duration `yaml:"interval"`
	QuietPeriod time.Duration `yaml:"quiet_period"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:    "Parking Revenue Resources",
			Brand:    "Monetize Parking",
			Origin:   "https://monetize-parking.com",
			Logo:     "/images/Logo.png",
			Language: "en",
		},
		Catalog: CatalogConfig{
			URI:        "data/resources.json",
			BodyRoot:   ".",
			SeriesFile: "series.yaml",
			Timeout:    10 * time.Second,
			RPS:        10,
		},
		Build: BuildConfig{
			PublicDir: "public",
			StaticDir: "static",
			IndexPath: ".reshub/manifest.db",
			Workers:   4,
			Now:       time.Now(),
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
		Featured: FeaturedConfig{
			Interval:    6 * time.Second,
			QuietPeriod: 4 * time.Second,
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if strings.TrimSpace(c.Site.Brand) == "" {
		ve.Add("site.brand", "must not be empty")
	}
	if strings.TrimSpace(c.Site.Origin) == "" {
		ve.Add("site.origin", "must not be empty")
	} else if !isValidAbsURL(c.Site.Origin) {
		ve.Add("site.origin", "must be a valid absolute URL")
	} else if strings.HasSuffix(c.Site.Origin, "/") {
		ve.Add("site.origin", "must not end with '/'")
	}

	if strings.TrimSpace(c.Catalog.URI) == "" {
		ve.Add("catalog.uri", "must not be empty")
	}
	if c.Catalog.Timeout <= 0 {
		ve.Add("catalog.timeout", "must be positive")
	}
	if c.Catalog.RPS <= 0 {
		ve.Add("catalog.rps", "must be positive")
	}

	if strings.TrimSpace(c.Build.PublicDir) == "" {
		ve.Add("build.public_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.IndexPath) == "" {
		ve.Add("build.index_path", "must not be empty")
	}
	if c.Build.Workers <= 0 {
		ve.Add("build.workers", "must be positive")
	}

	if strings.TrimSpace(c.Serve.Addr) == "" {
		ve.Add("serve.addr", "must not be empty")
	}

	if c.Featured.Interval <= 0 {
		ve.Add("featured.interval", "must be positive")
	}
	if c.Featured.QuietPeriod < 0 {
		ve.Add("featured.quiet_period", "must not be negative")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return finish(cfg)
}

// LoadOrDefault treats a missing file as an empty one.
func LoadOrDefault(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
		return finish(cfg)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	_ = godotenv.Load(".env.local", ".env")
	ApplyEnv(&cfg, os.Getenv)

	if cfg.Build.Now.IsZero() {
		cfg.Build.Now = time.Now()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays RESHUB_* variables onto cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("RESHUB_ADDR"); v != "" {
		cfg.Serve.Addr = v
	}
	if v := getenv("RESHUB_CATALOG_URI"); v != "" {
		cfg.Catalog.URI = v
	}
	if v := getenv("RESHUB_SITE_ORIGIN"); v != "" {
		cfg.Site.Origin = strings.TrimRight(v, "/")
	}
	if v := getenv("RESHUB_ANALYTICS_ID"); v != "" {
		cfg.Site.AnalyticsID = v
	}
	if v := getenv("RESHUB_BUILD_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Build.Workers = n
		}
	}
}
