package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"reshub/internal/analytics"
	"reshub/internal/app"
	"reshub/internal/domain/content"
	domainerr "reshub/internal/domain/errors"
	"reshub/internal/logging"
	"reshub/internal/render"
	"reshub/internal/view"
)

const featuredStream = "/resources/featured/events"

type Server struct {
	app *app.App
	log *zap.Logger

	sseMu    sync.Mutex
	sseConns map[chan string]struct{}

	carousels *carousels

	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(a *app.App) *Server {
	return &Server{
		app:       a,
		log:       a.Log,
		sseConns:  make(map[chan string]struct{}),
		carousels: newCarousels(),
	}
}

func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Handler is the full route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/resources/", http.StatusFound)
	})

	r.Get("/resources", redirectSlash)
	r.Get("/resources/", s.handleResources)
	r.Get("/resources/more", s.handleMore)
	r.Get(featuredStream, s.handleFeaturedEvents)
	r.Post("/resources/featured/holds/{id}", s.handleFeaturedHold)

	r.Get("/articles/{slug}", redirectSlash)
	r.Get("/articles/{slug}/", s.handleArticle)
	r.Get("/articles/{slug}/related", s.handleRelated)
	r.Get("/article.html", s.handleLegacyArticle)

	r.Post("/events/cta", s.handleCTA)
	r.Get("/dev/events", s.handleSSE)

	cfg := s.app.Cfg
	static := http.FileServer(http.Dir(cfg.Build.StaticDir))
	if cfg.Build.ThemeDir != "" && cfg.Site.Theme != "" {
		static = http.FileServer(overlayDir{
			http.Dir(filepath.Join(cfg.Build.ThemeDir, cfg.Site.Theme, "static")),
			http.Dir(cfg.Build.StaticDir),
		})
	}
	r.Handle("/images/*", static)
	r.Handle("/css/*", static)
	r.Handle("/js/*", static)
	r.Handle("/favicon.ico", static)
	r.Handle("/data/*", http.FileServer(http.Dir(cfg.Catalog.BodyRoot)))

	r.NotFound(s.handleNotFound)
	return r
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.startWatch(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func gridState(r *http.Request) view.ViewState {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	return view.ViewState{
		Filter: view.ParseFilter(q.Get("category")),
		Search: q.Get("q"),
		Page:   page,
	}
}

// handleResources always answers 200: a catalog failure is a state of the
// listing, not of the request.
func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	cat, err := s.app.LoadCatalog(r.Context())
	s.render(w, r, http.StatusOK, s.app.Listing(r.Context(), cat, err, gridState(r), render.QueryLinks{}, featuredStream))
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	cat, err := s.app.LoadCatalog(r.Context())
	s.render(w, r, http.StatusOK, s.app.Fragment(cat, err, gridState(r), render.QueryLinks{}))
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	cat, err := s.app.LoadCatalog(r.Context())
	rr, status := s.app.Article(r.Context(), cat, err, slug, render.QueryLinks{})
	s.render(w, r, status, rr)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	cat, err := s.app.LoadCatalog(r.Context())
	s.render(w, r, http.StatusOK, s.app.Sidebar(cat, err, chi.URLParam(r, "slug")))
}

// handleLegacyArticle moves old query-string article links onto the article
// path.
func (s *Server) handleLegacyArticle(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		s.render(w, r, http.StatusNotFound, s.app.NotFound(render.NotFoundMessage, &domainerr.NotFoundError{}))
		return
	}
	http.Redirect(w, r, content.ArticlePath(slug), http.StatusMovedPermanently)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, s.app.NotFound("", &domainerr.NotFoundError{Slug: r.URL.Path}))
}

type ctaBeacon struct {
	CTA  string `json:"cta"`
	Slug string `json:"slug"`
}

// handleCTA receives the click beacons of the article page script.
func (s *Server) handleCTA(w http.ResponseWriter, r *http.Request) {
	var b ctaBeacon
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&b); err != nil {
		http.Error(w, "invalid beacon", http.StatusBadRequest)
		return
	}
	report := s.app.Report
	if report != nil && b.Slug != "" {
		report = withParam(report, "slug", b.Slug)
	}
	t := analytics.NewTracker(report)
	t.Attach()
	if !t.Click(r.Context(), b.CTA) {
		http.Error(w, "unknown cta", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func withParam(next analytics.Reporter, key, value string) analytics.Reporter {
	return func(ctx context.Context, e analytics.Event) {
		params := make(map[string]string, len(e.Params)+1)
		for k, v := range e.Params {
			params[k] = v
		}
		params[key] = value
		next(ctx, analytics.Event{Name: e.Name, Params: params})
	}
}

// render buffers the whole view so a template failure can still become a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, rr render.Renderer) {
	var buf bytes.Buffer
	if err := rr.Render(r.Context(), &buf); err != nil {
		logging.FromContext(r.Context()).Error("render failed", zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func redirectSlash(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Path + "/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

// overlayDir serves the first directory that has the file.
type overlayDir []http.FileSystem

func (o overlayDir) Open(name string) (http.File, error) {
	var firstErr error
	for _, fs := range o {
		f, err := fs.Open(name)
		if err == nil {
			return f, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
