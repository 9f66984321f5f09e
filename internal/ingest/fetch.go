package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxPayload bounds a single fetched document.
const maxPayload = 16 << 20

// StatusError is a non-success HTTP response.
type StatusError struct {
	URI  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URI, e.Code)
}

type FetchOptions struct {
	// Root anchors filesystem references; site-relative paths resolve under it.
	Root      string
	Timeout   time.Duration
	RPS       int
	UserAgent string
}

// Fetcher reads catalog and body documents from http(s) URLs or the local
// filesystem. It never caches: every call goes back to the source.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	root       string
	userAgent  string
}

func NewFetcher(opt FetchOptions) *Fetcher {
	if opt.Timeout <= 0 {
		opt.Timeout = 10 * time.Second
	}
	if opt.RPS <= 0 {
		opt.RPS = 10
	}
	if opt.Root == "" {
		opt.Root = "."
	}
	if opt.UserAgent == "" {
		opt.UserAgent = "reshub/1.0"
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: opt.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(opt.RPS)), opt.RPS),
		root:       opt.Root,
		userAgent:  opt.UserAgent,
	}
}

func isRemote(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("empty uri")
	}
	if isRemote(uri) {
		return f.fetchRemote(ctx, uri)
	}
	return f.fetchFile(ctx, uri)
}

func (f *Fetcher) fetchRemote(ctx context.Context, uri string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Cache-Control", "no-store")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URI: uri, Code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPayload))
}

func (f *Fetcher) fetchFile(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.localPath(refPath(uri)))
}

// localPath maps a site-relative reference onto a file under the root. The
// reference is cleaned as a rooted path so it cannot climb above the root.
func (f *Fetcher) localPath(uri string) string {
	rel := strings.TrimPrefix(filepath.ToSlash(uri), "file://")
	clean := path.Clean("/" + strings.TrimLeft(rel, "/"))
	return filepath.Join(f.root, filepath.FromSlash(clean))
}
