package serve

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// watchDirs lists the directories whose changes reload open pages: trees
// walked recursively, and single directories watched on their own.
func (s *Server) watchDirs() (trees, flat []string) {
	cfg := s.app.Cfg
	trees = []string{
		filepath.Join(cfg.Catalog.BodyRoot, "data"),
		filepath.Join(cfg.Catalog.BodyRoot, "content"),
		cfg.Build.StaticDir,
	}
	if cfg.Build.ThemeDir != "" {
		trees = append(trees, cfg.Build.ThemeDir)
	}
	if cfg.Catalog.SeriesFile != "" {
		flat = append(flat, filepath.Dir(cfg.Catalog.SeriesFile))
	}
	return trees, flat
}

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w

		trees, flat := s.watchDirs()
		for _, root := range trees {
			if _, statErr := os.Stat(root); statErr != nil {
				continue
			}
			walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return w.Add(path)
				}
				return nil
			})
			if walkErr != nil {
				err = fmt.Errorf("watch %s: %w", root, walkErr)
				return
			}
		}
		for _, dir := range flat {
			if _, statErr := os.Stat(dir); statErr != nil {
				continue
			}
			if addErr := w.Add(dir); addErr != nil {
				err = fmt.Errorf("watch %s: %w", dir, addErr)
				return
			}
		}

		go s.watchLoop(ctx)
	})
	return err
}

func (s *Server) watchLoop(ctx context.Context) {
	s.log.Info("watching for file changes")
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = s.watcher.Add(ev.Name)
				}
			}
			debounce.Reset(reloadDebounce)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", zap.Error(err))
		case <-debounce.C:
			s.reload()
		}
	}
}

// reload picks up template and series edits, then tells every open page to
// refresh. The catalog needs no reload: each page view fetches it anew.
func (s *Server) reload() {
	if err := s.app.Reload(); err != nil {
		s.log.Error("reload failed", zap.Error(err))
		return
	}
	s.log.Info("reload complete")
	s.broadcastSSE("reload")
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 8)

	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseConns, ch)
		s.sseMu.Unlock()
	}()
	fmt.Fprintf(w, "data: %s\n\n", "hello")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcastSSE(msg string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for ch := range s.sseConns {
		select {
		case ch <- msg:
		default:
		}
	}
}
