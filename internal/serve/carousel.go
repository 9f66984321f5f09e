package serve

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"reshub/internal/domain/content"
	"reshub/internal/logging"
	"reshub/internal/view"
)

// carousels holds the featured carousel of every open listing. A carousel
// lives exactly as long as its event stream.
type carousels struct {
	mu   sync.Mutex
	byID map[string]*view.Carousel
}

func newCarousels() *carousels {
	return &carousels{byID: make(map[string]*view.Carousel)}
}

func (c *carousels) add(car *view.Carousel) string {
	id := uuid.NewString()
	c.mu.Lock()
	c.byID[id] = car
	c.mu.Unlock()
	return id
}

func (c *carousels) get(id string) (*view.Carousel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	car, ok := c.byID[id]
	return car, ok
}

func (c *carousels) remove(id string) {
	c.mu.Lock()
	delete(c.byID, id)
	c.mu.Unlock()
}

func (c *carousels) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

type helloEvent struct {
	Hold  string `json:"hold"`
	Count int    `json:"count"`
}

type slideEvent struct {
	Index int    `json:"index"`
	Slug  string `json:"slug"`
}

// handleFeaturedEvents drives one listing's carousel. The stream says hello
// with the endpoint that takes the page's pause signals, then sends a slide
// event on every rotation.
func (s *Server) handleFeaturedEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()
	log := logging.FromContext(ctx)

	var featured []content.CatalogItem
	if cat, err := s.app.LoadCatalog(ctx); err == nil {
		featured = view.Featured(cat.Items())
	}
	car := view.NewCarousel(featured, view.CarouselOptions{
		Interval:    s.app.Cfg.Featured.Interval,
		QuietPeriod: s.app.Cfg.Featured.QuietPeriod,
	})
	id := s.carousels.add(car)
	defer s.carousels.remove(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(event string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}
	send("hello", helloEvent{Hold: "/resources/featured/holds/" + id, Count: car.Len()})

	err := car.Run(ctx, func(i int, it content.CatalogItem) {
		send("slide", slideEvent{Index: i, Slug: it.Slug})
	})
	if err == nil {
		// Nothing rotates; keep the stream open so the page does not reconnect.
		<-ctx.Done()
	}
	log.Debug("featured stream closed", zap.String("carousel", id))
}

// handleFeaturedHold applies one pause signal from the page.
func (s *Server) handleFeaturedHold(w http.ResponseWriter, r *http.Request) {
	car, ok := s.carousels.get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "unknown carousel", http.StatusNotFound)
		return
	}
	switch r.URL.Query().Get("reason") {
	case "hover":
		car.Hover(true)
	case "leave":
		car.Hover(false)
	case "touch":
		car.Touch()
	case "scroll":
		car.Scroll()
	default:
		http.Error(w, "unknown reason", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
