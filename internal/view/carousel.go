package view

import (
	"context"
	"sync"
	"time"

	"reshub/internal/domain/content"
)

const (
	DefaultInterval    = 6 * time.Second
	DefaultQuietPeriod = 4 * time.Second
)

// Carousel rotates through the featured items. Interaction and page scrolling
// each hold the rotation until their quiet period has passed.
type Carousel struct {
	items    []content.CatalogItem
	interval time.Duration
	quiet    time.Duration
	now      func() time.Time

	mu          sync.Mutex
	index       int
	holdTouch   time.Time
	holdScroll  time.Time
	interacting bool
}

type CarouselOptions struct {
	Interval    time.Duration
	QuietPeriod time.Duration
	Now         func() time.Time
}

func NewCarousel(items []content.CatalogItem, opt CarouselOptions) *Carousel {
	if opt.Interval <= 0 {
		opt.Interval = DefaultInterval
	}
	if opt.QuietPeriod <= 0 {
		opt.QuietPeriod = DefaultQuietPeriod
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Carousel{
		items:    items,
		interval: opt.Interval,
		quiet:    opt.QuietPeriod,
		now:      opt.Now,
	}
}

// Rotates reports whether there is more than one item to cycle through.
func (c *Carousel) Rotates() bool { return len(c.items) > 1 }

func (c *Carousel) Len() int { return len(c.items) }

// Current returns the visible slide.
func (c *Carousel) Current() (int, content.CatalogItem, bool) {
	if len(c.items) == 0 {
		return 0, content.CatalogItem{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index, c.items[c.index], true
}

// Hover holds rotation while the pointer is over the carousel. Leaving starts
// the quiet period.
func (c *Carousel) Hover(over bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interacting = over
	if !over {
		c.holdTouch = c.now().Add(c.quiet)
	}
}

// Touch holds rotation for one quiet period.
func (c *Carousel) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdTouch = c.now().Add(c.quiet)
}

// Scroll holds rotation while the page moves. Each call extends the hold.
func (c *Carousel) Scroll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdScroll = c.now().Add(c.quiet)
}

// Paused reports whether a guard currently holds the rotation.
func (c *Carousel) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pausedLocked(c.now())
}

func (c *Carousel) pausedLocked(now time.Time) bool {
	return c.interacting || now.Before(c.holdTouch) || now.Before(c.holdScroll)
}

// Tick advances one slide unless rotation is held. It reports whether the
// slide changed.
func (c *Carousel) Tick() bool {
	if !c.Rotates() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pausedLocked(c.now()) {
		return false
	}
	c.index = (c.index + 1) % len(c.items)
	return true
}

// Go jumps to slide i, as a manual navigation does, and holds rotation.
func (c *Carousel) Go(i int) {
	if len(c.items) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = ((i % len(c.items)) + len(c.items)) % len(c.items)
	c.holdTouch = c.now().Add(c.quiet)
}

// Run ticks on the interval until ctx is done, calling advance after every
// slide change. A carousel with a single item returns at once.
func (c *Carousel) Run(ctx context.Context, advance func(index int, item content.CatalogItem)) error {
	if !c.Rotates() {
		return nil
	}
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if c.Tick() && advance != nil {
				i, it, _ := c.Current()
				advance(i, it)
			}
			timer.Reset(c.interval)
		}
	}
}
