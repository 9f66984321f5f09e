// Package analytics turns page views and call-to-action clicks into events
// for an injected reporter. A nil reporter drops everything.
package analytics

import (
	"context"
	"net/url"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
)

type Event struct {
	Name   string
	Params map[string]string
}

// Reporter delivers one event. Reporters must not block the page render.
type Reporter func(ctx context.Context, e Event)

func (r Reporter) Emit(ctx context.Context, e Event) {
	if r == nil {
		return
	}
	r(ctx, e)
}

const (
	CTAContact    = "contact"
	CTACalculator = "calculator"
	CTAInline     = "inline"
)

var ctaEvents = map[string]Event{
	CTAContact:    {Name: "generate_lead", Params: map[string]string{"method": "Article Bottom CTA"}},
	CTACalculator: {Name: "calculator_start", Params: map[string]string{"method": "Article Bottom CTA"}},
	CTAInline:     {Name: "generate_lead", Params: map[string]string{"method": "Article Inline CTA"}},
}

// CTAEvent maps a data-cta value onto its event.
func CTAEvent(kind string) (Event, bool) {
	e, ok := ctaEvents[kind]
	if !ok {
		return Event{}, false
	}
	params := make(map[string]string, len(e.Params)+1)
	for k, v := range e.Params {
		params[k] = v
	}
	params["cta"] = kind
	return Event{Name: e.Name, Params: params}, true
}

// CTAKinds lists the recognized data-cta values.
func CTAKinds() []string {
	out := make([]string, 0, len(ctaEvents))
	for k := range ctaEvents {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PageView is sent once the canonical URL of a page is known.
func PageView(canonical string) Event {
	path := canonical
	if u, err := url.Parse(canonical); err == nil && u.Host != "" {
		path = u.EscapedPath()
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
	}
	return Event{Name: "page_view", Params: map[string]string{
		"page_path":     path,
		"page_location": canonical,
	}}
}

// Tracker is the click tracking of one page view. It attaches at most once,
// so a re-rendered page never reports a click twice.
type Tracker struct {
	report   Reporter
	attached atomic.Bool
}

func NewTracker(r Reporter) *Tracker {
	return &Tracker{report: r}
}

// Attach reports whether this call attached the tracker. Later calls are
// no-ops and return false.
func (t *Tracker) Attach() bool {
	return t.attached.CompareAndSwap(false, true)
}

func (t *Tracker) Attached() bool { return t.attached.Load() }

// Click reports a CTA click. Unknown kinds and clicks on a detached tracker
// are ignored.
func (t *Tracker) Click(ctx context.Context, kind string) bool {
	if !t.attached.Load() {
		return false
	}
	e, ok := CTAEvent(kind)
	if !ok {
		return false
	}
	t.report.Emit(ctx, e)
	return true
}

// ZapReporter writes events to log at info level.
func ZapReporter(log *zap.Logger) Reporter {
	if log == nil {
		return nil
	}
	return func(_ context.Context, e Event) {
		fields := make([]zap.Field, 0, len(e.Params)+1)
		fields = append(fields, zap.String("event", e.Name))
		keys := make([]string, 0, len(e.Params))
		for k := range e.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, zap.String(k, e.Params[k]))
		}
		log.Info("analytics event", fields...)
	}
}
