package analytics

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) report(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestNilReporterIsNoop(t *testing.T) {
	var r Reporter
	assert.NotPanics(t, func() { r.Emit(context.Background(), PageView("https://x.test/")) })
}

func TestCTAEvents(t *testing.T) {
	e, ok := CTAEvent(CTAContact)
	require.True(t, ok)
	assert.Equal(t, "generate_lead", e.Name)
	assert.Equal(t, "Article Bottom CTA", e.Params["method"])

	e, ok = CTAEvent(CTACalculator)
	require.True(t, ok)
	assert.Equal(t, "calculator_start", e.Name)

	e, ok = CTAEvent(CTAInline)
	require.True(t, ok)
	assert.Equal(t, "Article Inline CTA", e.Params["method"])

	e.Params["method"] = "mutated"
	again, _ := CTAEvent(CTAInline)
	assert.Equal(t, "Article Inline CTA", again.Params["method"])

	_, ok = CTAEvent("newsletter")
	assert.False(t, ok)
	assert.Equal(t, []string{"calculator", "contact", "inline"}, CTAKinds())
}

func TestPageView(t *testing.T) {
	e := PageView("https://monetize-parking.com/articles/dynamic-pricing/?ref=nav")
	assert.Equal(t, "page_view", e.Name)
	assert.Equal(t, "/articles/dynamic-pricing/?ref=nav", e.Params["page_path"])
	assert.Equal(t, "https://monetize-parking.com/articles/dynamic-pricing/?ref=nav", e.Params["page_location"])
}

func TestTrackerAttachesOnce(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(rec.report)
	ctx := context.Background()

	assert.False(t, tr.Click(ctx, CTAContact), "detached tracker ignores clicks")

	var wg sync.WaitGroup
	var attached sync.Map
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if tr.Attach() {
				attached.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	n := 0
	attached.Range(func(_, _ any) bool { n++; return true })
	assert.Equal(t, 1, n)

	assert.True(t, tr.Click(ctx, CTAInline))
	assert.False(t, tr.Click(ctx, "unknown"))
	require.Len(t, rec.events, 1)
	assert.Equal(t, "inline", rec.events[0].Params["cta"])
}

func TestZapReporter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := ZapReporter(zap.New(core))
	r.Emit(context.Background(), PageView("https://x.test/resources/"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "analytics event", entry.Message)
	assert.Equal(t, "page_view", entry.ContextMap()["event"])
	assert.Equal(t, "/resources/", entry.ContextMap()["page_path"])

	assert.Nil(t, ZapReporter(nil))
}
