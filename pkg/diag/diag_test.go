package diag

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestKindString(t *testing.T) {
	if got := KindListReorder.String(); got != "ListReorder" {
		t.Errorf("got %q", got)
	}
	if got := Kind(200).String(); got != "Unknown" {
		t.Errorf("got %q", got)
	}
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Emit(e Event) {
	r.events = append(r.events, e)
}

func TestTeeFansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}

	Tee{a, b, Nop{}}.Emit(Event{Kind: KindRenderDone, Label: "app"})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("a=%d b=%d events, want 1 each", len(a.events), len(b.events))
	}
	if a.events[0].Label != "app" {
		t.Errorf("label = %q", a.events[0].Label)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger)

	sink.Emit(Event{Kind: KindRenderFailure, Label: "widget", Err: errors.New("boom")})
	sink.Emit(Event{Kind: KindListReorder, Moves: 2, Stable: 5})

	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "kind=RenderFailure") {
		t.Errorf("failure not logged at error level: %s", out)
	}
	if !strings.Contains(out, "moves=2") || !strings.Contains(out, "stable=5") {
		t.Errorf("reorder stats missing: %s", out)
	}
}

func TestSlogSinkNilLoggerDefaults(t *testing.T) {
	// Must not panic.
	NewSlogSink(nil).Emit(Event{Kind: KindRenderDone})
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.Emit(Event{Kind: KindRenderDone})
	c.Emit(Event{Kind: KindRenderDone})
	c.Emit(Event{Kind: KindRenderFailure, Err: errors.New("boom")})
	c.Emit(Event{Kind: KindListReorder, Moves: 3, Stable: 4})

	if got := testutil.ToFloat64(c.renders); got != 2 {
		t.Errorf("renders = %v", got)
	}
	if got := testutil.ToFloat64(c.renderFailures); got != 1 {
		t.Errorf("renderFailures = %v", got)
	}
	if got := testutil.ToFloat64(c.listReorders); got != 1 {
		t.Errorf("listReorders = %v", got)
	}
}
