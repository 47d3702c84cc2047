package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lumen-ui/lumen/pkg/diag"
	"github.com/lumen-ui/lumen/pkg/element"
)

// waitPending polls until the scheduler holds at least one queued task.
func waitPending(t *testing.T, q *manualQueue) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if q.pending() > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no task reached the scheduler in time")
}

func TestSuspendShowsFallbackThenResolves(t *testing.T) {
	sink := &captureSink{}
	q := &manualQueue{}
	gate := make(chan struct{})

	root := element.El("div",
		Suspend(element.Text("loading"), func(ctx context.Context) (*element.Element, error) {
			<-gate
			return element.El("p", "ready"), nil
		}),
		element.El("span", "sibling"),
	)

	doc, _ := mustMount(t, root, WithSink(sink), WithScheduler(q.schedule))

	got := markup(doc)
	if !strings.Contains(got, "loading") {
		t.Fatalf("fallback not shown: %s", got)
	}

	close(gate)
	waitPending(t, q)
	q.drain()

	got = markup(doc)
	if strings.Contains(got, "loading") || !strings.Contains(got, "<p>ready</p>") {
		t.Errorf("resolve did not swap: %s", got)
	}
	if !strings.Contains(got, "<span>sibling</span>") {
		t.Errorf("sibling disturbed: %s", got)
	}
	if len(sink.byKind(diag.KindSuspenseResolved)) != 1 {
		t.Error("expected one resolve event")
	}
}

func TestSuspendDisposedBeforeResolve(t *testing.T) {
	q := &manualQueue{}
	gate := make(chan struct{})
	fetched := make(chan struct{})

	root := Suspend(element.Text("loading"), func(ctx context.Context) (*element.Element, error) {
		<-gate
		close(fetched)
		return element.Text("late"), nil
	})

	_, h := mustMount(t, root, WithScheduler(q.schedule))
	q.drain()
	h.Dispose()

	close(gate)
	<-fetched

	// The task's context was canceled with the scope, so the late
	// result must be dropped before it ever reaches the scheduler.
	time.Sleep(10 * time.Millisecond)
	if n := q.pending(); n != 0 {
		t.Errorf("%d tasks queued after dispose, want 0", n)
	}
}

func TestSuspendErrorHitsBoundary(t *testing.T) {
	sink := &captureSink{}
	q := &manualQueue{}
	gate := make(chan struct{})

	root := Boundary(
		func(err error) *element.Element {
			return element.El("em", "failed: "+err.Error())
		},
		Suspend(element.Text("loading"), func(ctx context.Context) (*element.Element, error) {
			<-gate
			return nil, errors.New("backend down")
		}),
	)

	doc, _ := mustMount(t, root, WithSink(sink), WithScheduler(q.schedule))

	close(gate)
	waitPending(t, q)
	q.drain()

	got := markup(doc)
	if !strings.Contains(got, "failed: backend down") {
		t.Errorf("boundary not engaged: %s", got)
	}
	if len(sink.byKind(diag.KindRenderFailure)) == 0 {
		t.Error("expected a render failure event")
	}
}

func TestSuspendErrorWithoutBoundary(t *testing.T) {
	q := &manualQueue{}
	gate := make(chan struct{})

	root := Suspend(element.Text("loading"), func(ctx context.Context) (*element.Element, error) {
		<-gate
		return nil, errors.New("no luck")
	})

	doc, _ := mustMount(t, root, WithScheduler(q.schedule))

	close(gate)
	waitPending(t, q)
	q.drain()

	if got := markup(doc); !strings.Contains(got, "no luck") {
		t.Errorf("error text not surfaced: %s", got)
	}
}
