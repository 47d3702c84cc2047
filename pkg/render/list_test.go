package render

import (
	"strings"
	"testing"

	"github.com/lumen-ui/lumen/pkg/diag"
	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/reactive"
)

func identity(s string) string { return s }

func itemText(s string) *element.Element {
	return element.El("li", s)
}

func TestKeyedListInitialRender(t *testing.T) {
	src := reactive.New([]string{"a", "b", "c"})

	doc, _ := mustMount(t, element.El("ul",
		element.ForEach(src, identity, itemText),
	))

	got := markup(doc)
	for _, item := range []string{"<li>a</li>", "<li>b</li>", "<li>c</li>"} {
		if !strings.Contains(got, item) {
			t.Errorf("missing %s in %s", item, got)
		}
	}
	if strings.Index(got, "<li>a</li>") > strings.Index(got, "<li>b</li>") {
		t.Errorf("items out of order: %s", got)
	}
}

func TestKeyedListAppendAndRemove(t *testing.T) {
	sink := &captureSink{}
	src := reactive.New([]string{"a", "b"})

	doc, _ := mustMount(t, element.ForEach(src, identity, itemText), WithSink(sink))

	src.Set([]string{"a", "b", "c"})
	if got := markup(doc); !strings.Contains(got, "<li>c</li>") {
		t.Fatalf("append missing: %s", got)
	}

	events := sink.byKind(diag.KindListReorder)
	last := events[len(events)-1]
	if last.Inserted != 1 || last.Removed != 0 || last.Moves != 0 {
		t.Errorf("append stats = %+v", last)
	}

	src.Set([]string{"c"})
	got := markup(doc)
	if strings.Contains(got, "<li>a</li>") || strings.Contains(got, "<li>b</li>") {
		t.Errorf("removed items still mounted: %s", got)
	}

	events = sink.byKind(diag.KindListReorder)
	last = events[len(events)-1]
	if last.Removed != 2 || last.Inserted != 0 {
		t.Errorf("removal stats = %+v", last)
	}
}

func TestKeyedListRotationMovesOne(t *testing.T) {
	sink := &captureSink{}
	src := reactive.New([]string{"a", "b", "c"})

	doc, _ := mustMount(t, element.ForEach(src, identity, itemText), WithSink(sink))

	// Rotating right means only one item actually has to move.
	src.Set([]string{"c", "a", "b"})

	got := markup(doc)
	if !orderedIn(got, "<li>c</li>", "<li>a</li>", "<li>b</li>") {
		t.Fatalf("rotation order wrong: %s", got)
	}

	events := sink.byKind(diag.KindListReorder)
	last := events[len(events)-1]
	if last.Moves != 1 || last.Stable != 2 {
		t.Errorf("rotation stats = %+v, want 1 move, 2 stable", last)
	}
}

func TestKeyedListSwapMovesOne(t *testing.T) {
	sink := &captureSink{}
	src := reactive.New([]string{"a", "b", "c"})

	doc, _ := mustMount(t, element.ForEach(src, identity, itemText), WithSink(sink))

	src.Set([]string{"b", "a", "c"})

	got := markup(doc)
	if !orderedIn(got, "<li>b</li>", "<li>a</li>", "<li>c</li>") {
		t.Fatalf("swap order wrong: %s", got)
	}

	events := sink.byKind(diag.KindListReorder)
	last := events[len(events)-1]
	if last.Moves != 1 {
		t.Errorf("swap stats = %+v, want exactly 1 move", last)
	}
}

func TestKeyedListMoveToEnd(t *testing.T) {
	src := reactive.New([]string{"a", "b", "c"})
	doc, _ := mustMount(t, element.ForEach(src, identity, itemText))

	// Moving an item forward must land it before the region's end, not
	// past it.
	src.Set([]string{"b", "c", "a"})

	got := markup(doc)
	if !orderedIn(got, "<li>b</li>", "<li>c</li>", "<li>a</li>", "<!--list:end-->") {
		t.Errorf("forward move misplaced: %s", got)
	}
}

func TestKeyedListItemStateSurvivesReorder(t *testing.T) {
	src := reactive.New([]string{"a", "b"})
	locals := map[string]*reactive.Signal[int]{}

	doc, _ := mustMount(t, element.ForEach(src, identity, func(s string) *element.Element {
		local := reactive.New(0)
		locals[s] = local
		return element.El("li", element.Textf("%s=%d", s, local.Get()))
	}))

	locals["b"].Set(9)
	if got := markup(doc); !strings.Contains(got, "b=9") {
		t.Fatalf("item-local update missing: %s", got)
	}

	// Reorder: the item scope, and with it the local cell, must survive.
	src.Set([]string{"b", "a"})
	got := markup(doc)
	if !strings.Contains(got, "b=9") {
		t.Errorf("item state lost on reorder: %s", got)
	}
	if !orderedIn(got, "b=9", "a=0") {
		t.Errorf("reorder order wrong: %s", got)
	}
}

func TestKeyedListItemLocalChangeTouchesOnlyThatItem(t *testing.T) {
	sink := &captureSink{}
	src := reactive.New([]string{"a", "b"})
	locals := map[string]*reactive.Signal[int]{}

	doc, _ := mustMount(t, element.ForEach(src, identity, func(s string) *element.Element {
		local := reactive.New(0)
		if _, seen := locals[s]; !seen {
			locals[s] = local
		}
		return element.El("li", element.Textf("%s=%d", s, local.Get()))
	}), WithSink(sink))

	renders := len(sink.byKind(diag.KindRenderStart))
	locals["a"].Set(1)

	if got := len(sink.byKind(diag.KindRenderStart)) - renders; got != 1 {
		t.Errorf("item-local write re-rendered %d components, want 1", got)
	}
	if got := markup(doc); !strings.Contains(got, "a=1") || !strings.Contains(got, "b=0") {
		t.Errorf("markup = %s", got)
	}
}

func TestKeyedListRemovedKeyGetsFreshState(t *testing.T) {
	src := reactive.New([]string{"a", "b"})
	locals := map[string][]*reactive.Signal[int]{}

	doc, _ := mustMount(t, element.ForEach(src, identity, func(s string) *element.Element {
		local := reactive.New(0)
		locals[s] = append(locals[s], local)
		return element.El("li", element.Textf("%s=%d", s, local.Get()))
	}))

	locals["b"][0].Set(5)

	src.Set([]string{"a"})
	src.Set([]string{"a", "b"})

	// The key came back, but its state did not.
	if got := markup(doc); !strings.Contains(got, "b=0") {
		t.Errorf("re-added key resurrected state: %s", got)
	}
	if len(locals["b"]) < 2 || locals["b"][0] == locals["b"][len(locals["b"])-1] {
		t.Error("re-added key reused the old cell")
	}
}

func TestKeyedListDuplicateKeys(t *testing.T) {
	sink := &captureSink{}
	type row struct{ key, text string }
	src := reactive.New([]row{
		{key: "x", text: "first"},
		{key: "x", text: "second"},
	})

	doc, _ := mustMount(t, element.ForEach(src,
		func(r row) string { return r.key },
		func(r row) *element.Element { return element.El("li", r.text) },
	), WithSink(sink))

	collisions := sink.byKind(diag.KindKeyCollision)
	if len(collisions) != 1 || collisions[0].Label != "x" {
		t.Fatalf("collision events = %+v", collisions)
	}

	// Last occurrence wins, deterministically.
	got := markup(doc)
	if strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Errorf("duplicate resolution wrong: %s", got)
	}
}

func TestKeyedListEmpties(t *testing.T) {
	src := reactive.New([]string{"a", "b"})
	doc, _ := mustMount(t, element.ForEach(src, identity, itemText))

	src.Set(nil)
	if got := markup(doc); strings.Contains(got, "<li>") {
		t.Errorf("emptied list still has items: %s", got)
	}

	src.Set([]string{"z"})
	if got := markup(doc); !strings.Contains(got, "<li>z</li>") {
		t.Errorf("refill failed: %s", got)
	}
}

func TestLIS(t *testing.T) {
	tests := []struct {
		name string
		seq  []int
		want int // length of the increasing subsequence
	}{
		{"empty", nil, 0},
		{"single", []int{5}, 1},
		{"sorted", []int{1, 2, 3, 4}, 4},
		{"reversed", []int{4, 3, 2, 1}, 1},
		{"rotation", []int{2, 0, 1}, 2},
		{"mixed", []int{3, 1, 4, 1, 5, 9, 2, 6}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lis(tt.seq)
			if len(got) != tt.want {
				t.Fatalf("lis(%v) length = %d, want %d", tt.seq, len(got), tt.want)
			}
			// Positions must be increasing and values strictly increasing.
			for i := 1; i < len(got); i++ {
				if got[i] <= got[i-1] {
					t.Errorf("positions not increasing: %v", got)
				}
				if tt.seq[got[i]] <= tt.seq[got[i-1]] {
					t.Errorf("values not strictly increasing: %v", got)
				}
			}
		})
	}
}

// orderedIn reports whether subs appear in s in the given order.
func orderedIn(s string, subs ...string) bool {
	pos := 0
	for _, sub := range subs {
		i := strings.Index(s[pos:], sub)
		if i < 0 {
			return false
		}
		pos += i + len(sub)
	}
	return true
}
