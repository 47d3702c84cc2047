package render

import (
	ierr "github.com/lumen-ui/lumen/internal/errors"
	"github.com/lumen-ui/lumen/pkg/diag"
	"github.com/lumen-ui/lumen/pkg/dom"
	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/reactive"
)

// listItemState is one mounted list item: its per-key scope (which
// preserves the item's reactive state across reorders) and the anchor
// marking the start of its node segment.
type listItemState struct {
	key    string
	scope  *reactive.Scope
	anchor dom.Node
}

// keyedList reconciles a reactive sequence against the document. Items
// live contiguously between a head and a tail anchor; each item's
// segment runs from its own anchor up to the next item's anchor.
type keyedList struct {
	m      *mount
	scope  *reactive.Scope
	parent dom.Node
	head   dom.Node
	tail   dom.Node
	states map[string]*listItemState
	order  []string
}

// mountKeyedList mounts the list region and renders the initial items.
func (m *mount) mountKeyedList(e *element.Element, cur *cursor, scope *reactive.Scope, regionRoot bool) error {
	head := m.doc.CreateAnchor("list")
	m.placeNode(head, cur, scope, regionRoot)
	tail := m.doc.CreateAnchor("list:end")
	m.placeNode(tail, cur, scope, regionRoot)

	kl := &keyedList{
		m:      m,
		scope:  scope,
		parent: cur.parent,
		head:   head,
		tail:   tail,
		states: make(map[string]*listItemState),
	}

	list := e.List
	kl.apply(list.Items())

	unsub := subscribeSource(list.Source, func() {
		if scope.IsDisposed() {
			return
		}
		kl.apply(list.Items())
	})
	scope.OnCleanup(unsub)
	return nil
}

// apply reconciles the mounted items against a fresh snapshot.
// Retained keys keep their scope and nodes (only document position may
// change), removed keys close their scopes, new keys mount fresh. Moves
// are minimized via a longest strictly-increasing subsequence over the
// retained items' old indices: LIS members stay put, everything else
// repositions.
func (kl *keyedList) apply(items []element.ListItem) {
	items = kl.dedupe(items)

	oldIndex := make(map[string]int, len(kl.order))
	for i, key := range kl.order {
		oldIndex[key] = i
	}

	newKeys := make(map[string]struct{}, len(items))
	for _, it := range items {
		newKeys[it.Key] = struct{}{}
	}

	// Close scopes of items that disappeared.
	removed := 0
	for _, key := range kl.order {
		if _, ok := newKeys[key]; !ok {
			if st := kl.states[key]; st != nil {
				st.scope.Close()
				delete(kl.states, key)
				removed++
			}
		}
	}

	// Old indices of retained keys, in new order, feed the LIS.
	var retainedOld []int
	for _, it := range items {
		if idx, ok := oldIndex[it.Key]; ok {
			retainedOld = append(retainedOld, idx)
		}
	}
	stable := make(map[int]struct{})
	for _, pos := range lis(retainedOld) {
		stable[retainedOld[pos]] = struct{}{}
	}

	moves, inserted := 0, 0
	prev := kl.head
	retainedCursor := 0
	newOrder := make([]string, 0, len(items))

	for _, it := range items {
		newOrder = append(newOrder, it.Key)

		st, retained := kl.states[it.Key]
		if retained {
			oldIdx := retainedOld[retainedCursor]
			retainedCursor++

			if _, inPlace := stable[oldIdx]; inPlace {
				prev = kl.segmentEnd(st)
				continue
			}

			prev = kl.moveSegment(st, prev)
			moves++
			continue
		}

		// Fresh key: never resurrects prior state, even if the key
		// existed before and was removed.
		node, err := kl.mountItem(it, prev)
		if err != nil {
			kl.m.sink.Emit(diag.Event{Kind: diag.KindRenderFailure, Label: it.Key, Err: err})
			continue
		}
		prev = node
		inserted++
	}

	kl.order = newOrder

	kl.m.sink.Emit(diag.Event{
		Kind:     diag.KindListReorder,
		Moves:    moves,
		Stable:   len(retainedOld) - moves,
		Inserted: inserted,
		Removed:  removed,
	})
}

// dedupe reports duplicate keys and keeps the last occurrence, so
// identity stays unambiguous even on misconfigured input.
func (kl *keyedList) dedupe(items []element.ListItem) []element.ListItem {
	seen := make(map[string]int, len(items))
	dup := false
	for i, it := range items {
		if _, ok := seen[it.Key]; ok {
			dup = true
			kl.m.sink.Emit(diag.Event{
				Kind:  diag.KindKeyCollision,
				Label: it.Key,
				Err:   ierr.Newf("E050", "key %q", it.Key),
			})
		}
		seen[it.Key] = i
	}
	if !dup {
		return items
	}

	out := make([]element.ListItem, 0, len(seen))
	for i, it := range items {
		if seen[it.Key] == i {
			out = append(out, it)
		}
	}
	return out
}

// mountItem renders one item inside its own scope, placed after prev.
// The item body mounts as a component, so reactive reads inside it
// re-render just this item. Returns the last node of the new segment.
func (kl *keyedList) mountItem(it element.ListItem, prev dom.Node) (dom.Node, error) {
	itemScope := kl.scope.Child()

	var roots []dom.Node
	cur := newCursor(kl.parent, prev, &roots)
	err := kl.m.mountComponent(element.Func(it.Key, it.Render), cur, itemScope, true)
	if err != nil {
		itemScope.Close()
		return nil, err
	}

	kl.states[it.Key] = &listItemState{
		key:    it.Key,
		scope:  itemScope,
		anchor: roots[0],
	}
	return kl.segmentEnd(kl.states[it.Key]), nil
}

// segment returns the item's nodes: from its anchor up to the next
// item anchor or the tail. Item content changes between reconciles, so
// the segment is computed from the live tree rather than cached.
func (kl *keyedList) segment(st *listItemState) []dom.Node {
	children := kl.parent.Children()
	start := kl.parent.ChildIndex(st.anchor)
	if start < 0 {
		return nil
	}

	end := start + 1
	for end < len(children) {
		n := children[end]
		if n == kl.tail || kl.isItemAnchor(n) {
			break
		}
		end++
	}
	return children[start:end]
}

// isItemAnchor reports whether n starts some mounted item's segment.
func (kl *keyedList) isItemAnchor(n dom.Node) bool {
	for _, st := range kl.states {
		if st.anchor == n {
			return true
		}
	}
	return false
}

// segmentEnd returns the last node of an item's segment.
func (kl *keyedList) segmentEnd(st *listItemState) dom.Node {
	seg := kl.segment(st)
	if len(seg) == 0 {
		return st.anchor
	}
	return seg[len(seg)-1]
}

// moveSegment repositions an item's nodes directly after prev and
// returns the segment's new last node.
func (kl *keyedList) moveSegment(st *listItemState, prev dom.Node) dom.Node {
	seg := kl.segment(st)
	for _, n := range seg {
		idx := 0
		if prev != nil {
			idx = kl.parent.ChildIndex(prev) + 1
			// Moving a node forward detaches it from in front of the
			// target, shifting the target one slot left.
			if ci := kl.parent.ChildIndex(n); ci >= 0 && ci < idx {
				idx--
			}
		}
		kl.parent.InsertChild(n, idx)
		prev = n
	}
	return prev
}

// lis returns positions (into seq) of one longest strictly increasing
// subsequence, computed with patience sorting in O(n log n).
func lis(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}

	// tails[k] is the index in seq of the smallest tail of any
	// increasing subsequence of length k+1; parent links rebuild the
	// chosen subsequence.
	tails := make([]int, 0, len(seq))
	parent := make([]int, len(seq))

	for i, v := range seq {
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}

		if lo > 0 {
			parent[i] = tails[lo-1]
		} else {
			parent[i] = -1
		}

		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	out := make([]int, len(tails))
	k := tails[len(tails)-1]
	for i := len(tails) - 1; i >= 0; i-- {
		out[i] = k
		k = parent[k]
	}
	return out
}
