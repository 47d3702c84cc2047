package element

import (
	"github.com/lumen-ui/lumen/pkg/reactive"
)

// ListItem is one entry of a keyed list snapshot: a stable key and the
// deferred render thunk for the item's content.
type ListItem struct {
	Key    string
	Render func() (*Element, error)
}

// KeyedList describes a reactive collection view. Source is the
// sequence signal (subscribed by the renderer to learn about updates);
// Items snapshots the current sequence into keyed render thunks.
type KeyedList struct {
	Source reactive.Source
	Items  func() []ListItem
}

// ForEach creates a keyed list over a slice signal. key extracts each
// item's identity; render produces the item content and runs inside a
// per-key component scope, so reactive cells created in it survive
// list reorders and an item-local change re-renders only that item.
func ForEach[T any](source *reactive.Signal[[]T], key func(T) string, render func(T) *Element) *Element {
	return &Element{
		Kind: KindKeyedList,
		List: &KeyedList{
			Source: source,
			Items: func() []ListItem {
				values := source.Peek()
				items := make([]ListItem, len(values))
				for i, v := range values {
					v := v
					items[i] = ListItem{
						Key: key(v),
						Render: func() (*Element, error) {
							return render(v), nil
						},
					}
				}
				return items
			},
		},
	}
}
