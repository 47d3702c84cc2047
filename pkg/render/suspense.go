package render

import (
	"context"

	ierr "github.com/lumen-ui/lumen/internal/errors"
	"github.com/lumen-ui/lumen/pkg/diag"
	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/reactive"
)

// Suspend renders fallback while fetch runs on a scope-owned task, then
// swaps in the produced subtree. The task's context is canceled when
// the region unmounts, and a late result for an unmounted region is
// dropped. A fetch error is contained like any render failure: the
// nearest Boundary takes over, otherwise the error surfaces through the
// enclosing component.
func Suspend(fallback *element.Element, fetch func(ctx context.Context) (*element.Element, error)) *element.Element {
	return element.Func("suspend", func() (*element.Element, error) {
		scope := reactive.CurrentScope()
		if scope == nil {
			return nil, ierr.Newf("E005", "Suspend outside a mounted component")
		}
		m := mountOf(scope)
		if m == nil {
			return nil, ierr.Newf("E005", "Suspend outside a mounted tree")
		}

		// The view signal starts at the fallback and flips exactly once.
		// It is created untracked so the suspend body itself never
		// re-runs; only the dynamic region below observes the flip.
		var view *reactive.Signal[*element.Element]
		reactive.Untracked(func() {
			view = reactive.New(fallback)
		})

		scope.Go(func(ctx context.Context) {
			result, err := fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			m.schedule(func() {
				if scope.IsDisposed() {
					return
				}
				if err != nil {
					m.sink.Emit(diag.Event{Kind: diag.KindRenderFailure, Label: "suspend", Err: err})
					if boundary, ok := nearestBoundary(scope); ok {
						view.Set(boundary(err))
						return
					}
					view.Set(element.Text(ierr.New("E005").Wrap(err).Error()))
					return
				}
				m.sink.Emit(diag.Event{Kind: diag.KindSuspenseResolved, Label: "suspend"})
				view.Set(result)
			})
		})

		return element.Dynamic(view), nil
	})
}
