package element

import (
	"fmt"

	"github.com/lumen-ui/lumen/pkg/reactive"
)

// Normalize lowers a heterogeneous child list into elements:
//
//   - nil and bool values are dropped;
//   - strings and numbers become Text;
//   - a bare signal of *Element becomes a SignalElement, a bare signal
//     of a primitive becomes a SignalText;
//   - a component-producing func becomes a deferred Component (it is
//     not invoked here);
//   - nested slices flatten.
//
// Anything else formats via fmt into a Text leaf, so a stray value is
// visible in output rather than silently vanishing.
func Normalize(children ...any) []*Element {
	var out []*Element
	appendChild(&out, children)
	return out
}

func appendChild(out *[]*Element, child any) {
	switch v := child.(type) {
	case nil:
		return
	case bool:
		// true/false render nothing; this makes `cond && el` style
		// construction cheap at call sites.
		return
	case *Element:
		if v != nil {
			*out = append(*out, v)
		}
	case []*Element:
		for _, c := range v {
			if c != nil {
				*out = append(*out, c)
			}
		}
	case []any:
		for _, c := range v {
			appendChild(out, c)
		}
	case string:
		*out = append(*out, Text(v))
	case int:
		*out = append(*out, Textf("%d", v))
	case int64:
		*out = append(*out, Textf("%d", v))
	case float64:
		*out = append(*out, Textf("%g", v))
	case *reactive.Signal[*Element]:
		*out = append(*out, Dynamic(v))
	case *reactive.Signal[string]:
		*out = append(*out, SignalText(v))
	case *reactive.Signal[int]:
		*out = append(*out, SignalTextOf(v))
	case *reactive.Signal[int64]:
		*out = append(*out, SignalTextOf(v))
	case *reactive.Signal[float64]:
		*out = append(*out, SignalTextOf(v))
	case *reactive.Signal[bool]:
		*out = append(*out, SignalTextOf(v))
	case func() (*Element, error):
		*out = append(*out, Func("", v))
	case func() *Element:
		*out = append(*out, FuncOf("", v))
	case reactive.Source:
		// A signal of some other type still binds as reactive text.
		*out = append(*out, SignalTextOf(v))
	default:
		*out = append(*out, Textf("%v", v))
	}
}

// FormatText renders a type-erased signal value the way SignalText
// nodes display it.
func FormatText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
