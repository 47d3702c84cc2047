package reactive

import (
	"sync/atomic"

	"github.com/lumen-ui/lumen/pkg/diag"
)

// currentSink holds the package-wide diagnostics sink.
// Listener and finalizer panics are reported here rather than raised to
// the writer that triggered them.
var currentSink atomic.Value // diag.Sink

func init() {
	currentSink.Store(diag.Sink(diag.Nop{}))
}

// SetSink installs the diagnostics sink used for listener and finalizer
// failure reports. Safe to call at any time; nil restores the no-op sink.
func SetSink(s diag.Sink) {
	if s == nil {
		s = diag.Nop{}
	}
	currentSink.Store(s)
}

// sink returns the active diagnostics sink.
func sink() diag.Sink {
	return currentSink.Load().(diag.Sink)
}
