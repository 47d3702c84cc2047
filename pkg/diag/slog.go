package diag

import "log/slog"

// SlogSink logs every diagnostic event through a *slog.Logger.
// Failure kinds log at Error level, everything else at Debug.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a SlogSink. A nil logger uses slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Emit implements Sink.
func (s *SlogSink) Emit(e Event) {
	attrs := []any{slog.String("kind", e.Kind.String())}
	if e.Label != "" {
		attrs = append(attrs, slog.String("label", e.Label))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("err", e.Err))
	}

	switch e.Kind {
	case KindListenerFailure, KindFinalizerFailure, KindRenderFailure, KindPortalMiss, KindKeyCollision:
		s.logger.Error("diag event", attrs...)
	case KindListReorder:
		attrs = append(attrs,
			slog.Int("moves", e.Moves),
			slog.Int("stable", e.Stable),
			slog.Int("inserted", e.Inserted),
			slog.Int("removed", e.Removed),
		)
		s.logger.Debug("diag event", attrs...)
	default:
		s.logger.Debug("diag event", attrs...)
	}
}
