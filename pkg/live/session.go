package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-ui/lumen/pkg/diag"
	"github.com/lumen-ui/lumen/pkg/dom"
	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/protocol"
	"github.com/lumen-ui/lumen/pkg/reactive"
	"github.com/lumen-ui/lumen/pkg/render"
)

// Session errors.
var (
	ErrSessionClosed  = errors.New("live: session closed")
	ErrEventQueueFull = errors.New("live: event queue full")
)

// SessionConfig controls per-session behavior.
type SessionConfig struct {
	// MaxEventQueue bounds the incoming event and dispatch queues.
	MaxEventQueue int

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// HeartbeatInterval is the ping cadence.
	HeartbeatInterval time.Duration

	// ReadLimit bounds incoming message size in bytes.
	ReadLimit int64
}

// DefaultSessionConfig returns production defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		MaxEventQueue:     256,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		ReadLimit:         64 * 1024,
	}
}

// Session is one connected client: a private document, a mounted tree,
// and a single event loop goroutine that serializes every mutation.
type Session struct {
	ID         string
	CreatedAt  time.Time
	lastActive atomic.Int64

	doc    *dom.MemoryDocument
	ops    *dom.OpLog
	handle *render.Handle

	conn   *websocket.Conn
	connMu sync.Mutex // protects conn writes
	closed atomic.Bool

	sendSeq atomic.Uint64

	events     chan protocol.EventMessage
	dispatchCh chan func()
	done       chan struct{}

	// Navigation state, nil for sessions mounted on a fixed root.
	resolve func(path string) *element.Element
	page    *reactive.Signal[*element.Element]

	config  *SessionConfig
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *Metrics

	eventCount atomic.Uint64
	bytesSent  atomic.Uint64
}

// generateSessionID returns a cryptographically random session ID.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// Weak session IDs are worse than a crash.
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// NewSession mounts root into a fresh document and returns the session.
// The session has no connection yet; Attach hands it one.
func NewSession(root *element.Element, config *SessionConfig, logger *slog.Logger, metrics *Metrics) (*Session, error) {
	if config == nil {
		config = DefaultSessionConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := generateSessionID()
	s := &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		doc:        dom.NewMemoryDocument(),
		ops:        &dom.OpLog{},
		events:     make(chan protocol.EventMessage, config.MaxEventQueue),
		dispatchCh: make(chan func(), config.MaxEventQueue),
		done:       make(chan struct{}),
		config:     config,
		logger:     logger.With("session_id", id),
		tracer:     otel.Tracer("lumen/live"),
		metrics:    metrics,
	}
	s.touch()

	// Record from the first mount so the initial flush carries the
	// whole tree as insert ops.
	s.doc.SetRecorder(s.ops)

	sink := diag.Sink(diag.NewSlogSink(s.logger))
	if metrics != nil && metrics.renderSink != nil {
		sink = diag.Tee{sink, metrics.renderSink}
	}

	handle, err := render.Mount(s.doc, s.doc.Root(), root, nil,
		render.WithScheduler(s.Dispatch),
		render.WithSink(sink),
	)
	if err != nil {
		return nil, fmt.Errorf("mount root: %w", err)
	}
	s.handle = handle

	s.logger.Info("session created", "pending_ops", s.ops.Len())
	return s, nil
}

// NewSessionForPath mounts the page resolve returns for path, inside a
// dynamic region so later navigation swaps pages without remounting the
// session. Path matching is entirely the resolver's business.
func NewSessionForPath(resolve func(path string) *element.Element, path string, config *SessionConfig, logger *slog.Logger, metrics *Metrics) (*Session, error) {
	page := reactive.New(resolve(path))

	s, err := NewSession(element.Dynamic(page), config, logger, metrics)
	if err != nil {
		return nil, err
	}
	s.resolve = resolve
	s.page = page
	return s, nil
}

// Navigate swaps the session's page to what the resolver returns for
// path. Runs on the event loop like any other mutation.
func (s *Session) Navigate(path string) {
	if s.resolve == nil {
		s.logger.Warn("navigate on a fixed-root session", "path", path)
		return
	}
	s.Dispatch(func() {
		s.page.Set(s.resolve(path))
	})
}

// Document returns the session's document. Intended for tests and for
// server-side inspection; mutations must go through Dispatch.
func (s *Session) Document() *dom.MemoryDocument {
	return s.doc
}

// LastActive returns the time of the last client activity.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Attach binds a WebSocket connection and starts the session loops.
func (s *Session) Attach(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	conn.SetReadLimit(s.config.ReadLimit)

	go s.readLoop()
	go s.heartbeatLoop()
	go s.eventLoop()

	// Ship the initial tree.
	s.Dispatch(func() {})
}

// Dispatch queues fn onto the session's event loop. Safe from any
// goroutine; this is how asynchronous work (timers, fetches) updates
// signals without racing the renderer.
func (s *Session) Dispatch(fn func()) {
	if s.closed.Load() {
		return
	}
	select {
	case s.dispatchCh <- fn:
	case <-s.done:
	default:
		s.logger.Warn("dispatch queue full, discarding callback")
	}
}

// QueueEvent queues a client event for processing.
func (s *Session) QueueEvent(msg protocol.EventMessage) error {
	select {
	case s.events <- msg:
		return nil
	default:
		s.logger.Warn("event queue full, dropping event", "node", msg.NodeID, "type", msg.Type)
		return ErrEventQueueFull
	}
}

// eventLoop serializes events and dispatched callbacks, flushing the
// recorded ops after each unit of work.
func (s *Session) eventLoop() {
	for {
		select {
		case msg := <-s.events:
			s.handleEvent(msg)
			s.flush()

		case fn := <-s.dispatchCh:
			s.execute(fn)
			s.flush()

		case <-s.done:
			return
		}
	}
}

// handleEvent delivers one client event to its target node.
func (s *Session) handleEvent(msg protocol.EventMessage) {
	s.touch()
	s.eventCount.Add(1)
	if s.metrics != nil {
		s.metrics.eventsTotal.Inc()
	}

	// Navigation is addressed to the session, not a node.
	if msg.Type == "navigate" {
		if s.resolve == nil {
			s.sendError("E005", "session does not support navigation")
			return
		}
		s.execute(func() {
			s.page.Set(s.resolve(msg.Value))
		})
		return
	}

	node, ok := s.doc.NodeByID(msg.NodeID)
	if !ok {
		s.logger.Warn("event target not found", "node", msg.NodeID, "type", msg.Type)
		s.sendError("E005", "event target not found: "+msg.NodeID)
		return
	}

	s.execute(func() {
		node.DispatchEvent(dom.Event{Type: msg.Type, Target: node, Value: msg.Value})
	})
}

// execute runs fn with panic recovery. A panicking handler must not
// take the whole session down.
func (s *Session) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event loop panic",
				"panic", r,
				"stack", string(debug.Stack()))
			s.sendError("E005", "internal error")
		}
	}()
	fn()
}

// flush drains recorded ops and ships them as one sequenced frame.
func (s *Session) flush() {
	ops := s.ops.Drain()
	if len(ops) == 0 {
		return
	}

	_, span := s.tracer.Start(context.Background(), "session.flush",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.Int("ops.count", len(ops)),
		))
	defer span.End()

	seq := s.sendSeq.Add(1)

	enc := protocol.NewEncoder()
	enc.WriteUvarint(seq)
	protocol.EncodeOps(enc, ops)

	frame := &protocol.Frame{
		Type:    protocol.FrameOps,
		Flags:   protocol.FlagSequenced | protocol.FlagFinal,
		Payload: enc.Bytes(),
	}

	n, err := s.writeFrame(frame)
	if err != nil {
		s.logger.Error("flush write error", "error", err)
		s.Close()
		return
	}

	s.bytesSent.Add(uint64(n))
	if s.metrics != nil {
		s.metrics.flushOps.Observe(float64(len(ops)))
		s.metrics.flushBytes.Observe(float64(n))
	}
	s.logger.Debug("flushed ops", "seq", seq, "count", len(ops), "bytes", n)
}

// writeFrame writes one frame under the connection write lock and
// returns the bytes written.
func (s *Session) writeFrame(f *protocol.Frame) (int, error) {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.closed.Load() || s.conn == nil {
		return 0, ErrSessionClosed
	}

	data := f.Encode()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// sendError ships a coded error frame. Best effort.
func (s *Session) sendError(code, message string) {
	enc := protocol.NewEncoder()
	msg := protocol.ErrorMessage{Code: code, Message: message}
	msg.Encode(enc)
	if _, err := s.writeFrame(protocol.NewFrame(protocol.FrameError, enc.Bytes())); err != nil {
		s.logger.Debug("error frame write failed", "error", err)
	}
}

// readLoop reads frames from the client until the connection dies.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read error", "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		frame, err := protocol.DecodeFrame(data)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			msg, err := protocol.DecodeEventMessage(protocol.NewDecoder(frame.Payload))
			if err != nil {
				s.logger.Warn("event decode error", "error", err)
				continue
			}
			if err := s.QueueEvent(msg); err != nil {
				s.sendError("E005", "event queue full")
			}

		case protocol.FramePing:
			if _, err := s.writeFrame(protocol.NewFrame(protocol.FramePong, frame.Payload)); err != nil {
				return
			}

		case protocol.FramePong:
			s.touch()

		default:
			s.logger.Warn("unexpected frame", "type", frame.Type.String())
		}
	}
}

// heartbeatLoop pings the client on an interval so dead connections
// are noticed.
func (s *Session) heartbeatLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.writeFrame(protocol.NewFrame(protocol.FramePing, nil)); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// Close tears the session down: stops the loops, disposes the mounted
// tree, and closes the connection. Idempotent.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)

	if s.handle != nil {
		s.handle.Dispose()
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.logger.Info("session closed",
		"events", s.eventCount.Load(),
		"bytes_sent", s.bytesSent.Load())
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	return s.closed.Load()
}
