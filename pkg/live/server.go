package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumen-ui/lumen/pkg/element"
	"github.com/lumen-ui/lumen/pkg/protocol"
)

// ServerConfig configures the HTTP front of a live server.
type ServerConfig struct {
	// Addr is the listen address, for example ":8080".
	Addr string

	// Session configures per-session behavior; nil uses defaults.
	Session *SessionConfig

	// Manager configures session bookkeeping; nil uses defaults.
	Manager *ManagerConfig

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// CheckOrigin overrides the WebSocket origin check. Nil allows
	// same-origin only (the gorilla default).
	CheckOrigin func(*http.Request) bool
}

// Server serves the page shell, the WebSocket endpoint, and metrics.
// The resolver is called once per session with the requested path, and
// again on every navigate event; sessions never share elements or
// signals. What counts as path matching is entirely the resolver's
// business.
type Server struct {
	config  *ServerConfig
	resolve func(path string) *element.Element
	logger  *slog.Logger
	manager *Manager
	metrics *Metrics

	registry *prometheus.Registry
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// NewServer creates a live server around a page resolver.
func NewServer(config *ServerConfig, resolve func(path string) *element.Element, logger *slog.Logger) *Server {
	if config == nil {
		config = &ServerConfig{}
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := NewMetrics(registry)

	s := &Server{
		config:   config,
		resolve:  resolve,
		logger:   logger,
		manager:  NewManager(config.Manager, logger, metrics),
		metrics:  metrics,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	return s
}

// Manager exposes the session manager, mainly for tests and admin
// endpoints.
func (s *Server) Manager() *Manager {
	return s.manager
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	r.Get("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/live", s.handleLive)
	r.Get("/", s.handleIndex)

	return r
}

// handleIndex serves the page shell. The shell is intentionally bare:
// the client connects to /live and builds the page from ops.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexShell)
}

const indexShell = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>lumen</title></head>
<body>
<div id="app"></div>
<script>/* thin client connects to /live and applies ops */</script>
</body>
</html>
`

// handleLive upgrades the connection, performs the handshake, and
// starts a session.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	hello, err := s.readHello(conn)
	if err != nil {
		s.logger.Warn("handshake failed", "error", err, "remote", r.RemoteAddr)
		conn.Close()
		return
	}
	if hello.Version != protocol.Version {
		s.logger.Warn("protocol version mismatch", "client", hello.Version, "server", protocol.Version)
		conn.Close()
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	sess, err := NewSessionForPath(s.resolve, path, s.config.Session, s.logger, s.metrics)
	if err != nil {
		s.logger.Error("session create failed", "error", err)
		conn.Close()
		return
	}
	if err := s.manager.Add(sess); err != nil {
		s.logger.Warn("session rejected", "error", err)
		sess.Close()
		conn.Close()
		return
	}

	if err := s.writeHello(conn, sess.ID); err != nil {
		s.logger.Warn("handshake reply failed", "error", err)
		s.manager.Remove(sess.ID)
		conn.Close()
		return
	}

	s.logger.Info("session connected", "session_id", sess.ID, "remote", r.RemoteAddr)
	sess.Attach(conn)
}

func (s *Server) readHello(conn *websocket.Conn) (protocol.Hello, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		return protocol.Hello{}, err
	}
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		return protocol.Hello{}, err
	}
	if frame.Type != protocol.FrameHello {
		return protocol.Hello{}, fmt.Errorf("expected hello frame, got %s", frame.Type)
	}
	return protocol.DecodeHello(protocol.NewDecoder(frame.Payload))
}

func (s *Server) writeHello(conn *websocket.Conn, sessionID string) error {
	enc := protocol.NewEncoder()
	reply := protocol.Hello{Version: protocol.Version, SessionID: sessionID}
	reply.Encode(enc)
	return conn.WriteMessage(websocket.BinaryMessage, protocol.NewFrame(protocol.FrameHello, enc.Bytes()).Encode())
}

// Run serves until ctx is canceled, then shuts down gracefully and
// closes all sessions.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Router(),
	}

	managerCtx, cancelManager := context.WithCancel(context.Background())
	go s.manager.Run(managerCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("live server listening", "addr", s.config.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		cancelManager()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		err := s.httpSrv.Shutdown(shutdownCtx)
		cancelManager()
		s.manager.CloseAll()
		return err
	}
}
