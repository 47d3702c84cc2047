package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrTooManySessions is returned when the session cap is reached.
var ErrTooManySessions = errors.New("live: too many sessions")

// ManagerConfig controls session bookkeeping.
type ManagerConfig struct {
	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int

	// IdleTimeout evicts sessions with no client activity for this
	// long. Zero disables eviction.
	IdleTimeout time.Duration

	// SweepInterval is how often the idle sweep runs.
	SweepInterval time.Duration
}

// DefaultManagerConfig returns production defaults.
func DefaultManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		MaxSessions:   1000,
		IdleTimeout:   30 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// ManagerStats is a point-in-time snapshot.
type ManagerStats struct {
	Active  int
	Created uint64
	Evicted uint64
}

// Manager tracks live sessions, enforces the cap, and evicts idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	created  uint64
	evicted  uint64

	config  *ManagerConfig
	logger  *slog.Logger
	metrics *Metrics
}

// NewManager creates a session manager.
func NewManager(config *ManagerConfig, logger *slog.Logger, metrics *Metrics) *Manager {
	if config == nil {
		config = DefaultManagerConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

// Add registers a session, enforcing the cap.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.MaxSessions > 0 && len(m.sessions) >= m.config.MaxSessions {
		return ErrTooManySessions
	}
	m.sessions[s.ID] = s
	m.created++

	if m.metrics != nil {
		m.metrics.sessionsTotal.Inc()
		m.metrics.sessionsActive.Set(float64(len(m.sessions)))
	}
	return nil
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove unregisters and closes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	active := len(m.sessions)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	if m.metrics != nil {
		m.metrics.sessionsActive.Set(float64(active))
	}
}

// Stats returns a snapshot of manager counters.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ManagerStats{
		Active:  len(m.sessions),
		Created: m.created,
		Evicted: m.evicted,
	}
}

// Run sweeps idle sessions until ctx is canceled, then closes all
// remaining sessions.
func (m *Manager) Run(ctx context.Context) {
	interval := m.config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-ctx.Done():
			m.CloseAll()
			return
		}
	}
}

// sweep closes sessions idle past the configured timeout.
func (m *Manager) sweep() {
	if m.config.IdleTimeout <= 0 {
		return
	}
	cutoff := time.Now().Add(-m.config.IdleTimeout)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.Closed() || s.LastActive().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
			m.evicted++
		}
	}
	active := len(m.sessions)
	m.mu.Unlock()

	for _, s := range idle {
		m.logger.Info("evicting idle session", "session_id", s.ID, "last_active", s.LastActive())
		s.Close()
	}
	if m.metrics != nil && len(idle) > 0 {
		m.metrics.evictedTotal.Add(float64(len(idle)))
		m.metrics.sessionsActive.Set(float64(active))
	}
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	if m.metrics != nil {
		m.metrics.sessionsActive.Set(0)
	}
}
