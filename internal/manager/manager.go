// Package manager implements the Session Manager (spec.md §4.8, C8):
// registration, admission limits, idle-timeout sweeps, and graceful
// shutdown across every concurrently connected session.
package manager

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/metrics"
	"github.com/parallelstone/mcserver-core/internal/session"
)

// Limits configures the admission caps spec.md §6 names.
type Limits struct {
	MaxSessions int
	MaxPerIP    int
	IdleTimeout time.Duration
	SweepPeriod time.Duration
}

// DefaultLimits mirrors spec.md §6's configuration table.
func DefaultLimits() Limits {
	return Limits{
		MaxSessions: 1000,
		MaxPerIP:    5,
		IdleTimeout: 30 * time.Second,
		SweepPeriod: 5 * time.Second,
	}
}

// Manager tracks every live Session by id, by player name, and by peer IP,
// enforcing Limits and sweeping idle sessions. Safe for concurrent use.
type Manager struct {
	log     *zap.Logger
	limits  Limits
	metrics *metrics.Metrics

	mu           sync.RWMutex
	byID         map[string]*session.Session
	byIP         map[string]map[string]*session.Session
	byPlayer     map[string]*session.Session
	lastCounters map[string]session.Counters

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Manager and starts its idle-sweep loop.
func New(log *zap.Logger, limits Limits, m *metrics.Metrics) *Manager {
	mgr := &Manager{
		log:          log,
		limits:       limits,
		metrics:      m,
		byID:         make(map[string]*session.Session),
		byIP:         make(map[string]map[string]*session.Session),
		byPlayer:     make(map[string]*session.Session),
		lastCounters: make(map[string]session.Counters),
		stopCh:       make(chan struct{}),
	}
	mgr.wg.Add(1)
	go mgr.sweepLoop()
	return mgr
}

func ipOf(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[:i]
	}
	return addr
}

// Admit reports whether a new connection from ip should be accepted,
// against the global and per-IP caps (spec.md §4.8).
func (m *Manager) Admit(ip string) (ok bool, reason string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.byID) >= m.limits.MaxSessions {
		return false, "server_full"
	}
	if len(m.byIP[ip]) >= m.limits.MaxPerIP {
		return false, "per_ip_limit"
	}
	return true, ""
}

// Register adds s to the registry, wiring its on_disconnect callback to
// Unregister so entries never outlive the Session they track.
func (m *Manager) Register(s *session.Session) {
	ip := ipOf(s.PeerAddr())

	m.mu.Lock()
	m.byID[s.ID] = s
	if m.byIP[ip] == nil {
		m.byIP[ip] = make(map[string]*session.Session)
	}
	m.byIP[ip][s.ID] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionsAccepted.Inc()
		m.metrics.SessionsActive.Set(float64(m.Count()))
	}
}

// Unregister removes s from every index. Safe to call more than once.
func (m *Manager) Unregister(s *session.Session, reason session.DisconnectReason) {
	ip := ipOf(s.PeerAddr())

	m.mu.Lock()
	delete(m.byID, s.ID)
	if peers, ok := m.byIP[ip]; ok {
		delete(peers, s.ID)
		if len(peers) == 0 {
			delete(m.byIP, ip)
		}
	}
	if name := s.PlayerName(); name != "" {
		if cur, ok := m.byPlayer[name]; ok && cur.ID == s.ID {
			delete(m.byPlayer, name)
		}
	}
	if m.metrics != nil {
		m.addCounterDeltaLocked(s)
	}
	delete(m.lastCounters, s.ID)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionsClosed.WithLabelValues(reason.Kind.String()).Inc()
		m.metrics.SessionsActive.Set(float64(m.Count()))
	}
}

// NotePlayerName indexes s by player name once Login Start has set it.
func (m *Manager) NotePlayerName(s *session.Session) {
	name := s.PlayerName()
	if name == "" {
		return
	}
	m.mu.Lock()
	m.byPlayer[name] = s
	m.mu.Unlock()
}

// Count returns the number of currently registered sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// ByPlayerName looks up a session by its logged-in player name.
func (m *Manager) ByPlayerName(name string) (*session.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byPlayer[name]
	return s, ok
}

// Broadcast sends body under packetID to every registered session.
func (m *Manager) Broadcast(packetID int32, body []byte) {
	m.mu.RLock()
	sessions := make([]*session.Session, 0, len(m.byID))
	for _, s := range m.byID {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Send(packetID, body)
	}
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.limits.SweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweepIdle()
			m.heartbeat()
		}
	}
}

// heartbeat recomputes the per-state session gauge and folds each live
// session's traffic counters into the server-wide totals (spec.md §4.8's
// periodic observability recompute). Session-level counters are
// cumulative, so only the delta since the last tick is added.
func (m *Manager) heartbeat() {
	if m.metrics == nil {
		return
	}

	m.mu.Lock()
	byState := make(map[string]int, 8)
	for _, s := range m.byID {
		byState[s.State().String()]++
		m.addCounterDeltaLocked(s)
	}
	m.mu.Unlock()

	m.metrics.SessionsByState.Reset()
	for state, n := range byState {
		m.metrics.SessionsByState.WithLabelValues(state).Set(float64(n))
	}
}

// addCounterDeltaLocked adds s's traffic since the last observed snapshot
// to the global counters. Callers must hold m.mu.
func (m *Manager) addCounterDeltaLocked(s *session.Session) {
	cur := s.Counters()
	prev := m.lastCounters[s.ID]
	m.metrics.BytesIn.Add(float64(cur.BytesIn - prev.BytesIn))
	m.metrics.BytesOut.Add(float64(cur.BytesOut - prev.BytesOut))
	m.metrics.PacketsIn.Add(float64(cur.PktsIn - prev.PktsIn))
	m.metrics.PacketsOut.Add(float64(cur.PktsOut - prev.PktsOut))
	m.lastCounters[s.ID] = cur
}

func (m *Manager) sweepIdle() {
	m.mu.RLock()
	sessions := make([]*session.Session, 0, len(m.byID))
	for _, s := range m.byID {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if s.IdleFor() >= m.limits.IdleTimeout {
			m.log.Info("disconnecting idle session", zap.String("session", s.ID), zap.String("peer", s.PeerAddr()))
			s.Disconnect(session.Timeout())
		}
	}
}

// Stop ends the idle-sweep loop and disconnects every registered session
// with ServerShutdown, then waits for the sweep goroutine to exit.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()

	m.mu.RLock()
	sessions := make([]*session.Session, 0, len(m.byID))
	for _, s := range m.byID {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Disconnect(session.ServerShutdown())
	}
}
