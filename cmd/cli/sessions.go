package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
	"go.uber.org/zap"
)

const sessionCookieName = "soil_session"

// session is one browser form instance
type session struct {
	id       string
	orch     *orchestrator.Orchestrator
	lastSeen time.Time
}

// SessionStore maps session cookies to their orchestrators and evicts idle
// sessions. Nothing is persisted.
type SessionStore struct {
	newOrchestrator func() *orchestrator.Orchestrator
	ttl             time.Duration
	now             func() time.Time
	logger          *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionStore creates an empty store
func NewSessionStore(factory func() *orchestrator.Orchestrator, ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		newOrchestrator: factory,
		ttl:             ttl,
		now:             time.Now,
		logger:          logger.Named("sessions"),
		sessions:        make(map[string]*session),
	}
}

// Get returns an existing session and marks it as active
func (s *SessionStore) Get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// GetOrCreate returns the session for id, creating a new one with a fresh
// id when it is unknown
func (s *SessionStore) GetOrCreate(id string) (*session, bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}

	sess := &session{
		id:       uuid.NewString(),
		orch:     s.newOrchestrator(),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session_id", sess.id))
	return sess, true
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict removes sessions idle for longer than the TTL. Sessions with a
// submission in flight are kept.
func (s *SessionStore) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.After(cutoff) || sess.orch.Snapshot().Loading() {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	return evicted
}

// Run evicts idle sessions every interval until ctx is done
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				s.logger.Info("idle sessions evicted", zap.Int("count", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}

// Collector exposes the live session count
func (s *SessionStore) Collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "soilmaestro",
		Name:      "sessions_active",
		Help:      "Form sessions held in memory.",
	}, func() float64 {
		return float64(s.Len())
	})
}
