// Package sessions keeps the UI sessions of the HTTP host. Each browser
// session owns its own collection store and controllers.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/views"
)

// Header carries the session id on every request.
const Header = "X-Session-ID"

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

type entry struct {
	session  *views.Session
	lastSeen time.Time
}

// Registry provides an in-memory session table with idle expiry.
type Registry struct {
	factory *views.SessionFactory
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates a registry building sessions with factory.
func NewRegistry(factory *views.SessionFactory, logger *zap.Logger, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		factory:  factory,
		logger:   logger.Named("sessions"),
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session.
func (r *Registry) Create() *views.Session {
	id := uuid.NewString()
	session := r.factory.New(id)

	r.mu.Lock()
	r.sessions[id] = &entry{session: session, lastSeen: r.now()}
	count := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info("session created", zap.String("session_id", id), zap.Int("active", count))
	return session
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*views.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if r.expired(e) {
		r.closeLocked(id, e)
		return nil, false
	}
	e.lastSeen = r.now()
	return e.session, true
}

// Delete ends a session.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if ok {
		r.closeLocked(id, e)
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CleanupExpired removes sessions idle for longer than the TTL.
func (r *Registry) CleanupExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		if r.expired(e) {
			r.closeLocked(id, e)
			removed++
		}
	}
	return removed
}

// Run removes expired sessions periodically until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.CleanupExpired(); n > 0 {
				r.logger.Debug("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}

func (r *Registry) expired(e *entry) bool {
	return r.now().Sub(e.lastSeen) > r.ttl
}

func (r *Registry) closeLocked(id string, e *entry) {
	e.session.Detail.Close()
	delete(r.sessions, id)
}
