package explorer

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"hrdocs/internal/domain"
	models "hrdocs/internal/domain/models/docsystem"
)

// entry pairs a session with its notification inbox
type entry struct {
	session *Session
	inbox   *Inbox
}

// Manager keeps explorer sessions in an expiring LRU. Sessions are
// independent; evicted sessions are closed.
type Manager struct {
	services *Services
	cache    *expirable.LRU[string, *entry]
	logger   *slog.Logger
}

// NewManager creates a session manager holding at most size sessions,
// each expiring ttl after its last use
func NewManager(services *Services, size int, ttl time.Duration, logger *slog.Logger) *Manager {
	m := &Manager{services: services, logger: logger}
	m.cache = expirable.NewLRU[string, *entry](size, func(id string, e *entry) {
		e.session.Close()
		logger.Debug("explorer session evicted", "session_id", id)
	}, ttl)
	return m
}

// Create starts a new closed session owned by ownerID
func (m *Manager) Create(ownerID string, viewer models.Role) (*Session, *Inbox) {
	id := uuid.NewString()
	inbox := NewInbox(m.logger.With("session_id", id))
	session := NewSession(id, ownerID, viewer, m.services, inbox, m.logger)
	m.cache.Add(id, &entry{session: session, inbox: inbox})
	m.logger.Info("explorer session created", "session_id", id, "owner_id", ownerID, "viewer_role", viewer)
	return session, inbox
}

// Get returns the session if it exists and belongs to ownerID. Access
// renews the session's expiry.
func (m *Manager) Get(id, ownerID string) (*Session, *Inbox, error) {
	e, ok := m.cache.Get(id)
	if !ok || e.session.OwnerID() != ownerID {
		return nil, nil, domain.NewNotFoundError("session not found")
	}
	m.cache.Add(id, e)
	return e.session, e.inbox, nil
}

// Remove closes and forgets a session
func (m *Manager) Remove(id, ownerID string) error {
	if _, _, err := m.Get(id, ownerID); err != nil {
		return err
	}
	m.cache.Remove(id)
	return nil
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	return m.cache.Len()
}
