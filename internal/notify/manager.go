// internal/notify/manager.go
package notify

import (
	"context"
	"sync"

	"quartier-watch/internal/models"

	"github.com/google/uuid"
)

// Manager keeps one router per connected user. Connecting again (a
// reconnect, or a quartier/location change) replaces the previous
// router.
type Manager struct {
	feeds  Feeds
	sink   Sink
	policy Policy

	mu      sync.Mutex
	routers map[uuid.UUID]*Router
}

func NewManager(feeds Feeds, sink Sink, policy Policy) *Manager {
	return &Manager{
		feeds:   feeds,
		sink:    sink,
		policy:  policy,
		routers: make(map[uuid.UUID]*Router),
	}
}

// Connect starts routing for a user session and returns its router.
func (m *Manager) Connect(ctx context.Context, userID uuid.UUID, quartier string, location *models.Location) *Router {
	router := NewRouter(m.feeds, m.sink, m.policy, userID, quartier, location)

	m.mu.Lock()
	previous := m.routers[userID]
	m.routers[userID] = router
	m.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
	router.Start(ctx)
	return router
}

// Disconnect stops and removes a user's router. Unknown users are a
// no-op.
func (m *Manager) Disconnect(userID uuid.UUID) {
	m.mu.Lock()
	router := m.routers[userID]
	delete(m.routers, userID)
	m.mu.Unlock()

	if router != nil {
		router.Stop()
	}
}

// Router returns the active router for a user, or nil.
func (m *Manager) Router(userID uuid.UUID) *Router {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.routers[userID]
}

// Shutdown stops every router.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	routers := m.routers
	m.routers = make(map[uuid.UUID]*Router)
	m.mu.Unlock()

	for _, router := range routers {
		router.Stop()
	}
}
