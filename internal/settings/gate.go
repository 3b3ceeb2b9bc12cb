// internal/settings/gate.go
package settings

import (
	"context"
	"log"
	"sync"
	"time"

	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"
)

// storeTimeout bounds every settings read and write so a slow database
// never stalls a gated request.
const storeTimeout = 2 * time.Second

// Store is the persistence the gate needs.
type Store interface {
	GetSettings(ctx context.Context) (*models.SystemSettings, error)
	SaveSettings(ctx context.Context, settings *models.SystemSettings) error
}

// Defaults returns the policy used before any admin has written
// settings, and whenever the store cannot be read. Every flag errs on
// the permissive side: nobody gets locked out because the settings
// record was unreachable.
func Defaults() models.SystemSettings {
	return models.SystemSettings{
		MaintenanceMode:      false,
		NewUserRegistration:  true,
		AlertCooldownMinutes: 30,
		MaxPostsPerDay:       50,
		AlertNotifications:   true,
		PushNotifications:    true,
		AutoModeration:       false,
	}
}

// Gate caches the singleton settings record and answers the entry checks
// performed on every write path. Admin updates go through the gate so
// the cache and subscribers stay current.
type Gate struct {
	store Store

	mu      sync.RWMutex
	current models.SystemSettings
	subs    map[int]chan models.SystemSettings
	nextSub int
}

// NewGate builds a gate seeded from the store, falling back to defaults
// when the record is missing or unreadable.
func NewGate(ctx context.Context, store Store) *Gate {
	g := &Gate{
		store:   store,
		current: Defaults(),
		subs:    make(map[int]chan models.SystemSettings),
	}
	g.Refresh(ctx)
	return g
}

// Refresh re-reads the store into the cache. Read failures keep the
// previous cached value.
func (g *Gate) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	stored, err := g.store.GetSettings(ctx)
	if err != nil {
		log.Printf("Settings: read failed, keeping cached policy: %v", err)
		return
	}
	if stored == nil {
		return
	}

	g.mu.Lock()
	g.current = *stored
	g.mu.Unlock()
	g.broadcast(*stored)
}

// Current returns a copy of the cached settings.
func (g *Gate) Current() models.SystemSettings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Update applies a partial change, persists it and fans it out to
// subscribers. Unlike reads, a failed write is reported: an admin must
// know their change did not stick.
func (g *Gate) Update(ctx context.Context, patch models.SettingsPatch, updatedBy string) (models.SystemSettings, error) {
	g.mu.Lock()
	next := g.current
	next.Apply(patch)
	next.UpdatedAt = time.Now()
	next.UpdatedBy = updatedBy
	g.mu.Unlock()

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := g.store.SaveSettings(sctx, &next); err != nil {
		return models.SystemSettings{}, utils.NewAppError(utils.ErrDatabase, "Failed to save settings", err)
	}

	g.mu.Lock()
	g.current = next
	g.mu.Unlock()
	g.broadcast(next)
	return next, nil
}

// Reset restores the default policy.
func (g *Gate) Reset(ctx context.Context, updatedBy string) (models.SystemSettings, error) {
	next := Defaults()
	next.UpdatedAt = time.Now()
	next.UpdatedBy = updatedBy

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := g.store.SaveSettings(sctx, &next); err != nil {
		return models.SystemSettings{}, utils.NewAppError(utils.ErrDatabase, "Failed to save settings", err)
	}

	g.mu.Lock()
	g.current = next
	g.mu.Unlock()
	g.broadcast(next)
	return next, nil
}

// Subscribe returns a channel receiving every settings change plus an
// unsubscribe function. The channel is buffered; a lagging subscriber
// misses intermediate values, never blocks the gate.
func (g *Gate) Subscribe() (<-chan models.SystemSettings, func()) {
	ch := make(chan models.SystemSettings, 1)

	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = ch
	g.mu.Unlock()

	return ch, func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

func (g *Gate) broadcast(s models.SystemSettings) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, ch := range g.subs {
		select {
		case ch <- s:
		default:
			// Replace the stale pending value.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// CheckMaintenance rejects non-admin traffic while maintenance mode is
// on. Admins always pass so they can turn it back off.
func (g *Gate) CheckMaintenance(user *models.User) error {
	if user != nil && user.IsAdmin {
		return nil
	}
	if g.Current().MaintenanceMode {
		return utils.NewAppError(utils.ErrMaintenanceMode, "Service is under maintenance", nil)
	}
	return nil
}

// CheckRegistration rejects signups while registration is closed.
func (g *Gate) CheckRegistration() error {
	if !g.Current().NewUserRegistration {
		return utils.NewAppError(utils.ErrRegistrationClosed, "New registrations are currently closed", nil)
	}
	return nil
}

// CheckUser rejects blocked and deactivated accounts.
func (g *Gate) CheckUser(user *models.User) error {
	if user == nil {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if user.IsBlocked {
		return utils.NewAppError(utils.ErrUserBlocked, "Account is blocked", nil)
	}
	if !user.IsActive {
		return utils.NewAppError(utils.ErrUserBlocked, "Account is deactivated", nil)
	}
	return nil
}

// AlertNotificationsEnabled reports whether alert fan-out should run.
func (g *Gate) AlertNotificationsEnabled() bool {
	return g.Current().AlertNotifications
}

// PushNotificationsEnabled reports whether non-alert pushes should run.
func (g *Gate) PushNotificationsEnabled() bool {
	return g.Current().PushNotifications
}
