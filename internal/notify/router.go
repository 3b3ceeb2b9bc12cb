// internal/notify/router.go
package notify

import (
	"context"
	"log"
	"sync"

	"quartier-watch/internal/geo"
	"quartier-watch/internal/models"

	"github.com/google/uuid"
)

// Feeds supplies the snapshot streams the router consumes. Satisfied by
// *database.MongoDB.
type Feeds interface {
	WatchQuartierAlerts(ctx context.Context, quartier string) (<-chan []*models.Alert, context.CancelFunc)
	WatchQuartierPosts(ctx context.Context, quartier string) (<-chan []*models.Post, context.CancelFunc)
	WatchAlert(ctx context.Context, alertID uuid.UUID) (<-chan *models.Alert, context.CancelFunc)
}

// Policy exposes the notification toggles. Satisfied by settings.Gate.
type Policy interface {
	AlertNotificationsEnabled() bool
	PushNotificationsEnabled() bool
}

// Router pushes quartier activity to one connected user. It diffs
// successive feed snapshots by id, so a deleted-then-recreated item is a
// fresh id and never misfires, and a consumer that missed intermediate
// snapshots still converges on the latest one.
//
// The user's own items are suppressed from the regular stream; a created
// alert instead produces a single ack so the author knows the broadcast
// went out. Alerts pass the geofence against the subscriber's position
// before anything urgent is sent. Status transitions are feedback for
// the people involved: the author, and voters who follow the alert via
// a dedicated watcher. Bystanders only see the initial push.
type Router struct {
	feeds  Feeds
	sink   Sink
	policy Policy

	userID   uuid.UUID
	quartier string
	location *models.Location

	mu             sync.Mutex
	cancel         context.CancelFunc
	statusWatchers map[uuid.UUID]context.CancelFunc
	knownAlerts    map[uuid.UUID]models.AlertStatus
	knownPosts     map[uuid.UUID]struct{}
	primedAlerts   bool
	primedPosts    bool
	wg             sync.WaitGroup
}

// NewRouter builds a router for one session. location may be nil; the
// geofence then fails open and every alert in the quartier is in scope.
func NewRouter(feeds Feeds, sink Sink, policy Policy, userID uuid.UUID, quartier string, location *models.Location) *Router {
	return &Router{
		feeds:          feeds,
		sink:           sink,
		policy:         policy,
		userID:         userID,
		quartier:       quartier,
		location:       location,
		statusWatchers: make(map[uuid.UUID]context.CancelFunc),
		knownAlerts:    make(map[uuid.UUID]models.AlertStatus),
		knownPosts:     make(map[uuid.UUID]struct{}),
	}
}

// Start begins consuming the quartier feeds. Calling Start twice is a
// no-op.
func (r *Router) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	alerts, cancelAlerts := r.feeds.WatchQuartierAlerts(ctx, r.quartier)
	posts, cancelPosts := r.feeds.WatchQuartierPosts(ctx, r.quartier)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancelAlerts()
		defer cancelPosts()
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-alerts:
				if !ok {
					alerts = nil
					continue
				}
				r.onAlertSnapshot(snapshot)
			case snapshot, ok := <-posts:
				if !ok {
					posts = nil
					continue
				}
				r.onPostSnapshot(snapshot)
			}
			if alerts == nil && posts == nil {
				return
			}
		}
	}()

	log.Printf("Router: Started for user %s in %s", r.userID, r.quartier)
}

// Stop tears down the feeds and every status watcher. Safe to call more
// than once.
func (r *Router) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	watchers := r.statusWatchers
	r.statusWatchers = make(map[uuid.UUID]context.CancelFunc)
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	for _, cancelWatcher := range watchers {
		cancelWatcher()
	}
	r.wg.Wait()
	log.Printf("Router: Stopped for user %s", r.userID)
}

// onAlertSnapshot diffs a full quartier alert snapshot against the known
// id set. The first snapshot only primes the set: a user connecting does
// not get the quartier's history replayed as urgent pushes.
func (r *Router) onAlertSnapshot(snapshot []*models.Alert) {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return
	}
	prime := !r.primedAlerts
	r.primedAlerts = true

	current := make(map[uuid.UUID]bool, len(snapshot))
	var fresh []*models.Alert
	var transitioned []*models.Alert
	for _, alert := range snapshot {
		current[alert.ID] = true
		last, known := r.knownAlerts[alert.ID]
		if !known {
			r.knownAlerts[alert.ID] = alert.Status
			if !prime {
				fresh = append(fresh, alert)
			}
			continue
		}
		if last != alert.Status {
			r.knownAlerts[alert.ID] = alert.Status
			if r.followsStatusLocked(alert) {
				transitioned = append(transitioned, alert)
			}
		}
	}
	// Drop ids that left the snapshot so a recreated alert is new again.
	// Ids with a dedicated watcher are follows from outside this feed
	// (cross-quartier votes); their watcher prunes them, not the home
	// snapshot.
	for id := range r.knownAlerts {
		if current[id] {
			continue
		}
		if _, watched := r.statusWatchers[id]; watched {
			continue
		}
		delete(r.knownAlerts, id)
	}
	r.mu.Unlock()

	for _, alert := range fresh {
		r.deliverNewAlert(alert)
	}
	for _, alert := range transitioned {
		r.sink.Notify(r.userID, alertStatusNotification(alert))
	}
}

func (r *Router) deliverNewAlert(alert *models.Alert) {
	if alert.AuthorID == r.userID {
		// The author gets an ack, never their own urgent push.
		r.sink.Notify(r.userID, alertAckNotification(alert))
		return
	}
	if !r.policy.AlertNotificationsEnabled() {
		return
	}
	if !geo.InRadius(alert, r.location) {
		return
	}
	r.sink.Notify(r.userID, newAlertNotification(alert))
}

func (r *Router) onPostSnapshot(snapshot []*models.Post) {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return
	}
	prime := !r.primedPosts
	r.primedPosts = true

	current := make(map[uuid.UUID]bool, len(snapshot))
	var fresh []*models.Post
	for _, post := range snapshot {
		current[post.ID] = true
		if _, known := r.knownPosts[post.ID]; !known {
			r.knownPosts[post.ID] = struct{}{}
			if !prime {
				fresh = append(fresh, post)
			}
		}
	}
	for id := range r.knownPosts {
		if !current[id] {
			delete(r.knownPosts, id)
		}
	}
	r.mu.Unlock()

	if !r.policy.PushNotificationsEnabled() {
		return
	}
	for _, post := range fresh {
		if post.AuthorID == r.userID {
			continue
		}
		r.sink.Notify(r.userID, newPostNotification(post))
	}
}

// followsStatusLocked reports whether this user should hear about the
// alert's status transitions: the author always does, and so does
// anyone who attached a dedicated watcher by voting. Bystanders only
// get the initial urgent push. Callers hold r.mu.
func (r *Router) followsStatusLocked(alert *models.Alert) bool {
	if alert.AuthorID == r.userID {
		return true
	}
	_, watched := r.statusWatchers[alert.ID]
	return watched
}

// recordStatus updates the shared last-status map and reports whether
// this observation is a transition worth notifying. The quartier diff
// and the dedicated watchers share the map, so a transition seen by both
// paths is delivered exactly once.
func (r *Router) recordStatus(alert *models.Alert) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, known := r.knownAlerts[alert.ID]
	r.knownAlerts[alert.ID] = alert.Status
	return known && last != alert.Status
}

// WatchAlertStatus follows a single alert's consensus progress, used
// after the user creates or votes on an alert. Each distinct status is
// delivered once; the watcher ends when the alert disappears or the
// router stops.
func (r *Router) WatchAlertStatus(ctx context.Context, alertID uuid.UUID) {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return
	}
	if _, exists := r.statusWatchers[alertID]; exists {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.statusWatchers[alertID] = cancel
	r.mu.Unlock()

	updates, cancelFeed := r.feeds.WatchAlert(ctx, alertID)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancelFeed()
		defer func() {
			r.mu.Lock()
			delete(r.statusWatchers, alertID)
			r.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case alert, ok := <-updates:
				if !ok {
					// The alert is gone; forget it so a reused id
					// reads as new again.
					r.mu.Lock()
					delete(r.knownAlerts, alertID)
					r.mu.Unlock()
					return
				}
				if r.recordStatus(alert) {
					r.sink.Notify(r.userID, alertStatusNotification(alert))
				}
			}
		}
	}()
}
