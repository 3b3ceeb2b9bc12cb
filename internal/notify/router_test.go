package notify

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"quartier-watch/internal/geo"
	"quartier-watch/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFeeds lets tests push snapshots by hand.
type fakeFeeds struct {
	mu          sync.Mutex
	alertChans  map[string][]chan []*models.Alert
	postChans   map[string][]chan []*models.Post
	singleChans map[uuid.UUID][]chan *models.Alert
}

func newFakeFeeds() *fakeFeeds {
	return &fakeFeeds{
		alertChans:  make(map[string][]chan []*models.Alert),
		postChans:   make(map[string][]chan []*models.Post),
		singleChans: make(map[uuid.UUID][]chan *models.Alert),
	}
}

func (f *fakeFeeds) WatchQuartierAlerts(ctx context.Context, quartier string) (<-chan []*models.Alert, context.CancelFunc) {
	ch := make(chan []*models.Alert, 16)
	f.mu.Lock()
	f.alertChans[quartier] = append(f.alertChans[quartier], ch)
	f.mu.Unlock()
	return ch, func() {}
}

func (f *fakeFeeds) WatchQuartierPosts(ctx context.Context, quartier string) (<-chan []*models.Post, context.CancelFunc) {
	ch := make(chan []*models.Post, 16)
	f.mu.Lock()
	f.postChans[quartier] = append(f.postChans[quartier], ch)
	f.mu.Unlock()
	return ch, func() {}
}

func (f *fakeFeeds) WatchAlert(ctx context.Context, alertID uuid.UUID) (<-chan *models.Alert, context.CancelFunc) {
	ch := make(chan *models.Alert, 16)
	f.mu.Lock()
	f.singleChans[alertID] = append(f.singleChans[alertID], ch)
	f.mu.Unlock()
	return ch, func() {}
}

func (f *fakeFeeds) pushAlerts(quartier string, snapshot []*models.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.alertChans[quartier] {
		ch <- snapshot
	}
}

func (f *fakeFeeds) pushPosts(quartier string, snapshot []*models.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.postChans[quartier] {
		ch <- snapshot
	}
}

func (f *fakeFeeds) pushAlert(alert *models.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *alert
	for _, ch := range f.singleChans[alert.ID] {
		ch <- &copied
	}
}

// fakeSink records everything per user.
type fakeSink struct {
	mu     sync.Mutex
	byUser map[uuid.UUID][]*Notification
}

func newFakeSink() *fakeSink {
	return &fakeSink{byUser: make(map[uuid.UUID][]*Notification)}
}

func (s *fakeSink) Notify(userID uuid.UUID, n *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = append(s.byUser[userID], n)
}

func (s *fakeSink) count(userID uuid.UUID, kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.byUser[userID] {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

// waitFor polls until the user has at least want notifications of kind.
func (s *fakeSink) waitFor(t *testing.T, userID uuid.UUID, kind string, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if s.count(userID, kind) >= want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d %q notifications, have %d", want, kind, s.count(userID, kind))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// settle gives in-flight deliveries time to land before negative
// assertions.
func settle() { time.Sleep(50 * time.Millisecond) }

type openPolicy struct{}

func (openPolicy) AlertNotificationsEnabled() bool { return true }
func (openPolicy) PushNotificationsEnabled() bool  { return true }

type togglePolicy struct {
	alerts bool
	pushes bool
}

func (p togglePolicy) AlertNotificationsEnabled() bool { return p.alerts }
func (p togglePolicy) PushNotificationsEnabled() bool  { return p.pushes }

const (
	baseLat = 12.3714
	baseLon = -1.5197
)

// locationAt returns a position the given distance due north of base.
func locationAt(meters float64) *models.Location {
	dLat := meters / geo.EarthRadiusMeters * 180 / math.Pi
	return &models.Location{Latitude: baseLat + dLat, Longitude: baseLon, CapturedAt: time.Now()}
}

func fireAlert(authorID uuid.UUID) *models.Alert {
	return &models.Alert{
		ID:         uuid.New(),
		AuthorID:   authorID,
		AuthorName: "Aïcha",
		Quartier:   "Zogona",
		Category:   models.CategoryFire,
		Message:    "Fire near the market",
		Location:   &models.Location{Latitude: baseLat, Longitude: baseLon, CapturedAt: time.Now()},
		Radius:     models.Radius600m,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}
}

func startRouter(t *testing.T, feeds *fakeFeeds, sink *fakeSink, policy Policy, userID uuid.UUID, location *models.Location) *Router {
	t.Helper()
	router := NewRouter(feeds, sink, policy, userID, "Zogona", location)
	router.Start(context.Background())
	t.Cleanup(router.Stop)

	// Prime both feeds with the empty initial snapshot the store sends
	// on subscribe.
	feeds.pushAlerts("Zogona", nil)
	feeds.pushPosts("Zogona", nil)
	settle()
	return router
}

func TestInitialSnapshotIsNotReplayed(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	router := NewRouter(feeds, sink, openPolicy{}, userID, "Zogona", locationAt(100))
	router.Start(context.Background())
	defer router.Stop()

	// The first snapshot already contains an old alert.
	old := fireAlert(uuid.New())
	feeds.pushAlerts("Zogona", []*models.Alert{old})
	settle()
	assert.Equal(t, 0, sink.count(userID, KindNewAlert))

	// A later alert does fire.
	fresh := fireAlert(uuid.New())
	feeds.pushAlerts("Zogona", []*models.Alert{old, fresh})
	sink.waitFor(t, userID, KindNewAlert, 1)
}

func TestFireAlertFanOut(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()

	authorID := uuid.New()
	nearID := uuid.New()
	farID := uuid.New()

	startRouter(t, feeds, sink, openPolicy{}, authorID, locationAt(0))
	startRouter(t, feeds, sink, openPolicy{}, nearID, locationAt(500))
	startRouter(t, feeds, sink, openPolicy{}, farID, locationAt(900))

	alert := fireAlert(authorID)
	feeds.pushAlerts("Zogona", []*models.Alert{alert})

	// The neighbor at 500m of a 600m alert gets the urgent push; the one
	// at 900m does not; the author gets a single ack and no urgent push.
	sink.waitFor(t, nearID, KindNewAlert, 1)
	sink.waitFor(t, authorID, KindAlertAck, 1)
	settle()
	assert.Equal(t, 0, sink.count(farID, KindNewAlert))
	assert.Equal(t, 0, sink.count(authorID, KindNewAlert))
	assert.Equal(t, 1, sink.count(authorID, KindAlertAck))

	// Consensus reached: the flip is feedback for the author, not a
	// second broadcast to the neighborhood.
	confirmed := *alert
	confirmed.Status = models.StatusConfirmed
	confirmed.ConfirmCount = 3
	feeds.pushAlerts("Zogona", []*models.Alert{&confirmed})
	sink.waitFor(t, authorID, KindAlertStatus, 1)
	settle()
	assert.Equal(t, 0, sink.count(nearID, KindAlertStatus))
	assert.Equal(t, 0, sink.count(farID, KindAlertStatus))

	// A repeated identical snapshot changes nothing.
	feeds.pushAlerts("Zogona", []*models.Alert{&confirmed})
	settle()
	assert.Equal(t, 1, sink.count(authorID, KindAlertStatus))
	assert.Equal(t, 1, sink.count(nearID, KindNewAlert))
}

func TestMissingLocationsFailOpen(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	startRouter(t, feeds, sink, openPolicy{}, userID, nil)

	alert := fireAlert(uuid.New())
	feeds.pushAlerts("Zogona", []*models.Alert{alert})
	sink.waitFor(t, userID, KindNewAlert, 1)
}

func TestDeleteThenRecreateFiresForNewIDOnly(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	startRouter(t, feeds, sink, openPolicy{}, userID, locationAt(100))

	first := fireAlert(uuid.New())
	feeds.pushAlerts("Zogona", []*models.Alert{first})
	sink.waitFor(t, userID, KindNewAlert, 1)

	// The alert is deleted.
	feeds.pushAlerts("Zogona", nil)
	settle()

	// A recreated alert carries a new id and fires exactly once more.
	second := fireAlert(uuid.New())
	feeds.pushAlerts("Zogona", []*models.Alert{second})
	sink.waitFor(t, userID, KindNewAlert, 2)
	settle()
	assert.Equal(t, 2, sink.count(userID, KindNewAlert))
}

func TestPostNotificationsSuppressOwnPosts(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	startRouter(t, feeds, sink, openPolicy{}, userID, locationAt(0))

	own := &models.Post{ID: uuid.New(), AuthorID: userID, Quartier: "Zogona", Content: "mine"}
	other := &models.Post{ID: uuid.New(), AuthorID: uuid.New(), Quartier: "Zogona", Content: "theirs"}
	feeds.pushPosts("Zogona", []*models.Post{own, other})

	sink.waitFor(t, userID, KindNewPost, 1)
	settle()
	assert.Equal(t, 1, sink.count(userID, KindNewPost))
}

func TestPolicyTogglesSilenceNotifications(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	startRouter(t, feeds, sink, togglePolicy{alerts: false, pushes: false}, userID, locationAt(0))

	feeds.pushAlerts("Zogona", []*models.Alert{fireAlert(uuid.New())})
	feeds.pushPosts("Zogona", []*models.Post{{ID: uuid.New(), AuthorID: uuid.New(), Quartier: "Zogona"}})
	settle()
	assert.Equal(t, 0, sink.count(userID, KindNewAlert))
	assert.Equal(t, 0, sink.count(userID, KindNewPost))
}

func TestWatchAlertStatusDedupes(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	router := startRouter(t, feeds, sink, openPolicy{}, userID, locationAt(0))

	// An alert in another quartier the user voted on.
	alert := fireAlert(uuid.New())
	alert.Quartier = "Cissin"
	router.WatchAlertStatus(context.Background(), alert.ID)
	settle()

	// First observation primes; repeats of the same status are silent.
	feeds.pushAlert(alert)
	feeds.pushAlert(alert)
	settle()
	assert.Equal(t, 0, sink.count(userID, KindAlertStatus))

	alert.Status = models.StatusConfirmed
	feeds.pushAlert(alert)
	feeds.pushAlert(alert)
	sink.waitFor(t, userID, KindAlertStatus, 1)
	settle()
	assert.Equal(t, 1, sink.count(userID, KindAlertStatus))
}

func TestWatchedAlertSurvivesHomeQuartierActivity(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	router := startRouter(t, feeds, sink, openPolicy{}, userID, locationAt(0))

	// The user voted on an alert in another quartier; it will never show
	// up in their home snapshots.
	followed := fireAlert(uuid.New())
	followed.Quartier = "Cissin"
	router.WatchAlertStatus(context.Background(), followed.ID)
	settle()
	feeds.pushAlert(followed)
	settle()

	// Unrelated home-quartier traffic must not tear the watcher down.
	feeds.pushAlerts("Zogona", []*models.Alert{fireAlert(uuid.New())})
	sink.waitFor(t, userID, KindNewAlert, 1)

	followed.Status = models.StatusConfirmed
	feeds.pushAlert(followed)
	sink.waitFor(t, userID, KindAlertStatus, 1)
	settle()
	assert.Equal(t, 1, sink.count(userID, KindAlertStatus))
}

func TestVoterSeesTransitionExactlyOnce(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	router := startRouter(t, feeds, sink, openPolicy{}, userID, locationAt(0))

	// A home-quartier alert by someone else; the user voted on it, so a
	// dedicated watcher is attached alongside the quartier feed.
	alert := fireAlert(uuid.New())
	feeds.pushAlerts("Zogona", []*models.Alert{alert})
	sink.waitFor(t, userID, KindNewAlert, 1)
	router.WatchAlertStatus(context.Background(), alert.ID)
	settle()

	// Both paths observe the same transition; it lands once.
	confirmed := *alert
	confirmed.Status = models.StatusConfirmed
	confirmed.ConfirmCount = 3
	feeds.pushAlerts("Zogona", []*models.Alert{&confirmed})
	feeds.pushAlert(&confirmed)
	sink.waitFor(t, userID, KindAlertStatus, 1)
	settle()
	assert.Equal(t, 1, sink.count(userID, KindAlertStatus))
}

func TestStopIsIdempotent(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	userID := uuid.New()

	router := NewRouter(feeds, sink, openPolicy{}, userID, "Zogona", nil)
	router.Start(context.Background())
	router.Stop()
	router.Stop()

	// Snapshots after Stop are ignored.
	feeds.pushAlerts("Zogona", []*models.Alert{fireAlert(uuid.New())})
	settle()
	assert.Equal(t, 0, sink.count(userID, KindNewAlert))
}

func TestManagerReplacesAndDisconnects(t *testing.T) {
	feeds := newFakeFeeds()
	sink := newFakeSink()
	manager := NewManager(feeds, sink, openPolicy{})
	defer manager.Shutdown()

	userID := uuid.New()
	first := manager.Connect(context.Background(), userID, "Zogona", locationAt(0))
	require.NotNil(t, first)

	// Reconnecting replaces the router.
	second := manager.Connect(context.Background(), userID, "Zogona", locationAt(0))
	assert.NotSame(t, first, second)
	assert.Same(t, second, manager.Router(userID))

	manager.Disconnect(userID)
	assert.Nil(t, manager.Router(userID))
	manager.Disconnect(userID)
}
