// internal/database/feeds.go
package database

import (
	"context"
	"log"
	"time"

	"quartier-watch/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// feedPollInterval drives the fallback poller when change streams are
// unavailable (standalone mongod has no oplog).
const feedPollInterval = 3 * time.Second

// watchLoop turns collection changes into snapshot re-queries. Each time
// the watched collection changes (or the poll ticker fires), requery is
// called and its result pushed through emit. Latest-wins: emit should not
// block for long.
func watchLoop(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, requery func(context.Context) bool) {
	stream, err := coll.Watch(ctx, pipeline)
	if err != nil {
		// No oplog or no permission. Fall back to polling.
		log.Printf("Feed: change stream unavailable for %s, polling: %v", coll.Name(), err)
		ticker := time.NewTicker(feedPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !requery(ctx) {
					return
				}
			}
		}
	}
	defer stream.Close(ctx)

	for stream.Next(ctx) {
		if !requery(ctx) {
			return
		}
	}
	if ctx.Err() == nil && stream.Err() != nil {
		log.Printf("Feed: change stream for %s ended: %v", coll.Name(), stream.Err())
	}
}

// changeMatch limits a change stream to documents whose given field has
// one of the listed values.
func changeMatch(field string, value interface{}) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"fullDocument." + field: value},
				// Deletes carry no fullDocument, so let them through
				// and requery regardless.
				bson.M{"operationType": "delete"},
			},
		}}},
	}
}

// WatchQuartierPosts streams full post snapshots for a quartier. Every
// change to the quartier's posts triggers a re-query whose result is sent
// on the returned channel. An initial snapshot is sent before the first
// change. Call the returned cancel to stop; the channel closes once the
// watcher exits.
func (m *MongoDB) WatchQuartierPosts(ctx context.Context, quartier string) (<-chan []*models.Post, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []*models.Post, 1)

	requery := func(ctx context.Context) bool {
		qctx, qcancel := context.WithTimeout(ctx, 5*time.Second)
		posts, err := m.GetPostsByQuartier(qctx, quartier)
		qcancel()
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			log.Printf("Feed: post snapshot query failed for %s: %v", quartier, err)
			return true
		}
		select {
		case out <- posts:
		case <-ctx.Done():
			return false
		default:
			// Consumer lagging; drop the stale snapshot and replace it.
			select {
			case <-out:
			default:
			}
			out <- posts
		}
		return true
	}

	go func() {
		defer close(out)
		if !requery(ctx) {
			return
		}
		watchLoop(ctx, m.Posts, changeMatch("quartier", quartier), requery)
	}()

	return out, cancel
}

// WatchQuartierAlerts streams full alert snapshots for a quartier, same
// contract as WatchQuartierPosts.
func (m *MongoDB) WatchQuartierAlerts(ctx context.Context, quartier string) (<-chan []*models.Alert, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan []*models.Alert, 1)

	requery := func(ctx context.Context) bool {
		qctx, qcancel := context.WithTimeout(ctx, 5*time.Second)
		alerts, err := m.GetAlertsByQuartier(qctx, quartier)
		qcancel()
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			log.Printf("Feed: alert snapshot query failed for %s: %v", quartier, err)
			return true
		}
		select {
		case out <- alerts:
		case <-ctx.Done():
			return false
		default:
			select {
			case <-out:
			default:
			}
			out <- alerts
		}
		return true
	}

	go func() {
		defer close(out)
		if !requery(ctx) {
			return
		}
		watchLoop(ctx, m.Alerts, changeMatch("quartier", quartier), requery)
	}()

	return out, cancel
}

// WatchAlert streams a single alert document on every change, for status
// transition tracking. The channel closes when the alert is deleted or
// the watcher is cancelled.
func (m *MongoDB) WatchAlert(ctx context.Context, alertID uuid.UUID) (<-chan *models.Alert, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan *models.Alert, 1)

	requery := func(ctx context.Context) bool {
		qctx, qcancel := context.WithTimeout(ctx, 5*time.Second)
		alert, err := m.GetAlert(qctx, alertID)
		qcancel()
		if err != nil {
			// Gone or unreadable; either way the watcher is done.
			return false
		}
		select {
		case out <- alert:
		case <-ctx.Done():
			return false
		default:
			select {
			case <-out:
			default:
			}
			out <- alert
		}
		return true
	}

	go func() {
		defer close(out)
		if !requery(ctx) {
			return
		}
		watchLoop(ctx, m.Alerts, changeMatch("_id", alertID.String()), requery)
	}()

	return out, cancel
}

// WatchSettings streams the settings record on every admin update.
func (m *MongoDB) WatchSettings(ctx context.Context) (<-chan *models.SystemSettings, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan *models.SystemSettings, 1)

	requery := func(ctx context.Context) bool {
		qctx, qcancel := context.WithTimeout(ctx, 5*time.Second)
		settings, err := m.GetSettings(qctx)
		qcancel()
		if err != nil || settings == nil {
			if ctx.Err() != nil {
				return false
			}
			return true
		}
		select {
		case out <- settings:
		case <-ctx.Done():
			return false
		default:
			select {
			case <-out:
			default:
			}
			out <- settings
		}
		return true
	}

	go func() {
		defer close(out)
		if !requery(ctx) {
			return
		}
		watchLoop(ctx, m.Settings, nil, requery)
	}()

	return out, cancel
}
