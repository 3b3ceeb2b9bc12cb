// internal/notify/notification.go
package notify

import (
	"time"

	"quartier-watch/internal/models"

	"github.com/google/uuid"
)

// Notification kinds delivered to connected clients.
const (
	KindNewAlert    = "alert.new"
	KindAlertAck    = "alert.ack"
	KindAlertStatus = "alert.status"
	KindNewPost     = "post.new"
)

// Notification is the payload pushed to a client over its websocket.
type Notification struct {
	Kind      string             `json:"kind"`
	Urgent    bool               `json:"urgent"`
	Quartier  string             `json:"quartier,omitempty"`
	AlertID   *uuid.UUID         `json:"alertId,omitempty"`
	PostID    *uuid.UUID         `json:"postId,omitempty"`
	Category  string             `json:"category,omitempty"`
	Status    models.AlertStatus `json:"status,omitempty"`
	Message   string             `json:"message,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Sink delivers notifications to a single user's connection(s). The
// websocket hub implements it; tests use a recording fake.
type Sink interface {
	Notify(userID uuid.UUID, n *Notification)
}

func newAlertNotification(alert *models.Alert) *Notification {
	id := alert.ID
	return &Notification{
		Kind:      KindNewAlert,
		Urgent:    true,
		Quartier:  alert.Quartier,
		AlertID:   &id,
		Category:  string(alert.Category),
		Status:    alert.Status,
		Message:   alert.Message,
		CreatedAt: time.Now(),
	}
}

func alertAckNotification(alert *models.Alert) *Notification {
	id := alert.ID
	return &Notification{
		Kind:      KindAlertAck,
		Quartier:  alert.Quartier,
		AlertID:   &id,
		Category:  string(alert.Category),
		Status:    alert.Status,
		Message:   "Your alert has been shared with the neighborhood",
		CreatedAt: time.Now(),
	}
}

func alertStatusNotification(alert *models.Alert) *Notification {
	id := alert.ID
	return &Notification{
		Kind:      KindAlertStatus,
		Quartier:  alert.Quartier,
		AlertID:   &id,
		Category:  string(alert.Category),
		Status:    alert.Status,
		CreatedAt: time.Now(),
	}
}

func newPostNotification(post *models.Post) *Notification {
	id := post.ID
	return &Notification{
		Kind:      KindNewPost,
		Quartier:  post.Quartier,
		PostID:    &id,
		Message:   post.Content,
		CreatedAt: time.Now(),
	}
}
