package models

import (
	"time"

	"github.com/google/uuid"
)

// Deleted item types recorded in the audit log.
const (
	DeletedPost    = "post"
	DeletedComment = "comment"
	DeletedReply   = "reply"
	DeletedAlert   = "alert"
)

// DeletionLog is an append-only audit record written as a side effect of
// every delete. The log is best-effort: a failed write never aborts the
// delete itself.
type DeletionLog struct {
	ID        uuid.UUID              `json:"id"`
	Type      string                 `json:"type"`
	ItemID    uuid.UUID              `json:"itemId"`
	ActorID   uuid.UUID              `json:"actorId"`
	ActorName string                 `json:"actorName"`
	Snapshot  map[string]interface{} `json:"snapshot,omitempty"`
	DeletedAt time.Time              `json:"deletedAt"`
}
