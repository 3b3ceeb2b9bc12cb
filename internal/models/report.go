package models

import (
	"time"

	"github.com/google/uuid"
)

// Report statuses.
const (
	ReportPending  = "PENDING"
	ReportResolved = "RESOLVED"
	ReportRejected = "REJECTED"
)

// Report is a user flag raised against a post, reviewed by admins.
type Report struct {
	ID           uuid.UUID  `json:"id"`
	PostID       uuid.UUID  `json:"postId"`
	ReporterID   uuid.UUID  `json:"reporterId"`
	ReporterName string     `json:"reporterName"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	ResolvedBy   *uuid.UUID `json:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
}
