package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AlertCategory classifies a security alert.
type AlertCategory string

const (
	CategoryIntrusion AlertCategory = "INTRUSION"
	CategoryRobbery   AlertCategory = "ROBBERY"
	CategoryFire      AlertCategory = "FIRE"
	CategoryAssault   AlertCategory = "ASSAULT"
	CategoryOther     AlertCategory = "OTHER"
)

func IsValidCategory(c AlertCategory) bool {
	switch c {
	case CategoryIntrusion, CategoryRobbery, CategoryFire, CategoryAssault, CategoryOther:
		return true
	}
	return false
}

// AlertStatus is the consensus state of an alert. PENDING is the initial
// state; CONFIRMED and DISPUTED are terminal.
type AlertStatus string

const (
	StatusPending   AlertStatus = "PENDING"
	StatusConfirmed AlertStatus = "CONFIRMED"
	StatusDisputed  AlertStatus = "DISPUTED"
)

// ConsensusThreshold is the number of distinct confirming (or disputing)
// users required to finalize an alert's status.
const ConsensusThreshold = 3

// ErrAlreadyVoted is returned when a user tries to confirm or dispute an
// alert they have already acted on.
var ErrAlreadyVoted = errors.New("user has already confirmed or disputed this alert")

// Location is a GPS fix captured when an alert (or a subscriber position)
// was recorded.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"capturedAt"`
}

type Alert struct {
	ID           uuid.UUID     `json:"id"`
	AuthorID     uuid.UUID     `json:"authorId"`
	AuthorName   string        `json:"authorName"`
	Quartier     string        `json:"quartier"`
	Category     AlertCategory `json:"category"`
	Message      string        `json:"message,omitempty"`
	Location     *Location     `json:"location,omitempty"`
	Radius       Radius        `json:"radius"`
	Status       AlertStatus   `json:"status"`
	ConfirmCount int           `json:"confirmCount"`
	FalseCount   int           `json:"falseCount"`
	ConfirmedBy  []uuid.UUID   `json:"confirmedBy"`
	FalseBy      []uuid.UUID   `json:"falseBy"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// HasVoted reports whether userID appears in either membership set.
func (a *Alert) HasVoted(userID uuid.UUID) bool {
	for _, id := range a.ConfirmedBy {
		if id == userID {
			return true
		}
	}
	for _, id := range a.FalseBy {
		if id == userID {
			return true
		}
	}
	return false
}

// Confirm records a confirmation by userID. A user who already confirmed
// or disputed is rejected with ErrAlreadyVoted. The returned flag is true
// only for the single call that moves the alert from PENDING to CONFIRMED;
// confirmations past a terminal status still update the set and count but
// never re-trigger a transition.
func (a *Alert) Confirm(userID uuid.UUID) (promoted bool, err error) {
	if a.HasVoted(userID) {
		return false, ErrAlreadyVoted
	}
	a.ConfirmedBy = append(a.ConfirmedBy, userID)
	a.ConfirmCount = len(a.ConfirmedBy)

	if a.Status == StatusPending && a.ConfirmCount >= ConsensusThreshold {
		a.Status = StatusConfirmed
		return true, nil
	}
	return false, nil
}

// Dispute is the symmetric false-report action; at threshold it moves a
// PENDING alert to DISPUTED.
func (a *Alert) Dispute(userID uuid.UUID) (promoted bool, err error) {
	if a.HasVoted(userID) {
		return false, ErrAlreadyVoted
	}
	a.FalseBy = append(a.FalseBy, userID)
	a.FalseCount = len(a.FalseBy)

	if a.Status == StatusPending && a.FalseCount >= ConsensusThreshold {
		a.Status = StatusDisputed
		return true, nil
	}
	return false, nil
}
