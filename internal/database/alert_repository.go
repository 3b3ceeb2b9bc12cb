// internal/database/alert_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AlertDocument represents the MongoDB schema for an alert.
type AlertDocument struct {
	ID           string          `bson:"_id"`
	AuthorID     string          `bson:"authorId"`
	AuthorName   string          `bson:"authorName"`
	Quartier     string          `bson:"quartier"`
	Category     string          `bson:"category"`
	Message      string          `bson:"message,omitempty"`
	Location     *LocationSubdoc `bson:"location,omitempty"`
	Radius       string          `bson:"radius"`
	Status       string          `bson:"status"`
	ConfirmCount int             `bson:"confirmCount"`
	FalseCount   int             `bson:"falseCount"`
	ConfirmedBy  []string        `bson:"confirmedBy"`
	FalseBy      []string        `bson:"falseBy"`
	CreatedAt    time.Time       `bson:"createdAt"`
}

type LocationSubdoc struct {
	Latitude   float64   `bson:"latitude"`
	Longitude  float64   `bson:"longitude"`
	CapturedAt time.Time `bson:"capturedAt"`
}

func alertToDocument(alert *models.Alert) *AlertDocument {
	doc := &AlertDocument{
		ID:           alert.ID.String(),
		AuthorID:     alert.AuthorID.String(),
		AuthorName:   alert.AuthorName,
		Quartier:     alert.Quartier,
		Category:     string(alert.Category),
		Message:      alert.Message,
		Radius:       string(alert.Radius),
		Status:       string(alert.Status),
		ConfirmCount: alert.ConfirmCount,
		FalseCount:   alert.FalseCount,
		ConfirmedBy:  uuidsToStrings(alert.ConfirmedBy),
		FalseBy:      uuidsToStrings(alert.FalseBy),
		CreatedAt:    alert.CreatedAt,
	}
	if alert.Location != nil {
		doc.Location = &LocationSubdoc{
			Latitude:   alert.Location.Latitude,
			Longitude:  alert.Location.Longitude,
			CapturedAt: alert.Location.CapturedAt,
		}
	}
	return doc
}

func alertToModel(doc *AlertDocument) (*models.Alert, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid alert ID: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}
	confirmedBy, err := stringsToUUIDs(doc.ConfirmedBy)
	if err != nil {
		return nil, fmt.Errorf("invalid confirmedBy entry: %v", err)
	}
	falseBy, err := stringsToUUIDs(doc.FalseBy)
	if err != nil {
		return nil, fmt.Errorf("invalid falseBy entry: %v", err)
	}

	alert := &models.Alert{
		ID:           id,
		AuthorID:     authorID,
		AuthorName:   doc.AuthorName,
		Quartier:     doc.Quartier,
		Category:     models.AlertCategory(doc.Category),
		Message:      doc.Message,
		Radius:       models.Radius(doc.Radius),
		Status:       models.AlertStatus(doc.Status),
		ConfirmCount: doc.ConfirmCount,
		FalseCount:   doc.FalseCount,
		ConfirmedBy:  confirmedBy,
		FalseBy:      falseBy,
		CreatedAt:    doc.CreatedAt,
	}
	if doc.Location != nil {
		alert.Location = &models.Location{
			Latitude:   doc.Location.Latitude,
			Longitude:  doc.Location.Longitude,
			CapturedAt: doc.Location.CapturedAt,
		}
	}
	return alert, nil
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToUUIDs(values []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// SaveAlert creates or updates an alert.
func (m *MongoDB) SaveAlert(ctx context.Context, alert *models.Alert) error {
	doc := alertToDocument(alert)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": alert.ID.String()}
	update := bson.M{"$set": doc}

	_, err := m.Alerts.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetAlert retrieves an alert by its ID.
func (m *MongoDB) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	var doc AlertDocument

	err := m.Alerts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAlertNotFoundError(id.String())
	}
	if err != nil {
		return nil, err
	}

	return alertToModel(&doc)
}

// GetAlertsByQuartier retrieves all alerts in a quartier, newest first.
func (m *MongoDB) GetAlertsByQuartier(ctx context.Context, quartier string) ([]*models.Alert, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Alerts.Find(ctx, bson.M{"quartier": quartier}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	return decodeAlerts(ctx, cursor)
}

// GetAlertsByStatus retrieves all alerts with the given status, newest
// first. Used by the admin console.
func (m *MongoDB) GetAlertsByStatus(ctx context.Context, status models.AlertStatus) ([]*models.Alert, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Alerts.Find(ctx, bson.M{"status": string(status)}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	return decodeAlerts(ctx, cursor)
}

// GetAllAlerts retrieves every alert, newest first.
func (m *MongoDB) GetAllAlerts(ctx context.Context) ([]*models.Alert, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Alerts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	return decodeAlerts(ctx, cursor)
}

// GetLatestAlertByAuthor returns the author's single most recent alert,
// or nil when they have never raised one. The cooldown check depends on
// this being the newest record.
func (m *MongoDB) GetLatestAlertByAuthor(ctx context.Context, authorID uuid.UUID) (*models.Alert, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var doc AlertDocument
	err := m.Alerts.FindOne(ctx, bson.M{"authorId": authorID.String()}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return alertToModel(&doc)
}

// RecordConsensusVote atomically appends userID to the confirm or false
// set and bumps the matching counter. The filter excludes users already
// present in either set, so two racing votes from the same user cannot
// both land, and two votes from different users both do.
func (m *MongoDB) RecordConsensusVote(ctx context.Context, alertID, userID uuid.UUID, confirm bool) (*models.Alert, error) {
	field, counter := "falseBy", "falseCount"
	if confirm {
		field, counter = "confirmedBy", "confirmCount"
	}

	filter := bson.M{
		"_id":         alertID.String(),
		"confirmedBy": bson.M{"$ne": userID.String()},
		"falseBy":     bson.M{"$ne": userID.String()},
	}
	update := bson.M{
		"$addToSet": bson.M{field: userID.String()},
		"$inc":      bson.M{counter: 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc AlertDocument
	err := m.Alerts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		// Either the alert is gone or the user already voted.
		if _, getErr := m.GetAlert(ctx, alertID); getErr != nil {
			return nil, getErr
		}
		return nil, utils.NewAppError(utils.ErrAlreadyVoted, "User has already confirmed or disputed this alert", nil)
	}
	if err != nil {
		return nil, err
	}

	return alertToModel(&doc)
}

// PromoteAlertStatus finalizes a PENDING alert whose counter reached the
// consensus threshold. The status predicate is part of the filter, so a
// concurrent promotion (or an already-terminal status) makes this a no-op
// rather than a second transition.
func (m *MongoDB) PromoteAlertStatus(ctx context.Context, alertID uuid.UUID, to models.AlertStatus) (bool, error) {
	counter := "falseCount"
	if to == models.StatusConfirmed {
		counter = "confirmCount"
	}

	filter := bson.M{
		"_id":    alertID.String(),
		"status": string(models.StatusPending),
		counter:  bson.M{"$gte": models.ConsensusThreshold},
	}
	update := bson.M{"$set": bson.M{"status": string(to)}}

	result, err := m.Alerts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// UpdateAlertStatus overrides an alert's status, recording the reviewing
// admin. Admin-only escape hatch; community consensus goes through
// RecordConsensusVote/PromoteAlertStatus.
func (m *MongoDB) UpdateAlertStatus(ctx context.Context, alertID uuid.UUID, status models.AlertStatus, adminID uuid.UUID) error {
	filter := bson.M{"_id": alertID.String()}
	update := bson.M{"$set": bson.M{
		"status":     string(status),
		"reviewedBy": adminID.String(),
		"reviewedAt": time.Now(),
	}}

	result, err := m.Alerts.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAlertNotFoundError(alertID.String())
	}
	return nil
}

// DeleteAlert removes an alert.
func (m *MongoDB) DeleteAlert(ctx context.Context, alertID uuid.UUID) error {
	result, err := m.Alerts.DeleteOne(ctx, bson.M{"_id": alertID.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewAlertNotFoundError(alertID.String())
	}
	return nil
}

// CountAlertsByAuthor counts every alert the author has raised.
func (m *MongoDB) CountAlertsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	return m.Alerts.CountDocuments(ctx, bson.M{"authorId": authorID.String()})
}

func decodeAlerts(ctx context.Context, cursor *mongo.Cursor) ([]*models.Alert, error) {
	var alerts []*models.Alert
	for cursor.Next(ctx) {
		var doc AlertDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		alert, err := alertToModel(&doc)
		if err != nil {
			continue
		}
		alerts = append(alerts, alert)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration failed: %v", err)
	}
	return alerts, nil
}
