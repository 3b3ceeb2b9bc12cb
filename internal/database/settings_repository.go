// internal/database/settings_repository.go
package database

import (
	"context"
	"time"

	"quartier-watch/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// settingsDocID is the fixed id of the singleton settings document.
const settingsDocID = "system"

// SettingsDocument represents the system settings record in MongoDB.
type SettingsDocument struct {
	ID                   string    `bson:"_id"`
	MaintenanceMode      bool      `bson:"maintenanceMode"`
	NewUserRegistration  bool      `bson:"newUserRegistration"`
	AlertCooldownMinutes int       `bson:"alertCooldownMinutes"`
	MaxPostsPerDay       int       `bson:"maxPostsPerDay"`
	AlertNotifications   bool      `bson:"alertNotifications"`
	PushNotifications    bool      `bson:"pushNotifications"`
	AutoModeration       bool      `bson:"autoModeration"`
	UpdatedAt            time.Time `bson:"updatedAt"`
	UpdatedBy            string    `bson:"updatedBy,omitempty"`
}

// GetSettings fetches the singleton settings record. Returns (nil, nil)
// when the record has never been written, so callers fall back to
// defaults instead of treating first boot as a failure.
func (m *MongoDB) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	var doc SettingsDocument

	err := m.Settings.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &models.SystemSettings{
		MaintenanceMode:      doc.MaintenanceMode,
		NewUserRegistration:  doc.NewUserRegistration,
		AlertCooldownMinutes: doc.AlertCooldownMinutes,
		MaxPostsPerDay:       doc.MaxPostsPerDay,
		AlertNotifications:   doc.AlertNotifications,
		PushNotifications:    doc.PushNotifications,
		AutoModeration:       doc.AutoModeration,
		UpdatedAt:            doc.UpdatedAt,
		UpdatedBy:            doc.UpdatedBy,
	}, nil
}

// SaveSettings upserts the singleton settings record.
func (m *MongoDB) SaveSettings(ctx context.Context, settings *models.SystemSettings) error {
	doc := &SettingsDocument{
		ID:                   settingsDocID,
		MaintenanceMode:      settings.MaintenanceMode,
		NewUserRegistration:  settings.NewUserRegistration,
		AlertCooldownMinutes: settings.AlertCooldownMinutes,
		MaxPostsPerDay:       settings.MaxPostsPerDay,
		AlertNotifications:   settings.AlertNotifications,
		PushNotifications:    settings.PushNotifications,
		AutoModeration:       settings.AutoModeration,
		UpdatedAt:            settings.UpdatedAt,
		UpdatedBy:            settings.UpdatedBy,
	}

	opts := options.Update().SetUpsert(true)
	_, err := m.Settings.UpdateOne(ctx, bson.M{"_id": settingsDocID}, bson.M{"$set": doc}, opts)
	return err
}
