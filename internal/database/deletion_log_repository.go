// internal/database/deletion_log_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"quartier-watch/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeletionLogDocument represents an audit entry in MongoDB.
type DeletionLogDocument struct {
	ID        string                 `bson:"_id"`
	Type      string                 `bson:"type"`
	ItemID    string                 `bson:"itemId"`
	ActorID   string                 `bson:"actorId"`
	ActorName string                 `bson:"actorName"`
	Snapshot  map[string]interface{} `bson:"snapshot,omitempty"`
	DeletedAt time.Time              `bson:"deletedAt"`
}

func deletionLogToModel(doc *DeletionLogDocument) (*models.DeletionLog, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid log ID: %v", err)
	}
	itemID, err := uuid.Parse(doc.ItemID)
	if err != nil {
		return nil, fmt.Errorf("invalid item ID: %v", err)
	}
	actorID, err := uuid.Parse(doc.ActorID)
	if err != nil {
		return nil, fmt.Errorf("invalid actor ID: %v", err)
	}

	return &models.DeletionLog{
		ID:        id,
		Type:      doc.Type,
		ItemID:    itemID,
		ActorID:   actorID,
		ActorName: doc.ActorName,
		Snapshot:  doc.Snapshot,
		DeletedAt: doc.DeletedAt,
	}, nil
}

// InsertDeletionLog appends one audit entry. Callers treat failures as
// non-fatal.
func (m *MongoDB) InsertDeletionLog(ctx context.Context, entry *models.DeletionLog) error {
	doc := &DeletionLogDocument{
		ID:        entry.ID.String(),
		Type:      entry.Type,
		ItemID:    entry.ItemID.String(),
		ActorID:   entry.ActorID.String(),
		ActorName: entry.ActorName,
		Snapshot:  entry.Snapshot,
		DeletedAt: entry.DeletedAt,
	}

	_, err := m.DeletionLogs.InsertOne(ctx, doc)
	return err
}

// GetDeletionLogs retrieves audit entries, newest first, capped at limit
// (0 means no cap).
func (m *MongoDB) GetDeletionLogs(ctx context.Context, limit int64) ([]*models.DeletionLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "deletedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.DeletionLogs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	var logs []*models.DeletionLog
	for cursor.Next(ctx) {
		var doc DeletionLogDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		entry, err := deletionLogToModel(&doc)
		if err != nil {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, cursor.Err()
}

// DeletionStats summarizes the audit log for the admin dashboard.
type DeletionStats struct {
	Total       int64            `json:"total"`
	ByType      map[string]int64 `json:"byType"`
	Last24Hours int64            `json:"last24Hours"`
}

// GetDeletionStats aggregates totals per deleted-item type plus a
// rolling 24h count.
func (m *MongoDB) GetDeletionStats(ctx context.Context) (*DeletionStats, error) {
	stats := &DeletionStats{ByType: make(map[string]int64)}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := m.DeletionLogs.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			continue
		}
		stats.ByType[row.ID] = row.Count
		stats.Total += row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	since := time.Now().Add(-24 * time.Hour)
	recent, err := m.DeletionLogs.CountDocuments(ctx, bson.M{"deletedAt": bson.M{"$gte": since}})
	if err != nil {
		return nil, err
	}
	stats.Last24Hours = recent

	return stats, nil
}
