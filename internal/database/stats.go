// internal/database/stats.go
package database

import (
	"context"

	"quartier-watch/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	TotalUsers      int64            `json:"totalUsers"`
	ActiveUsers     int64            `json:"activeUsers"`
	BlockedUsers    int64            `json:"blockedUsers"`
	PremiumUsers    int64            `json:"premiumUsers"`
	UsersByQuartier map[string]int64 `json:"usersByQuartier"`
	TotalPosts      int64            `json:"totalPosts"`
	TotalAlerts     int64            `json:"totalAlerts"`
	AlertsByStatus  map[string]int64 `json:"alertsByStatus"`
	PendingReports  int64            `json:"pendingReports"`
}

// UserStats is a single user's engagement summary.
type UserStats struct {
	UserID        uuid.UUID `json:"userId"`
	PostCount     int64     `json:"postCount"`
	AlertCount    int64     `json:"alertCount"`
	LikesReceived int64     `json:"likesReceived"`
}

// GetPlatformStats assembles the platform-wide counters.
func (m *MongoDB) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{
		UsersByQuartier: make(map[string]int64),
		AlertsByStatus:  make(map[string]int64),
	}

	var err error
	if stats.TotalUsers, err = m.Users.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	}
	if stats.ActiveUsers, err = m.Users.CountDocuments(ctx, bson.M{"isActive": true}); err != nil {
		return nil, err
	}
	if stats.BlockedUsers, err = m.Users.CountDocuments(ctx, bson.M{"isBlocked": true}); err != nil {
		return nil, err
	}
	if stats.PremiumUsers, err = m.Users.CountDocuments(ctx, bson.M{"isPremium": true}); err != nil {
		return nil, err
	}
	if stats.TotalPosts, err = m.Posts.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	}
	if stats.TotalAlerts, err = m.Alerts.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, err
	}
	if stats.PendingReports, err = m.CountPendingReports(ctx); err != nil {
		return nil, err
	}

	if stats.UsersByQuartier, err = m.groupCounts(ctx, m.Users, "$quartier"); err != nil {
		return nil, err
	}
	if stats.AlertsByStatus, err = m.groupCounts(ctx, m.Alerts, "$status"); err != nil {
		return nil, err
	}

	return stats, nil
}

// GetUserStats assembles one user's engagement counters.
func (m *MongoDB) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	posts, err := m.CountPostsByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	alerts, err := m.CountAlertsByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	likes, err := m.SumLikesByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		UserID:        userID,
		PostCount:     posts,
		AlertCount:    alerts,
		LikesReceived: likes,
	}, nil
}

// CountUsersByQuartier returns user counts for a single quartier.
func (m *MongoDB) CountUsersByQuartier(ctx context.Context, quartier string) (int64, error) {
	if !models.IsValidQuartier(quartier) {
		return 0, nil
	}
	return m.Users.CountDocuments(ctx, bson.M{"quartier": quartier})
}

func (m *MongoDB) groupCounts(ctx context.Context, coll *mongo.Collection, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			continue
		}
		counts[row.ID] = row.Count
	}
	return counts, cursor.Err()
}
