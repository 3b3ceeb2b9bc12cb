// internal/database/report_repository.go
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

// ReportDocument represents a moderation report in MongoDB.
type ReportDocument struct {
	ID           string     `bson:"_id"`
	PostID       string     `bson:"postId"`
	ReporterID   string     `bson:"reporterId"`
	ReporterName string     `bson:"reporterName"`
	Reason       string     `bson:"reason"`
	Status       string     `bson:"status"`
	CreatedAt    time.Time  `bson:"createdAt"`
	ResolvedBy   *string    `bson:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time `bson:"resolvedAt,omitempty"`
}

func reportToModel(doc *ReportDocument) (*models.Report, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid report ID: %v", err)
	}
	postID, err := uuid.Parse(doc.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}
	reporterID, err := uuid.Parse(doc.ReporterID)
	if err != nil {
		return nil, fmt.Errorf("invalid reporter ID: %v", err)
	}

	report := &models.Report{
		ID:           id,
		PostID:       postID,
		ReporterID:   reporterID,
		ReporterName: doc.ReporterName,
		Reason:       doc.Reason,
		Status:       doc.Status,
		CreatedAt:    doc.CreatedAt,
		ResolvedAt:   doc.ResolvedAt,
	}
	if doc.ResolvedBy != nil {
		resolvedBy, err := uuid.Parse(*doc.ResolvedBy)
		if err != nil {
			return nil, fmt.Errorf("invalid resolver ID: %v", err)
		}
		report.ResolvedBy = &resolvedBy
	}
	return report, nil
}

// SaveReport creates a report.
func (m *MongoDB) SaveReport(ctx context.Context, report *models.Report) error {
	doc := &ReportDocument{
		ID:           report.ID.String(),
		PostID:       report.PostID.String(),
		ReporterID:   report.ReporterID.String(),
		ReporterName: report.ReporterName,
		Reason:       report.Reason,
		Status:       report.Status,
		CreatedAt:    report.CreatedAt,
		ResolvedAt:   report.ResolvedAt,
	}
	if report.ResolvedBy != nil {
		s := report.ResolvedBy.String()
		doc.ResolvedBy = &s
	}

	opts := options.Update().SetUpsert(true)
	_, err := m.Reports.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

// GetReport retrieves a report by its ID.
func (m *MongoDB) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var doc ReportDocument

	err := m.Reports.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Report not found", err)
	}
	if err != nil {
		return nil, err
	}

	return reportToModel(&doc)
}

// GetReports retrieves reports, optionally filtered by status, newest
// first.
func (m *MongoDB) GetReports(ctx context.Context, status string) ([]*models.Report, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	var reports []*models.Report
	for cursor.Next(ctx) {
		var doc ReportDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		report, err := reportToModel(&doc)
		if err != nil {
			continue
		}
		reports = append(reports, report)
	}
	return reports, cursor.Err()
}

// ResolveReport marks a pending report resolved or rejected.
func (m *MongoDB) ResolveReport(ctx context.Context, reportID uuid.UUID, status string, adminID uuid.UUID) error {
	filter := bson.M{"_id": reportID.String(), "status": models.ReportPending}
	update := bson.M{"$set": bson.M{
		"status":     status,
		"resolvedBy": adminID.String(),
		"resolvedAt": time.Now(),
	}}

	result, err := m.Reports.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Pending report not found", nil)
	}
	return nil
}

// CountPendingReports returns the number of unresolved reports.
func (m *MongoDB) CountPendingReports(ctx context.Context) (int64, error) {
	return m.Reports.CountDocuments(ctx, bson.M{"status": models.ReportPending})
}
