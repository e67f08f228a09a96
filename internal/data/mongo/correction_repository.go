package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pagemend/pagemend/internal/domain/correction"
)

const (
	// CorrectionCollectionName is the name of the corrections collection in MongoDB
	CorrectionCollectionName = "corrections"
)

// CorrectionRepository implements the correction.Repository interface for MongoDB
type CorrectionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewCorrectionRepository creates a new MongoDB correction repository
func NewCorrectionRepository(logger *slog.Logger, db *mongo.Database) correction.Repository {
	return &CorrectionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new correction record
func (r *CorrectionRepository) Create(ctx context.Context, rec *correction.Record) error {
	collection := r.db.Collection(CorrectionCollectionName)

	if _, err := collection.InsertOne(ctx, rec); err != nil {
		r.logger.Error("Failed to create correction record", "record_id", rec.ID.String(), "error", err)
		return fmt.Errorf("failed to create correction record: %w", err)
	}

	return nil
}

// GetByID retrieves a correction record by its ID
func (r *CorrectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*correction.Record, error) {
	collection := r.db.Collection(CorrectionCollectionName)

	filter := bson.M{"id": id}
	var rec correction.Record
	err := collection.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, correction.ErrRecordNotFound{RecordID: id}
		}
		r.logger.Error("Failed to get correction record", "record_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get correction record: %w", err)
	}

	return &rec, nil
}

// GetActiveByIssue returns the non-superseded record of an issue, or
// nil, nil when the issue has never been corrected.
func (r *CorrectionRepository) GetActiveByIssue(ctx context.Context, issueID uuid.UUID) (*correction.Record, error) {
	collection := r.db.Collection(CorrectionCollectionName)

	filter := bson.M{"issue_id": issueID, "superseded": false}
	var rec correction.Record
	err := collection.FindOne(ctx, filter).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error("Failed to get active correction record", "issue_id", issueID.String(), "error", err)
		return nil, fmt.Errorf("failed to get active correction record: %w", err)
	}

	return &rec, nil
}

// ListByIssue returns the full correction history for an issue, newest first
func (r *CorrectionRepository) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]*correction.Record, error) {
	collection := r.db.Collection(CorrectionCollectionName)

	filter := bson.M{"issue_id": issueID}
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list correction records", "issue_id", issueID.String(), "error", err)
		return nil, fmt.Errorf("failed to list correction records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*correction.Record
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode correction records", "issue_id", issueID.String(), "error", err)
		return nil, fmt.Errorf("failed to decode correction records: %w", err)
	}

	return records, nil
}

// Supersede marks the active record of an issue as superseded. A no-op
// when the issue has no active record.
func (r *CorrectionRepository) Supersede(ctx context.Context, issueID uuid.UUID) error {
	collection := r.db.Collection(CorrectionCollectionName)

	filter := bson.M{"issue_id": issueID, "superseded": false}
	update := bson.M{"$set": bson.M{"superseded": true}}

	if _, err := collection.UpdateMany(ctx, filter, update); err != nil {
		r.logger.Error("Failed to supersede correction records", "issue_id", issueID.String(), "error", err)
		return fmt.Errorf("failed to supersede correction records: %w", err)
	}

	return nil
}

// SetApplied toggles the applied flag of a record (used by undo/redo)
func (r *CorrectionRepository) SetApplied(ctx context.Context, id uuid.UUID, applied bool) error {
	collection := r.db.Collection(CorrectionCollectionName)

	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"applied": applied}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to update correction applied flag", "record_id", id.String(), "error", err)
		return fmt.Errorf("failed to update correction applied flag: %w", err)
	}

	if result.MatchedCount == 0 {
		return correction.ErrRecordNotFound{RecordID: id}
	}

	return nil
}
