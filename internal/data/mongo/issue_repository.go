// Package mongo provides MongoDB implementations of the issue and
// correction repositories. Issues carry their candidates as an embedded
// array, replaced wholesale on regeneration.
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

	"github.com/pagemend/pagemend/internal/domain/issue"
)

const (
	// IssueCollectionName is the name of the issues collection in MongoDB
	IssueCollectionName = "issues"
)

// IssueRepository implements the issue.Repository interface for MongoDB
type IssueRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewIssueRepository creates a new MongoDB issue repository
func NewIssueRepository(logger *slog.Logger, db *mongo.Database) issue.Repository {
	return &IssueRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new issue
func (r *IssueRepository) Create(ctx context.Context, iss *issue.Issue) error {
	collection := r.db.Collection(IssueCollectionName)

	if _, err := collection.InsertOne(ctx, iss); err != nil {
		r.logger.Error("Failed to create issue", "issue_id", iss.ID.String(), "error", err)
		return fmt.Errorf("failed to create issue: %w", err)
	}

	return nil
}

// GetByID retrieves an issue by its ID. Returns ErrIssueNotFound if no
// issue exists with the given ID.
func (r *IssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*issue.Issue, error) {
	collection := r.db.Collection(IssueCollectionName)

	filter := bson.M{"id": id}
	var iss issue.Issue
	err := collection.FindOne(ctx, filter).Decode(&iss)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, issue.ErrIssueNotFound{IssueID: id}
		}
		r.logger.Error("Failed to get issue", "issue_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	return &iss, nil
}

// ListByDocument retrieves a document's issues in ascending sequence order,
// optionally filtered by status. The sequence order is the order issues
// were listed for the document and drives the workflow's cursor.
func (r *IssueRepository) ListByDocument(ctx context.Context, documentID uuid.UUID, status *issue.Status) ([]*issue.Issue, error) {
	collection := r.db.Collection(IssueCollectionName)

	filter := bson.M{"document_id": documentID}
	if status != nil {
		filter["status"] = string(*status)
	}
	opts := options.Find().SetSort(bson.M{"sequence": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list issues", "document_id", documentID.String(), "error", err)
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer cursor.Close(ctx)

	var issues []*issue.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		r.logger.Error("Failed to decode issues", "document_id", documentID.String(), "error", err)
		return nil, fmt.Errorf("failed to decode issues: %w", err)
	}

	return issues, nil
}

// NextSequence returns the next free listing position for a document
func (r *IssueRepository) NextSequence(ctx context.Context, documentID uuid.UUID) (int, error) {
	collection := r.db.Collection(IssueCollectionName)

	filter := bson.M{"document_id": documentID}
	opts := options.FindOne().SetSort(bson.M{"sequence": -1})

	var last issue.Issue
	err := collection.FindOne(ctx, filter, opts).Decode(&last)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		r.logger.Error("Failed to get last issue sequence", "document_id", documentID.String(), "error", err)
		return 0, fmt.Errorf("failed to get last issue sequence: %w", err)
	}

	return last.Sequence + 1, nil
}

// Update replaces the stored issue with the given state
func (r *IssueRepository) Update(ctx context.Context, iss *issue.Issue) error {
	collection := r.db.Collection(IssueCollectionName)

	filter := bson.M{"id": iss.ID}
	result, err := collection.ReplaceOne(ctx, filter, iss)
	if err != nil {
		r.logger.Error("Failed to update issue", "issue_id", iss.ID.String(), "error", err)
		return fmt.Errorf("failed to update issue: %w", err)
	}

	if result.MatchedCount == 0 {
		return issue.ErrIssueNotFound{IssueID: iss.ID}
	}

	return nil
}
