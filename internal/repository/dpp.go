// internal/repository/dpp.go
package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
)

type DPPRepository struct {
	coll *mongo.Collection
}

func NewDPPRepository(db *mongo.Database) *DPPRepository {
	return &DPPRepository{coll: db.Collection(CollectionDPPs)}
}

func (r *DPPRepository) Create(ctx context.Context, dpp *models.DPP) error {
	if dpp.ID.IsZero() {
		dpp.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, dpp); err != nil {
		return fmt.Errorf("failed to insert dpp: %w", err)
	}
	return nil
}

func (r *DPPRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DPP, error) {
	var dpp models.DPP
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&dpp); err != nil {
		return nil, notFound(err)
	}
	return &dpp, nil
}

func (r *DPPRepository) Update(ctx context.Context, dpp *models.DPP) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": dpp.ID}, dpp)
	if err != nil {
		return fmt.Errorf("failed to update dpp: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DPPRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete dpp: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DPPRepository) List(ctx context.Context, f models.DPPFilter) ([]models.DPP, error) {
	filter := bson.M{}
	if f.CourseID != nil {
		filter["courseId"] = *f.CourseID
	}
	if f.PublishedOnly {
		filter["isPublished"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list dpps: %w", err)
	}
	dpps := []models.DPP{}
	if err := cursor.All(ctx, &dpps); err != nil {
		return nil, fmt.Errorf("failed to decode dpps: %w", err)
	}
	return dpps, nil
}

type AttemptRepository struct {
	coll *mongo.Collection
}

func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{coll: db.Collection(CollectionDPPAttempts)}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *models.DPPAttempt) error {
	if attempt.ID.IsZero() {
		attempt.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("failed to insert dpp attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) CountByUserAndDPP(ctx context.Context, userID, dppID primitive.ObjectID) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID, "dppId": dppID})
	if err != nil {
		return 0, fmt.Errorf("failed to count dpp attempts: %w", err)
	}
	return n, nil
}

// ListByUser returns newest first. A nil dppID lists across all DPPs.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, dppID *primitive.ObjectID) ([]models.DPPAttempt, error) {
	filter := bson.M{"userId": userID}
	if dppID != nil {
		filter["dppId"] = *dppID
	}
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list dpp attempts: %w", err)
	}
	attempts := []models.DPPAttempt{}
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, fmt.Errorf("failed to decode dpp attempts: %w", err)
	}
	return attempts, nil
}
