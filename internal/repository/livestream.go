// internal/repository/livestream.go
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

type LiveStreamRepository struct {
	coll *mongo.Collection
}

func NewLiveStreamRepository(db *mongo.Database) *LiveStreamRepository {
	return &LiveStreamRepository{coll: db.Collection(CollectionLiveStreams)}
}

func (r *LiveStreamRepository) Create(ctx context.Context, stream *models.LiveStream) error {
	if stream.ID.IsZero() {
		stream.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, stream); err != nil {
		return fmt.Errorf("failed to insert live stream: %w", err)
	}
	return nil
}

func (r *LiveStreamRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error) {
	var stream models.LiveStream
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&stream); err != nil {
		return nil, notFound(err)
	}
	return &stream, nil
}

// Update replaces the whole document, so cleared optional fields disappear.
func (r *LiveStreamRepository) Update(ctx context.Context, stream *models.LiveStream) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": stream.ID}, stream)
	if err != nil {
		return fmt.Errorf("failed to update live stream: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *LiveStreamRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete live stream: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page plus the total match count. hidden names fields
// left out of the projection.
func (r *LiveStreamRepository) List(ctx context.Context, f models.LiveStreamFilter, hidden ...string) ([]models.LiveStream, int64, error) {
	filter := liveStreamQuery(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count live streams: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}, {Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}
	if len(hidden) > 0 {
		projection := bson.M{}
		for _, field := range hidden {
			projection[field] = 0
		}
		opts.SetProjection(projection)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list live streams: %w", err)
	}
	streams := []models.LiveStream{}
	if err := cursor.All(ctx, &streams); err != nil {
		return nil, 0, fmt.Errorf("failed to decode live streams: %w", err)
	}
	return streams, total, nil
}

func liveStreamQuery(f models.LiveStreamFilter) bson.M {
	filter := bson.M{}
	if len(f.Statuses) == 1 {
		filter["status"] = f.Statuses[0]
	} else if len(f.Statuses) > 1 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.CourseID != nil {
		filter["courseId"] = *f.CourseID
	}
	if f.PublishedOnly {
		filter["isPublished"] = true
	}
	return filter
}
