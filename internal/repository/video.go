// internal/repository/video.go
package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
)

type VideoRepository struct {
	coll *mongo.Collection
}

func NewVideoRepository(db *mongo.Database) *VideoRepository {
	return &VideoRepository{coll: db.Collection(CollectionVideos)}
}

func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID.IsZero() {
		video.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, video); err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var video models.Video
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&video); err != nil {
		return nil, notFound(err)
	}
	return &video, nil
}

func (r *VideoRepository) GetByProviderID(ctx context.Context, providerVideoID string) (*models.Video, error) {
	var video models.Video
	if err := r.coll.FindOne(ctx, bson.M{"providerVideoId": providerVideoID}).Decode(&video); err != nil {
		return nil, notFound(err)
	}
	return &video, nil
}

func (r *VideoRepository) Update(ctx context.Context, video *models.Video) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": video.ID}, video)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *VideoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List orders by display order, then creation time for ties.
func (r *VideoRepository) List(ctx context.Context, f models.VideoFilter) ([]models.Video, error) {
	filter := bson.M{}
	if f.CourseID != nil {
		filter["courseId"] = *f.CourseID
	}
	if f.ModuleID != nil {
		filter["moduleId"] = *f.ModuleID
	}
	if f.PublishedOnly {
		filter["isPublished"] = true
		filter["status"] = models.VideoStatusReady
	}

	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	videos := []models.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, fmt.Errorf("failed to decode videos: %w", err)
	}
	return videos, nil
}

type VideoProgressRepository struct {
	coll *mongo.Collection
}

func NewVideoProgressRepository(db *mongo.Database) *VideoProgressRepository {
	return &VideoProgressRepository{coll: db.Collection(CollectionVideoProgress)}
}

// Upsert merges a progress report: watched seconds only grow and completion
// is sticky once set.
func (r *VideoProgressRepository) Upsert(ctx context.Context, p *models.VideoProgress) (*models.VideoProgress, error) {
	now := p.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	update := bson.M{
		"$max":         bson.M{"watchedSeconds": p.WatchedSeconds},
		"$set":         bson.M{"courseId": p.CourseID, "updatedAt": now},
		"$setOnInsert": bson.M{"userId": p.UserID, "videoId": p.VideoID},
	}
	if p.Completed {
		update["$set"].(bson.M)["completed"] = true
		update["$min"] = bson.M{"completedAt": now}
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out models.VideoProgress
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"userId": p.UserID, "videoId": p.VideoID}, update, opts).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert video progress: %w", err)
	}
	return &out, nil
}
