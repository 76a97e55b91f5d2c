// internal/repository/streak.go
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

type StreakRepository struct {
	coll *mongo.Collection
}

func NewStreakRepository(db *mongo.Database) *StreakRepository {
	return &StreakRepository{coll: db.Collection(CollectionStudyStreaks)}
}

func (r *StreakRepository) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	var streak models.StudyStreak
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&streak); err != nil {
		return nil, notFound(err)
	}
	return &streak, nil
}

// Save upserts the learner's single streak document. The _id is only
// written on insert, so an existing document keeps its own.
func (r *StreakRepository) Save(ctx context.Context, streak *models.StudyStreak) error {
	id := streak.ID
	if id.IsZero() {
		id = primitive.NewObjectID()
	}
	set := bson.M{
		"userId":         streak.UserID,
		"currentStreak":  streak.CurrentStreak,
		"longestStreak":  streak.LongestStreak,
		"studyDates":     streak.StudyDates,
		"totalStudyDays": streak.TotalStudyDays,
		"updatedAt":      streak.UpdatedAt,
	}
	if streak.LastStudyDate != nil {
		set["lastStudyDate"] = *streak.LastStudyDate
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": id},
	}

	opts := options.Update().SetUpsert(true)
	res, err := r.coll.UpdateOne(ctx, bson.M{"userId": streak.UserID}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save study streak: %w", err)
	}
	if upserted, ok := res.UpsertedID.(primitive.ObjectID); ok {
		streak.ID = upserted
	} else if streak.ID.IsZero() {
		streak.ID = id
	}
	return nil
}
