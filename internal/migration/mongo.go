// internal/migration/mongo.go
package migration

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
)

// IndexSpec lists the indexes one collection needs.
type IndexSpec struct {
	Collection string
	Indexes    []mongo.IndexModel
}

// Specs is the full index layout. CreateIndexes is idempotent, so it runs on
// every startup.
func Specs() []IndexSpec {
	return []IndexSpec{
		{
			Collection: repository.CollectionLiveStreams,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "status", Value: 1}, {Key: "courseId", Value: 1}}},
				{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "status", Value: 1}, {Key: "scheduledAt", Value: 1}}},
				{Keys: bson.D{{Key: "providerStreamId", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			Collection: repository.CollectionVideos,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "providerVideoId", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "moduleId", Value: 1}, {Key: "order", Value: 1}}},
			},
		},
		{
			Collection: repository.CollectionVideoProgress,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "videoId", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			Collection: repository.CollectionDPPs,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "isPublished", Value: 1}}},
			},
		},
		{
			Collection: repository.CollectionDPPAttempts,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dppId", Value: 1}, {Key: "submittedAt", Value: -1}}},
			},
		},
		{
			Collection: repository.CollectionStudyStreaks,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			},
		},
		{
			Collection: repository.CollectionSessions,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "userId", Value: 1}}},
			},
		},
	}
}

type MongoMigrator struct {
	db *mongo.Database
}

func NewMongoMigrator(db *mongo.Database) *MongoMigrator {
	return &MongoMigrator{db: db}
}

func (m *MongoMigrator) CreateIndexes(ctx context.Context) error {
	slog.Info("ensuring MongoDB indexes")

	for _, spec := range Specs() {
		names, err := m.db.Collection(spec.Collection).Indexes().CreateMany(ctx, spec.Indexes)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", spec.Collection, err)
		}
		slog.Debug("indexes ready", "collection", spec.Collection, "indexes", names)
	}

	slog.Info("MongoDB indexes ready")
	return nil
}
