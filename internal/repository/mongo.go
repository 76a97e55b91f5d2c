// internal/repository/mongo.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/AzlanEh/EducationPlus-sub000/internal/config"
)

// Collection names.
const (
	CollectionLiveStreams   = "liveStream"
	CollectionVideos        = "video"
	CollectionVideoProgress = "videoProgress"
	CollectionDPPs          = "dpp"
	CollectionDPPAttempts   = "dppAttempt"
	CollectionStudyStreaks  = "studyStreak"
	CollectionUsers         = "user"
	CollectionSessions      = "session"
)

var ErrNotFound = errors.New("document not found")

// Connect opens the process-wide client. Callers own it and must
// Disconnect on shutdown; repositories borrow its database handle.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("connected to MongoDB", "database", cfg.Database)
	return client, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
