// internal/events/events.go

// Package events defines the domain event envelope the service emits on
// lifecycle changes and the publishers that ship them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	LiveStreamCreated      Type = "live_stream_created"
	LiveStreamStarted      Type = "live_stream_started"
	LiveStreamEnded        Type = "live_stream_ended"
	LiveStreamStatusSynced Type = "live_stream_status_synced"
	LiveStreamDeleted      Type = "live_stream_deleted"
	VideoUploadCreated     Type = "video_upload_created"
	VideoStatusChanged     Type = "video_status_changed"
	VideoDeleted           Type = "video_deleted"
	DPPAttemptSubmitted    Type = "dpp_attempt_submitted"
	StudyStreakUpdated     Type = "study_streak_updated"
)

type Event struct {
	ID        string         `json:"event_id"`
	Type      Type           `json:"event_type"`
	EntityID  string         `json:"entity_id"`
	UserID    string         `json:"user_id,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, entityID, userID string, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		EntityID:  entityID,
		UserID:    userID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RecordWriter is satisfied by the Kinesis client in pkg/aws.
type RecordWriter interface {
	PutRecord(ctx context.Context, partitionKey string, data []byte) error
}

// StreamPublisher serializes events and writes them keyed by entity id so
// that events for one entity stay ordered.
type StreamPublisher struct {
	writer RecordWriter
}

func NewStreamPublisher(w RecordWriter) *StreamPublisher {
	return &StreamPublisher{writer: w}
}

func (p *StreamPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.writer.PutRecord(ctx, event.EntityID, data)
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error {
	slog.Debug("event dropped, publishing disabled", "type", event.Type, "entity", event.EntityID)
	return nil
}
