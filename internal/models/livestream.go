// internal/models/livestream.go
package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LiveStatus string

const (
	LiveStatusScheduled  LiveStatus = "scheduled"
	LiveStatusNotStarted LiveStatus = "not_started"
	LiveStatusStarting   LiveStatus = "starting"
	LiveStatusRunning    LiveStatus = "running"
	LiveStatusStopping   LiveStatus = "stopping"
	LiveStatusStopped    LiveStatus = "stopped"
	LiveStatusEnded      LiveStatus = "ended"
)

// Valid reports whether s is one of the known lifecycle states.
func (s LiveStatus) Valid() bool {
	switch s {
	case LiveStatusScheduled, LiveStatusNotStarted, LiveStatusStarting, LiveStatusRunning,
		LiveStatusStopping, LiveStatusStopped, LiveStatusEnded:
		return true
	}
	return false
}

// IsLive is true while a broadcaster may be pushing to the ingest endpoint.
func (s LiveStatus) IsLive() bool {
	return s == LiveStatusStarting || s == LiveStatusRunning
}

var ErrRecordingWithoutVideo = errors.New("hasRecording requires recordingVideoId")

// LiveStream is one broadcast session. IngestURL and IngestKey are secrets
// and only ever leave the service on admin paths.
type LiveStream struct {
	ID               primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Title            string              `json:"title" bson:"title"`
	Description      string              `json:"description,omitempty" bson:"description,omitempty"`
	ProviderStreamID string              `json:"providerStreamId" bson:"providerStreamId"`
	IngestURL        string              `json:"ingestUrl,omitempty" bson:"ingestUrl,omitempty"`
	IngestKey        string              `json:"ingestKey,omitempty" bson:"ingestKey,omitempty"`
	PlaybackURL      string              `json:"playbackUrl,omitempty" bson:"playbackUrl,omitempty"`
	Status           LiveStatus          `json:"status" bson:"status"`
	ScheduledAt      *time.Time          `json:"scheduledAt,omitempty" bson:"scheduledAt,omitempty"`
	StartedAt        *time.Time          `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt          *time.Time          `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
	RecordingVideoID *primitive.ObjectID `json:"recordingVideoId,omitempty" bson:"recordingVideoId,omitempty"`
	HasRecording     bool                `json:"hasRecording" bson:"hasRecording"`
	CourseID         *primitive.ObjectID `json:"courseId,omitempty" bson:"courseId,omitempty"`
	InstructorID     primitive.ObjectID  `json:"instructorId" bson:"instructorId"`
	Thumbnail        string              `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	IsPublished      bool                `json:"isPublished" bson:"isPublished"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func (l *LiveStream) Validate() error {
	if l.HasRecording && (l.RecordingVideoID == nil || l.RecordingVideoID.IsZero()) {
		return ErrRecordingWithoutVideo
	}
	return nil
}

// LiveStreamFilter narrows admin and learner listings. Zero values match everything.
type LiveStreamFilter struct {
	Statuses      []LiveStatus
	CourseID      *primitive.ObjectID
	PublishedOnly bool
	Limit         int64
	Offset        int64
}
