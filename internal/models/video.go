// internal/models/video.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusUploading  VideoStatus = "uploading"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusError      VideoStatus = "error"
)

// Video is an on-demand asset hosted by the provider. Playback, thumbnail
// and embed URLs are derived from ProviderVideoID and never stored.
type Video struct {
	ID                   primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Title                string              `json:"title" bson:"title"`
	Description          string              `json:"description,omitempty" bson:"description,omitempty"`
	ProviderVideoID      string              `json:"providerVideoId" bson:"providerVideoId"`
	Status               VideoStatus         `json:"status" bson:"status"`
	DurationSeconds      int                 `json:"duration,omitempty" bson:"duration,omitempty"`
	ThumbnailFileName    string              `json:"thumbnailFileName,omitempty" bson:"thumbnailFileName,omitempty"`
	Width                int                 `json:"width,omitempty" bson:"width,omitempty"`
	Height               int                 `json:"height,omitempty" bson:"height,omitempty"`
	Framerate            float64             `json:"framerate,omitempty" bson:"framerate,omitempty"`
	FileSize             int64               `json:"fileSize,omitempty" bson:"fileSize,omitempty"`
	AvailableResolutions []string            `json:"availableResolutions,omitempty" bson:"availableResolutions,omitempty"`
	CourseID             primitive.ObjectID  `json:"courseId" bson:"courseId"`
	ModuleID             *primitive.ObjectID `json:"moduleId,omitempty" bson:"moduleId,omitempty"`
	Order                int                 `json:"order" bson:"order"`
	IsPublished          bool                `json:"isPublished" bson:"isPublished"`
	CreatedAt            time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time           `json:"updatedAt" bson:"updatedAt"`
}

type VideoFilter struct {
	CourseID      *primitive.ObjectID
	ModuleID      *primitive.ObjectID
	PublishedOnly bool
}

// VideoProgress tracks how far one learner got through one video.
type VideoProgress struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	VideoID        primitive.ObjectID `json:"videoId" bson:"videoId"`
	CourseID       primitive.ObjectID `json:"courseId" bson:"courseId"`
	WatchedSeconds int                `json:"watchedSeconds" bson:"watchedSeconds"`
	Completed      bool               `json:"completed" bson:"completed"`
	CompletedAt    *time.Time         `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}
