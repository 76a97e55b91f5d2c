// internal/service/deps.go
package service

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/pkg/bunny"
)

type LiveStreamStore interface {
	Create(ctx context.Context, stream *models.LiveStream) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error)
	Update(ctx context.Context, stream *models.LiveStream) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f models.LiveStreamFilter, hidden ...string) ([]models.LiveStream, int64, error)
}

type VideoStore interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	GetByProviderID(ctx context.Context, providerVideoID string) (*models.Video, error)
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f models.VideoFilter) ([]models.Video, error)
}

type VideoProgressStore interface {
	Upsert(ctx context.Context, p *models.VideoProgress) (*models.VideoProgress, error)
}

type DPPStore interface {
	Create(ctx context.Context, dpp *models.DPP) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.DPP, error)
	Update(ctx context.Context, dpp *models.DPP) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f models.DPPFilter) ([]models.DPP, error)
}

type AttemptStore interface {
	Create(ctx context.Context, attempt *models.DPPAttempt) error
	CountByUserAndDPP(ctx context.Context, userID, dppID primitive.ObjectID) (int64, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, dppID *primitive.ObjectID) ([]models.DPPAttempt, error)
}

type StreakStore interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error)
	Save(ctx context.Context, streak *models.StudyStreak) error
}

type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SessionStore interface {
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// LiveProvider is the live half of the provider API.
type LiveProvider interface {
	CreateLiveStream(ctx context.Context, title string) (*bunny.LiveStream, error)
	GetLiveStream(ctx context.Context, id string) (*bunny.LiveStream, error)
	DeleteLiveStream(ctx context.Context, id string) error
}

// VideoProvider is the on-demand half of the provider API plus the URL
// derivations that depend on provider configuration.
type VideoProvider interface {
	CreateVideo(ctx context.Context, title string) (*bunny.Video, error)
	GetVideo(ctx context.Context, guid string) (*bunny.Video, error)
	DeleteVideo(ctx context.Context, guid string) error
	SignUpload(videoID string, expires time.Time) bunny.UploadCredentials
	PlaybackURL(guid string) string
	ThumbnailURL(guid, fileName string) string
	EmbedURL(guid string) string
}

// ThumbnailStore is satisfied by the S3 client in pkg/aws.
type ThumbnailStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// StreakRecorder is what study actions call after they succeed.
type StreakRecorder interface {
	Record(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error)
}
