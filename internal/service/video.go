// internal/service/video.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/events"
	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/observability"
	"github.com/AzlanEh/EducationPlus-sub000/internal/status"
	"github.com/AzlanEh/EducationPlus-sub000/pkg/bunny"
)

type CreateUploadInput struct {
	Title       string
	Description string
	CourseID    primitive.ObjectID
	ModuleID    *primitive.ObjectID
	Order       int
}

type UpdateVideoInput struct {
	Title       *string
	Description *string
	ModuleID    *primitive.ObjectID
	Order       *int
	IsPublished *bool
}

// UploadSlot is what an admin client needs to push bytes straight to the provider.
type UploadSlot struct {
	Video  *models.Video           `json:"video"`
	Upload bunny.UploadCredentials `json:"upload"`
}

// VideoView adds the provider-derived URLs. They are only set once the
// video is ready.
type VideoView struct {
	models.Video
	PlaybackURL  string `json:"playbackUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	EmbedURL     string `json:"embedUrl,omitempty"`
}

type VideoSyncResult struct {
	Video  VideoView `json:"video"`
	Synced bool      `json:"synced"`
	Error  string    `json:"error,omitempty"`
}

type VideoDeps struct {
	Store     VideoStore
	Progress  VideoProgressStore
	Provider  VideoProvider
	Streaks   StreakRecorder
	Events    events.Publisher
	Metrics   *observability.Metrics
	UploadTTL time.Duration
	Now       func() time.Time
}

type VideoService struct {
	store     VideoStore
	progress  VideoProgressStore
	provider  VideoProvider
	streaks   StreakRecorder
	events    events.Publisher
	metrics   *observability.Metrics
	uploadTTL time.Duration
	now       func() time.Time
}

func NewVideoService(d VideoDeps) *VideoService {
	s := &VideoService{
		store:     d.Store,
		progress:  d.Progress,
		provider:  d.Provider,
		streaks:   d.Streaks,
		events:    d.Events,
		metrics:   d.Metrics,
		uploadTTL: d.UploadTTL,
		now:       d.Now,
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.uploadTTL <= 0 {
		s.uploadTTL = time.Hour
	}
	return s
}

// CreateUpload registers a video at the provider and hands back signed
// upload credentials for it.
func (s *VideoService) CreateUpload(ctx context.Context, in CreateUploadInput) (*UploadSlot, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, newError(ErrValidation, "title is required")
	}

	remote, err := s.provider.CreateVideo(ctx, title)
	if err != nil {
		s.metrics.ProviderError("video.create")
		return nil, wrapError(ErrProvider, "Failed to create video with the video provider", err)
	}

	now := s.now().UTC()
	video := &models.Video{
		Title:           title,
		Description:     in.Description,
		ProviderVideoID: remote.GUID,
		Status:          models.VideoStatusPending,
		CourseID:        in.CourseID,
		ModuleID:        in.ModuleID,
		Order:           in.Order,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, video); err != nil {
		if derr := s.provider.DeleteVideo(ctx, remote.GUID); derr != nil {
			slog.Warn("failed to release provider video", "providerVideoId", remote.GUID, "error", derr)
		}
		return nil, fmt.Errorf("failed to save video: %w", err)
	}

	s.publish(ctx, events.New(events.VideoUploadCreated, video.ID.Hex(), "", map[string]any{
		"providerVideoId": video.ProviderVideoID,
	}))
	return &UploadSlot{
		Video:  video,
		Upload: s.provider.SignUpload(remote.GUID, now.Add(s.uploadTTL)),
	}, nil
}

// MarkUploading records that the client began pushing bytes.
func (s *VideoService) MarkUploading(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	video, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Video")
	}
	switch video.Status {
	case models.VideoStatusUploading:
		return video, nil
	case models.VideoStatusPending:
	default:
		return nil, newError(ErrInvalidTransition, fmt.Sprintf("Cannot mark a video in status %q as uploading", video.Status))
	}

	video.Status = models.VideoStatusUploading
	if err := s.save(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// SyncStatus pulls status and metadata from the provider. A provider failure
// returns the local record unchanged.
func (s *VideoService) SyncStatus(ctx context.Context, id primitive.ObjectID) (*VideoSyncResult, error) {
	video, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Video")
	}

	remote, err := s.provider.GetVideo(ctx, video.ProviderVideoID)
	if err != nil {
		s.metrics.ProviderError("video.get")
		slog.Warn("video status sync failed", "id", id.Hex(), "error", err)
		return &VideoSyncResult{
			Video: s.view(video),
			Error: "Failed to fetch status from the video provider",
		}, nil
	}

	from := video.Status
	next := status.Video(remote.Status)
	changed := applyMetadata(video, remote)
	if next != from {
		video.Status = next
		changed = true
	}
	if changed {
		if err := s.save(ctx, video); err != nil {
			return nil, err
		}
	}
	if next != from {
		s.statusChanged(ctx, video, from, "sync")
	}
	return &VideoSyncResult{Video: s.view(video), Synced: true}, nil
}

func (s *VideoService) Update(ctx context.Context, id primitive.ObjectID, in UpdateVideoInput) (*models.Video, error) {
	video, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Video")
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, newError(ErrValidation, "title cannot be empty")
		}
		video.Title = title
	}
	if in.Description != nil {
		video.Description = *in.Description
	}
	if in.ModuleID != nil {
		video.ModuleID = in.ModuleID
	}
	if in.Order != nil {
		video.Order = *in.Order
	}
	if in.IsPublished != nil {
		video.IsPublished = *in.IsPublished
	}
	if err := s.save(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *VideoService) Delete(ctx context.Context, id primitive.ObjectID) error {
	video, err := s.store.GetByID(ctx, id)
	if err != nil {
		return lookup(err, "Video")
	}
	if err := s.provider.DeleteVideo(ctx, video.ProviderVideoID); err != nil && !bunny.IsNotFound(err) {
		s.metrics.ProviderError("video.delete")
		slog.Warn("provider video delete failed", "id", id.Hex(), "error", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return lookup(err, "Video")
	}
	s.publish(ctx, events.New(events.VideoDeleted, id.Hex(), "", nil))
	return nil
}

func (s *VideoService) Get(ctx context.Context, id primitive.ObjectID) (*VideoView, error) {
	video, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Video")
	}
	v := s.view(video)
	return &v, nil
}

func (s *VideoService) List(ctx context.Context, f models.VideoFilter) ([]VideoView, error) {
	videos, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]VideoView, 0, len(videos))
	for i := range videos {
		out = append(out, s.view(&videos[i]))
	}
	return out, nil
}

// ListPublished returns the ready, published videos of a course.
func (s *VideoService) ListPublished(ctx context.Context, courseID primitive.ObjectID, moduleID *primitive.ObjectID) ([]VideoView, error) {
	return s.List(ctx, models.VideoFilter{CourseID: &courseID, ModuleID: moduleID, PublishedOnly: true})
}

func (s *VideoService) GetPublished(ctx context.Context, id primitive.ObjectID) (*VideoView, error) {
	video, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Video")
	}
	if !video.IsPublished || video.Status != models.VideoStatusReady {
		return nil, newError(ErrNotFound, "Video not found")
	}
	v := s.view(video)
	return &v, nil
}

// RecordProgress stores watch progress. Completing a video counts as a
// study action for the learner's streak.
func (s *VideoService) RecordProgress(ctx context.Context, userID, videoID primitive.ObjectID, watchedSeconds int, completed bool) (*models.VideoProgress, error) {
	if watchedSeconds < 0 {
		return nil, newError(ErrValidation, "watchedSeconds cannot be negative")
	}
	video, err := s.GetPublished(ctx, videoID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.VideoProgress{
		UserID:         userID,
		VideoID:        videoID,
		CourseID:       video.CourseID,
		WatchedSeconds: watchedSeconds,
		Completed:      completed,
		UpdatedAt:      now,
	}
	if completed {
		p.CompletedAt = &now
	}
	saved, err := s.progress.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	if completed && s.streaks != nil {
		if _, err := s.streaks.Record(ctx, userID); err != nil {
			slog.Warn("failed to update study streak", "userId", userID.Hex(), "error", err)
		}
	}
	return saved, nil
}

// ApplyProviderStatus is the webhook path: it trusts the pushed status code
// and, once the video is ready, fills in metadata from the provider.
func (s *VideoService) ApplyProviderStatus(ctx context.Context, video *models.Video, code int) error {
	from := video.Status
	next := status.Video(code)
	if next == models.VideoStatusReady {
		if remote, err := s.provider.GetVideo(ctx, video.ProviderVideoID); err != nil {
			s.metrics.ProviderError("video.get")
			slog.Warn("failed to fetch video metadata", "providerVideoId", video.ProviderVideoID, "error", err)
		} else {
			applyMetadata(video, remote)
		}
	}
	video.Status = next
	if err := s.save(ctx, video); err != nil {
		return err
	}
	if next != from {
		s.statusChanged(ctx, video, from, "webhook")
	}
	return nil
}

func (s *VideoService) view(v *models.Video) VideoView {
	out := VideoView{Video: *v}
	if v.Status == models.VideoStatusReady && v.ProviderVideoID != "" {
		out.PlaybackURL = s.provider.PlaybackURL(v.ProviderVideoID)
		out.ThumbnailURL = s.provider.ThumbnailURL(v.ProviderVideoID, v.ThumbnailFileName)
		out.EmbedURL = s.provider.EmbedURL(v.ProviderVideoID)
	}
	return out
}

func (s *VideoService) save(ctx context.Context, video *models.Video) error {
	video.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, video); err != nil {
		return lookup(err, "Video")
	}
	return nil
}

func (s *VideoService) statusChanged(ctx context.Context, video *models.Video, from models.VideoStatus, source string) {
	s.publish(ctx, events.New(events.VideoStatusChanged, video.ID.Hex(), "", map[string]any{
		"from":   string(from),
		"to":     string(video.Status),
		"source": source,
	}))
}

func (s *VideoService) publish(ctx context.Context, evt events.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.Warn("failed to publish event", "type", evt.Type, "entity", evt.EntityID, "error", err)
	}
}

// applyMetadata copies non-zero provider metadata and reports whether
// anything changed.
func applyMetadata(v *models.Video, remote *bunny.Video) bool {
	changed := false
	if remote.Length > 0 && remote.Length != v.DurationSeconds {
		v.DurationSeconds = remote.Length
		changed = true
	}
	if remote.ThumbnailFileName != "" && remote.ThumbnailFileName != v.ThumbnailFileName {
		v.ThumbnailFileName = remote.ThumbnailFileName
		changed = true
	}
	if remote.Width > 0 && (remote.Width != v.Width || remote.Height != v.Height) {
		v.Width, v.Height = remote.Width, remote.Height
		changed = true
	}
	if remote.Framerate > 0 && remote.Framerate != v.Framerate {
		v.Framerate = remote.Framerate
		changed = true
	}
	if remote.StorageSize > 0 && remote.StorageSize != v.FileSize {
		v.FileSize = remote.StorageSize
		changed = true
	}
	if res := remote.Resolutions(); len(res) > 0 && strings.Join(res, ",") != strings.Join(v.AvailableResolutions, ",") {
		v.AvailableResolutions = res
		changed = true
	}
	return changed
}
