// internal/service/livestream.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"

	"github.com/AzlanEh/EducationPlus-sub000/internal/events"
	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/observability"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
	"github.com/AzlanEh/EducationPlus-sub000/internal/status"
	"github.com/AzlanEh/EducationPlus-sub000/pkg/bunny"
)

// Transition sources recorded on the live transition metric.
const (
	sourceAdmin    = "admin"
	sourceProvider = "provider"
)

// providerRefreshTimeout bounds a shared status pull, since it outlives the
// request that started it.
const providerRefreshTimeout = 15 * time.Second

type CreateLiveStreamInput struct {
	Title       string
	Description string
	CourseID    *primitive.ObjectID
	ScheduledAt *time.Time
	Thumbnail   string
	IsPublished bool
}

// UpdateLiveStreamInput carries a partial update; nil fields are left alone.
type UpdateLiveStreamInput struct {
	Title       *string
	Description *string
	CourseID    *primitive.ObjectID
	ScheduledAt *time.Time
	Thumbnail   *string
	IsPublished *bool
}

// PublicLiveStream is the learner view of a stream. It has no ingest fields.
type PublicLiveStream struct {
	ID               primitive.ObjectID  `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description,omitempty"`
	Status           models.LiveStatus   `json:"status"`
	ScheduledAt      *time.Time          `json:"scheduledAt,omitempty"`
	StartedAt        *time.Time          `json:"startedAt,omitempty"`
	EndedAt          *time.Time          `json:"endedAt,omitempty"`
	CourseID         *primitive.ObjectID `json:"courseId,omitempty"`
	Thumbnail        string              `json:"thumbnail,omitempty"`
	HasRecording     bool                `json:"hasRecording"`
	RecordingVideoID *primitive.ObjectID `json:"recordingVideoId,omitempty"`
}

type Playback struct {
	PublicLiveStream
	PlaybackURL string `json:"playbackUrl,omitempty"`
	CanWatch    bool   `json:"canWatch"`
	Message     string `json:"message,omitempty"`
}

// SyncResult reports one reconciliation against the provider. ProviderStatus
// is nil when the provider could not be reached.
type SyncResult struct {
	Status         models.LiveStatus `json:"status"`
	ProviderStatus *int              `json:"providerStatus"`
	PlaybackURL    string            `json:"playbackUrl,omitempty"`
	Changed        bool              `json:"changed"`
	Error          string            `json:"error,omitempty"`
}

type LiveStreamDeps struct {
	Store      LiveStreamStore
	Videos     VideoStore
	Provider   LiveProvider
	Cache      repository.Cache
	CacheTTL   time.Duration
	Events     events.Publisher
	Metrics    *observability.Metrics
	Thumbnails ThumbnailStore
	Now        func() time.Time
}

type LiveStreamService struct {
	store      LiveStreamStore
	videos     VideoStore
	provider   LiveProvider
	cache      repository.Cache
	cacheTTL   time.Duration
	events     events.Publisher
	metrics    *observability.Metrics
	thumbnails ThumbnailStore
	now        func() time.Time

	pulls singleflight.Group
}

func NewLiveStreamService(d LiveStreamDeps) *LiveStreamService {
	s := &LiveStreamService{
		store:      d.Store,
		videos:     d.Videos,
		provider:   d.Provider,
		cache:      d.Cache,
		cacheTTL:   d.CacheTTL,
		events:     d.Events,
		metrics:    d.Metrics,
		thumbnails: d.Thumbnails,
		now:        d.Now,
	}
	if s.cache == nil {
		s.cache = repository.NopCache{}
	}
	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create provisions an ingest session at the provider and records it.
func (s *LiveStreamService) Create(ctx context.Context, instructorID primitive.ObjectID, in CreateLiveStreamInput) (*models.LiveStream, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, newError(ErrValidation, "title is required")
	}

	remote, err := s.provider.CreateLiveStream(ctx, title)
	if err != nil {
		s.metrics.ProviderError("live.create")
		return nil, wrapError(ErrProvider, "Failed to create live stream with the video provider", err)
	}

	now := s.now().UTC()
	initial := models.LiveStatusNotStarted
	if in.ScheduledAt != nil && in.ScheduledAt.After(now) {
		initial = models.LiveStatusScheduled
	}

	stream := &models.LiveStream{
		Title:            title,
		Description:      in.Description,
		ProviderStreamID: remote.ID,
		IngestURL:        remote.RTMPURL,
		IngestKey:        remote.StreamKey,
		PlaybackURL:      remote.PlaybackURL,
		Status:           initial,
		ScheduledAt:      in.ScheduledAt,
		CourseID:         in.CourseID,
		InstructorID:     instructorID,
		Thumbnail:        in.Thumbnail,
		IsPublished:      in.IsPublished,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, stream); err != nil {
		// Leave no orphaned session behind at the provider.
		if derr := s.provider.DeleteLiveStream(ctx, remote.ID); derr != nil {
			slog.Warn("failed to release provider live stream", "providerStreamId", remote.ID, "error", derr)
		}
		return nil, fmt.Errorf("failed to save live stream: %w", err)
	}

	s.cacheStream(ctx, stream)
	s.publish(ctx, events.New(events.LiveStreamCreated, stream.ID.Hex(), instructorID.Hex(), map[string]any{
		"status":           string(stream.Status),
		"providerStreamId": stream.ProviderStreamID,
	}))
	slog.Info("live stream created", "id", stream.ID.Hex(), "status", stream.Status)
	return stream, nil
}

// Get returns the full admin record, refreshed against the provider when it
// answers. A provider failure never fails the read.
func (s *LiveStreamService) Get(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error) {
	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Live stream")
	}
	if _, err := s.reconcile(ctx, stream); err != nil {
		if !errors.Is(err, ErrProvider) {
			return nil, err
		}
		slog.Warn("live stream refresh skipped", "id", id.Hex(), "error", err)
	}
	return stream, nil
}

// List is the admin listing. The ingest key never leaves in bulk.
func (s *LiveStreamService) List(ctx context.Context, f models.LiveStreamFilter) ([]models.LiveStream, int64, error) {
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, 0, newError(ErrValidation, fmt.Sprintf("unknown status %q", st))
		}
	}
	return s.store.List(ctx, f, "ingestKey")
}

func (s *LiveStreamService) Update(ctx context.Context, id primitive.ObjectID, in UpdateLiveStreamInput) (*models.LiveStream, error) {
	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Live stream")
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, newError(ErrValidation, "title cannot be empty")
		}
		stream.Title = title
	}
	if in.Description != nil {
		stream.Description = *in.Description
	}
	if in.CourseID != nil {
		stream.CourseID = in.CourseID
	}
	if in.Thumbnail != nil {
		stream.Thumbnail = *in.Thumbnail
	}
	if in.IsPublished != nil {
		stream.IsPublished = *in.IsPublished
	}
	if in.ScheduledAt != nil {
		stream.ScheduledAt = in.ScheduledAt
		// Rescheduling only moves between the two pre-start states.
		if stream.Status == models.LiveStatusScheduled || stream.Status == models.LiveStatusNotStarted {
			if in.ScheduledAt.After(s.now()) {
				stream.Status = models.LiveStatusScheduled
			} else {
				stream.Status = models.LiveStatusNotStarted
			}
		}
	}

	if err := s.save(ctx, stream); err != nil {
		return nil, err
	}
	return stream, nil
}

// Start marks the stream as starting. The provider decides when it is running.
func (s *LiveStreamService) Start(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error) {
	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Live stream")
	}
	if stream.Status != models.LiveStatusNotStarted && stream.Status != models.LiveStatusScheduled {
		return nil, newError(ErrInvalidTransition, fmt.Sprintf("Cannot start a live stream in status %q", stream.Status))
	}

	from := stream.Status
	now := s.now().UTC()
	stream.Status = models.LiveStatusStarting
	if stream.StartedAt == nil {
		stream.StartedAt = &now
	}
	if err := s.save(ctx, stream); err != nil {
		return nil, err
	}

	s.metrics.LiveTransition(string(from), string(stream.Status), sourceAdmin)
	s.publish(ctx, events.New(events.LiveStreamStarted, stream.ID.Hex(), "", map[string]any{"from": string(from)}))
	return stream, nil
}

// End is terminal. The ingest key is dropped since nothing may push again.
func (s *LiveStreamService) End(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error) {
	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Live stream")
	}
	if !stream.Status.IsLive() {
		return nil, newError(ErrInvalidTransition, fmt.Sprintf("Cannot end a live stream in status %q", stream.Status))
	}

	from := stream.Status
	now := s.now().UTC()
	stream.Status = models.LiveStatusEnded
	stream.EndedAt = &now
	stream.IngestKey = ""
	if err := s.save(ctx, stream); err != nil {
		return nil, err
	}

	s.metrics.LiveTransition(string(from), string(stream.Status), sourceAdmin)
	s.publish(ctx, events.New(events.LiveStreamEnded, stream.ID.Hex(), "", map[string]any{"from": string(from)}))
	return stream, nil
}

// SyncStatus pulls the provider's view and adopts it. Provider failures are
// reported in the result rather than as an error.
func (s *LiveStreamService) SyncStatus(ctx context.Context, id primitive.ObjectID) (*SyncResult, error) {
	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Live stream")
	}

	res, err := s.reconcile(ctx, stream)
	if err != nil {
		if !errors.Is(err, ErrProvider) {
			return nil, err
		}
		slog.Warn("live stream sync degraded", "id", id.Hex(), "error", err)
		return &SyncResult{
			Status:      stream.Status,
			PlaybackURL: stream.PlaybackURL,
			Error:       "Failed to fetch status from the video provider",
		}, nil
	}
	return res, nil
}

// Delete refuses while a broadcast may be in progress.
func (s *LiveStreamService) Delete(ctx context.Context, id primitive.ObjectID) error {
	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return lookup(err, "Live stream")
	}
	if stream.Status.IsLive() {
		return newError(ErrInvalidTransition, "Cannot delete a live stream while it is running or starting. End the stream first.")
	}

	if stream.ProviderStreamID != "" {
		if err := s.provider.DeleteLiveStream(ctx, stream.ProviderStreamID); err != nil && !bunny.IsNotFound(err) {
			s.metrics.ProviderError("live.delete")
			slog.Warn("provider live stream delete failed", "id", id.Hex(), "error", err)
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return lookup(err, "Live stream")
	}
	if err := s.cache.Delete(ctx, repository.LiveStreamKey(id.Hex())); err != nil {
		slog.Warn("failed to evict live stream from cache", "id", id.Hex(), "error", err)
	}
	s.publish(ctx, events.New(events.LiveStreamDeleted, id.Hex(), "", nil))
	return nil
}

// ListPublished is the learner listing: published, and scheduled or live.
func (s *LiveStreamService) ListPublished(ctx context.Context, courseID *primitive.ObjectID) ([]PublicLiveStream, error) {
	streams, _, err := s.store.List(ctx, models.LiveStreamFilter{
		Statuses:      status.LearnerVisible,
		CourseID:      courseID,
		PublishedOnly: true,
	}, "ingestKey", "ingestUrl")
	if err != nil {
		return nil, err
	}
	out := make([]PublicLiveStream, 0, len(streams))
	for i := range streams {
		out = append(out, toPublic(&streams[i]))
	}
	return out, nil
}

// GetPlayback answers the learner player. It only reads local state.
func (s *LiveStreamService) GetPlayback(ctx context.Context, id primitive.ObjectID) (*Playback, error) {
	stream, err := s.cached(ctx, id)
	if err != nil {
		return nil, err
	}
	if !stream.IsPublished {
		return nil, newError(ErrNotFound, "Live stream not found")
	}

	pb := &Playback{
		PublicLiveStream: toPublic(stream),
		CanWatch:         status.CanWatch(stream.Status),
		Message:          status.PlaybackMessage(stream.Status),
	}
	if pb.CanWatch {
		pb.PlaybackURL = stream.PlaybackURL
	}
	return pb, nil
}

// AttachRecording links a finished broadcast to its on-demand recording.
func (s *LiveStreamService) AttachRecording(ctx context.Context, id, videoID primitive.ObjectID) (*models.LiveStream, error) {
	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Live stream")
	}
	if stream.Status != models.LiveStatusEnded && stream.Status != models.LiveStatusStopped {
		return nil, newError(ErrInvalidTransition, "A recording can only be attached after the stream has finished")
	}
	if _, err := s.videos.GetByID(ctx, videoID); err != nil {
		return nil, lookup(err, "Recording video")
	}

	stream.RecordingVideoID = &videoID
	stream.HasRecording = true
	if err := s.save(ctx, stream); err != nil {
		return nil, err
	}
	return stream, nil
}

// UploadThumbnail stores an image in the object store and points the stream at it.
func (s *LiveStreamService) UploadThumbnail(ctx context.Context, id primitive.ObjectID, fileName, contentType string, body io.Reader) (*models.LiveStream, error) {
	if s.thumbnails == nil {
		return nil, newError(ErrUnavailable, "Thumbnail storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, newError(ErrValidation, "thumbnail must be an image")
	}
	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Live stream")
	}

	key := fmt.Sprintf("live-streams/%s/thumbnail-%d%s", id.Hex(), s.now().Unix(), strings.ToLower(path.Ext(fileName)))
	url, err := s.thumbnails.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	stream.Thumbnail = url
	if err := s.save(ctx, stream); err != nil {
		return nil, err
	}
	return stream, nil
}

// reconcile pulls the provider state and persists any change. Concurrent
// pulls for the same stream share one provider call, which is detached from
// any single caller's cancellation. Provider failures wrap ErrProvider;
// store failures pass through, and stream is only modified once saved.
func (s *LiveStreamService) reconcile(ctx context.Context, stream *models.LiveStream) (*SyncResult, error) {
	if stream.ProviderStreamID == "" {
		return nil, newError(ErrProvider, "Live stream has no provider session")
	}
	providerID := stream.ProviderStreamID
	ch := s.pulls.DoChan(providerID, func() (any, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), providerRefreshTimeout)
		defer cancel()
		return s.provider.GetLiveStream(pctx, providerID)
	})

	var pulled singleflight.Result
	select {
	case pulled = <-ch:
	case <-ctx.Done():
		return nil, wrapError(ErrProvider, "Live stream refresh abandoned", ctx.Err())
	}
	if pulled.Err != nil {
		s.metrics.ProviderError("live.get")
		return nil, wrapError(ErrProvider, "Failed to fetch status from the video provider", pulled.Err)
	}
	remote := pulled.Val.(*bunny.LiveStream)

	from := stream.Status
	next, changed := NextLiveStatus(stream.Status, status.Live(remote.Status))
	updated := *stream
	if updated.PlaybackURL == "" && remote.PlaybackURL != "" {
		updated.PlaybackURL = remote.PlaybackURL
		changed = true
	}
	if changed {
		updated.Status = next
		if next.IsLive() && updated.StartedAt == nil {
			now := s.now().UTC()
			updated.StartedAt = &now
		}
		if err := s.save(ctx, &updated); err != nil {
			return nil, err
		}
		*stream = updated
		if from != next {
			s.metrics.LiveTransition(string(from), string(next), sourceProvider)
			s.publish(ctx, events.New(events.LiveStreamStatusSynced, stream.ID.Hex(), "", map[string]any{
				"from":           string(from),
				"to":             string(next),
				"providerStatus": remote.Status,
			}))
		}
	}

	code := remote.Status
	return &SyncResult{
		Status:         stream.Status,
		ProviderStatus: &code,
		PlaybackURL:    stream.PlaybackURL,
		Changed:        changed,
	}, nil
}

// NextLiveStatus decides what a local status becomes given the provider's.
// Ended is terminal, and the provider's idle state never overwrites local
// progress since unknown provider codes also land there.
func NextLiveStatus(local, remote models.LiveStatus) (models.LiveStatus, bool) {
	if local == remote || local == models.LiveStatusEnded {
		return local, false
	}
	if remote == models.LiveStatusNotStarted {
		return local, false
	}
	return remote, true
}

func (s *LiveStreamService) save(ctx context.Context, stream *models.LiveStream) error {
	if err := stream.Validate(); err != nil {
		return wrapError(ErrValidation, err.Error(), err)
	}
	stream.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, stream); err != nil {
		return lookup(err, "Live stream")
	}
	s.cacheStream(ctx, stream)
	return nil
}

func (s *LiveStreamService) cached(ctx context.Context, id primitive.ObjectID) (*models.LiveStream, error) {
	key := repository.LiveStreamKey(id.Hex())
	if data, err := s.cache.Get(ctx, key); err == nil {
		var stream models.LiveStream
		if err := json.Unmarshal(data, &stream); err == nil {
			s.metrics.CacheLookup("livestream", true)
			return &stream, nil
		}
	}
	s.metrics.CacheLookup("livestream", false)

	stream, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "Live stream")
	}
	s.cacheStream(ctx, stream)
	return stream, nil
}

func (s *LiveStreamService) cacheStream(ctx context.Context, stream *models.LiveStream) {
	data, err := json.Marshal(stream)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, repository.LiveStreamKey(stream.ID.Hex()), data, s.cacheTTL); err != nil {
		slog.Warn("failed to cache live stream", "id", stream.ID.Hex(), "error", err)
	}
}

func (s *LiveStreamService) publish(ctx context.Context, evt events.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.Warn("failed to publish event", "type", evt.Type, "entity", evt.EntityID, "error", err)
	}
}

func toPublic(l *models.LiveStream) PublicLiveStream {
	return PublicLiveStream{
		ID:               l.ID,
		Title:            l.Title,
		Description:      l.Description,
		Status:           l.Status,
		ScheduledAt:      l.ScheduledAt,
		StartedAt:        l.StartedAt,
		EndedAt:          l.EndedAt,
		CourseID:         l.CourseID,
		Thumbnail:        l.Thumbnail,
		HasRecording:     l.HasRecording,
		RecordingVideoID: l.RecordingVideoID,
	}
}
