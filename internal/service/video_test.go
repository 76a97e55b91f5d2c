// internal/service/video_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/events"
	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
	"github.com/AzlanEh/EducationPlus-sub000/internal/status"
	"github.com/AzlanEh/EducationPlus-sub000/pkg/bunny"
)

type videoFixture struct {
	svc      *VideoService
	store    *memVideoStore
	progress *memProgressStore
	provider *fakeVideoProvider
	streaks  *recordingStreaks
	pub      *recordingPublisher
	clock    *fakeClock
}

func newVideoFixture() *videoFixture {
	f := &videoFixture{
		store:    newMemVideoStore(),
		progress: &memProgressStore{},
		provider: &fakeVideoProvider{},
		streaks:  &recordingStreaks{},
		pub:      &recordingPublisher{},
		clock:    &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	f.svc = NewVideoService(VideoDeps{
		Store:     f.store,
		Progress:  f.progress,
		Provider:  f.provider,
		Streaks:   f.streaks,
		Events:    f.pub,
		UploadTTL: 2 * time.Hour,
		Now:       f.clock.Now,
	})
	return f
}

func TestVideo_CreateUpload(t *testing.T) {
	f := newVideoFixture()
	course := primitive.NewObjectID()

	slot, err := f.svc.CreateUpload(context.Background(), CreateUploadInput{Title: "Lecture 1", CourseID: course, Order: 3})

	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusPending, slot.Video.Status)
	assert.Equal(t, "guid-1", slot.Video.ProviderVideoID)
	assert.Equal(t, course, slot.Video.CourseID)
	assert.Equal(t, "guid-1", slot.Upload.VideoID)
	assert.Equal(t, f.clock.t.Add(2*time.Hour).Unix(), slot.Upload.ExpiresAt)
	assert.Equal(t, []events.Type{events.VideoUploadCreated}, f.pub.types())
}

func TestVideo_CreateUploadProviderFailure(t *testing.T) {
	f := newVideoFixture()
	f.provider.createErr = errBoom

	_, err := f.svc.CreateUpload(context.Background(), CreateUploadInput{Title: "x", CourseID: primitive.NewObjectID()})

	assert.ErrorIs(t, err, ErrProvider)
	assert.Zero(t, f.store.writes)
}

func TestVideo_MarkUploading(t *testing.T) {
	f := newVideoFixture()
	ctx := context.Background()
	v := f.store.put(models.Video{Status: models.VideoStatusPending})

	got, err := f.svc.MarkUploading(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusUploading, got.Status)

	_, err = f.svc.MarkUploading(ctx, v.ID)
	require.NoError(t, err)

	ready := f.store.put(models.Video{Status: models.VideoStatusReady})
	_, err = f.svc.MarkUploading(ctx, ready.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVideo_SyncStatus(t *testing.T) {
	f := newVideoFixture()
	v := f.store.put(models.Video{ProviderVideoID: "guid-9", Status: models.VideoStatusUploading})
	f.provider.video = bunny.Video{
		Status:               status.VideoCodeFinished,
		Length:               321,
		ThumbnailFileName:    "thumb.jpg",
		Width:                1920,
		Height:               1080,
		AvailableResolutions: "360p, 720p,1080p",
	}

	res, err := f.svc.SyncStatus(context.Background(), v.ID)

	require.NoError(t, err)
	assert.True(t, res.Synced)
	assert.Equal(t, models.VideoStatusReady, res.Video.Status)
	assert.Equal(t, 321, res.Video.DurationSeconds)
	assert.Equal(t, []string{"360p", "720p", "1080p"}, res.Video.AvailableResolutions)
	assert.Equal(t, "https://cdn.example.com/guid-9/playlist.m3u8", res.Video.PlaybackURL)
	assert.Equal(t, "https://cdn.example.com/guid-9/thumb.jpg", res.Video.ThumbnailURL)
	assert.Equal(t, []events.Type{events.VideoStatusChanged}, f.pub.types())
}

func TestVideo_SyncStatusProviderFailure(t *testing.T) {
	f := newVideoFixture()
	f.provider.getErr = errBoom
	v := f.store.put(models.Video{ProviderVideoID: "guid-9", Status: models.VideoStatusProcessing})

	res, err := f.svc.SyncStatus(context.Background(), v.ID)

	require.NoError(t, err)
	assert.False(t, res.Synced)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, models.VideoStatusProcessing, res.Video.Status)
	assert.Zero(t, f.store.writes)
}

func TestVideo_DeleteIgnoresProviderFailure(t *testing.T) {
	f := newVideoFixture()
	f.provider.deleteErr = errBoom
	v := f.store.put(models.Video{ProviderVideoID: "guid-9"})

	err := f.svc.Delete(context.Background(), v.ID)

	require.NoError(t, err)
	_, err = f.store.GetByID(context.Background(), v.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []string{"guid-9"}, f.provider.deleted)
}

func TestVideo_GetPublished(t *testing.T) {
	f := newVideoFixture()
	ctx := context.Background()
	ready := f.store.put(models.Video{ProviderVideoID: "g", Status: models.VideoStatusReady, IsPublished: true})
	processing := f.store.put(models.Video{Status: models.VideoStatusProcessing, IsPublished: true})
	draft := f.store.put(models.Video{Status: models.VideoStatusReady})

	got, err := f.svc.GetPublished(ctx, ready.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.EmbedURL)

	_, err = f.svc.GetPublished(ctx, processing.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetPublished(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVideo_RecordProgress(t *testing.T) {
	f := newVideoFixture()
	ctx := context.Background()
	user := primitive.NewObjectID()
	v := f.store.put(models.Video{Status: models.VideoStatusReady, IsPublished: true, CourseID: primitive.NewObjectID()})

	_, err := f.svc.RecordProgress(ctx, user, v.ID, 30, false)
	require.NoError(t, err)
	assert.Empty(t, f.streaks.users, "partial progress is not a study action")

	p, err := f.svc.RecordProgress(ctx, user, v.ID, 600, true)
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.NotNil(t, p.CompletedAt)
	assert.Equal(t, v.CourseID, p.CourseID)
	assert.Equal(t, []primitive.ObjectID{user}, f.streaks.users)

	_, err = f.svc.RecordProgress(ctx, user, v.ID, -1, false)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestVideo_RecordProgressStreakFailureIsLogged(t *testing.T) {
	f := newVideoFixture()
	f.streaks.err = errBoom
	v := f.store.put(models.Video{Status: models.VideoStatusReady, IsPublished: true})

	_, err := f.svc.RecordProgress(context.Background(), primitive.NewObjectID(), v.ID, 10, true)

	assert.NoError(t, err)
}

func TestWebhook_UnknownVideo(t *testing.T) {
	f := newVideoFixture()

	res := f.svc.HandleWebhook(context.Background(), bunny.WebhookPayload{VideoLibraryID: 1, VideoGUID: "x", Status: 4})

	assert.True(t, res.Success)
	assert.Equal(t, "Video not found in database", res.Message)
	assert.Equal(t, WebhookUnknownVideo, res.Outcome)
	assert.Zero(t, f.store.writes)
	assert.Zero(t, f.provider.gets)
}

func TestWebhook_ReadyFetchesMetadata(t *testing.T) {
	f := newVideoFixture()
	v := f.store.put(models.Video{ProviderVideoID: "x", Status: models.VideoStatusProcessing})
	f.provider.video = bunny.Video{Length: 90, Width: 1280, Height: 720}

	res := f.svc.HandleWebhook(context.Background(), bunny.WebhookPayload{VideoGUID: "x", Status: status.VideoCodeFinished})

	require.True(t, res.Success)
	assert.Equal(t, models.VideoStatusReady, res.Status)
	assert.Equal(t, v.ID.Hex(), res.VideoID)
	stored, err := f.store.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusReady, stored.Status)
	assert.Equal(t, 90, stored.DurationSeconds)
	assert.Equal(t, 1280, stored.Width)
}

func TestWebhook_MetadataFailureStillAppliesStatus(t *testing.T) {
	f := newVideoFixture()
	f.provider.getErr = errBoom
	v := f.store.put(models.Video{ProviderVideoID: "x", Status: models.VideoStatusProcessing})

	res := f.svc.HandleWebhook(context.Background(), bunny.WebhookPayload{VideoGUID: "x", Status: status.VideoCodeFinished})

	require.True(t, res.Success)
	stored, err := f.store.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VideoStatusReady, stored.Status)
	assert.Zero(t, stored.DurationSeconds)
}

func TestWebhook_ProcessingSkipsMetadataFetch(t *testing.T) {
	f := newVideoFixture()
	f.store.put(models.Video{ProviderVideoID: "x", Status: models.VideoStatusUploading})

	res := f.svc.HandleWebhook(context.Background(), bunny.WebhookPayload{VideoGUID: "x", Status: status.VideoCodeProcessing})

	require.True(t, res.Success)
	assert.Equal(t, models.VideoStatusProcessing, res.Status)
	assert.Zero(t, f.provider.gets)
}

func TestWebhook_Failures(t *testing.T) {
	f := newVideoFixture()

	res := f.svc.HandleWebhook(context.Background(), bunny.WebhookPayload{Status: 4})
	assert.False(t, res.Success)
	assert.Equal(t, WebhookInvalid, res.Outcome)

	f.store.getErr = errBoom
	res = f.svc.HandleWebhook(context.Background(), bunny.WebhookPayload{VideoGUID: "x", Status: 4})
	assert.False(t, res.Success)
	assert.Equal(t, "Failed to process webhook", res.Error)
	assert.Equal(t, WebhookFailed, res.Outcome)
}
