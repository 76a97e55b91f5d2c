// internal/service/livestream_test.go
package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/events"
	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
	"github.com/AzlanEh/EducationPlus-sub000/internal/status"
)

type liveFixture struct {
	svc      *LiveStreamService
	store    *memLiveStore
	videos   *memVideoStore
	provider *fakeLiveProvider
	cache    *memCache
	pub      *recordingPublisher
	thumbs   *fakeThumbnails
	clock    *fakeClock
}

func newLiveFixture() *liveFixture {
	f := &liveFixture{
		store:    newMemLiveStore(),
		videos:   newMemVideoStore(),
		provider: &fakeLiveProvider{},
		cache:    newMemCache(),
		pub:      &recordingPublisher{},
		thumbs:   &fakeThumbnails{},
		clock:    &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	f.svc = NewLiveStreamService(LiveStreamDeps{
		Store:      f.store,
		Videos:     f.videos,
		Provider:   f.provider,
		Cache:      f.cache,
		CacheTTL:   time.Minute,
		Events:     f.pub,
		Thumbnails: f.thumbs,
		Now:        f.clock.Now,
	})
	return f
}

func (f *liveFixture) seed(st models.LiveStatus, published bool) *models.LiveStream {
	s := &models.LiveStream{
		Title:            "Algebra live",
		ProviderStreamID: "ls-" + string(st),
		IngestURL:        "rtmp://ingest.example.com/live",
		IngestKey:        "secret-key",
		PlaybackURL:      "https://cdn.example.com/play.m3u8",
		Status:           st,
		IsPublished:      published,
	}
	_ = f.store.Create(context.Background(), s)
	return s
}

func TestLiveStream_Create(t *testing.T) {
	f := newLiveFixture()
	instructor := primitive.NewObjectID()

	s, err := f.svc.Create(context.Background(), instructor, CreateLiveStreamInput{Title: "  Physics  "})

	require.NoError(t, err)
	assert.Equal(t, "Physics", s.Title)
	assert.Equal(t, models.LiveStatusNotStarted, s.Status)
	assert.Equal(t, "ls-1", s.ProviderStreamID)
	assert.Equal(t, "secret-key", s.IngestKey)
	assert.Equal(t, instructor, s.InstructorID)
	assert.Equal(t, []events.Type{events.LiveStreamCreated}, f.pub.types())
}

func TestLiveStream_CreateScheduled(t *testing.T) {
	f := newLiveFixture()
	later := f.clock.t.Add(48 * time.Hour)

	s, err := f.svc.Create(context.Background(), primitive.NewObjectID(), CreateLiveStreamInput{Title: "Later", ScheduledAt: &later})

	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusScheduled, s.Status)
}

func TestLiveStream_CreateProviderFailure(t *testing.T) {
	f := newLiveFixture()
	f.provider.createErr = errBoom

	_, err := f.svc.Create(context.Background(), primitive.NewObjectID(), CreateLiveStreamInput{Title: "x"})

	require.ErrorIs(t, err, ErrProvider)
	assert.Zero(t, f.store.writes)
}

func TestLiveStream_StartThenSyncKeepsStartedAt(t *testing.T) {
	f := newLiveFixture()
	ctx := context.Background()
	s := f.seed(models.LiveStatusNotStarted, true)

	started, err := f.svc.Start(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusStarting, started.Status)
	require.NotNil(t, started.StartedAt)
	startedAt := *started.StartedAt

	f.clock.Add(5 * time.Minute)
	f.provider.status = status.LiveCodeRunning
	res, err := f.svc.SyncStatus(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusRunning, res.Status)
	assert.True(t, res.Changed)
	require.NotNil(t, res.ProviderStatus)
	assert.Equal(t, status.LiveCodeRunning, *res.ProviderStatus)

	stored, err := f.store.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusRunning, stored.Status)
	assert.Equal(t, startedAt, *stored.StartedAt)
}

func TestLiveStream_FullLifecycle(t *testing.T) {
	f := newLiveFixture()
	ctx := context.Background()
	s, err := f.svc.Create(ctx, primitive.NewObjectID(), CreateLiveStreamInput{Title: "Chemistry", IsPublished: true})
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, s.ID)
	require.NoError(t, err)

	f.provider.status = status.LiveCodeRunning
	_, err = f.svc.SyncStatus(ctx, s.ID)
	require.NoError(t, err)

	pb, err := f.svc.GetPlayback(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, pb.CanWatch)
	assert.NotEmpty(t, pb.PlaybackURL)

	ended, err := f.svc.End(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusEnded, ended.Status)
	assert.NotNil(t, ended.EndedAt)
	assert.Empty(t, ended.IngestKey)

	// A late provider report never reopens an ended stream.
	f.provider.status = status.LiveCodeStopped
	res, err := f.svc.SyncStatus(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusEnded, res.Status)
	assert.False(t, res.Changed)

	pb, err = f.svc.GetPlayback(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, pb.CanWatch)
	assert.Equal(t, status.MessageEnded, pb.Message)
	assert.Empty(t, pb.PlaybackURL)

	assert.Equal(t, []events.Type{
		events.LiveStreamCreated,
		events.LiveStreamStarted,
		events.LiveStreamStatusSynced,
		events.LiveStreamEnded,
	}, f.pub.types())
}

func TestLiveStream_InvalidTransitions(t *testing.T) {
	f := newLiveFixture()
	ctx := context.Background()

	running := f.seed(models.LiveStatusRunning, true)
	_, err := f.svc.Start(ctx, running.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	notStarted := f.seed(models.LiveStatusNotStarted, true)
	_, err = f.svc.End(ctx, notStarted.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Start(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLiveStream_DeleteGuard(t *testing.T) {
	for _, st := range []models.LiveStatus{models.LiveStatusRunning, models.LiveStatusStarting} {
		t.Run(string(st), func(t *testing.T) {
			f := newLiveFixture()
			s := f.seed(st, true)
			before := f.store.writes

			err := f.svc.Delete(context.Background(), s.ID)

			require.ErrorIs(t, err, ErrInvalidTransition)
			assert.Contains(t, PublicMessage(err, ""), "End the stream first")
			assert.Equal(t, before, f.store.writes)
			assert.Empty(t, f.provider.deleted)
			_, err = f.store.GetByID(context.Background(), s.ID)
			assert.NoError(t, err)
		})
	}
}

func TestLiveStream_DeleteSurvivesProviderFailure(t *testing.T) {
	for _, st := range []models.LiveStatus{
		models.LiveStatusScheduled, models.LiveStatusNotStarted, models.LiveStatusStopping,
		models.LiveStatusStopped, models.LiveStatusEnded,
	} {
		t.Run(string(st), func(t *testing.T) {
			f := newLiveFixture()
			f.provider.deleteErr = errBoom
			s := f.seed(st, true)
			f.cacheSeed(t, s.ID)

			err := f.svc.Delete(context.Background(), s.ID)

			require.NoError(t, err)
			_, err = f.store.GetByID(context.Background(), s.ID)
			assert.ErrorIs(t, err, repository.ErrNotFound)
			assert.NotContains(t, f.cache.data, repository.LiveStreamKey(s.ID.Hex()))
			assert.Equal(t, []string{s.ProviderStreamID}, f.provider.deleted)
		})
	}
}

func (f *liveFixture) cacheSeed(t *testing.T, id primitive.ObjectID) {
	t.Helper()
	_, err := f.svc.GetPlayback(context.Background(), id)
	require.NoError(t, err)
	require.Contains(t, f.cache.data, repository.LiveStreamKey(id.Hex()))
}

func TestLiveStream_GetToleratesProviderFailure(t *testing.T) {
	f := newLiveFixture()
	f.provider.getErr = errBoom
	s := f.seed(models.LiveStatusStarting, true)

	got, err := f.svc.Get(context.Background(), s.ID)

	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusStarting, got.Status)
}

func TestLiveStream_SyncReportsProviderFailure(t *testing.T) {
	f := newLiveFixture()
	f.provider.getErr = errBoom
	s := f.seed(models.LiveStatusStarting, true)

	res, err := f.svc.SyncStatus(context.Background(), s.ID)

	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusStarting, res.Status)
	assert.Nil(t, res.ProviderStatus)
	assert.NotEmpty(t, res.Error)
}

func TestLiveStream_SyncSurfacesStoreFailure(t *testing.T) {
	f := newLiveFixture()
	f.provider.status = status.LiveCodeRunning
	s := f.seed(models.LiveStatusStarting, true)
	f.store.updateErr = errBoom

	res, err := f.svc.SyncStatus(context.Background(), s.ID)

	require.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrProvider)
	assert.Nil(t, res)
	f.store.updateErr = nil
	got, err := f.store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusStarting, got.Status)
	assert.Nil(t, got.StartedAt)
	assert.Empty(t, f.pub.events)
}

func TestLiveStream_GetSurfacesStoreFailure(t *testing.T) {
	f := newLiveFixture()
	f.provider.status = status.LiveCodeRunning
	s := f.seed(models.LiveStatusStarting, true)
	f.store.updateErr = errBoom

	got, err := f.svc.Get(context.Background(), s.ID)

	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, got)
}

func TestLiveStream_SyncCancelledCallerDoesNotFailSharedPull(t *testing.T) {
	f := newLiveFixture()
	f.provider.status = status.LiveCodeRunning
	f.provider.entered = make(chan struct{}, 1)
	f.provider.block = make(chan struct{})
	s := f.seed(models.LiveStatusStarting, true)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan *SyncResult, 1)
	go func() {
		res, err := f.svc.SyncStatus(ctx, s.ID)
		assert.NoError(t, err)
		first <- res
	}()
	select {
	case <-f.provider.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("provider was never called")
	}

	second := make(chan *SyncResult, 1)
	go func() {
		res, err := f.svc.SyncStatus(context.Background(), s.ID)
		assert.NoError(t, err)
		second <- res
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	res := <-first
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, models.LiveStatusStarting, res.Status)

	close(f.provider.block)
	select {
	case res = <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("second sync never returned")
	}
	require.NotNil(t, res)
	assert.Empty(t, res.Error)
	assert.Equal(t, models.LiveStatusRunning, res.Status)

	got, err := f.store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusRunning, got.Status)
}

func TestLiveStream_SyncConcurrentCallsShareProviderCall(t *testing.T) {
	f := newLiveFixture()
	f.provider.status = status.LiveCodeRunning
	s := f.seed(models.LiveStatusStarting, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SyncStatus(context.Background(), s.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusRunning, got.Status)
	assert.LessOrEqual(t, f.provider.gets, 8)
}

func TestNextLiveStatus(t *testing.T) {
	tests := []struct {
		local, remote, want models.LiveStatus
		changed             bool
	}{
		{models.LiveStatusStarting, models.LiveStatusRunning, models.LiveStatusRunning, true},
		{models.LiveStatusRunning, models.LiveStatusStopped, models.LiveStatusStopped, true},
		{models.LiveStatusScheduled, models.LiveStatusRunning, models.LiveStatusRunning, true},
		{models.LiveStatusRunning, models.LiveStatusRunning, models.LiveStatusRunning, false},
		{models.LiveStatusEnded, models.LiveStatusRunning, models.LiveStatusEnded, false},
		{models.LiveStatusEnded, models.LiveStatusStopped, models.LiveStatusEnded, false},
		{models.LiveStatusScheduled, models.LiveStatusNotStarted, models.LiveStatusScheduled, false},
		{models.LiveStatusRunning, models.LiveStatusNotStarted, models.LiveStatusRunning, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.local)+"->"+string(tt.remote), func(t *testing.T) {
			got, changed := NextLiveStatus(tt.local, tt.remote)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestLiveStream_ListPublishedHidesIngest(t *testing.T) {
	f := newLiveFixture()
	f.seed(models.LiveStatusRunning, true)
	f.seed(models.LiveStatusScheduled, true)
	f.seed(models.LiveStatusEnded, true)
	f.seed(models.LiveStatusRunning, false)

	list, err := f.svc.ListPublished(context.Background(), nil)

	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.ElementsMatch(t, []string{"ingestKey", "ingestUrl"}, f.store.hidden)
}

func TestLiveStream_AdminListHidesIngestKey(t *testing.T) {
	f := newLiveFixture()
	f.seed(models.LiveStatusRunning, true)

	list, total, err := f.svc.List(context.Background(), models.LiveStreamFilter{})

	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Empty(t, list[0].IngestKey)
	assert.NotEmpty(t, list[0].IngestURL)

	_, _, err = f.svc.List(context.Background(), models.LiveStreamFilter{Statuses: []models.LiveStatus{"bogus"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLiveStream_GetPlayback(t *testing.T) {
	tests := []struct {
		status   models.LiveStatus
		canWatch bool
		message  string
	}{
		{models.LiveStatusScheduled, false, status.MessageNotStarted},
		{models.LiveStatusNotStarted, false, status.MessageNotStarted},
		{models.LiveStatusStarting, true, ""},
		{models.LiveStatusRunning, true, ""},
		{models.LiveStatusStopped, false, status.MessageEnded},
		{models.LiveStatusEnded, false, status.MessageEnded},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newLiveFixture()
			s := f.seed(tt.status, true)

			first, err := f.svc.GetPlayback(context.Background(), s.ID)
			require.NoError(t, err)
			second, err := f.svc.GetPlayback(context.Background(), s.ID)
			require.NoError(t, err)

			assert.Equal(t, tt.canWatch, first.CanWatch)
			assert.Equal(t, tt.message, first.Message)
			assert.Equal(t, first, second)
			assert.Zero(t, f.provider.gets, "playback never calls the provider")
		})
	}
}

func TestLiveStream_GetPlaybackUnpublished(t *testing.T) {
	f := newLiveFixture()
	s := f.seed(models.LiveStatusRunning, false)

	_, err := f.svc.GetPlayback(context.Background(), s.ID)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLiveStream_AttachRecording(t *testing.T) {
	f := newLiveFixture()
	ctx := context.Background()
	video := f.videos.put(models.Video{Title: "rec", Status: models.VideoStatusReady})

	running := f.seed(models.LiveStatusRunning, true)
	_, err := f.svc.AttachRecording(ctx, running.ID, video.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	ended := f.seed(models.LiveStatusEnded, true)
	_, err = f.svc.AttachRecording(ctx, ended.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.AttachRecording(ctx, ended.ID, video.ID)
	require.NoError(t, err)
	assert.True(t, got.HasRecording)
	assert.Equal(t, video.ID, *got.RecordingVideoID)
}

func TestLiveStream_UploadThumbnail(t *testing.T) {
	f := newLiveFixture()
	s := f.seed(models.LiveStatusScheduled, true)

	got, err := f.svc.UploadThumbnail(context.Background(), s.ID, "Cover.PNG", "image/png", strings.NewReader("png"))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.thumbs.key, "live-streams/"+s.ID.Hex()+"/thumbnail-"))
	assert.True(t, strings.HasSuffix(f.thumbs.key, ".png"))
	assert.Equal(t, "https://assets.example.com/"+f.thumbs.key, got.Thumbnail)

	_, err = f.svc.UploadThumbnail(context.Background(), s.ID, "x.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLiveStream_UploadThumbnailWithoutStorage(t *testing.T) {
	svc := NewLiveStreamService(LiveStreamDeps{Store: newMemLiveStore(), Provider: &fakeLiveProvider{}})

	_, err := svc.UploadThumbnail(context.Background(), primitive.NewObjectID(), "a.png", "image/png", strings.NewReader("x"))

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLiveStream_UpdateReschedules(t *testing.T) {
	f := newLiveFixture()
	s := f.seed(models.LiveStatusNotStarted, true)
	later := f.clock.t.Add(time.Hour)
	title := "Renamed"

	got, err := f.svc.Update(context.Background(), s.ID, UpdateLiveStreamInput{Title: &title, ScheduledAt: &later})

	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, models.LiveStatusScheduled, got.Status)

	running := f.seed(models.LiveStatusRunning, true)
	got, err = f.svc.Update(context.Background(), running.ID, UpdateLiveStreamInput{ScheduledAt: &later})
	require.NoError(t, err)
	assert.Equal(t, models.LiveStatusRunning, got.Status)
}
