// internal/service/fakes_test.go
package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/events"
	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
	"github.com/AzlanEh/EducationPlus-sub000/pkg/bunny"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Add(d time.Duration) { c.t = c.t.Add(d) }

type memLiveStore struct {
	mu        sync.Mutex
	streams   map[primitive.ObjectID]models.LiveStream
	writes    int
	hidden    []string
	updateErr error
}

func newMemLiveStore() *memLiveStore {
	return &memLiveStore{streams: map[primitive.ObjectID]models.LiveStream{}}
}

func (m *memLiveStore) Create(_ context.Context, s *models.LiveStream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	m.streams[s.ID] = *s
	m.writes++
	return nil
}

func (m *memLiveStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.LiveStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memLiveStore) Update(_ context.Context, s *models.LiveStream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.streams[s.ID]; !ok {
		return repository.ErrNotFound
	}
	m.streams[s.ID] = *s
	m.writes++
	return nil
}

func (m *memLiveStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.streams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.streams, id)
	m.writes++
	return nil
}

func (m *memLiveStore) List(_ context.Context, f models.LiveStreamFilter, hidden ...string) ([]models.LiveStream, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden = hidden
	var out []models.LiveStream
	for _, s := range m.streams {
		if f.PublishedOnly && !s.IsPublished {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, s.Status) {
			continue
		}
		if f.CourseID != nil && (s.CourseID == nil || *s.CourseID != *f.CourseID) {
			continue
		}
		for _, h := range hidden {
			switch h {
			case "ingestKey":
				s.IngestKey = ""
			case "ingestUrl":
				s.IngestURL = ""
			}
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func containsStatus(list []models.LiveStatus, s models.LiveStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type memVideoStore struct {
	mu     sync.Mutex
	videos map[primitive.ObjectID]models.Video
	writes int
	getErr error
}

func newMemVideoStore() *memVideoStore {
	return &memVideoStore{videos: map[primitive.ObjectID]models.Video{}}
}

func (m *memVideoStore) put(v models.Video) *models.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	m.videos[v.ID] = v
	return &v
}

func (m *memVideoStore) Create(_ context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	m.videos[v.ID] = *v
	m.writes++
	return nil
}

func (m *memVideoStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (m *memVideoStore) GetByProviderID(_ context.Context, guid string) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, v := range m.videos {
		if v.ProviderVideoID == guid {
			return &v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memVideoStore) Update(_ context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[v.ID]; !ok {
		return repository.ErrNotFound
	}
	m.videos[v.ID] = *v
	m.writes++
	return nil
}

func (m *memVideoStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.videos, id)
	m.writes++
	return nil
}

func (m *memVideoStore) List(_ context.Context, f models.VideoFilter) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Video
	for _, v := range m.videos {
		if f.PublishedOnly && (!v.IsPublished || v.Status != models.VideoStatusReady) {
			continue
		}
		if f.CourseID != nil && v.CourseID != *f.CourseID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

type memProgressStore struct {
	saved []models.VideoProgress
}

func (m *memProgressStore) Upsert(_ context.Context, p *models.VideoProgress) (*models.VideoProgress, error) {
	m.saved = append(m.saved, *p)
	return p, nil
}

type memDPPStore struct {
	dpps map[primitive.ObjectID]models.DPP
	gets int
}

func newMemDPPStore() *memDPPStore {
	return &memDPPStore{dpps: map[primitive.ObjectID]models.DPP{}}
}

func (m *memDPPStore) Create(_ context.Context, d *models.DPP) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	m.dpps[d.ID] = *d
	return nil
}

func (m *memDPPStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.DPP, error) {
	m.gets++
	d, ok := m.dpps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (m *memDPPStore) Update(_ context.Context, d *models.DPP) error {
	if _, ok := m.dpps[d.ID]; !ok {
		return repository.ErrNotFound
	}
	m.dpps[d.ID] = *d
	return nil
}

func (m *memDPPStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.dpps[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.dpps, id)
	return nil
}

func (m *memDPPStore) List(_ context.Context, f models.DPPFilter) ([]models.DPP, error) {
	var out []models.DPP
	for _, d := range m.dpps {
		if f.PublishedOnly && !d.IsPublished {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

type memAttemptStore struct {
	attempts []models.DPPAttempt
}

func (m *memAttemptStore) Create(_ context.Context, a *models.DPPAttempt) error {
	a.ID = primitive.NewObjectID()
	m.attempts = append(m.attempts, *a)
	return nil
}

func (m *memAttemptStore) CountByUserAndDPP(_ context.Context, userID, dppID primitive.ObjectID) (int64, error) {
	var n int64
	for _, a := range m.attempts {
		if a.UserID == userID && a.DPPID == dppID {
			n++
		}
	}
	return n, nil
}

func (m *memAttemptStore) ListByUser(_ context.Context, userID primitive.ObjectID, dppID *primitive.ObjectID) ([]models.DPPAttempt, error) {
	var out []models.DPPAttempt
	for _, a := range m.attempts {
		if a.UserID == userID && (dppID == nil || a.DPPID == *dppID) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memStreakStore struct {
	streaks map[primitive.ObjectID]models.StudyStreak
	saves   int
}

func newMemStreakStore() *memStreakStore {
	return &memStreakStore{streaks: map[primitive.ObjectID]models.StudyStreak{}}
}

func (m *memStreakStore) GetByUser(_ context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	s, ok := m.streaks[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memStreakStore) Save(_ context.Context, s *models.StudyStreak) error {
	m.streaks[s.UserID] = *s
	m.saves++
	return nil
}

type recordingStreaks struct {
	users []primitive.ObjectID
	err   error
}

func (r *recordingStreaks) Record(_ context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	r.users = append(r.users, userID)
	if r.err != nil {
		return nil, r.err
	}
	return &models.StudyStreak{UserID: userID, CurrentStreak: 1}, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeLiveProvider struct {
	mu        sync.Mutex
	status    int
	createErr error
	getErr    error
	deleteErr error
	deleted   []string
	gets      int

	// entered is signalled on every status pull; when block is set the pull
	// waits on it or on its context.
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeLiveProvider) CreateLiveStream(_ context.Context, title string) (*bunny.LiveStream, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &bunny.LiveStream{
		ID:          "ls-1",
		Title:       title,
		RTMPURL:     "rtmp://ingest.example.com/live",
		StreamKey:   "secret-key",
		PlaybackURL: "https://cdn.example.com/ls-1/playlist.m3u8",
	}, nil
}

func (f *fakeLiveProvider) GetLiveStream(ctx context.Context, id string) (*bunny.LiveStream, error) {
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &bunny.LiveStream{ID: id, Status: f.status}, nil
}

func (f *fakeLiveProvider) DeleteLiveStream(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fakeVideoProvider struct {
	video     bunny.Video
	createErr error
	getErr    error
	deleteErr error
	gets      int
	deleted   []string
}

func (f *fakeVideoProvider) CreateVideo(_ context.Context, title string) (*bunny.Video, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &bunny.Video{GUID: "guid-1", Title: title}, nil
}

func (f *fakeVideoProvider) GetVideo(_ context.Context, guid string) (*bunny.Video, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	v := f.video
	v.GUID = guid
	return &v, nil
}

func (f *fakeVideoProvider) DeleteVideo(_ context.Context, guid string) error {
	f.deleted = append(f.deleted, guid)
	return f.deleteErr
}

func (f *fakeVideoProvider) SignUpload(videoID string, expires time.Time) bunny.UploadCredentials {
	return bunny.UploadCredentials{VideoID: videoID, Signature: "sig", ExpiresAt: expires.Unix()}
}

func (f *fakeVideoProvider) PlaybackURL(guid string) string {
	return "https://cdn.example.com/" + guid + "/playlist.m3u8"
}

func (f *fakeVideoProvider) ThumbnailURL(guid, fileName string) string {
	return "https://cdn.example.com/" + guid + "/" + fileName
}

func (f *fakeVideoProvider) EmbedURL(guid string) string {
	return "https://embed.example.com/" + guid
}

type fakeThumbnails struct {
	key  string
	body []byte
}

func (f *fakeThumbnails) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	f.key = key
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.body = b
	return "https://assets.example.com/" + key, nil
}
