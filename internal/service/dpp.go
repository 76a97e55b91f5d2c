// internal/service/dpp.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/events"
	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/observability"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
)

type DPPInput struct {
	Title       string
	Description string
	CourseID    primitive.ObjectID
	Questions   []models.Question
	IsPublished bool
}

// AttemptQuestion is a question with its answer key removed.
type AttemptQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Marks    int      `json:"marks"`
}

// DPPForAttempt is the learner view used while answering.
type DPPForAttempt struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	CourseID    primitive.ObjectID `json:"courseId"`
	Questions   []AttemptQuestion  `json:"questions"`
	TotalMarks  int                `json:"totalMarks"`
}

type DPPSummary struct {
	ID            primitive.ObjectID `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	CourseID      primitive.ObjectID `json:"courseId"`
	QuestionCount int                `json:"questionCount"`
	TotalMarks    int                `json:"totalMarks"`
}

type AttemptSummary struct {
	ID          primitive.ObjectID     `json:"id"`
	DPPID       primitive.ObjectID     `json:"dppId"`
	Score       int                    `json:"score"`
	TotalMarks  int                    `json:"totalMarks"`
	Percentage  float64                `json:"percentage"`
	Answers     []models.AttemptAnswer `json:"answers"`
	SubmittedAt time.Time              `json:"submittedAt"`
}

type SubmitResult struct {
	Attempt   AttemptSummary `json:"attempt"`
	Solutions []Solution     `json:"solutions"`
}

type DPPDeps struct {
	DPPs        DPPStore
	Attempts    AttemptStore
	Streaks     StreakRecorder
	Cache       repository.Cache
	CacheTTL    time.Duration
	Events      events.Publisher
	Metrics     *observability.Metrics
	AllowRetake bool
	Now         func() time.Time
}

type DPPService struct {
	dpps        DPPStore
	attempts    AttemptStore
	streaks     StreakRecorder
	cache       repository.Cache
	cacheTTL    time.Duration
	events      events.Publisher
	metrics     *observability.Metrics
	allowRetake bool
	now         func() time.Time
}

func NewDPPService(d DPPDeps) *DPPService {
	s := &DPPService{
		dpps:        d.DPPs,
		attempts:    d.Attempts,
		streaks:     d.Streaks,
		cache:       d.Cache,
		cacheTTL:    d.CacheTTL,
		events:      d.Events,
		metrics:     d.Metrics,
		allowRetake: d.AllowRetake,
		now:         d.Now,
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

func (s *DPPService) Create(ctx context.Context, createdBy primitive.ObjectID, in DPPInput) (*models.DPP, error) {
	if err := validateDPP(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	dpp := &models.DPP{
		Title:       in.Title,
		Description: in.Description,
		CourseID:    in.CourseID,
		Questions:   in.Questions,
		IsPublished: in.IsPublished,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.dpps.Create(ctx, dpp); err != nil {
		return nil, err
	}
	return dpp, nil
}

func (s *DPPService) Get(ctx context.Context, id primitive.ObjectID) (*models.DPP, error) {
	dpp, err := s.dpps.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "DPP")
	}
	return dpp, nil
}

func (s *DPPService) List(ctx context.Context, f models.DPPFilter) ([]models.DPP, error) {
	return s.dpps.List(ctx, f)
}

// Update replaces the whole question set. Attempts already written keep the
// grades they were given.
func (s *DPPService) Update(ctx context.Context, id primitive.ObjectID, in DPPInput) (*models.DPP, error) {
	if err := validateDPP(&in); err != nil {
		return nil, err
	}
	dpp, err := s.dpps.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "DPP")
	}
	dpp.Title = in.Title
	dpp.Description = in.Description
	dpp.CourseID = in.CourseID
	dpp.Questions = in.Questions
	dpp.IsPublished = in.IsPublished
	dpp.UpdatedAt = s.now().UTC()
	if err := s.dpps.Update(ctx, dpp); err != nil {
		return nil, lookup(err, "DPP")
	}
	s.evict(ctx, id)
	return dpp, nil
}

func (s *DPPService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.dpps.Delete(ctx, id); err != nil {
		return lookup(err, "DPP")
	}
	s.evict(ctx, id)
	return nil
}

func (s *DPPService) ListPublished(ctx context.Context, courseID *primitive.ObjectID) ([]DPPSummary, error) {
	dpps, err := s.dpps.List(ctx, models.DPPFilter{CourseID: courseID, PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]DPPSummary, 0, len(dpps))
	for _, d := range dpps {
		out = append(out, DPPSummary{
			ID:            d.ID,
			Title:         d.Title,
			Description:   d.Description,
			CourseID:      d.CourseID,
			QuestionCount: len(d.Questions),
			TotalMarks:    totalMarks(d.Questions),
		})
	}
	return out, nil
}

// GetForAttempt returns a published DPP without correct answers or
// explanations.
func (s *DPPService) GetForAttempt(ctx context.Context, id primitive.ObjectID) (*DPPForAttempt, error) {
	key := repository.DPPKey(id.Hex())
	if data, err := s.cache.Get(ctx, key); err == nil {
		var view DPPForAttempt
		if err := json.Unmarshal(data, &view); err == nil {
			s.metrics.CacheLookup("dpp", true)
			return &view, nil
		}
	}
	s.metrics.CacheLookup("dpp", false)

	dpp, err := s.published(ctx, id)
	if err != nil {
		return nil, err
	}
	view := StripAnswerKey(dpp)
	if data, err := json.Marshal(view); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			slog.Warn("failed to cache dpp", "id", id.Hex(), "error", err)
		}
	}
	return &view, nil
}

// SubmitAttempt grades and stores one submission and returns the full
// answer key for review.
func (s *DPPService) SubmitAttempt(ctx context.Context, userID, dppID primitive.ObjectID, answers []models.SubmittedAnswer) (*SubmitResult, error) {
	dpp, err := s.published(ctx, dppID)
	if err != nil {
		return nil, err
	}

	if !s.allowRetake {
		n, err := s.attempts.CountByUserAndDPP(ctx, userID, dppID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, newError(ErrConflict, "You have already attempted this DPP")
		}
	}

	graded := Grade(dpp.Questions, answers)
	attempt := &models.DPPAttempt{
		UserID:      userID,
		DPPID:       dppID,
		CourseID:    dpp.CourseID,
		Answers:     graded.Answers,
		Score:       graded.Score,
		TotalMarks:  graded.TotalMarks,
		Percentage:  graded.Percentage,
		IsCompleted: true,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, err
	}

	s.metrics.DPPAttempt(attempt.Percentage)
	evt := events.New(events.DPPAttemptSubmitted, dppID.Hex(), userID.Hex(), map[string]any{
		"attemptId":  attempt.ID.Hex(),
		"score":      attempt.Score,
		"totalMarks": attempt.TotalMarks,
	})
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.Warn("failed to publish event", "type", evt.Type, "error", err)
	}

	if s.streaks != nil {
		if _, err := s.streaks.Record(ctx, userID); err != nil {
			slog.Warn("failed to update study streak", "userId", userID.Hex(), "error", err)
		}
	}

	return &SubmitResult{
		Attempt: AttemptSummary{
			ID:          attempt.ID,
			DPPID:       attempt.DPPID,
			Score:       attempt.Score,
			TotalMarks:  attempt.TotalMarks,
			Percentage:  attempt.Percentage,
			Answers:     attempt.Answers,
			SubmittedAt: attempt.SubmittedAt,
		},
		Solutions: Solutions(dpp.Questions),
	}, nil
}

func (s *DPPService) ListAttempts(ctx context.Context, userID primitive.ObjectID, dppID *primitive.ObjectID) ([]models.DPPAttempt, error) {
	return s.attempts.ListByUser(ctx, userID, dppID)
}

func (s *DPPService) published(ctx context.Context, id primitive.ObjectID) (*models.DPP, error) {
	dpp, err := s.dpps.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "DPP")
	}
	if !dpp.IsPublished {
		return nil, newError(ErrNotFound, "DPP not found")
	}
	return dpp, nil
}

func (s *DPPService) evict(ctx context.Context, id primitive.ObjectID) {
	if err := s.cache.Delete(ctx, repository.DPPKey(id.Hex())); err != nil {
		slog.Warn("failed to evict dpp from cache", "id", id.Hex(), "error", err)
	}
}

func StripAnswerKey(d *models.DPP) DPPForAttempt {
	qs := make([]AttemptQuestion, len(d.Questions))
	for i, q := range d.Questions {
		qs[i] = AttemptQuestion{Question: q.Question, Options: q.Options, Marks: q.Marks}
	}
	return DPPForAttempt{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		CourseID:    d.CourseID,
		Questions:   qs,
		TotalMarks:  totalMarks(d.Questions),
	}
}

func totalMarks(qs []models.Question) int {
	total := 0
	for _, q := range qs {
		total += max(q.Marks, 0)
	}
	return total
}

func validateDPP(in *DPPInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return newError(ErrValidation, "title is required")
	}
	if in.CourseID.IsZero() {
		return newError(ErrValidation, "courseId is required")
	}
	if len(in.Questions) == 0 {
		return newError(ErrValidation, "at least one question is required")
	}
	for i, q := range in.Questions {
		switch {
		case strings.TrimSpace(q.Question) == "":
			return newError(ErrValidation, fmt.Sprintf("question %d: text is required", i))
		case len(q.Options) != models.OptionsPerQuestion:
			return newError(ErrValidation, fmt.Sprintf("question %d: exactly %d options are required", i, models.OptionsPerQuestion))
		case q.CorrectAnswer < 0 || q.CorrectAnswer >= models.OptionsPerQuestion:
			return newError(ErrValidation, fmt.Sprintf("question %d: correctAnswer must be between 0 and %d", i, models.OptionsPerQuestion-1))
		case q.Marks < 0:
			return newError(ErrValidation, fmt.Sprintf("question %d: marks cannot be negative", i))
		}
	}
	return nil
}
