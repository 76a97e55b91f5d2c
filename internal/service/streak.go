// internal/service/streak.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AzlanEh/EducationPlus-sub000/internal/events"
	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/repository"
)

// AdvanceStreak applies one study action at now. It reports false when the
// day was already counted, in which case the streak is returned untouched.
func AdvanceStreak(s models.StudyStreak, now time.Time, loc *time.Location) (models.StudyStreak, bool) {
	today := startOfDay(now, loc)

	if s.LastStudyDate == nil {
		s.CurrentStreak = 1
	} else {
		switch gap := daysBetween(startOfDay(*s.LastStudyDate, loc), today); {
		case gap <= 0:
			return s, false
		case gap == 1:
			s.CurrentStreak++
		default:
			s.CurrentStreak = 1
		}
	}

	s.LongestStreak = max(s.LongestStreak, s.CurrentStreak)
	s.LastStudyDate = &today
	s.StudyDates = append(slices.Clip(s.StudyDates), today)
	s.TotalStudyDays++
	return s, true
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days, so DST shifts never produce a 23 or 25
// hour "day".
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

type StreakService struct {
	store  StreakStore
	events events.Publisher
	loc    *time.Location
	now    func() time.Time
}

func NewStreakService(store StreakStore, pub events.Publisher, loc *time.Location, now func() time.Time) *StreakService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &StreakService{store: store, events: pub, loc: loc, now: now}
}

// Record counts today as a study day for the learner.
func (s *StreakService) Record(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, changed := AdvanceStreak(*current, s.now(), s.loc)
	if !changed {
		return current, nil
	}
	next.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("failed to save study streak: %w", err)
	}

	evt := events.New(events.StudyStreakUpdated, userID.Hex(), userID.Hex(), map[string]any{
		"currentStreak": next.CurrentStreak,
		"longestStreak": next.LongestStreak,
	})
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.Warn("failed to publish event", "type", evt.Type, "error", err)
	}
	return &next, nil
}

// Get returns the learner's streak, or an empty one if they never studied.
func (s *StreakService) Get(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	streak, err := s.store.GetByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.StudyStreak{UserID: userID, StudyDates: []time.Time{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return streak, nil
}
