// internal/models/streak.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudyStreak is one per learner. StudyDates is append-only and holds
// midnight timestamps in the configured streak timezone.
type StudyStreak struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	CurrentStreak  int                `json:"currentStreak" bson:"currentStreak"`
	LongestStreak  int                `json:"longestStreak" bson:"longestStreak"`
	LastStudyDate  *time.Time         `json:"lastStudyDate,omitempty" bson:"lastStudyDate,omitempty"`
	StudyDates     []time.Time        `json:"studyDates" bson:"studyDates"`
	TotalStudyDays int                `json:"totalStudyDays" bson:"totalStudyDays"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}
