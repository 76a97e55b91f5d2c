// internal/models/dpp.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OptionsPerQuestion is fixed: every DPP question is four-way multiple choice.
const OptionsPerQuestion = 4

type Question struct {
	Question      string   `json:"question" bson:"question"`
	Options       []string `json:"options" bson:"options"`
	CorrectAnswer int      `json:"correctAnswer" bson:"correctAnswer"`
	Marks         int      `json:"marks" bson:"marks"`
	Explanation   string   `json:"explanation,omitempty" bson:"explanation,omitempty"`
}

// DPP is a Daily Practice Problem set attached to a course.
type DPP struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CourseID    primitive.ObjectID `json:"courseId" bson:"courseId"`
	Questions   []Question         `json:"questions" bson:"questions"`
	IsPublished bool               `json:"isPublished" bson:"isPublished"`
	CreatedBy   primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type DPPFilter struct {
	CourseID      *primitive.ObjectID
	PublishedOnly bool
}

type SubmittedAnswer struct {
	QuestionIndex  int `json:"questionIndex" bson:"questionIndex"`
	SelectedAnswer int `json:"selectedAnswer" bson:"selectedAnswer"`
}

type AttemptAnswer struct {
	QuestionIndex  int  `json:"questionIndex" bson:"questionIndex"`
	SelectedAnswer int  `json:"selectedAnswer" bson:"selectedAnswer"`
	IsCorrect      bool `json:"isCorrect" bson:"isCorrect"`
	MarksObtained  int  `json:"marksObtained" bson:"marksObtained"`
}

// DPPAttempt is append-only; there is no edit path once written.
type DPPAttempt struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	DPPID       primitive.ObjectID `json:"dppId" bson:"dppId"`
	CourseID    primitive.ObjectID `json:"courseId" bson:"courseId"`
	Answers     []AttemptAnswer    `json:"answers" bson:"answers"`
	Score       int                `json:"score" bson:"score"`
	TotalMarks  int                `json:"totalMarks" bson:"totalMarks"`
	Percentage  float64            `json:"percentage" bson:"percentage"`
	IsCompleted bool               `json:"isCompleted" bson:"isCompleted"`
	SubmittedAt time.Time          `json:"submittedAt" bson:"submittedAt"`
}
