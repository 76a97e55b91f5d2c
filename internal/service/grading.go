// internal/service/grading.go
package service

import "github.com/AzlanEh/EducationPlus-sub000/internal/models"

type GradeResult struct {
	Score      int
	TotalMarks int
	Percentage float64
	Answers    []models.AttemptAnswer
}

// Grade scores a submission against the answer key. Answers pointing past
// the question list earn nothing, and only the first answer to a question
// counts, so Percentage always stays within [0, 100].
func Grade(questions []models.Question, submitted []models.SubmittedAnswer) GradeResult {
	var res GradeResult
	for _, q := range questions {
		res.TotalMarks += max(q.Marks, 0)
	}

	answered := make(map[int]bool, len(submitted))
	res.Answers = make([]models.AttemptAnswer, 0, len(submitted))
	for _, a := range submitted {
		graded := models.AttemptAnswer{
			QuestionIndex:  a.QuestionIndex,
			SelectedAnswer: a.SelectedAnswer,
		}
		if a.QuestionIndex >= 0 && a.QuestionIndex < len(questions) && !answered[a.QuestionIndex] {
			answered[a.QuestionIndex] = true
			q := questions[a.QuestionIndex]
			if q.CorrectAnswer == a.SelectedAnswer {
				graded.IsCorrect = true
				graded.MarksObtained = max(q.Marks, 0)
			}
		}
		res.Score += graded.MarksObtained
		res.Answers = append(res.Answers, graded)
	}

	if res.TotalMarks > 0 {
		res.Percentage = 100 * float64(res.Score) / float64(res.TotalMarks)
	}
	return res
}

// Solution is one entry of the answer key shown after submission.
type Solution struct {
	QuestionIndex int    `json:"questionIndex"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
}

func Solutions(questions []models.Question) []Solution {
	out := make([]Solution, len(questions))
	for i, q := range questions {
		out[i] = Solution{QuestionIndex: i, CorrectAnswer: q.CorrectAnswer, Explanation: q.Explanation}
	}
	return out
}
