package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates supported question types. Choice types are scored
// automatically; free-text types always await manual grading.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeFillBlank      QuestionType = "fill_blank"
	QuestionTypeEssay          QuestionType = "essay"
)

// Choice reports whether the question type is answered by selecting an option.
func (t QuestionType) Choice() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Exam represents an exam definition as read from the catalog. The session
// engine treats it as read-only.
type Exam struct {
	ID              uuid.UUID      `json:"id"`
	ClassID         int            `json:"class_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	TotalPoints     float64        `json:"total_points"`
	DurationMinutes int            `json:"duration_minutes"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	CreatedBy       int            `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	Questions       []ExamQuestion `json:"questions,omitempty"`
}

// ExamQuestion links a question into an exam at a given position.
type ExamQuestion struct {
	ID       uuid.UUID `json:"id"`
	ExamID   uuid.UUID `json:"exam_id"`
	OrderNum int       `json:"order"`
	Code     string    `json:"code,omitempty"`
	Question Question  `json:"question"`
}

// Label returns the human-readable reference for the question, preferring
// the explicit code over the positional order.
func (q ExamQuestion) Label() string {
	if q.Code != "" {
		return q.Code
	}
	return "Q" + strconv.Itoa(q.OrderNum)
}

// Question represents a bank question with its options.
type Question struct {
	ID       uuid.UUID        `json:"id"`
	Text     string           `json:"question_text"`
	Type     QuestionType     `json:"type"`
	ImageURL string           `json:"image_url,omitempty"`
	Options  []QuestionOption `json:"options,omitempty"`
}

// Option returns the option with the given ID, or nil if it does not belong
// to this question.
func (q *Question) Option(id uuid.UUID) *QuestionOption {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i]
		}
	}
	return nil
}

// QuestionOption is one selectable answer of a choice question.
type QuestionOption struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
}
