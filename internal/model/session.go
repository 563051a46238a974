package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states. in_progress is the sole
// initial state; the other three are terminal.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusAbandoned  SessionStatus = "abandoned"
	SessionStatusTimeout    SessionStatus = "timeout"
)

// Terminal reports whether the status accepts no further mutation.
func (s SessionStatus) Terminal() bool {
	return s != SessionStatusInProgress
}

// ExamSession represents one student's timed attempt at one exam.
type ExamSession struct {
	ID          uuid.UUID     `json:"id"`
	ExamID      uuid.UUID     `json:"exam_id"`
	StudentID   int           `json:"student_id"`
	Code        string        `json:"code"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"start_time"`
	EndedAt     *time.Time    `json:"end_time,omitempty"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	TotalScore  float64       `json:"total_score"`
}

// StudentAnswer is a student's response record for one question within a
// session. Exactly one row exists per exam question from session start.
type StudentAnswer struct {
	ID               uuid.UUID  `json:"id"`
	SessionID        uuid.UUID  `json:"session_id"`
	ExamQuestionID   uuid.UUID  `json:"exam_question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_answer_id,omitempty"`
	AnswerText       *string    `json:"answer_text,omitempty"`
	Score            float64    `json:"score"`
	IsCorrect        bool       `json:"is_correct"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
}

// Answered reports whether the row has received at least one write.
func (a *StudentAnswer) Answered() bool {
	return a.AnsweredAt != nil
}

// StartSessionRequest is the payload for starting an exam session.
type StartSessionRequest struct {
	ExamID uuid.UUID `json:"exam_id" binding:"required"`
}

// SubmitAnswerRequest is the payload for recording or revising an answer.
// Exactly one of selected_answer_id / answer_text is meaningful, depending
// on the question type.
type SubmitAnswerRequest struct {
	ExamQuestionID   uuid.UUID  `json:"exam_question_id" binding:"required"`
	SelectedAnswerID *uuid.UUID `json:"selected_answer_id" binding:"omitempty"`
	AnswerText       string     `json:"answer_text" binding:"omitempty,max=10000"`
}

// PageEventRequest is the payload for logging page visibility changes.
type PageEventRequest struct {
	Action string `json:"action" binding:"required,oneof=page_leave page_return"`
}
