package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ResultStatus is the grading-workflow status of a result. It is distinct
// from the session status: score fields are frozen at creation, while
// status/feedback may be amended by a later review.
type ResultStatus string

const (
	ResultStatusPending  ResultStatus = "pending"
	ResultStatusGraded   ResultStatus = "graded"
	ResultStatusReviewed ResultStatus = "reviewed"
)

// Percentage serializes with two decimal places ("50.00"), matching the
// fixed-point representation stored in the results table.
type Percentage float64

func (p Percentage) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatFloat(float64(p), 'f', 2, 64))), nil
}

func (p *Percentage) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		// Accept a bare number as well.
		s = string(data)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*p = Percentage(f)
	return nil
}

// ExamResult is the immutable graded outcome of a completed session.
type ExamResult struct {
	ID           uuid.UUID    `json:"id"`
	SessionID    uuid.UUID    `json:"session_id"`
	StudentID    int          `json:"student_id"`
	ExamID       uuid.UUID    `json:"exam_id"`
	TotalScore   float64      `json:"total_score"`
	CorrectCount int          `json:"correct_count"`
	WrongCount   int          `json:"wrong_count"`
	Percentage   Percentage   `json:"percentage"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	Status       ResultStatus `json:"status"`
	Feedback     *string      `json:"feedback,omitempty"`
}

// Log actions recorded by the session engine.
const (
	LogExamStarted     = "exam_started"
	LogAnswerSubmitted = "answer_submitted"
	LogAnswerUpdated   = "answer_updated"
	LogExamSubmitted   = "exam_submitted"
	LogPageLeave       = "page_leave"
	LogPageReturn      = "page_return"
	LogSessionTimeout  = "session_timeout"
)

// ExamLog is an append-only audit record of a session action. Rows are
// never mutated or deleted.
type ExamLog struct {
	ID        int64     `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	StudentID int       `json:"student_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}
