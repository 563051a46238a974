package service

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/examhall/examhall-backend/internal/model"
)

// ScoreAnswer computes correctness and points for one answer. It is a pure
// function: no state, no I/O; replaying the same input yields the same
// result, which is what makes answer recording idempotent.
//
// Choice questions earn totalPoints/questionCount when the selected option
// is flagged correct (equal weighting, 0 when questionCount is 0).
// Free-text questions always score (false, 0) here — they go through manual
// grading outside the engine.
func ScoreAnswer(q *model.ExamQuestion, selectedOptionID *uuid.UUID, totalPoints float64, questionCount int) (bool, float64) {
	if !q.Question.Type.Choice() {
		return false, 0
	}
	if selectedOptionID == nil {
		return false, 0
	}
	opt := q.Question.Option(*selectedOptionID)
	if opt == nil || !opt.IsCorrect {
		return false, 0
	}
	if questionCount <= 0 {
		return true, 0
	}
	return true, totalPoints / float64(questionCount)
}

// ResultSummary is the aggregate of a session's answer set.
type ResultSummary struct {
	TotalScore   float64
	CorrectCount int
	WrongCount   int
	Percentage   float64
}

// Summarize aggregates answers into the final score figures. Pure; the SQL
// in the pgx store performs the same computation — this is the reference
// semantics and what the in-memory test store runs.
func Summarize(answers []model.StudentAnswer, totalPoints float64) ResultSummary {
	var sum ResultSummary
	for _, a := range answers {
		sum.TotalScore += a.Score
		if a.IsCorrect {
			sum.CorrectCount++
		} else {
			sum.WrongCount++
		}
	}
	if totalPoints > 0 {
		sum.Percentage = round2(sum.TotalScore / totalPoints * 100)
	}
	return sum
}

// Deadline returns the effective cutoff for a session:
// min(exam end time, session start + exam duration).
func Deadline(exam *model.Exam, startedAt time.Time) time.Time {
	byDuration := startedAt.Add(time.Duration(exam.DurationMinutes) * time.Minute)
	if exam.EndTime.Before(byDuration) {
		return exam.EndTime
	}
	return byDuration
}

// TimeRemaining returns whole seconds until the deadline while the session
// is in progress, 0 otherwise. Pure, read-only.
func TimeRemaining(sess *model.ExamSession, exam *model.Exam, now time.Time) int64 {
	if sess.Status != model.SessionStatusInProgress {
		return 0
	}
	remaining := Deadline(exam, sess.StartedAt).Sub(now)
	if remaining < 0 {
		return 0
	}
	return int64(remaining.Seconds())
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
