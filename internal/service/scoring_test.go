package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/examhall/examhall-backend/internal/model"
)

func choiceQuestion(correct bool) (*model.ExamQuestion, *uuid.UUID) {
	opt := model.QuestionOption{ID: uuid.New(), Text: "A", IsCorrect: correct}
	eq := &model.ExamQuestion{
		ID: uuid.New(),
		Question: model.Question{
			ID:      uuid.New(),
			Type:    model.QuestionTypeMultipleChoice,
			Options: []model.QuestionOption{opt, {ID: uuid.New(), Text: "B", IsCorrect: !correct}},
		},
	}
	return eq, &opt.ID
}

func TestScoreAnswer(t *testing.T) {
	t.Run("correct choice earns equal share", func(t *testing.T) {
		eq, sel := choiceQuestion(true)
		ok, score := ScoreAnswer(eq, sel, 100, 2)
		require.True(t, ok)
		require.InDelta(t, 50.0, score, 1e-9)
	})

	t.Run("wrong choice earns nothing", func(t *testing.T) {
		eq, sel := choiceQuestion(false)
		ok, score := ScoreAnswer(eq, sel, 100, 2)
		require.False(t, ok)
		require.Zero(t, score)
	})

	t.Run("nil selection earns nothing", func(t *testing.T) {
		eq, _ := choiceQuestion(true)
		ok, score := ScoreAnswer(eq, nil, 100, 2)
		require.False(t, ok)
		require.Zero(t, score)
	})

	t.Run("foreign option earns nothing", func(t *testing.T) {
		eq, _ := choiceQuestion(true)
		foreign := uuid.New()
		ok, score := ScoreAnswer(eq, &foreign, 100, 2)
		require.False(t, ok)
		require.Zero(t, score)
	})

	t.Run("zero question count never divides", func(t *testing.T) {
		eq, sel := choiceQuestion(true)
		ok, score := ScoreAnswer(eq, sel, 100, 0)
		require.True(t, ok)
		require.Zero(t, score)
	})

	t.Run("free text awaits manual grading", func(t *testing.T) {
		eq := &model.ExamQuestion{
			ID:       uuid.New(),
			Question: model.Question{ID: uuid.New(), Type: model.QuestionTypeEssay},
		}
		ok, score := ScoreAnswer(eq, nil, 100, 2)
		require.False(t, ok)
		require.Zero(t, score)
	})
}

func TestSummarize(t *testing.T) {
	answers := []model.StudentAnswer{
		{IsCorrect: true, Score: 50},
		{IsCorrect: false, Score: 0},
	}

	sum := Summarize(answers, 100)
	require.InDelta(t, 50.0, sum.TotalScore, 1e-9)
	require.Equal(t, 1, sum.CorrectCount)
	require.Equal(t, 1, sum.WrongCount)
	require.InDelta(t, 50.0, sum.Percentage, 1e-9)

	t.Run("rounds to two decimals", func(t *testing.T) {
		third := []model.StudentAnswer{
			{IsCorrect: true, Score: 100.0 / 3},
			{IsCorrect: false},
			{IsCorrect: false},
		}
		sum := Summarize(third, 100)
		require.InDelta(t, 33.33, sum.Percentage, 1e-9)
	})

	t.Run("zero total points yields zero percentage", func(t *testing.T) {
		sum := Summarize(answers, 0)
		require.Zero(t, sum.Percentage)
	})
}

func TestDeadline(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	exam := &model.Exam{
		DurationMinutes: 30,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
	}

	// Duration expires before the window closes.
	require.Equal(t, start.Add(30*time.Minute), Deadline(exam, start))

	// Late start: the window closing wins over the full duration.
	lateStart := start.Add(45 * time.Minute)
	require.Equal(t, exam.EndTime, Deadline(exam, lateStart))
}

func TestTimeRemaining(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	exam := &model.Exam{
		DurationMinutes: 30,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
	}
	sess := &model.ExamSession{
		Status:    model.SessionStatusInProgress,
		StartedAt: start,
	}

	require.Equal(t, int64(1200), TimeRemaining(sess, exam, start.Add(10*time.Minute)))
	require.Zero(t, TimeRemaining(sess, exam, start.Add(2*time.Hour)))

	sess.Status = model.SessionStatusCompleted
	require.Zero(t, TimeRemaining(sess, exam, start))
}
