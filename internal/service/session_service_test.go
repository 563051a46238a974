package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/examhall/examhall-backend/internal/model"
)

// fakeClock is a settable clock for deadline tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type pairKey struct {
	examID    uuid.UUID
	studentID int
}

// fakeStore is an in-memory SessionStore with the same transactional
// semantics as the pgx store: guarded by one lock, each write either fully
// applies or leaves no trace.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.ExamSession
	byPair   map[pairKey]uuid.UUID
	codes    map[string]bool
	answers  map[uuid.UUID]map[uuid.UUID]*model.StudentAnswer
	results  map[uuid.UUID]*model.ExamResult
	logs     []model.ExamLog

	failFinalize error
	failSave     error
	failLog      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*model.ExamSession),
		byPair:   make(map[pairKey]uuid.UUID),
		codes:    make(map[string]bool),
		answers:  make(map[uuid.UUID]map[uuid.UUID]*model.StudentAnswer),
		results:  make(map[uuid.UUID]*model.ExamResult),
	}
}

func (f *fakeStore) CreateSession(ctx context.Context, sess *model.ExamSession, questionIDs []uuid.UUID, entry *model.ExamLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := pairKey{sess.ExamID, sess.StudentID}
	if _, exists := f.byPair[key]; exists {
		return ErrSessionAlreadyActive
	}
	if f.codes[sess.Code] {
		return ErrDuplicateCode
	}

	cp := *sess
	f.sessions[sess.ID] = &cp
	f.byPair[key] = sess.ID
	f.codes[sess.Code] = true

	rows := make(map[uuid.UUID]*model.StudentAnswer, len(questionIDs))
	for _, qid := range questionIDs {
		rows[qid] = &model.StudentAnswer{
			ID:             uuid.New(),
			SessionID:      sess.ID,
			ExamQuestionID: qid,
		}
	}
	f.answers[sess.ID] = rows
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeStore) SessionByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeStore) SessionByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byPair[pairKey{examID, studentID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f.sessions[id]
	return &cp, nil
}

func (f *fakeStore) ActiveSessionByStudent(ctx context.Context, studentID int) (*model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sess := range f.sessions {
		if sess.StudentID == studentID && sess.Status == model.SessionStatusInProgress {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) SessionsByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamSession
	for _, sess := range f.sessions {
		if sess.StudentID == studentID {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (f *fakeStore) AnswerByQuestion(ctx context.Context, sessionID, examQuestionID uuid.UUID) (*model.StudentAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ans, ok := f.answers[sessionID][examQuestionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ans
	return &cp, nil
}

func (f *fakeStore) AnswersBySession(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudentAnswer
	for _, ans := range f.answers[sessionID] {
		out = append(out, *ans)
	}
	return out, nil
}

func (f *fakeStore) CountAnswers(ctx context.Context, sessionID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers[sessionID]), nil
}

func (f *fakeStore) SaveAnswer(ctx context.Context, ans *model.StudentAnswer, entry *model.ExamLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return f.failSave
	}
	sess, ok := f.sessions[ans.SessionID]
	if !ok || sess.Status != model.SessionStatusInProgress {
		return ErrSessionNotActive
	}
	row, ok := f.answers[ans.SessionID][ans.ExamQuestionID]
	if !ok {
		return ErrNotFound
	}
	cp := *ans
	cp.ID = row.ID
	f.answers[ans.SessionID][ans.ExamQuestionID] = &cp
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeStore) FinalizeSession(ctx context.Context, sessionID uuid.UUID, at time.Time, totalPoints float64) (*model.ExamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Status != model.SessionStatusInProgress {
		return nil, ErrSessionNotActive
	}
	if f.failFinalize != nil {
		// Simulated mid-transaction crash: nothing below applies.
		return nil, f.failFinalize
	}

	var answers []model.StudentAnswer
	for _, ans := range f.answers[sessionID] {
		answers = append(answers, *ans)
	}
	sum := Summarize(answers, totalPoints)

	sess.Status = model.SessionStatusCompleted
	sess.EndedAt = &at
	sess.SubmittedAt = &at
	sess.TotalScore = sum.TotalScore

	result := &model.ExamResult{
		ID:           uuid.New(),
		SessionID:    sessionID,
		StudentID:    sess.StudentID,
		ExamID:       sess.ExamID,
		TotalScore:   sum.TotalScore,
		CorrectCount: sum.CorrectCount,
		WrongCount:   sum.WrongCount,
		Percentage:   model.Percentage(sum.Percentage),
		SubmittedAt:  at,
		Status:       model.ResultStatusGraded,
	}
	f.results[sessionID] = result
	f.logs = append(f.logs, model.ExamLog{
		SessionID: sessionID,
		StudentID: sess.StudentID,
		Action:    model.LogExamSubmitted,
		CreatedAt: at,
	})
	cp := *result
	return &cp, nil
}

func (f *fakeStore) ResultBySession(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeStore) LogsBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ExamLog
	for _, l := range f.logs {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendLog(ctx context.Context, entry *model.ExamLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLog != nil {
		return f.failLog
	}
	f.logs = append(f.logs, *entry)
	return nil
}

// fakeCatalog serves a fixed set of exams.
type fakeCatalog struct {
	exams map[uuid.UUID]*model.Exam
}

func (f *fakeCatalog) ExamByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, ok := f.exams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return exam, nil
}

// fakeEnrollment enrolls a fixed set of students in each class.
type fakeEnrollment struct {
	enrolled map[int]bool
	teachers map[int]bool
}

func (f *fakeEnrollment) IsEnrolled(ctx context.Context, classID, studentID int) (bool, error) {
	return f.enrolled[studentID], nil
}

func (f *fakeEnrollment) IsClassTeacher(ctx context.Context, classID, teacherID int) (bool, error) {
	return f.teachers[teacherID], nil
}

const (
	studentID = 101
	otherID   = 102
	teacherID = 7
)

// buildExam returns a 2-question multiple-choice exam worth 100 points,
// open for an hour with a 30 minute duration.
func buildExam(start time.Time) *model.Exam {
	examID := uuid.New()
	q1 := model.ExamQuestion{
		ID:       uuid.New(),
		ExamID:   examID,
		OrderNum: 1,
		Question: model.Question{
			ID:   uuid.New(),
			Text: "2 + 2 = ?",
			Type: model.QuestionTypeMultipleChoice,
			Options: []model.QuestionOption{
				{ID: uuid.New(), Text: "3"},
				{ID: uuid.New(), Text: "4", IsCorrect: true},
			},
		},
	}
	q2 := model.ExamQuestion{
		ID:       uuid.New(),
		ExamID:   examID,
		OrderNum: 2,
		Question: model.Question{
			ID:   uuid.New(),
			Text: "The earth is flat.",
			Type: model.QuestionTypeTrueFalse,
			Options: []model.QuestionOption{
				{ID: uuid.New(), Text: "True"},
				{ID: uuid.New(), Text: "False", IsCorrect: true},
			},
		},
	}
	return &model.Exam{
		ID:              examID,
		ClassID:         1,
		Title:           "Unit Test Exam",
		TotalPoints:     100,
		DurationMinutes: 30,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		CreatedBy:       teacherID,
		Questions:       []model.ExamQuestion{q1, q2},
	}
}

func correctOption(eq model.ExamQuestion) *uuid.UUID {
	for i := range eq.Question.Options {
		if eq.Question.Options[i].IsCorrect {
			return &eq.Question.Options[i].ID
		}
	}
	return nil
}

func wrongOption(eq model.ExamQuestion) *uuid.UUID {
	for i := range eq.Question.Options {
		if !eq.Question.Options[i].IsCorrect {
			return &eq.Question.Options[i].ID
		}
	}
	return nil
}

type fixture struct {
	svc   *SessionService
	store *fakeStore
	clk   *fakeClock
	exam  *model.Exam
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	exam := buildExam(start)
	store := newFakeStore()
	clk := &fakeClock{now: start.Add(5 * time.Minute)}
	catalog := &fakeCatalog{exams: map[uuid.UUID]*model.Exam{exam.ID: exam}}
	enroll := &fakeEnrollment{
		enrolled: map[int]bool{studentID: true, otherID: true},
		teachers: map[int]bool{teacherID: true},
	}

	svc := NewSessionService(store, catalog, enroll, clk, rdb, zerolog.Nop())
	return &fixture{svc: svc, store: store, clk: clk, exam: exam}
}

func TestStartSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)
	require.Equal(t, model.SessionStatusInProgress, sess.Status)
	require.Regexp(t, `^EXAM_20260310_[0-9A-F]{8}$`, sess.Code)

	// One blank answer row per question, pre-created at start.
	count, err := f.store.CountAnswers(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	logs, err := f.store.LogsBySession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, model.LogExamStarted, logs[0].Action)
}

func TestStartSessionPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown exam", func(t *testing.T) {
		_, err := f.svc.Start(ctx, uuid.New(), studentID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not enrolled", func(t *testing.T) {
		_, err := f.svc.Start(ctx, f.exam.ID, 999)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("before window", func(t *testing.T) {
		f.clk.Set(f.exam.StartTime.Add(-time.Minute))
		_, err := f.svc.Start(ctx, f.exam.ID, studentID)
		require.ErrorIs(t, err, ErrExamWindow)
	})

	t.Run("after window", func(t *testing.T) {
		f.clk.Set(f.exam.EndTime.Add(time.Minute))
		_, err := f.svc.Start(ctx, f.exam.ID, studentID)
		require.ErrorIs(t, err, ErrExamWindow)
	})

	t.Run("not enrolled outside window", func(t *testing.T) {
		// Enrollment is checked first: non-members must not learn
		// whether the exam window is open.
		f.clk.Set(f.exam.EndTime.Add(time.Minute))
		_, err := f.svc.Start(ctx, f.exam.ID, 999)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("second start rejected even after finalize", func(t *testing.T) {
		f.clk.Set(f.exam.StartTime.Add(5 * time.Minute))
		sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
		require.NoError(t, err)

		_, err = f.svc.Finalize(ctx, sess.ID, studentID)
		require.NoError(t, err)

		// The (exam, student) pair is burned for good, not just while active.
		_, err = f.svc.Start(ctx, f.exam.ID, studentID)
		require.ErrorIs(t, err, ErrSessionAlreadyActive)
	})
}

func TestStartSessionConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Start(ctx, f.exam.ID, studentID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSessionAlreadyActive):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, attempts-1, conflicted)
}

func TestRecordAnswerScoring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)

	q1 := f.exam.Questions[0]
	ans, err := f.svc.RecordAnswer(ctx, sess.ID, studentID, model.SubmitAnswerRequest{
		ExamQuestionID:   q1.ID,
		SelectedAnswerID: correctOption(q1),
	})
	require.NoError(t, err)
	require.True(t, ans.IsCorrect)
	require.InDelta(t, 50.0, ans.Score, 1e-9) // 100 points over 2 questions

	// Revising to a wrong option rescores to zero, never stacks.
	ans, err = f.svc.RecordAnswer(ctx, sess.ID, studentID, model.SubmitAnswerRequest{
		ExamQuestionID:   q1.ID,
		SelectedAnswerID: wrongOption(q1),
	})
	require.NoError(t, err)
	require.False(t, ans.IsCorrect)
	require.Zero(t, ans.Score)
}

func TestRecordAnswerIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)

	q1 := f.exam.Questions[0]
	req := model.SubmitAnswerRequest{
		ExamQuestionID:   q1.ID,
		SelectedAnswerID: correctOption(q1),
	}

	first, err := f.svc.RecordAnswer(ctx, sess.ID, studentID, req)
	require.NoError(t, err)

	replay, err := f.svc.RecordAnswer(ctx, sess.ID, studentID, req)
	require.NoError(t, err)

	require.Equal(t, first.Score, replay.Score)
	require.Equal(t, first.IsCorrect, replay.IsCorrect)
	require.Equal(t, first.SelectedOptionID, replay.SelectedOptionID)

	// Still one row, same totals after finalize.
	count, err := f.store.CountAnswers(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	result, err := f.svc.Finalize(ctx, sess.ID, studentID)
	require.NoError(t, err)
	require.InDelta(t, 50.0, result.TotalScore, 1e-9)
	require.Equal(t, 1, result.CorrectCount)
	require.Equal(t, `"50.00"`, marshalPercentage(t, result.Percentage))
}

func TestRecordAnswerValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)

	q1, q2 := f.exam.Questions[0], f.exam.Questions[1]

	t.Run("not the owner", func(t *testing.T) {
		_, err := f.svc.RecordAnswer(ctx, sess.ID, otherID, model.SubmitAnswerRequest{
			ExamQuestionID:   q1.ID,
			SelectedAnswerID: correctOption(q1),
		})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("question from another exam", func(t *testing.T) {
		_, err := f.svc.RecordAnswer(ctx, sess.ID, studentID, model.SubmitAnswerRequest{
			ExamQuestionID:   uuid.New(),
			SelectedAnswerID: correctOption(q1),
		})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing selection", func(t *testing.T) {
		_, err := f.svc.RecordAnswer(ctx, sess.ID, studentID, model.SubmitAnswerRequest{
			ExamQuestionID: q1.ID,
		})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("option from a different question", func(t *testing.T) {
		_, err := f.svc.RecordAnswer(ctx, sess.ID, studentID, model.SubmitAnswerRequest{
			ExamQuestionID:   q1.ID,
			SelectedAnswerID: correctOption(q2),
		})
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestDeadlineBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)

	deadline := Deadline(f.exam, sess.StartedAt)
	q1 := f.exam.Questions[0]
	req := model.SubmitAnswerRequest{
		ExamQuestionID:   q1.ID,
		SelectedAnswerID: correctOption(q1),
	}

	// Exactly at the deadline: accepted.
	f.clk.Set(deadline)
	_, err = f.svc.RecordAnswer(ctx, sess.ID, studentID, req)
	require.NoError(t, err)

	// One second past: rejected, session treated as expired.
	f.clk.Set(deadline.Add(time.Second))
	_, err = f.svc.RecordAnswer(ctx, sess.ID, studentID, req)
	require.ErrorIs(t, err, ErrSessionNotActive)

	_, err = f.svc.Finalize(ctx, sess.ID, studentID)
	require.ErrorIs(t, err, ErrSessionNotActive)
}

func TestFinalizeAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)

	// Simulated crash mid-finalize: status and results are untouched.
	f.store.failFinalize = errors.New("connection reset")
	_, err = f.svc.Finalize(ctx, sess.ID, studentID)
	require.Error(t, err)

	got, err := f.store.SessionByID(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, model.SessionStatusInProgress, got.Status)
	_, err = f.store.ResultBySession(ctx, sess.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Retry succeeds and flips both atomically.
	f.store.failFinalize = nil
	result, err := f.svc.Finalize(ctx, sess.ID, studentID)
	require.NoError(t, err)
	require.Equal(t, model.ResultStatusGraded, result.Status)

	got, err = f.store.SessionByID(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, model.SessionStatusCompleted, got.Status)
	require.NotNil(t, got.SubmittedAt)

	// Double finalize fails without touching the stored result.
	_, err = f.svc.Finalize(ctx, sess.ID, studentID)
	require.ErrorIs(t, err, ErrSessionNotActive)
}

func TestActiveSessionCountdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ActiveSession(ctx, studentID)
	require.ErrorIs(t, err, ErrNotFound)

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)

	f.clk.Set(sess.StartedAt.Add(10 * time.Minute))
	view, err := f.svc.ActiveSession(ctx, studentID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, view.Session.ID)
	require.Equal(t, int64(20*60), view.TimeRemaining)
}

func TestReadAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)

	owner := Actor{ID: studentID, Role: model.RoleStudent}
	stranger := Actor{ID: otherID, Role: model.RoleStudent}
	classTeacher := Actor{ID: teacherID, Role: model.RoleTeacher}
	outsider := Actor{ID: 55, Role: model.RoleTeacher}
	admin := Actor{ID: 1, Role: model.RoleAdmin}

	for _, actor := range []Actor{owner, classTeacher, admin} {
		_, err := f.svc.SessionDetail(ctx, sess.ID, actor)
		require.NoError(t, err)
	}
	for _, actor := range []Actor{stranger, outsider} {
		_, err := f.svc.SessionDetail(ctx, sess.ID, actor)
		require.ErrorIs(t, err, ErrForbidden)
	}
}

func TestPageEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, f.exam.ID, studentID)
	require.NoError(t, err)

	require.NoError(t, f.svc.AppendPageEvent(ctx, sess.ID, studentID, model.LogPageLeave))
	require.NoError(t, f.svc.AppendPageEvent(ctx, sess.ID, studentID, model.LogPageReturn))

	require.ErrorIs(t, f.svc.AppendPageEvent(ctx, sess.ID, otherID, model.LogPageLeave),
		ErrForbidden)

	logs, err := f.svc.Logs(ctx, sess.ID, Actor{ID: studentID, Role: model.RoleStudent})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.Equal(t, model.LogPageLeave, logs[1].Action)
	require.Equal(t, model.LogPageReturn, logs[2].Action)

	// After finalize a failing append is swallowed, not surfaced.
	_, err = f.svc.Finalize(ctx, sess.ID, studentID)
	require.NoError(t, err)
	f.store.failLog = errors.New("down")
	require.NoError(t, f.svc.AppendPageEvent(ctx, sess.ID, studentID, model.LogPageLeave))
}

func marshalPercentage(t *testing.T, p model.Percentage) string {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return string(raw)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Single-question exam worth 100 points.
	start := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	exam := buildExam(start)
	exam.Questions = exam.Questions[:1]
	catalog := &fakeCatalog{exams: map[uuid.UUID]*model.Exam{exam.ID: exam}}
	f.svc.catalog = catalog
	f.clk.Set(start.Add(time.Minute))

	sess, err := f.svc.Start(ctx, exam.ID, studentID)
	require.NoError(t, err)

	q := exam.Questions[0]
	ans, err := f.svc.RecordAnswer(ctx, sess.ID, studentID, model.SubmitAnswerRequest{
		ExamQuestionID:   q.ID,
		SelectedAnswerID: correctOption(q),
	})
	require.NoError(t, err)
	require.InDelta(t, 100.0, ans.Score, 1e-9)

	result, err := f.svc.Finalize(ctx, sess.ID, studentID)
	require.NoError(t, err)
	require.InDelta(t, 100.0, result.TotalScore, 1e-9)
	require.Equal(t, 1, result.CorrectCount)
	require.Equal(t, 0, result.WrongCount)
	require.Equal(t, `"100.00"`, marshalPercentage(t, result.Percentage))

	_, err = f.svc.Finalize(ctx, sess.ID, studentID)
	require.ErrorIs(t, err, ErrSessionNotActive)
}
