package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examhall/examhall-backend/internal/clock"
	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/model"
)

// Actor is the authenticated identity performing an operation. Lifecycle
// operations take it explicitly; there is no ambient request user.
type Actor struct {
	ID   int
	Role model.Role
}

// SessionService orchestrates the exam session lifecycle:
// start → record/revise answers → finalize, under the deadline
// min(exam end, start + duration).
type SessionService struct {
	store   SessionStore
	catalog ExamCatalog
	enroll  EnrollmentCheck
	clock   clock.Clock
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	store SessionStore,
	catalog ExamCatalog,
	enroll EnrollmentCheck,
	clk clock.Clock,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		store:   store,
		catalog: catalog,
		enroll:  enroll,
		clock:   clk,
		rdb:     rdb,
		log:     log.With().Str("component", "session_service").Logger(),
	}
}

// ActiveSessionView is an in-progress session with its derived countdown.
type ActiveSessionView struct {
	Session       *model.ExamSession `json:"session"`
	TimeRemaining int64              `json:"time_remaining"`
}

// SessionDetailView is a session with its full answer sheet.
type SessionDetailView struct {
	Session       *model.ExamSession    `json:"session"`
	Answers       []model.StudentAnswer `json:"answers"`
	TimeRemaining int64                 `json:"time_remaining"`
}

// Start creates an in_progress session for the student. Preconditions are
// checked in order, first failure wins: exam exists, student is enrolled,
// exam window is open, no session exists yet for the (exam, student) pair.
// Enrollment comes before the window check so non-members never learn the
// exam schedule. The session row, one blank answer per question and the
// start log entry are committed atomically — a failed start leaves nothing
// behind.
func (s *SessionService) Start(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	exam, err := s.catalog.ExamByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enroll.IsEnrolled(ctx, exam.ClassID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrForbidden
	}

	now := s.clock.Now()
	if now.Before(exam.StartTime) || now.After(exam.EndTime) {
		return nil, ErrExamWindow
	}

	if _, err := s.store.SessionByExamAndStudent(ctx, examID, studentID); err == nil {
		return nil, ErrSessionAlreadyActive
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}

	questionIDs := make([]uuid.UUID, len(exam.Questions))
	for i := range exam.Questions {
		questionIDs[i] = exam.Questions[i].ID
	}

	sess := &model.ExamSession{
		ID:        uuid.New(),
		ExamID:    examID,
		StudentID: studentID,
		Code:      sessionCode(now),
		Status:    model.SessionStatusInProgress,
		StartedAt: now,
	}
	entry := &model.ExamLog{
		SessionID: sess.ID,
		StudentID: studentID,
		Action:    model.LogExamStarted,
		Detail:    "Student started the exam",
		CreatedAt: now,
	}

	err = s.store.CreateSession(ctx, sess, questionIDs, entry)
	if errors.Is(err, ErrDuplicateCode) {
		// Codes are date-stamped random suffixes; a collision is rare enough
		// that one regeneration settles it.
		sess.Code = sessionCode(now)
		err = s.store.CreateSession(ctx, sess, questionIDs, entry)
	}
	if err != nil {
		if errors.Is(err, ErrSessionAlreadyActive) {
			// Lost a concurrent start race; the winner's session stands.
			return nil, ErrSessionAlreadyActive
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheDeadline(ctx, sess.ID, Deadline(exam, sess.StartedAt))
	s.publish(ctx, EventSessionStarted, sess)

	return sess, nil
}

// RecordAnswer overwrites the pre-created answer row for one question,
// rescoring it through the pure engine. Idempotent at the row level:
// replaying the same input converges to the same stored state, never
// double-scores.
func (s *SessionService) RecordAnswer(ctx context.Context, sessionID uuid.UUID, studentID int, req model.SubmitAnswerRequest) (*model.StudentAnswer, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.StudentID != studentID {
		return nil, ErrForbidden
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionNotActive
	}

	exam, err := s.catalog.ExamByID(ctx, sess.ExamID)
	if err != nil {
		return nil, err
	}

	// Closed upper bound: a write at exactly the deadline is accepted,
	// strictly after it is not.
	now := s.clock.Now()
	if now.After(Deadline(exam, sess.StartedAt)) {
		return nil, ErrSessionNotActive
	}

	eq := examQuestion(exam, req.ExamQuestionID)
	if eq == nil {
		return nil, fmt.Errorf("%w: question is not part of this exam", ErrNotFound)
	}

	if err := validateSelection(eq, req); err != nil {
		return nil, err
	}

	// Weight is derived from the answer rows pre-created at start, so the
	// session's question set is frozen even if the exam is edited mid-flight.
	questionCount, err := s.store.CountAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("count answers: %w", err)
	}

	ans, err := s.store.AnswerByQuestion(ctx, sessionID, req.ExamQuestionID)
	if err != nil {
		return nil, err
	}

	action := model.LogAnswerSubmitted
	if ans.Answered() {
		action = model.LogAnswerUpdated
	}

	if eq.Question.Type.Choice() {
		ans.SelectedOptionID = req.SelectedAnswerID
		ans.AnswerText = nil
	} else {
		text := req.AnswerText
		ans.SelectedOptionID = nil
		ans.AnswerText = &text
	}
	ans.IsCorrect, ans.Score = ScoreAnswer(eq, ans.SelectedOptionID, exam.TotalPoints, questionCount)
	ans.AnsweredAt = &now

	entry := &model.ExamLog{
		SessionID: sessionID,
		StudentID: studentID,
		Action:    action,
		Detail:    "Answered question " + eq.Label(),
		CreatedAt: now,
	}
	if err := s.store.SaveAnswer(ctx, ans, entry); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	s.publish(ctx, EventAnswerSaved, sess)

	return ans, nil
}

// Finalize submits the session: claims in_progress → completed, aggregates
// the answer set, creates the graded result and the submit log entry in one
// transaction. A second finalize, or one past the deadline, fails with
// ErrSessionNotActive.
func (s *SessionService) Finalize(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.ExamResult, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.StudentID != studentID {
		return nil, ErrForbidden
	}
	if sess.Status.Terminal() {
		return nil, ErrSessionNotActive
	}

	exam, err := s.catalog.ExamByID(ctx, sess.ExamID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if now.After(Deadline(exam, sess.StartedAt)) {
		return nil, ErrSessionNotActive
	}

	result, err := s.store.FinalizeSession(ctx, sessionID, now, exam.TotalPoints)
	if err != nil {
		return nil, err
	}

	if derr := s.rdb.Del(ctx, config.CacheKey.SessionDeadlineKey(sessionID)).Err(); derr != nil {
		s.log.Warn().Err(derr).Str("session_id", sessionID.String()).Msg("Failed to drop deadline cache")
	}
	s.publish(ctx, EventExamSubmitted, sess)

	return result, nil
}

// ActiveSession returns the student's current in_progress session with its
// countdown, or ErrNotFound when there is none.
func (s *SessionService) ActiveSession(ctx context.Context, studentID int) (*ActiveSessionView, error) {
	sess, err := s.store.ActiveSessionByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	deadline, err := s.deadline(ctx, sess)
	if err != nil {
		return nil, err
	}

	remaining := deadline.Sub(s.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return &ActiveSessionView{Session: sess, TimeRemaining: int64(remaining.Seconds())}, nil
}

// SessionDetail returns the session and its answer sheet. Readable by the
// owning student, the class teacher and admins.
func (s *SessionService) SessionDetail(ctx context.Context, sessionID uuid.UUID, actor Actor) (*SessionDetailView, error) {
	sess, exam, err := s.authorizeRead(ctx, sessionID, actor)
	if err != nil {
		return nil, err
	}

	answers, err := s.store.AnswersBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	return &SessionDetailView{
		Session:       sess,
		Answers:       answers,
		TimeRemaining: TimeRemaining(sess, exam, s.clock.Now()),
	}, nil
}

// Result returns the graded result of a completed session, subject to the
// same read authorization as SessionDetail.
func (s *SessionService) Result(ctx context.Context, sessionID uuid.UUID, actor Actor) (*model.ExamResult, error) {
	if _, _, err := s.authorizeRead(ctx, sessionID, actor); err != nil {
		return nil, err
	}
	return s.store.ResultBySession(ctx, sessionID)
}

// Logs returns the append-only audit trail of a session.
func (s *SessionService) Logs(ctx context.Context, sessionID uuid.UUID, actor Actor) ([]model.ExamLog, error) {
	if _, _, err := s.authorizeRead(ctx, sessionID, actor); err != nil {
		return nil, err
	}
	return s.store.LogsBySession(ctx, sessionID)
}

// SessionsByStudent lists all of a student's sessions, newest first.
func (s *SessionService) SessionsByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error) {
	return s.store.SessionsByStudent(ctx, studentID)
}

// AppendPageEvent records a page-visibility change (leave/return). Once a
// session is terminal the append is best-effort: a storage failure is
// logged and swallowed rather than failing the caller.
func (s *SessionService) AppendPageEvent(ctx context.Context, sessionID uuid.UUID, studentID int, action string) error {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.StudentID != studentID {
		return ErrForbidden
	}

	detail := "Student left the exam page"
	eventType := EventPageLeave
	if action == model.LogPageReturn {
		detail = "Student returned to the exam page"
		eventType = EventPageReturn
	}

	entry := &model.ExamLog{
		SessionID: sessionID,
		StudentID: studentID,
		Action:    action,
		Detail:    detail,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.AppendLog(ctx, entry); err != nil {
		if sess.Status.Terminal() {
			s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Dropped page event for finalized session")
			return nil
		}
		return fmt.Errorf("append log: %w", err)
	}

	s.publish(ctx, eventType, sess)

	return nil
}

// authorizeRead loads the session and its exam, then checks the actor may
// read it: the owning student, the teacher of the exam's class, or an admin.
func (s *SessionService) authorizeRead(ctx context.Context, sessionID uuid.UUID, actor Actor) (*model.ExamSession, *model.Exam, error) {
	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	exam, err := s.catalog.ExamByID(ctx, sess.ExamID)
	if err != nil {
		return nil, nil, err
	}

	switch actor.Role {
	case model.RoleAdmin:
		return sess, exam, nil
	case model.RoleTeacher:
		owns, err := s.enroll.IsClassTeacher(ctx, exam.ClassID, actor.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("check class teacher: %w", err)
		}
		if !owns {
			return nil, nil, ErrForbidden
		}
		return sess, exam, nil
	default:
		if sess.StudentID != actor.ID {
			return nil, nil, ErrForbidden
		}
		return sess, exam, nil
	}
}

// deadline resolves a session's deadline, preferring the redis cache and
// falling back to the catalog with a self-healing re-cache on miss.
func (s *SessionService) deadline(ctx context.Context, sess *model.ExamSession) (time.Time, error) {
	key := config.CacheKey.SessionDeadlineKey(sess.ID)

	val, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		if unix, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			return time.Unix(unix, 0), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Deadline cache read failed, falling back to catalog")
	}

	exam, err := s.catalog.ExamByID(ctx, sess.ExamID)
	if err != nil {
		return time.Time{}, err
	}

	dl := Deadline(exam, sess.StartedAt)
	s.cacheDeadline(ctx, sess.ID, dl)
	return dl, nil
}

func (s *SessionService) cacheDeadline(ctx context.Context, sessionID uuid.UUID, deadline time.Time) {
	ttl := deadline.Sub(s.clock.Now()) + time.Hour
	if ttl <= 0 {
		return
	}
	key := config.CacheKey.SessionDeadlineKey(sessionID)
	if err := s.rdb.Set(ctx, key, deadline.Unix(), ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to cache deadline")
	}
}

// sessionCode builds the unique human-readable session code:
// EXAM_<yyyymmdd>_<8 random hex chars>. Not security-sensitive — it only
// needs to avoid collision, which the store's uniqueness check backs.
func sessionCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("EXAM_%s_%s", now.Format("20060102"), suffix)
}

func examQuestion(exam *model.Exam, id uuid.UUID) *model.ExamQuestion {
	for i := range exam.Questions {
		if exam.Questions[i].ID == id {
			return &exam.Questions[i]
		}
	}
	return nil
}

// validateSelection checks the payload against the question type: choice
// questions need a selected option belonging to the question, free-text
// questions need non-empty text.
func validateSelection(eq *model.ExamQuestion, req model.SubmitAnswerRequest) error {
	if eq.Question.Type.Choice() {
		if req.SelectedAnswerID == nil {
			return fmt.Errorf("%w: selected_answer_id is required for choice questions", ErrValidation)
		}
		if eq.Question.Option(*req.SelectedAnswerID) == nil {
			return fmt.Errorf("%w: selected option does not belong to the question", ErrValidation)
		}
		return nil
	}
	if strings.TrimSpace(req.AnswerText) == "" {
		return fmt.Errorf("%w: answer_text is required for free-text questions", ErrValidation)
	}
	return nil
}
