package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/examhall/examhall-backend/internal/model"
)

// SessionStore is the persistence contract for sessions, answers, results
// and logs. Every multi-row write is transactional: either all row changes
// are durably visible, or none.
type SessionStore interface {
	// CreateSession inserts the session, one blank answer per exam question
	// and the start log entry in a single transaction. Returns
	// ErrSessionAlreadyActive when a session for the (exam, student) pair
	// exists, ErrDuplicateCode when the session code is taken.
	CreateSession(ctx context.Context, sess *model.ExamSession, questionIDs []uuid.UUID, entry *model.ExamLog) error

	SessionByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	SessionByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error)
	ActiveSessionByStudent(ctx context.Context, studentID int) (*model.ExamSession, error)
	SessionsByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error)

	AnswerByQuestion(ctx context.Context, sessionID, examQuestionID uuid.UUID) (*model.StudentAnswer, error)
	AnswersBySession(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error)
	CountAnswers(ctx context.Context, sessionID uuid.UUID) (int, error)

	// SaveAnswer overwrites the pre-created answer row and appends the log
	// entry atomically. The row always exists; this is never an insert.
	SaveAnswer(ctx context.Context, ans *model.StudentAnswer, entry *model.ExamLog) error

	// FinalizeSession claims the session (in_progress → completed) as its
	// first atomic step, aggregates the answer set, writes the result row
	// and the submit log entry, all in one transaction. Returns
	// ErrSessionNotActive when the claim fails (already terminal).
	FinalizeSession(ctx context.Context, sessionID uuid.UUID, at time.Time, totalPoints float64) (*model.ExamResult, error)

	ResultBySession(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error)
	LogsBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamLog, error)
	AppendLog(ctx context.Context, entry *model.ExamLog) error
}

// ExamCatalog is the read-only lookup of exam definitions, owned by the
// exam-management subsystem. ErrNotFound when the exam does not exist.
type ExamCatalog interface {
	ExamByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// EnrollmentCheck is the read-only class-membership collaborator.
type EnrollmentCheck interface {
	IsEnrolled(ctx context.Context, classID, studentID int) (bool, error)
	IsClassTeacher(ctx context.Context, classID, teacherID int) (bool, error)
}
