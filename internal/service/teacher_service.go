package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/examhall/examhall-backend/internal/model"
)

// ExamStatistics summarizes all sessions of one exam for the teacher view.
type ExamStatistics struct {
	TotalSessions  int     `json:"total_sessions"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"in_progress"`
	Abandoned      int     `json:"abandoned"`
	Timeout        int     `json:"timeout"`
	AverageScore   float64 `json:"average_score"`
	CompletionRate float64 `json:"completion_rate"`
}

// SessionReporter is the read-side contract for teacher reporting queries.
type SessionReporter interface {
	SessionsByExam(ctx context.Context, examID uuid.UUID, status *model.SessionStatus, page, perPage int) ([]model.ExamSession, int64, error)
	ExamStatistics(ctx context.Context, examID uuid.UUID) (*ExamStatistics, error)
}

// TeacherService serves teacher-facing session reports.
type TeacherService struct {
	reporter SessionReporter
	catalog  ExamCatalog
	enroll   EnrollmentCheck
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(reporter SessionReporter, catalog ExamCatalog, enroll EnrollmentCheck) *TeacherService {
	return &TeacherService{reporter: reporter, catalog: catalog, enroll: enroll}
}

// ExamSessionsView is the paginated session list with statistics for an exam.
type ExamSessionsView struct {
	Exam       *model.Exam         `json:"exam"`
	Sessions   []model.ExamSession `json:"sessions"`
	Statistics *ExamStatistics     `json:"statistics"`
	Total      int64               `json:"-"`
}

// ExamSessions lists sessions for an exam with aggregate statistics.
// Teachers may only view exams of classes they own; admins see all.
func (s *TeacherService) ExamSessions(ctx context.Context, examID uuid.UUID, actor Actor, status *model.SessionStatus, page, perPage int) (*ExamSessionsView, error) {
	exam, err := s.catalog.ExamByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	if actor.Role == model.RoleTeacher {
		owns, err := s.enroll.IsClassTeacher(ctx, exam.ClassID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("check class teacher: %w", err)
		}
		if !owns {
			return nil, ErrForbidden
		}
	} else if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	sessions, total, err := s.reporter.SessionsByExam(ctx, examID, status, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	stats, err := s.reporter.ExamStatistics(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("exam statistics: %w", err)
	}

	// Strip the question list (and its correct answers) from the report.
	examView := *exam
	examView.Questions = nil

	return &ExamSessionsView{
		Exam:       &examView,
		Sessions:   sessions,
		Statistics: stats,
		Total:      total,
	}, nil
}
