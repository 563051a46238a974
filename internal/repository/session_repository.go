package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/service"
)

const pgUniqueViolation = "23505"

// SessionRepository is the pgx-backed service.SessionStore. All multi-row
// writes run in a single transaction.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, exam_id, student_id, code, status, start_time, end_time, submitted_at, total_score`

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Code, &s.Status,
		&s.StartedAt, &s.EndedAt, &s.SubmittedAt, &s.TotalScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// CreateSession inserts the session, one blank answer row per exam question
// and the start log entry atomically. The (exam_id, student_id) and code
// unique constraints are the storage-level backstop for the at-most-one
// invariant; their violations map to the service sentinels.
func (r *SessionRepository) CreateSession(ctx context.Context, sess *model.ExamSession, questionIDs []uuid.UUID, entry *model.ExamLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO exam_sessions (id, exam_id, student_id, code, status, start_time)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sess.ID, sess.ExamID, sess.StudentID, sess.Code, sess.Status, sess.StartedAt)
	if err != nil {
		return mapSessionInsertErr(err)
	}

	if len(questionIDs) > 0 {
		rows := make([][]any, len(questionIDs))
		for i, qid := range questionIDs {
			rows[i] = []any{uuid.New(), sess.ID, qid}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"student_answers"},
			[]string{"id", "session_id", "exam_question_id"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("insert blank answers: %w", err)
		}
	}

	if err := insertLog(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func mapSessionInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == "exam_sessions_code_key" {
			return service.ErrDuplicateCode
		}
		return service.ErrSessionAlreadyActive
	}
	return fmt.Errorf("insert session: %w", err)
}

// SessionByID retrieves a session by its primary key.
func (r *SessionRepository) SessionByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// SessionByExamAndStudent retrieves the session for an (exam, student) pair.
// At most one exists, by constraint.
func (r *SessionRepository) SessionByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID))
}

// ActiveSessionByStudent retrieves the student's in_progress session, if any.
func (r *SessionRepository) ActiveSessionByStudent(ctx context.Context, studentID int) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE student_id = $1 AND status = $2
		 ORDER BY start_time DESC
		 LIMIT 1`, studentID, model.SessionStatusInProgress))
}

// SessionsByStudent lists all sessions of a student, newest first.
func (r *SessionRepository) SessionsByStudent(ctx context.Context, studentID int) ([]model.ExamSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE student_id = $1
		 ORDER BY start_time DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	for rows.Next() {
		var s model.ExamSession
		if err := rows.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.Code, &s.Status,
			&s.StartedAt, &s.EndedAt, &s.SubmittedAt, &s.TotalScore); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

const answerColumns = `id, session_id, exam_question_id, selected_option_id, answer_text, score, is_correct, answered_at`

// AnswerByQuestion retrieves the answer row for one question of a session.
// The row always exists once the session was started.
func (r *SessionRepository) AnswerByQuestion(ctx context.Context, sessionID, examQuestionID uuid.UUID) (*model.StudentAnswer, error) {
	a := &model.StudentAnswer{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+answerColumns+` FROM student_answers
		 WHERE session_id = $1 AND exam_question_id = $2`, sessionID, examQuestionID,
	).Scan(&a.ID, &a.SessionID, &a.ExamQuestionID, &a.SelectedOptionID,
		&a.AnswerText, &a.Score, &a.IsCorrect, &a.AnsweredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// AnswersBySession lists a session's answer sheet in question order.
func (r *SessionRepository) AnswersBySession(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.session_id, a.exam_question_id, a.selected_option_id,
		        a.answer_text, a.score, a.is_correct, a.answered_at
		 FROM student_answers a
		 JOIN exam_questions eq ON eq.id = a.exam_question_id
		 WHERE a.session_id = $1
		 ORDER BY eq.order_num ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.StudentAnswer
	for rows.Next() {
		var a model.StudentAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ExamQuestionID, &a.SelectedOptionID,
			&a.AnswerText, &a.Score, &a.IsCorrect, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CountAnswers returns the size of the session's frozen question set.
func (r *SessionRepository) CountAnswers(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM student_answers WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

// SaveAnswer overwrites the answer row and appends the log entry in one
// transaction. The update is fenced on the session still being in_progress,
// so a write racing a finalize loses cleanly.
func (r *SessionRepository) SaveAnswer(ctx context.Context, ans *model.StudentAnswer, entry *model.ExamLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE student_answers a
		 SET selected_option_id = $3, answer_text = $4, score = $5,
		     is_correct = $6, answered_at = $7
		 FROM exam_sessions s
		 WHERE a.session_id = s.id
		   AND a.session_id = $1 AND a.exam_question_id = $2
		   AND s.status = $8`,
		ans.SessionID, ans.ExamQuestionID, ans.SelectedOptionID, ans.AnswerText,
		ans.Score, ans.IsCorrect, ans.AnsweredAt, model.SessionStatusInProgress)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrSessionNotActive
	}

	if err := insertLog(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FinalizeSession performs the submit transaction: claim the in_progress
// session, aggregate its answers, persist the totals and the graded result,
// and append the submit log entry. Either everything commits or nothing;
// a completed session without a result row is never observable.
func (r *SessionRepository) FinalizeSession(ctx context.Context, sessionID uuid.UUID, at time.Time, totalPoints float64) (*model.ExamResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Claiming the status first is what serializes concurrent finalizes:
	// the second caller finds zero rows and fails without touching scores.
	var examID uuid.UUID
	var studentID int
	err = tx.QueryRow(ctx,
		`UPDATE exam_sessions
		 SET status = $2, end_time = $3, submitted_at = $3
		 WHERE id = $1 AND status = $4
		 RETURNING exam_id, student_id`,
		sessionID, model.SessionStatusCompleted, at, model.SessionStatusInProgress,
	).Scan(&examID, &studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrSessionNotActive
		}
		return nil, fmt.Errorf("claim session: %w", err)
	}

	var totalScore float64
	var correct, total int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(score), 0),
		        COUNT(*) FILTER (WHERE is_correct),
		        COUNT(*)
		 FROM student_answers WHERE session_id = $1`, sessionID,
	).Scan(&totalScore, &correct, &total)
	if err != nil {
		return nil, fmt.Errorf("aggregate answers: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE exam_sessions SET total_score = $2 WHERE id = $1`,
		sessionID, totalScore); err != nil {
		return nil, fmt.Errorf("store total: %w", err)
	}

	var percentage float64
	if totalPoints > 0 {
		percentage = totalScore / totalPoints * 100
	}

	result := &model.ExamResult{
		ID:           uuid.New(),
		SessionID:    sessionID,
		StudentID:    studentID,
		ExamID:       examID,
		TotalScore:   totalScore,
		CorrectCount: correct,
		WrongCount:   total - correct,
		Percentage:   model.Percentage(percentage),
		SubmittedAt:  at,
		Status:       model.ResultStatusGraded,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO exam_results
		   (id, session_id, student_id, exam_id, total_score, correct_count,
		    wrong_count, percentage, submitted_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		result.ID, result.SessionID, result.StudentID, result.ExamID,
		result.TotalScore, result.CorrectCount, result.WrongCount,
		float64(result.Percentage), result.SubmittedAt, result.Status)
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}

	err = insertLog(ctx, tx, &model.ExamLog{
		SessionID: sessionID,
		StudentID: studentID,
		Action:    model.LogExamSubmitted,
		Detail:    "Student submitted the exam",
		CreatedAt: at,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// ResultBySession retrieves the graded result for a session.
func (r *SessionRepository) ResultBySession(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, student_id, exam_id, total_score, correct_count,
		        wrong_count, percentage, submitted_at, status, feedback
		 FROM exam_results WHERE session_id = $1`, sessionID,
	).Scan(&res.ID, &res.SessionID, &res.StudentID, &res.ExamID, &res.TotalScore,
		&res.CorrectCount, &res.WrongCount, &res.Percentage, &res.SubmittedAt,
		&res.Status, &res.Feedback)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// LogsBySession lists a session's audit trail, oldest first.
func (r *SessionRepository) LogsBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, student_id, action, detail, created_at
		 FROM exam_logs
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.ExamLog
	for rows.Next() {
		var l model.ExamLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.StudentID, &l.Action, &l.Detail, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// AppendLog appends a single audit entry outside any larger transaction.
func (r *SessionRepository) AppendLog(ctx context.Context, entry *model.ExamLog) error {
	return insertLog(ctx, r.pool, entry)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertLog(ctx context.Context, db execer, entry *model.ExamLog) error {
	_, err := db.Exec(ctx,
		`INSERT INTO exam_logs (session_id, student_id, action, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.SessionID, entry.StudentID, entry.Action, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// SessionsByExam lists sessions for an exam with pagination and an optional
// status filter, for the teacher report.
func (r *SessionRepository) SessionsByExam(ctx context.Context, examID uuid.UUID, status *model.SessionStatus, page, perPage int) ([]model.ExamSession, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	where := `WHERE exam_id = $1`
	args := []any{examID}
	if status != nil {
		args = append(args, *status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_sessions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions `+where+
			fmt.Sprintf(` ORDER BY start_time DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sessions, err := collectSessions(rows)
	return sessions, total, err
}

// ExamStatistics aggregates session counts and the completed average score
// for one exam.
func (r *SessionRepository) ExamStatistics(ctx context.Context, examID uuid.UUID) (*service.ExamStatistics, error) {
	stats := &service.ExamStatistics{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'completed'),
		        COUNT(*) FILTER (WHERE status = 'in_progress'),
		        COUNT(*) FILTER (WHERE status = 'abandoned'),
		        COUNT(*) FILTER (WHERE status = 'timeout'),
		        COALESCE(AVG(total_score) FILTER (WHERE status = 'completed'), 0)
		 FROM exam_sessions WHERE exam_id = $1`, examID,
	).Scan(&stats.TotalSessions, &stats.Completed, &stats.InProgress,
		&stats.Abandoned, &stats.Timeout, &stats.AverageScore)
	if err != nil {
		return nil, err
	}

	if stats.TotalSessions > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.TotalSessions) * 100
	}
	return stats, nil
}
