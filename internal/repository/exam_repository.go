package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/service"
)

// ExamRepository is the pgx-backed service.ExamCatalog.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// ExamByID loads an exam with its question list and options, in order.
func (r *ExamRepository) ExamByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, class_id, title, COALESCE(description, ''), total_points,
		        duration_minutes, start_time, end_time, created_by, created_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&exam.ID, &exam.ClassID, &exam.Title, &exam.Description,
		&exam.TotalPoints, &exam.DurationMinutes, &exam.StartTime, &exam.EndTime,
		&exam.CreatedBy, &exam.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("select exam: %w", err)
	}

	questions, err := r.questionsByExam(ctx, id)
	if err != nil {
		return nil, err
	}
	exam.Questions = questions
	return exam, nil
}

func (r *ExamRepository) questionsByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT eq.id, eq.exam_id, eq.order_num, COALESCE(eq.code, ''),
		        q.id, q.question_text, q.type, COALESCE(q.image_url, '')
		 FROM exam_questions eq
		 JOIN questions q ON q.id = eq.question_id
		 WHERE eq.exam_id = $1
		 ORDER BY eq.order_num ASC`, examID)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()

	var questions []model.ExamQuestion
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var eq model.ExamQuestion
		if err := rows.Scan(&eq.ID, &eq.ExamID, &eq.OrderNum, &eq.Code,
			&eq.Question.ID, &eq.Question.Text, &eq.Question.Type, &eq.Question.ImageURL); err != nil {
			return nil, err
		}
		index[eq.Question.ID] = len(questions)
		questions = append(questions, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	questionIDs := make([]uuid.UUID, 0, len(index))
	for qid := range index {
		questionIDs = append(questionIDs, qid)
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT question_id, id, text, is_correct
		 FROM question_options
		 WHERE question_id = ANY($1)
		 ORDER BY position ASC`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("select options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var qid uuid.UUID
		var opt model.QuestionOption
		if err := optRows.Scan(&qid, &opt.ID, &opt.Text, &opt.IsCorrect); err != nil {
			return nil, err
		}
		if i, ok := index[qid]; ok {
			questions[i].Question.Options = append(questions[i].Question.Options, opt)
		}
	}
	return questions, optRows.Err()
}
