package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository is the pgx-backed service.EnrollmentCheck.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// IsEnrolled reports whether the student belongs to the class.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, classID, studentID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2
		 )`, classID, studentID).Scan(&exists)
	return exists, err
}

// IsClassTeacher reports whether the teacher is assigned to the class.
func (r *EnrollmentRepository) IsClassTeacher(ctx context.Context, classID, teacherID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM classes WHERE id = $1 AND teacher_id = $2
		 )`, classID, teacherID).Scan(&exists)
	return exists, err
}
