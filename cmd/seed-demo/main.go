package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/database"
	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/model"
)

// Seeds a demo class with a teacher, five students and one published
// 2-question multiple-choice exam worth 100 points. Safe to rerun: every
// insert is ON CONFLICT DO NOTHING keyed on natural identifiers.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding Demo Data ===")

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	teacherID := seedAccount(ctx, pool, log, "teacher@examhall.dev", "Dana Wells", model.RoleTeacher, string(hash))

	var classID int
	err = pool.QueryRow(ctx,
		`INSERT INTO classes (name, teacher_id)
		 VALUES ('Demo Class', $1)
		 ON CONFLICT (name) DO UPDATE SET teacher_id = EXCLUDED.teacher_id
		 RETURNING id`, teacherID).Scan(&classID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed class")
	}
	fmt.Printf("Class %d ready\n", classID)

	students := []struct{ email, name string }{
		{"alice@examhall.dev", "Alice Morgan"},
		{"ben@examhall.dev", "Ben Carter"},
		{"carol@examhall.dev", "Carol Diaz"},
		{"drew@examhall.dev", "Drew Ellis"},
		{"erin@examhall.dev", "Erin Foster"},
	}
	for _, s := range students {
		id := seedAccount(ctx, pool, log, s.email, s.name, model.RoleStudent, string(hash))
		_, err = pool.Exec(ctx,
			`INSERT INTO class_students (class_id, student_id)
			 VALUES ($1, $2) ON CONFLICT DO NOTHING`, classID, id)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to enroll student")
		}
	}
	fmt.Printf("Enrolled %d students\n", len(students))

	examID := uuid.New()
	now := time.Now()
	var inserted uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO exams (id, class_id, title, description, total_points,
		                    duration_minutes, start_time, end_time, created_by)
		 VALUES ($1, $2, 'Demo Exam', 'Two questions, 100 points', 100, 30, $3, $4, $5)
		 ON CONFLICT (class_id, title) DO UPDATE SET end_time = EXCLUDED.end_time
		 RETURNING id`,
		examID, classID, now, now.Add(7*24*time.Hour), teacherID).Scan(&inserted)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed exam")
	}
	examID = inserted

	questions := []struct {
		text    string
		options []struct {
			text    string
			correct bool
		}
	}{
		{
			text: "Which layer of the TCP/IP model does HTTP belong to?",
			options: []struct {
				text    string
				correct bool
			}{
				{"Application", true}, {"Transport", false}, {"Internet", false}, {"Link", false},
			},
		},
		{
			text: "What does ACID's A stand for?",
			options: []struct {
				text    string
				correct bool
			}{
				{"Availability", false}, {"Atomicity", true}, {"Affinity", false}, {"Assembly", false},
			},
		},
	}

	for i, q := range questions {
		questionID := uuid.New()
		_, err = pool.Exec(ctx,
			`INSERT INTO questions (id, question_text, type)
			 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			questionID, q.text, model.QuestionTypeMultipleChoice)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed question")
		}

		_, err = pool.Exec(ctx,
			`INSERT INTO exam_questions (id, exam_id, question_id, order_num)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (exam_id, order_num) DO NOTHING`,
			uuid.New(), examID, questionID, i+1)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to link question")
		}

		for pos, opt := range q.options {
			_, err = pool.Exec(ctx,
				`INSERT INTO question_options (id, question_id, text, is_correct, position)
				 VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
				uuid.New(), questionID, opt.text, opt.correct, pos+1)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to seed option")
			}
		}
	}

	fmt.Printf("Exam %s ready (valid for 7 days)\n", examID)
	fmt.Println("Login password for all demo accounts: password123")
}

func seedAccount(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, email, name string, role model.Role, hash string) int {
	var id int
	err := pool.QueryRow(ctx,
		`INSERT INTO accounts (email, full_name, role, password_hash)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
		 RETURNING id`, email, name, role, hash).Scan(&id)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Failed to seed account")
	}
	return id
}
