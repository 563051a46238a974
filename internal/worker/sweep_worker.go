package worker

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/examhall/examhall-backend/internal/model"
)

// SweepWorker periodically flips stale in_progress sessions whose deadline
// has passed to timeout. The deadline checks in the session engine already
// reject late mutations on their own; the sweep only settles the stored
// status so reports and the monitor stop showing dead sessions as live.
type SweepWorker struct {
	pool     *pgxpool.Pool
	interval time.Duration
	log      zerolog.Logger
}

// NewSweepWorker creates a new SweepWorker.
func NewSweepWorker(pool *pgxpool.Pool, interval time.Duration, log zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepWorker{
		pool:     pool,
		interval: interval,
		log:      log.With().Str("component", "sweep_worker").Logger(),
	}
}

// Start begins the periodic sweep loop. Call in a goroutine.
func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("Sweep error")
			}
		}
	}
}

// sweep claims and times out expired sessions in one statement, then appends
// their timeout log entries. The status claim in the UPDATE's WHERE keeps it
// safe against a finalize racing the sweep: whichever commits first wins and
// the other sees zero rows.
func (w *SweepWorker) sweep(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	rows, err := tx.Query(ctx,
		`UPDATE exam_sessions s
		 SET status = $1, end_time = $2
		 FROM exams e
		 WHERE e.id = s.exam_id
		   AND s.status = $3
		   AND LEAST(e.end_time, s.start_time + e.duration_minutes * interval '1 minute') < $2
		 RETURNING s.id, s.student_id`,
		model.SessionStatusTimeout, now, model.SessionStatusInProgress)
	if err != nil {
		return err
	}

	type swept struct {
		sessionID string
		studentID int
	}
	var claimed []swept
	for rows.Next() {
		var s swept
		if err := rows.Scan(&s.sessionID, &s.studentID); err != nil {
			rows.Close()
			return err
		}
		claimed = append(claimed, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(claimed) == 0 {
		return tx.Commit(ctx)
	}

	for _, s := range claimed {
		_, err := tx.Exec(ctx,
			`INSERT INTO exam_logs (session_id, student_id, action, detail, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			s.sessionID, s.studentID, model.LogSessionTimeout, "Session expired past its deadline", now)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	w.log.Info().Int("sessions", len(claimed)).Msg("Timed out stale sessions")
	return nil
}
