package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/model"
)

// Monitor event types published to the per-exam redis channel.
const (
	EventSessionStarted = "session_started"
	EventAnswerSaved    = "answer_saved"
	EventExamSubmitted  = "exam_submitted"
	EventPageLeave      = "page_leave"
	EventPageReturn     = "page_return"
)

// MonitorEvent is the live-monitor payload streamed to teacher dashboards.
type MonitorEvent struct {
	Type        string    `json:"type"`
	SessionID   uuid.UUID `json:"session_id"`
	SessionCode string    `json:"session_code"`
	ExamID      uuid.UUID `json:"exam_id"`
	StudentID   int       `json:"student_id"`
	At          time.Time `json:"at"`
}

// publish sends a monitor event for the session's exam. Best-effort: the
// monitor is an observer, never a dependency of the lifecycle.
func (s *SessionService) publish(ctx context.Context, eventType string, sess *model.ExamSession) {
	payload, err := json.Marshal(MonitorEvent{
		Type:        eventType,
		SessionID:   sess.ID,
		SessionCode: sess.Code,
		ExamID:      sess.ExamID,
		StudentID:   sess.StudentID,
		At:          s.clock.Now(),
	})
	if err != nil {
		return
	}

	channel := config.CacheKey.ExamMonitorChannel(sess.ExamID)
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("Monitor publish failed")
	}
}
