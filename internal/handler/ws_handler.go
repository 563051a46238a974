package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/service"
	ws "github.com/examhall/examhall-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live session events to proctoring teachers.
type WSHandler struct {
	rdb      *redis.Client
	catalog  service.ExamCatalog
	enroll   service.EnrollmentCheck
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, catalog service.ExamCatalog, enroll service.EnrollmentCheck, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		catalog:  catalog,
		enroll:   enroll,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ExamMonitor godoc
// WS /ws/v1/teacher/exams/:exam_id/monitor?token=...
// Upgrades to WebSocket and forwards the exam's live session events
// (starts, answers, submits, page events) to the teacher.
func (h *WSHandler) ExamMonitor(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	exam, err := h.catalog.ExamByID(c.Request.Context(), examID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
		return
	}

	if claims.Role == model.RoleTeacher {
		owns, err := h.enroll.IsClassTeacher(c.Request.Context(), exam.ClassID, claims.UserID)
		if err != nil || !owns {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the class teacher"})
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("teacher_id", claims.UserID).
		Str("exam_id", examID.String()).
		Logger()
	wsLog.Info().Msg("Monitor connected")

	ctx := c.Request.Context()
	sub := h.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID))
	defer sub.Close()

	// Reader loop: detects client close and hands pings to the main loop.
	// All writes happen from the main loop — the connection allows at
	// most one concurrent writer.
	done := make(chan struct{})
	pings := make(chan struct{}, 1)
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Monitor disconnected")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				select {
				case pings <- struct{}{}:
				default: // a pong is already pending, coalesce
				}
			}
		}
	}()

	events := sub.Channel()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				wsLog.Debug().Err(err).Msg("Pong write failed")
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}
			frame := ws.MonitorFrame{Event: ws.EventMonitor, Payload: []byte(msg.Payload)}
			if err := ws.WriteTyped(conn, frame); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		}
	}
}
