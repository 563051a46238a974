package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/examhall/examhall-backend/internal/validator"
)

// SessionHandler handles the exam session lifecycle endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Start godoc
// POST /api/v1/sessions
// Opens an exam session for the authenticated student.
func (h *SessionHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess, err := h.sessionService.Start(c.Request.Context(), req.ExamID, claims.UserID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": sess})
}

// Active godoc
// GET /api/v1/sessions/active
// Returns the student's in-progress session with its remaining seconds.
// Used on page reload to restore the countdown.
func (h *SessionHandler) Active(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.sessionService.ActiveSession(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// SubmitAnswer godoc
// POST /api/v1/sessions/:session_id/answers
// Records (or overwrites) the answer to one question. Idempotent.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ans, err := h.sessionService.RecordAnswer(c.Request.Context(), sessionID, claims.UserID, req)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": ans})
}

// Submit godoc
// POST /api/v1/sessions/:session_id/submit
// Finalizes the session and returns the graded result.
func (h *SessionHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Finalize(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// PageEvent godoc
// POST /api/v1/sessions/:session_id/events
// Records a page_leave/page_return proctoring event.
func (h *SessionHandler) PageEvent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.PageEventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.AppendPageEvent(c.Request.Context(), sessionID, claims.UserID, req.Action); err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"recorded": true})
}

// Detail godoc
// GET /api/v1/sessions/:session_id
// Returns the session with its answer sheet. Owner, class teacher or admin.
func (h *SessionHandler) Detail(c *gin.Context) {
	actor, sessionID, ok := h.actorAndSession(c)
	if !ok {
		return
	}

	view, err := h.sessionService.SessionDetail(c.Request.Context(), sessionID, actor)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Result godoc
// GET /api/v1/sessions/:session_id/result
// Returns the graded result. Owner, class teacher or admin.
func (h *SessionHandler) Result(c *gin.Context) {
	actor, sessionID, ok := h.actorAndSession(c)
	if !ok {
		return
	}

	result, err := h.sessionService.Result(c.Request.Context(), sessionID, actor)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Logs godoc
// GET /api/v1/sessions/:session_id/logs
// Returns the session's audit trail. Owner, class teacher or admin.
func (h *SessionHandler) Logs(c *gin.Context) {
	actor, sessionID, ok := h.actorAndSession(c)
	if !ok {
		return
	}

	logs, err := h.sessionService.Logs(c.Request.Context(), sessionID, actor)
	if err != nil {
		failFromErr(c, err)
		return
	}

	if logs == nil {
		logs = []model.ExamLog{}
	}
	response.Success(c, http.StatusOK, gin.H{"logs": logs})
}

// MySessions godoc
// GET /api/v1/my/sessions
// Lists the authenticated student's sessions, newest first.
func (h *SessionHandler) MySessions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessions, err := h.sessionService.SessionsByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	if sessions == nil {
		sessions = []model.ExamSession{}
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) actorAndSession(c *gin.Context) (service.Actor, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return service.Actor{}, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return service.Actor{}, uuid.Nil, false
	}

	return service.Actor{ID: claims.UserID, Role: claims.Role}, sessionID, true
}
