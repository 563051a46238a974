package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
)

// TeacherHandler handles the teacher reporting endpoints.
type TeacherHandler struct {
	teacherService *service.TeacherService
}

// NewTeacherHandler creates a new TeacherHandler.
func NewTeacherHandler(teacherService *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teacherService: teacherService}
}

// ExamSessions godoc
// GET /api/v1/teacher/exams/:exam_id/sessions?status=&page=&per_page=
// Lists an exam's sessions with aggregate statistics.
func (h *TeacherHandler) ExamSessions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var status *model.SessionStatus
	if raw := c.Query("status"); raw != "" {
		s := model.SessionStatus(raw)
		switch s {
		case model.SessionStatusInProgress, model.SessionStatusCompleted,
			model.SessionStatusAbandoned, model.SessionStatusTimeout:
			status = &s
		default:
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	actor := service.Actor{ID: claims.UserID, Role: claims.Role}
	view, err := h.teacherService.ExamSessions(c.Request.Context(), examID, actor, status, page, perPage)
	if err != nil {
		failFromErr(c, err)
		return
	}

	if view.Sessions == nil {
		view.Sessions = []model.ExamSession{}
	}

	totalPages := 0
	if perPage > 0 {
		totalPages = int((view.Total + int64(perPage) - 1) / int64(perPage))
	}
	response.SuccessWithPagination(c, http.StatusOK, view, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(view.Total),
		TotalPages: totalPages,
	})
}
