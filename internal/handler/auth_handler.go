package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/examhall/examhall-backend/internal/validator"
)

// AuthHandler handles login and identity endpoints.
type AuthHandler struct {
	authService *service.AuthService
	accounts    service.AccountDirectory
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, accounts service.AccountDirectory) *AuthHandler {
	return &AuthHandler{authService: authService, accounts: accounts}
}

// Login godoc
// POST /api/v1/auth/login
// Authenticates an account and returns a JWT. Students are limited to one
// live login at a time.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	acc, err := h.accounts.AccountByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.authService.CheckPassword(acc.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateToken(c.Request.Context(), acc)
	if err != nil {
		if errors.Is(err, service.ErrLoginElsewhere) {
			response.Fail(c, http.StatusConflict, response.ErrLoginElsewhere)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  acc,
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	acc, err := h.accounts.AccountByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": acc})
}

// ResetStudentLogin godoc
// POST /api/v1/teacher/students/:student_id/reset-login
// Clears a student's single-device login registration.
func (h *AuthHandler) ResetStudentLogin(c *gin.Context) {
	studentID, ok := intParam(c, "student_id")
	if !ok {
		return
	}

	if err := h.authService.ResetStudentLogin(c.Request.Context(), studentID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reset": true})
}
