package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/handler"
	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Session *handler.SessionHandler
	Teacher *handler.TeacherHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the abuse-prone endpoints (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.GET("/me",
			middleware.RequireRole(authService, model.RoleStudent, model.RoleTeacher, model.RoleAdmin),
			handlers.Auth.Me)
	}

	// Student session lifecycle (JWT + single-device login check).
	student := router.Group("/api/v1")
	student.Use(middleware.RequireStudentJWT(authService))
	{
		student.POST("/sessions", authLimiter.Middleware(), handlers.Session.Start)
		student.GET("/sessions/active", handlers.Session.Active)
		student.POST("/sessions/:session_id/answers", handlers.Session.SubmitAnswer)
		student.POST("/sessions/:session_id/submit", handlers.Session.Submit)
		student.POST("/sessions/:session_id/events", handlers.Session.PageEvent)
		student.GET("/my/sessions", handlers.Session.MySessions)
	}

	// Session reads shared by the owner, the class teacher and admins.
	// The service layer decides per actor.
	shared := router.Group("/api/v1")
	shared.Use(middleware.RequireRole(authService, model.RoleStudent, model.RoleTeacher, model.RoleAdmin))
	{
		shared.GET("/sessions/:session_id", handlers.Session.Detail)
		shared.GET("/sessions/:session_id/result", handlers.Session.Result)
		shared.GET("/sessions/:session_id/logs", handlers.Session.Logs)
	}

	teacher := router.Group("/api/v1/teacher")
	teacher.Use(middleware.RequireRole(authService, model.RoleTeacher, model.RoleAdmin))
	{
		teacher.GET("/exams/:exam_id/sessions", handlers.Teacher.ExamSessions)
		teacher.POST("/students/:student_id/reset-login", handlers.Auth.ResetStudentLogin)
	}

	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTeacherWSAuth(authService))
	{
		ws.GET("/teacher/exams/:exam_id/monitor", handlers.WS.ExamMonitor)
	}

	return router
}
