package api

import (
	"github.com/RishiKendai/assignment-portal/internal/auth"
	"github.com/RishiKendai/assignment-portal/internal/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, handler *Handler, tokens *auth.TokenManager) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes + multipartOverhead

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	// Middleware
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(MetricsMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(RateLimitMiddleware(rateLimiter))
	{
		authGroup.POST("/students/register", handler.RegisterStudent)
		authGroup.POST("/students/login", handler.LoginStudent)
		authGroup.POST("/teachers/register", handler.RegisterTeacher)
		authGroup.POST("/teachers/login", handler.LoginTeacher)
	}

	student := api.Group("/student")
	student.Use(AuthMiddleware(tokens, auth.RoleStudent))
	student.Use(RateLimitMiddleware(rateLimiter))
	{
		student.GET("/dashboard", handler.StudentDashboard)
		student.POST("/assignments/:id/submission", handler.Submit)
		student.DELETE("/assignments/:id/submission", handler.DeleteSubmission)
		student.GET("/assignments/:id/file", handler.StudentAssignmentFile)
		student.GET("/submissions/:id/status", handler.SubmissionStatus)
	}

	teacher := api.Group("/teacher")
	teacher.Use(AuthMiddleware(tokens, auth.RoleTeacher))
	teacher.Use(RateLimitMiddleware(rateLimiter))
	{
		teacher.GET("/dashboard", handler.TeacherDashboard)
		teacher.POST("/assignments", handler.CreateAssignment)
		teacher.DELETE("/assignments/:id", handler.DeleteAssignment)
		teacher.GET("/assignments/:id/file", handler.TeacherAssignmentFile)
		teacher.GET("/assignments/:id/submissions", handler.AssignmentSubmissions)
		teacher.PUT("/submissions/:id/marks", handler.SetMarks)
		teacher.POST("/submissions/:id/rescore", handler.Rescore)
		teacher.GET("/submissions/:id/file", handler.SubmissionFile)
	}

	return router
}
