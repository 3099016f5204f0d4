package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quiznexusai/quiznexus-backend/internal/config"
	"github.com/quiznexusai/quiznexus-backend/internal/handler"
	"github.com/quiznexusai/quiznexus-backend/internal/middleware"
	"github.com/quiznexusai/quiznexus-backend/internal/model"
	"github.com/quiznexusai/quiznexus-backend/internal/response"
	"github.com/quiznexusai/quiznexus-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Exam       *handler.ExamHandler
	Question   *handler.QuestionHandler
	Result     *handler.ResultHandler
	Statistics *handler.StatisticsHandler
	School     *handler.SchoolHandler
	Monitor    *handler.MonitorHandler
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

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth (public login, authenticated profile)
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
	}

	// Exam session state machine. Any authenticated account may sit the
	// exam; only students are bounded by the attempt limit.
	exam := router.Group("/api/v1/exam")
	exam.Use(middleware.RequireAuth(authService))
	{
		exam.POST("/start", handlers.Exam.Start)
		exam.GET("/active", handlers.Exam.Active)
		exam.GET("/attempts/:attempt_id/question", handlers.Exam.CurrentQuestion)
		exam.POST("/attempts/:attempt_id/answers", handlers.Exam.SubmitAnswer)
		exam.POST("/attempts/:attempt_id/finish", handlers.Exam.Finish)
		exam.GET("/attempts/:attempt_id/state", handlers.Exam.State)
		exam.GET("/attempts/:attempt_id/result", handlers.Exam.Result)
	}

	// Persisted attempt records.
	results := router.Group("/api/v1/results")
	results.Use(middleware.RequireAuth(authService))
	{
		results.GET("", handlers.Result.ListMine)
		results.GET("/:attempt_id", handlers.Result.Get)
	}

	// Question authoring, staff only. Answer keys travel on this surface
	// and nowhere else.
	questions := router.Group("/api/v1/questions")
	questions.Use(middleware.RequireRole(authService, model.RoleTeacher, model.RoleAdmin))
	{
		questions.GET("", handlers.Question.List)
		questions.GET("/:question_id", handlers.Question.Get)
		questions.POST("", handlers.Question.Create)
		questions.PUT("/:question_id", handlers.Question.Update)
		questions.DELETE("/:question_id", handlers.Question.Delete)
	}

	// Aggregate statistics, staff only.
	statistics := router.Group("/api/v1/statistics")
	statistics.Use(middleware.RequireRole(authService, model.RoleTeacher, model.RoleAdmin))
	{
		statistics.GET("", handlers.Statistics.Get)
	}

	// School and class reference lists.
	schools := router.Group("/api/v1/schools")
	schools.Use(middleware.RequireAuth(authService))
	{
		schools.GET("", handlers.School.ListSchools)
		schools.GET("/:school_id/classes", handlers.School.ListClasses)
	}

	// WebSocket countdown stream; auth rides the token query param.
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/exam/attempts/:attempt_id/monitor", handlers.Monitor.Stream)
	}

	return router
}
