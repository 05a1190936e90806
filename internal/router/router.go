package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/arnexam/exam-admission/internal/config"
	"github.com/arnexam/exam-admission/internal/handler"
	"github.com/arnexam/exam-admission/internal/middleware"
	"github.com/arnexam/exam-admission/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam         *handler.ExamHandler
	Registration *handler.RegistrationHandler
}

// SetupRouter configures the exam API routes with their middlewares.
// limiter guards the registration endpoints; nil disables rate limiting.
func SetupRouter(handlers *Handlers, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.GinMode != gin.TestMode {
		router.Use(gin.Logger())
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli(middleware.DefaultBrotliQuality, middleware.DefaultBrotliMinLength))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(middleware.CacheControl(0))
	{
		api.GET("/exams/json", handlers.Exam.ListExams)

		registration := api.Group("")
		if limiter != nil {
			registration.Use(limiter.Middleware())
		}
		registration.POST("/validate-registration", handlers.Registration.ValidateRegistration)
		registration.POST("/start-exam", handlers.Registration.StartExam)
	}

	return router
}
