package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mfms/mess-api/api/swagger"
	"github.com/mfms/mess-api/internal/handler"
	"github.com/mfms/mess-api/internal/middleware"
	"github.com/mfms/mess-api/internal/models"
	"github.com/mfms/mess-api/internal/repository"
	"github.com/mfms/mess-api/internal/service"
	"github.com/mfms/mess-api/pkg/cache"
	"github.com/mfms/mess-api/pkg/config"
	"github.com/mfms/mess-api/pkg/database"
	"github.com/mfms/mess-api/pkg/logger"
	"github.com/mfms/mess-api/pkg/mailer"
	corsmiddleware "github.com/mfms/mess-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mfms/mess-api/pkg/middleware/requestid"
)

// @title Mess API
// @version 1.0.0
// @description Hostel mess management: meal attendance, timings, menus and feedback
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and rate limiting degraded", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	messRepo := repository.NewMessRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Timings.CacheTTL, logr, redisClient != nil)

	mail := mailer.NewLogMailer(cfg.Mail, logr)

	authService := service.NewAuthService(userRepo, messRepo, mail, nil, logr, service.AuthConfig{
		JWTSecret: cfg.JWT.Secret,
		JWTExpiry: cfg.JWT.Expiration,
		Issuer:    cfg.JWT.Issuer,
		VerifyTTL: cfg.Mail.VerifyTTL,
		ResetTTL:  cfg.Mail.ResetTTL,
	})
	messService := service.NewMessService(messRepo, cacheService, cfg.Timings.CacheTTL, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, userRepo, messService, metricsService, logr)
	menuService := service.NewMenuService(menuRepo, logr)
	feedbackService := service.NewFeedbackService(feedbackRepo, nil, logr)
	studentService := service.NewStudentService(userRepo, logr)

	authHandler := handler.NewAuthHandler(authService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	messHandler := handler.NewMessHandler(messService, studentService)
	menuHandler := handler.NewMenuHandler(menuService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	var limiter middleware.Counter
	if cfg.RateLimit.Enabled {
		limiter = cacheRepo
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(limiter, "auth", cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow, metricsService, logr))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/verify-email", authHandler.VerifyEmail)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// Password reset requests get a tighter window than the rest of auth.
	api.POST("/auth/forgot-password",
		middleware.RateLimit(limiter, "reset", cfg.RateLimit.ResetMax, cfg.RateLimit.ResetWindow, metricsService, logr),
		authHandler.ForgotPassword)

	protected := api.Group("")
	protected.Use(middleware.RateLimit(limiter, "api", cfg.RateLimit.APIMax, cfg.RateLimit.APIWindow, metricsService, logr))
	protected.Use(middleware.JWT(authService, userRepo))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/attendance", attendanceHandler.Get)
		protected.POST("/attendance", attendanceHandler.Update)

		protected.GET("/mess", messHandler.Details)
		protected.GET("/mess/timings", messHandler.Timings)
		protected.GET("/mess/can-request/:meal", messHandler.CanRequest)

		protected.GET("/menu", menuHandler.Effective)
		protected.GET("/menu/weekly", menuHandler.Weekly)

		protected.POST("/feedback", feedbackHandler.Add)

		manager := protected.Group("")
		manager.Use(middleware.RequireRoles(models.RoleManager))
		{
			manager.GET("/attendance/stats", attendanceHandler.Stats)
			manager.GET("/attendance/stats/export", attendanceHandler.ExportStats)

			manager.POST("/mess/timings", messHandler.UpdateTimings)
			manager.GET("/mess/students", messHandler.ListStudents)
			manager.GET("/mess/students/unverified", messHandler.ListUnverifiedStudents)
			manager.GET("/mess/students/unverified/count", messHandler.CountUnverifiedStudents)
			manager.POST("/mess/students/verify-all", messHandler.VerifyAllStudents)
			manager.PATCH("/mess/students/:id/verify", messHandler.VerifyStudent)
			manager.DELETE("/mess/students/:id", messHandler.RemoveStudent)

			manager.POST("/menu/daily", menuHandler.SaveDaily)
			manager.POST("/menu/weekly", menuHandler.SaveWeekly)

			manager.GET("/feedback", feedbackHandler.List)
			manager.GET("/metrics/summary", metricsHandler.Summary)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
