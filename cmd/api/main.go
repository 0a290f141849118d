package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ShaheerAzam/backend/api/swagger"
	"github.com/ShaheerAzam/backend/internal/handler"
	"github.com/ShaheerAzam/backend/internal/middleware"
	"github.com/ShaheerAzam/backend/internal/models"
	"github.com/ShaheerAzam/backend/internal/repository"
	"github.com/ShaheerAzam/backend/internal/service"
	"github.com/ShaheerAzam/backend/pkg/cache"
	"github.com/ShaheerAzam/backend/pkg/config"
	"github.com/ShaheerAzam/backend/pkg/database"
	"github.com/ShaheerAzam/backend/pkg/jobs"
	"github.com/ShaheerAzam/backend/pkg/logger"
	"github.com/ShaheerAzam/backend/pkg/mail"
	corsmiddleware "github.com/ShaheerAzam/backend/pkg/middleware/cors"
	reqidmiddleware "github.com/ShaheerAzam/backend/pkg/middleware/requestid"
)

// @title Tutoring Platform API
// @version 1.0.0
// @description Lesson scheduling and tutor payroll backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The report cache degrades to direct reads without Redis.
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	accountRepo := repository.NewAccountRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	approvalRepo := repository.NewEarningsApprovalRepository(db)
	configRepo := repository.NewEarningsConfigRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var mailer mail.Mailer
	if cfg.Notifications.Provider == "sendgrid" && cfg.Notifications.SendgridKey != "" {
		mailer = mail.NewSendgridMailer(cfg.Notifications.SendgridKey, cfg.Notifications.AppName, cfg.Notifications.FromEmail)
	} else {
		mailer = mail.NewConsoleMailer(logr)
	}

	notifier := service.NewNotificationService(mailer, metrics, logr, cfg.Notifications.AppName, cfg.Notifications.DashboardURL, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})

	authService := service.NewAuthService(accountRepo, notifier, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.Notifications.AppName,
	})
	lessonService := service.NewLessonService(lessonRepo, accountRepo, notifier, validate, logr)

	periodEpoch, err := time.ParseInLocation("2006-01-02", cfg.Earnings.PeriodEpoch, time.UTC)
	if err != nil {
		logr.Sugar().Fatalw("invalid earnings period epoch", "value", cfg.Earnings.PeriodEpoch, "error", err)
	}
	earningsService := service.NewEarningsService(lessonRepo, approvalRepo, configRepo, accountRepo, cacheRepo, notifier, metrics, validate, logr, service.EarningsOptions{
		PeriodEpoch:    periodEpoch,
		ReportCacheTTL: cfg.Earnings.ReportCacheTTL,
		ReportPeriods:  cfg.Earnings.ReportPeriods,
	})

	scheduler := service.NewSchedulerService(lessonService, earningsService, cfg.Scheduler.Interval, metrics, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier.Start(ctx)
	defer notifier.Stop()

	if cfg.Scheduler.Enabled {
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), authService, lessonService, earningsService)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}

func registerRoutes(api *gin.RouterGroup, authService *service.AuthService, lessonService *service.LessonService, earningsService *service.EarningsService) {
	authHandler := handler.NewAuthHandler(authService)
	lessonHandler := handler.NewLessonHandler(lessonService)
	earningsHandler := handler.NewEarningsHandler(earningsService)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
	}

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	tutorOrAdmin := middleware.RequireRoles(models.RoleAdmin, models.RoleTutor)

	lessons := api.Group("/lessons", middleware.JWT(authService))
	{
		lessons.GET("", lessonHandler.List)
		lessons.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleStudent), lessonHandler.Schedule)
		lessons.POST("/availability", adminOnly, lessonHandler.CheckAvailability)
		lessons.PATCH("/bulk", adminOnly, lessonHandler.BulkUpdate)
		lessons.POST("/sweep", adminOnly, lessonHandler.Sweep)
		lessons.GET("/:id", lessonHandler.Get)
		lessons.PATCH("/:id", tutorOrAdmin, lessonHandler.Update)
		lessons.PUT("/:id/reschedule", tutorOrAdmin, lessonHandler.Reschedule)
		lessons.POST("/:id/cancel", lessonHandler.Cancel)
		lessons.POST("/:id/undo-cancel", lessonHandler.UndoCancel)
		lessons.POST("/:id/complete", tutorOrAdmin, lessonHandler.Complete)
	}

	earnings := api.Group("/earnings", middleware.JWT(authService))
	{
		earnings.GET("/pending", adminOnly, earningsHandler.ListPending)
		earnings.GET("/report", adminOnly, earningsHandler.Report)
		earnings.POST("/generate", adminOnly, earningsHandler.Generate)
		earnings.GET("/config", adminOnly, earningsHandler.GetConfig)
		earnings.PUT("/config", adminOnly, earningsHandler.UpdateConfig)
		earnings.POST("/periods/decide", adminOnly, earningsHandler.DecidePeriod)
		earnings.GET("/tutors/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), earningsHandler.TutorEarnings)
		earnings.POST("/:id/decide", adminOnly, earningsHandler.Decide)
		earnings.GET("/:id/statement", middleware.RequireRoles(models.RoleAdmin, models.RoleTutor), earningsHandler.ExportStatement)
	}
}
