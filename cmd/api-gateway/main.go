package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-attendance-api/api/swagger"
	"github.com/noah-isme/sma-attendance-api/internal/handler"
	"github.com/noah-isme/sma-attendance-api/internal/middleware"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	"github.com/noah-isme/sma-attendance-api/pkg/cache"
	"github.com/noah-isme/sma-attendance-api/pkg/certificate"
	"github.com/noah-isme/sma-attendance-api/pkg/config"
	"github.com/noah-isme/sma-attendance-api/pkg/database"
	"github.com/noah-isme/sma-attendance-api/pkg/jobs"
	"github.com/noah-isme/sma-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-attendance-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-attendance-api/pkg/storage"
)

// @title School Attendance API
// @version 1.0.0
// @description Staff accounts, student records, daily attendance and dashboard statistics
// @BasePath /admin
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Stats.CacheEnabled
	if cacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, stats cache disabled", zap.Error(err))
			cacheEnabled = false
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cacheEnabled)

	archive, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare certificate storage", zap.Error(err))
	}

	loc := cfg.Attendance.Location()
	validate := service.NewValidator()

	adminRepo := repository.NewAdminRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)

	queue := jobs.NewQueue("attendance", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	queue.Register(service.JobRefreshStudentAttendance, service.NewAttendanceRefreshJob(studentRepo, cacheSvc, metricsSvc, logr))
	queue.Start(ctx)

	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
	})
	adminSvc := service.NewAdminService(adminRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, validate, loc, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, cacheSvc, metricsSvc, queue, validate, logr)
	statsSvc := service.NewStatsService(service.StatsServiceParams{
		Attendance: attendanceRepo,
		Students:   studentRepo,
		Cache:      cacheSvc,
		Location:   loc,
		Logger:     logr,
	})
	certificateSvc := service.NewCertificateService(
		studentRepo,
		certificate.NewRenderer(cfg.Certificates.InstituteName),
		archive,
		cacheSvc,
		metricsSvc,
		logr,
		service.CertificateServiceConfig{MaxConcurrent: cfg.Certificates.MaxConcurrent},
	)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	ops := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, adminSvc),
		Admins:       handler.NewAdminHandler(adminSvc),
		Students:     handler.NewStudentHandler(studentSvc),
		Holidays:     handler.NewHolidayHandler(holidaySvc),
		Attendance:   handler.NewAttendanceHandler(attendanceSvc),
		Stats:        handler.NewStatsHandler(statsSvc),
		Certificates: handler.NewCertificateHandler(certificateSvc),
	}, middleware.Protect(authSvc, adminRepo), logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	queue.Stop()
}
