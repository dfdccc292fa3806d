package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/jhs-sis-api/api/swagger"
	"github.com/noah-isme/jhs-sis-api/internal/handler"
	"github.com/noah-isme/jhs-sis-api/internal/middleware"
	"github.com/noah-isme/jhs-sis-api/internal/models"
	"github.com/noah-isme/jhs-sis-api/internal/realtime"
	"github.com/noah-isme/jhs-sis-api/internal/repository"
	"github.com/noah-isme/jhs-sis-api/internal/service"
	"github.com/noah-isme/jhs-sis-api/pkg/cache"
	"github.com/noah-isme/jhs-sis-api/pkg/config"
	"github.com/noah-isme/jhs-sis-api/pkg/database"
	"github.com/noah-isme/jhs-sis-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/jhs-sis-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/jhs-sis-api/pkg/middleware/requestid"
)

// @title JHS SIS API
// @version 1.0.0
// @description Junior high school student information system
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, realtime bridge and transcript cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	location, err := time.LoadLocation(cfg.School.Timezone)
	if err != nil {
		logr.Warn("invalid school timezone, falling back to UTC", zap.String("timezone", cfg.School.Timezone), zap.Error(err))
		location = time.UTC
	}

	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer, logr)
	defer hub.Close()

	var bridge *realtime.Bridge
	if cfg.Realtime.BridgeEnabled && redisClient != nil {
		bridge = realtime.NewBridge(redisClient, hub, cfg.Realtime.BridgeChannel, logr)
		bridge.Start(ctx)
		defer bridge.Close()
	}

	studentRepo := repository.NewStudentRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	teacherClassRepo := repository.NewTeacherClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	clinicRepo := repository.NewClinicRepository(db)
	behaviorRepo := repository.NewBehaviorRepository(db)
	gradeSettingsRepo := repository.NewGradeSettingsRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()

	metricsSvc := service.NewMetricsService()
	dashboardSvc := service.NewDashboardService(dashboardRepo, location, logr)

	var notifier *service.NotifierService
	if bridge != nil {
		notifier = service.NewNotifierService(bridge, dashboardSvc, metricsSvc, cfg.Realtime.Workers, logr)
	} else {
		notifier = service.NewNotifierService(hub, dashboardSvc, metricsSvc, cfg.Realtime.Workers, logr)
	}
	notifier.Start(ctx)
	defer notifier.Stop()

	var transcriptSvc *service.TranscriptService
	if cfg.Cache.Enabled && redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		transcriptSvc = service.NewTranscriptService(enrollmentRepo, studentRepo, cacheRepo, metricsSvc, cfg.Cache.TTL, cfg.Exports.SchoolName, cfg.Exports.SchoolID, logr)
	} else {
		transcriptSvc = service.NewTranscriptService(enrollmentRepo, studentRepo, nil, metricsSvc, cfg.Cache.TTL, cfg.Exports.SchoolName, cfg.Exports.SchoolID, logr)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "jhs-sis-api",
	})
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, teacherClassRepo, gradeSettingsRepo, notifier, transcriptSvc, metricsSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, sectionRepo, enrollmentRepo, notifier, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	teacherClassSvc := service.NewTeacherClassService(teacherClassRepo, subjectRepo, sectionRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, notifier, validate, logr)
	clinicSvc := service.NewClinicService(clinicRepo, notifier, validate, logr)
	behaviorSvc := service.NewBehaviorService(behaviorRepo, notifier, validate, logr)
	gradeSettingsSvc := service.NewGradeSettingsService(gradeSettingsRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, transcriptSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	teacherClassHandler := handler.NewTeacherClassHandler(teacherClassSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	clinicHandler := handler.NewClinicHandler(clinicSvc)
	behaviorHandler := handler.NewBehaviorHandler(behaviorSvc)
	gradeSettingsHandler := handler.NewGradeSettingsHandler(gradeSettingsSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	streamHandler := handler.NewStreamHandler(hub, cfg.Realtime.KeepAlive)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	protected := api.Group("", middleware.JWT(authSvc))

	registrar := middleware.RBAC(models.RoleAdmin, models.RoleRegistrar)
	teaching := middleware.RBAC(models.RoleAdmin, models.RoleRegistrar, models.RoleTeacher)
	clinicStaff := middleware.RBAC(models.RoleAdmin, models.RoleNurse)
	guidance := middleware.RBAC(models.RoleAdmin, models.RoleGuidance)
	adminOnly := middleware.RBAC(models.RoleAdmin)

	protected.POST("/auth/logout", authHandler.Logout)
	protected.POST("/auth/change-password", authHandler.ChangePassword)
	protected.GET("/auth/me", authHandler.Me)

	protected.GET("/students", studentHandler.List)
	protected.GET("/students/:id", studentHandler.Get)
	protected.GET("/students/:id/transcript", studentHandler.Transcript)
	protected.GET("/students/:id/transcript/export", studentHandler.ExportTranscript)
	protected.POST("/students", registrar, studentHandler.Create)
	protected.PUT("/students/:id", registrar, studentHandler.Update)
	protected.DELETE("/students/:id", registrar, studentHandler.Delete)

	protected.GET("/sections", sectionHandler.List)
	protected.GET("/sections/:id", sectionHandler.Get)
	protected.POST("/sections", registrar, sectionHandler.Create)
	protected.PUT("/sections/:id", registrar, sectionHandler.Update)
	protected.DELETE("/sections/:id", registrar, sectionHandler.Delete)

	protected.GET("/subjects", subjectHandler.List)
	protected.GET("/subjects/:id", subjectHandler.Get)
	protected.POST("/subjects", registrar, subjectHandler.Create)
	protected.PUT("/subjects/:id", registrar, subjectHandler.Update)
	protected.DELETE("/subjects/:id", registrar, subjectHandler.Delete)

	protected.GET("/teacher-classes", teaching, teacherClassHandler.List)
	protected.GET("/teacher-classes/:id", teaching, teacherClassHandler.Get)
	protected.GET("/teacher-classes/:id/students", teaching, teacherClassHandler.Roster)
	protected.POST("/teacher-classes", registrar, teacherClassHandler.Create)
	protected.PUT("/teacher-classes/:id", registrar, teacherClassHandler.Update)
	protected.DELETE("/teacher-classes/:id", registrar, teacherClassHandler.Delete)

	protected.GET("/enrollments", enrollmentHandler.List)
	protected.GET("/enrollments/:id", enrollmentHandler.Get)
	protected.POST("/enrollments", teaching, enrollmentHandler.Create)
	protected.PATCH("/enrollments/:id/grades", teaching, enrollmentHandler.UpdateGrades)
	protected.POST("/enrollments/:id/finalize", registrar, enrollmentHandler.Finalize)
	protected.POST("/enrollments/:id/unfinalize", registrar, enrollmentHandler.Unfinalize)
	protected.DELETE("/enrollments/:id", teaching, enrollmentHandler.Delete)

	protected.GET("/attendance", teaching, attendanceHandler.List)
	protected.GET("/attendance/:id", teaching, attendanceHandler.Get)
	protected.POST("/attendance", teaching, attendanceHandler.Create)
	protected.PUT("/attendance/:id", teaching, attendanceHandler.Update)
	protected.DELETE("/attendance/:id", teaching, attendanceHandler.Delete)

	protected.GET("/clinic-visits", clinicStaff, clinicHandler.List)
	protected.GET("/clinic-visits/:id", clinicStaff, clinicHandler.Get)
	protected.POST("/clinic-visits", clinicStaff, clinicHandler.Create)
	protected.PUT("/clinic-visits/:id", clinicStaff, clinicHandler.Update)
	protected.DELETE("/clinic-visits/:id", clinicStaff, clinicHandler.Delete)

	protected.GET("/behavior-records", guidance, behaviorHandler.List)
	protected.GET("/behavior-records/:id", guidance, behaviorHandler.Get)
	protected.POST("/behavior-records", guidance, behaviorHandler.Create)
	protected.PUT("/behavior-records/:id", guidance, behaviorHandler.Update)
	protected.DELETE("/behavior-records/:id", guidance, behaviorHandler.Delete)

	protected.GET("/grade-settings", gradeSettingsHandler.Get)
	protected.POST("/grade-settings", adminOnly, gradeSettingsHandler.Create)
	protected.PATCH("/grade-settings", adminOnly, gradeSettingsHandler.Update)

	protected.GET("/dashboard", dashboardHandler.Get)
	protected.GET("/streams/:channel", streamHandler.Subscribe)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
}
