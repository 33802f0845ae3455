package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/siga-dev/siga-api/api/swagger"
	"github.com/siga-dev/siga-api/internal/handler"
	"github.com/siga-dev/siga-api/internal/middleware"
	"github.com/siga-dev/siga-api/internal/models"
	"github.com/siga-dev/siga-api/internal/repository"
	"github.com/siga-dev/siga-api/internal/service"
	"github.com/siga-dev/siga-api/pkg/cache"
	"github.com/siga-dev/siga-api/pkg/config"
	"github.com/siga-dev/siga-api/pkg/database"
	"github.com/siga-dev/siga-api/pkg/logger"
	corsmiddleware "github.com/siga-dev/siga-api/pkg/middleware/cors"
	reqidmiddleware "github.com/siga-dev/siga-api/pkg/middleware/requestid"
)

// @title SIGA API
// @version 1.0.0
// @description Academic records service: curriculum, enrollment, grading and period closure
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	retry := database.RetryPolicy{Attempts: cfg.Database.RetryAttempts, BaseDelay: cfg.Database.RetryBaseDelay}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	closureRepo := repository.NewClosureRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, userRepo, cfg.JWT, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	periodSvc := service.NewPeriodService(periodRepo, redisClient, cfg.Cache.ActivePeriodTTL, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, courseRepo, periodRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	professorSvc := service.NewProfessorService(professorRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, sectionRepo,
		periodRepo, transcriptRepo, gradeRepo, userRepo, validate, logr, cfg.Enrollment.MaxCredits, retry)
	closureSvc := service.NewClosureService(closureRepo, periodRepo, periodSvc, userRepo, logr, cfg.Grading.PassMark, retry)
	gradeSvc := service.NewGradeService(gradeRepo, enrollmentRepo, validate, logr)
	transcriptSvc := service.NewTranscriptService(transcriptRepo, studentRepo, courseRepo, validate, logr)
	reportSvc := service.NewReportService(transcriptSvc, studentSvc, sectionSvc, enrollmentRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc, closureSvc, metricsSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	professorHandler := handler.NewProfessorHandler(professorSvc, sectionSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	faculty := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleProfessor)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleProfessor, models.RoleStudent)

	auth.GET("/auth/me", authHandler.Me)
	auth.PUT("/auth/password", authHandler.ChangePassword)

	auth.GET("/courses", anyRole, courseHandler.List)
	auth.GET("/courses/curriculum", anyRole, courseHandler.Curriculum)
	auth.GET("/courses/:id", anyRole, courseHandler.Get)
	auth.POST("/courses", staff, courseHandler.Create)
	auth.PUT("/courses/:id", staff, courseHandler.Update)
	auth.DELETE("/courses/:id", staff, courseHandler.Delete)

	auth.GET("/periods", anyRole, periodHandler.List)
	auth.GET("/periods/active", anyRole, periodHandler.Active)
	auth.GET("/periods/:id", anyRole, periodHandler.Get)
	auth.POST("/periods", staff, periodHandler.Create)
	auth.PUT("/periods/:id/activate", staff, periodHandler.Activate)
	auth.POST("/periods/close", staff, periodHandler.Close)
	auth.DELETE("/periods/:id", staff, periodHandler.Delete)

	auth.GET("/sections", anyRole, sectionHandler.List)
	auth.GET("/sections/available", anyRole, sectionHandler.Available)
	auth.GET("/sections/:id", anyRole, sectionHandler.Get)
	auth.GET("/sections/:id/grades", faculty, gradeHandler.BySection)
	auth.POST("/sections", staff, sectionHandler.Create)
	auth.PUT("/sections/:id", staff, sectionHandler.Update)
	auth.DELETE("/sections/:id", staff, sectionHandler.Delete)

	auth.GET("/students", faculty, studentHandler.List)
	auth.GET("/students/me", anyRole, studentHandler.Me)
	auth.GET("/students/:id", faculty, studentHandler.Get)
	auth.GET("/students/:id/enrollments", anyRole, enrollmentHandler.ByStudent)
	auth.GET("/students/:id/transcript", anyRole, transcriptHandler.ByStudent)
	auth.POST("/students", staff, studentHandler.Create)
	auth.PUT("/students/:id", staff, studentHandler.Update)
	auth.DELETE("/students/:id", staff, studentHandler.Delete)

	auth.GET("/professors", staff, professorHandler.List)
	auth.GET("/professors/:id", faculty, professorHandler.Get)
	auth.GET("/professors/:id/sections", faculty, professorHandler.Sections)
	auth.POST("/professors", staff, professorHandler.Create)
	auth.PUT("/professors/:id", staff, professorHandler.Update)
	auth.DELETE("/professors/:id", staff, professorHandler.Delete)

	auth.POST("/enrollments/eligibility", anyRole, enrollmentHandler.Eligibility)
	auth.POST("/enrollments", anyRole, enrollmentHandler.Create)
	auth.DELETE("/enrollments/:id", anyRole, enrollmentHandler.Delete)
	auth.GET("/enrollments/:id/grades", anyRole, gradeHandler.ByEnrollment)

	auth.PUT("/grades", faculty, gradeHandler.Record)

	auth.POST("/transcripts/corrections", staff, transcriptHandler.Correct)

	auth.GET("/reports/transcript/:id", anyRole, reportHandler.Transcript)
	auth.GET("/reports/roster/:id", faculty, reportHandler.SectionRoster)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
