package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/scimind/portal-api/api/swagger"
	"github.com/scimind/portal-api/internal/handler"
	"github.com/scimind/portal-api/internal/integration/google"
	"github.com/scimind/portal-api/internal/middleware"
	"github.com/scimind/portal-api/internal/models"
	"github.com/scimind/portal-api/internal/repository"
	"github.com/scimind/portal-api/internal/service"
	"github.com/scimind/portal-api/pkg/cache"
	"github.com/scimind/portal-api/pkg/config"
	"github.com/scimind/portal-api/pkg/database"
	"github.com/scimind/portal-api/pkg/export"
	"github.com/scimind/portal-api/pkg/logger"
	corsmiddleware "github.com/scimind/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/scimind/portal-api/pkg/middleware/requestid"
	"github.com/scimind/portal-api/pkg/storage"
)

// @title SciMind Portal API
// @version 1.0.0
// @description Admin portal for tutoring operations: classes, students, fees, video publishing and Google integrations.
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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	staging, err := storage.NewLocalStorage(cfg.Uploads.StagingDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload staging dir", "error", err)
	}

	validate := validator.New()
	clock := service.NewClock(cfg.Portal.Timezone, cfg.Portal.FallbackUTCOffset, logr)

	googleCfg := google.Config{
		ClientID:        cfg.Google.ClientID,
		ClientSecret:    cfg.Google.ClientSecret,
		ClassroomScopes: cfg.Google.ClassroomScopes,
		YouTubeScopes:   cfg.Google.YouTubeScopes,
	}
	classroomClient := google.NewClassroomClient(googleCfg, logr)
	youtubeClient := google.NewYouTubeClient(googleCfg, logr)

	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db, logr)
	parentRepo := repository.NewParentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	dashboardSvc := service.NewDashboardService(classRepo, studentRepo, videoRepo, feeRepo, redisClient, cfg.Portal.DashboardCacheTTL, metricsSvc, clock, logr)
	classSvc := service.NewClassService(classRepo, courseRepo, videoRepo, accountRepo, classroomClient, dashboardSvc, clock, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, dashboardSvc, clock, validate, logr)
	parentSvc := service.NewParentService(parentRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, validate, logr)
	feeSvc := service.NewFeeService(feeRepo, dashboardSvc, clock, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, clock, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, feeRepo, dashboardSvc, clock, validate, logr)
	videoSvc := service.NewVideoService(videoRepo, classRepo, courseRepo, accountRepo, youtubeClient, classroomClient, staging, cfg.Google.VideoPrivacy, clock, validate, logr)
	syncSvc := service.NewSyncService(accountRepo, courseRepo, videoRepo, classroomClient, youtubeClient, logr)
	accountSvc := service.NewAccountService(accountRepo, clock, validate, logr)
	userSvc := service.NewUserService(userRepo, clock, validate, logr)
	exportSvc := service.NewExportService(studentRepo, feeRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	authHandler := handler.NewAuthHandler(authSvc)
	classHandler := handler.NewClassHandler(classSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	parentHandler := handler.NewParentHandler(parentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	feeHandler := handler.NewFeeHandler(feeSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	videoHandler := handler.NewVideoHandler(videoSvc, metricsSvc, cfg.Uploads.MaxFileSizeBytes)
	syncHandler := handler.NewSyncHandler(syncSvc, metricsSvc)
	accountHandler := handler.NewAccountHandler(accountSvc)
	userHandler := handler.NewUserHandler(userSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.PUT("/auth/password", authHandler.ChangePassword)

	authed.GET("/classes", classHandler.List)
	authed.POST("/classes", classHandler.Create)
	authed.POST("/classes/map-resources", classHandler.MapResources)
	authed.GET("/classes/:code", classHandler.Get)
	authed.PATCH("/classes/:code", classHandler.Update)
	authed.DELETE("/classes/:code", classHandler.Delete)
	authed.POST("/classes/:code/classroom", classHandler.LinkClassroom)

	authed.GET("/students", studentHandler.List)
	authed.POST("/students", studentHandler.Create)
	authed.GET("/students/:id", studentHandler.Get)
	authed.PATCH("/students/:id", studentHandler.Update)
	authed.DELETE("/students/:id", studentHandler.Delete)
	authed.GET("/students/:id/parents", parentHandler.ListByStudent)

	authed.POST("/parents", parentHandler.Create)
	authed.PATCH("/parents/:id", parentHandler.Update)
	authed.DELETE("/parents/:id", parentHandler.Delete)

	authed.GET("/enrollments", enrollmentHandler.List)
	authed.POST("/enrollments", enrollmentHandler.Create)
	authed.PATCH("/enrollments/:id", enrollmentHandler.Update)
	authed.DELETE("/enrollments/:id", enrollmentHandler.Delete)

	authed.GET("/fees", feeHandler.List)
	authed.POST("/fees", feeHandler.Create)
	authed.GET("/fees/:id", feeHandler.Get)
	authed.PATCH("/fees/:id", feeHandler.Update)
	authed.DELETE("/fees/:id", feeHandler.Delete)

	authed.GET("/attendance", attendanceHandler.List)
	authed.POST("/attendance", attendanceHandler.Create)
	authed.PATCH("/attendance/:id", attendanceHandler.Update)
	authed.DELETE("/attendance/:id", attendanceHandler.Delete)

	authed.GET("/payments", paymentHandler.List)
	authed.POST("/payments", paymentHandler.Create)
	authed.PATCH("/payments/:id", paymentHandler.Update)
	authed.DELETE("/payments/:id", paymentHandler.Delete)

	authed.GET("/videos", videoHandler.List)
	authed.POST("/videos", videoHandler.Upload)
	authed.POST("/videos/:id/classroom", videoHandler.PostToCourse)
	authed.DELETE("/videos/:id", videoHandler.Delete)

	if cfg.Portal.DashboardEnabled {
		authed.GET("/dashboard/summary", dashboardHandler.Summary)
	}

	admin := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/accounts", accountHandler.List)
	admin.POST("/accounts", accountHandler.Create)
	admin.GET("/accounts/:id", accountHandler.Get)
	admin.PATCH("/accounts/:id", accountHandler.Update)
	admin.DELETE("/accounts/:id", accountHandler.Delete)
	admin.GET("/accounts/:id/permissions", accountHandler.ListPermissions)
	admin.POST("/accounts/:id/permissions", accountHandler.GrantPermission)
	admin.DELETE("/accounts/:id/permissions/:permissionId", accountHandler.RevokePermission)

	admin.POST("/sync/courses", syncHandler.Courses)
	admin.POST("/sync/playlists", syncHandler.Playlists)

	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.GET("/users/:id", userHandler.Get)
	admin.PUT("/users/:id", userHandler.Update)
	admin.POST("/users/:id/deactivate", userHandler.Deactivate)
	admin.POST("/users/:id/reactivate", userHandler.Reactivate)

	if cfg.Portal.ExportsEnabled {
		admin.GET("/exports/students", exportHandler.StudentRoster)
		admin.GET("/exports/students/:studentId/fees", exportHandler.FeeStatement)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
