package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/greensteps/greensteps-api/api/swagger"
	"github.com/greensteps/greensteps-api/internal/handler"
	"github.com/greensteps/greensteps-api/internal/middleware"
	"github.com/greensteps/greensteps-api/internal/models"
	"github.com/greensteps/greensteps-api/internal/repository"
	"github.com/greensteps/greensteps-api/internal/service"
	"github.com/greensteps/greensteps-api/pkg/cache"
	"github.com/greensteps/greensteps-api/pkg/config"
	"github.com/greensteps/greensteps-api/pkg/database"
	"github.com/greensteps/greensteps-api/pkg/export"
	"github.com/greensteps/greensteps-api/pkg/logger"
	"github.com/greensteps/greensteps-api/pkg/mailer"
	corsmiddleware "github.com/greensteps/greensteps-api/pkg/middleware/cors"
	reqidmiddleware "github.com/greensteps/greensteps-api/pkg/middleware/requestid"
	"github.com/greensteps/greensteps-api/pkg/storage"
)

// @title GreenSteps API
// @version 1.0.0
// @description School sustainability program: evidence submission, review and round progression
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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, snapshot caching disabled", "error", err)
		redisClient = nil
	}

	certStorage, err := storage.NewLocalStorage(cfg.Certificates.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("certificate storage init failed", "error", err)
	}
	uploadStorage, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("upload storage init failed", "error", err)
	}

	validate := validator.New()

	evidenceRepo := repository.NewEvidenceRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	snapshotCache := repository.NewSnapshotCache(redisClient, cfg.Progression.SnapshotCacheTTL)

	var sender mailer.Sender
	if cfg.Mail.Enabled && cfg.Mail.SendgridKey != "" {
		sender = mailer.NewSendgridSender(cfg.Mail)
	} else {
		sender = mailer.NewConsoleSender(logr)
	}

	notifications := service.NewNotificationService(notificationRepo, sender, cfg.Notifications, logr)
	metrics := service.NewMetricsService()
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	renderer := export.NewCertificateRenderer()

	progression := service.NewProgressionService(
		schoolRepo, evidenceRepo, requirementRepo, certificateRepo,
		renderer, certStorage, notifications, snapshotCache, auditRepo,
		metrics, cfg.Progression, logr,
	)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	evidenceSvc := service.NewEvidenceService(
		evidenceRepo, schoolRepo, requirementRepo, notifications,
		progression, auditRepo, uploadStorage, metrics, validate, logr,
	)
	reviewSvc := service.NewReviewService(
		evidenceRepo, requirementRepo, schoolRepo, userRepo, notifications,
		progression, auditRepo, metrics, uploadStorage, validate, logr,
	)
	requirementSvc := service.NewRequirementService(requirementRepo, evidenceRepo, auditRepo, validate, logr)
	certificateSvc := service.NewCertificateService(certificateRepo, certStorage, signer, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifications.Start(ctx)
	defer notifications.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	evidenceHandler := handler.NewEvidenceHandler(evidenceSvc)
	adminHandler := handler.NewAdminEvidenceHandler(reviewSvc, evidenceSvc)
	requirementHandler := handler.NewRequirementHandler(requirementSvc)
	schoolHandler := handler.NewSchoolHandler(progression, certificateSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)

		api.GET("/certificates/download", schoolHandler.DownloadCertificate)

		evidence := api.Group("/evidence")
		{
			evidence.GET("", middleware.OptionalJWT(authSvc), evidenceHandler.List)
			evidence.GET("/:id", middleware.OptionalJWT(authSvc), evidenceHandler.Get)
			evidence.POST("", middleware.JWT(authSvc), evidenceHandler.Submit)
			evidence.DELETE("/:id", middleware.JWT(authSvc), evidenceHandler.Delete)
		}

		api.GET("/requirements", requirementHandler.List)
		api.GET("/requirements/:id", requirementHandler.Get)

		schools := api.Group("/schools", middleware.JWT(authSvc))
		{
			schools.GET("/:id/progression", schoolHandler.Progression)
			schools.GET("/:id/certificates", schoolHandler.CertificateLink)
		}

		admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(auditRepo, models.AuditActionAdminRequest, "admin_api"))
		registerAdminRoutes(admin, adminHandler, requirementHandler)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

// registerAdminRoutes mounts the admin review surface. Review, assignment,
// requirement linking and the bonus toggle are PATCH; bulk deletion is a
// DELETE with a body.
func registerAdminRoutes(admin gin.IRoutes, evidence *handler.AdminEvidenceHandler, requirements *handler.RequirementHandler) {
	admin.POST("/evidence/bulk-review", evidence.BulkReview)
	admin.DELETE("/evidence/bulk-delete", evidence.BulkDelete)
	admin.GET("/evidence/homeless", evidence.Homeless)
	admin.PATCH("/evidence/:id/review", evidence.Review)
	admin.PATCH("/evidence/:id/assign", evidence.Assign)
	admin.PATCH("/evidence/:id/assign-requirement", evidence.AssignRequirement)
	admin.POST("/evidence/:id/check-duplicate", evidence.CheckDuplicate)
	admin.PATCH("/evidence/:id/mark-bonus", evidence.MarkBonus)

	admin.POST("/requirements", requirements.Create)
	admin.PUT("/requirements/:id", requirements.Update)
	admin.DELETE("/requirements/:id", requirements.Delete)
}
