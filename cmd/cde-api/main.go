package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sitetrace/cde-api/api/swagger"
	"github.com/sitetrace/cde-api/internal/handler"
	"github.com/sitetrace/cde-api/internal/middleware"
	"github.com/sitetrace/cde-api/internal/repository"
	"github.com/sitetrace/cde-api/internal/service"
	"github.com/sitetrace/cde-api/pkg/cache"
	"github.com/sitetrace/cde-api/pkg/config"
	"github.com/sitetrace/cde-api/pkg/database"
	"github.com/sitetrace/cde-api/pkg/logger"
	corsmiddleware "github.com/sitetrace/cde-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sitetrace/cde-api/pkg/middleware/requestid"
)

// @title SiteTrace CDE API
// @version 1.0.0
// @description Document control and compliance engine for construction projects
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
		// Redis only backs the portal rate limiter; the engine runs without it.
		logr.Sugar().Warnw("redis unavailable, portal rate limiting disabled", "error", err)
		redisClient = nil
	}

	txRunner := database.NewTxRunner(db)

	auditRepo := repository.NewAuditRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	mailRepo := repository.NewMailRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	residentRepo := repository.NewResidentRepository(db)

	metricsSvc := service.NewMetricsService()
	auditSvc := service.NewAuditService(txRunner, auditRepo, cfg.Audit, metricsSvc, logr)
	// Ledger writes go through the audit service so each append is
	// counted in audit_events_total.
	documentSvc := service.NewDocumentService(txRunner, documentRepo, auditSvc, nil, logr)
	issueSvc := service.NewIssueService(txRunner, issueRepo, auditSvc, sequenceRepo, nil, logr)
	mailSvc := service.NewMailService(txRunner, mailRepo, auditSvc, sequenceRepo, cfg.Mail, nil, logr)
	workflowSvc := service.NewWorkflowService(txRunner, workflowRepo, auditSvc, nil, logr)
	portalSvc := service.NewPortalService(residentRepo, cfg.Portal, logr)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Documents: handler.NewDocumentHandler(documentSvc),
		Issues:    handler.NewIssueHandler(issueSvc),
		Mail:      handler.NewMailHandler(mailSvc),
		Workflows: handler.NewWorkflowHandler(workflowSvc),
		Audit:     handler.NewAuditHandler(auditSvc),
		Portal:    handler.NewPortalHandler(portalSvc),
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handlers,
		middleware.Principal(cfg.Principal.JWTSecret),
		middleware.PortalRateLimit(redisClient, cfg.Portal, logr))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
