package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"tes/survey-portal/survey-portal-backend/internal/auth"
	"tes/survey-portal/survey-portal-backend/internal/config"
	"tes/survey-portal/survey-portal-backend/internal/export"
	"tes/survey-portal/survey-portal-backend/internal/security"
	"tes/survey-portal/survey-portal-backend/internal/surveys"
	"tes/survey-portal/survey-portal-backend/internal/watermark"
	"tes/survey-portal/survey-portal-backend/pkg/storage"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Local development overrides; missing .env is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Security.JWTSecret == "" {
		logger.Fatal("JWT_SECRET must be configured")
	}

	// Connect to database
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Diagram blob store
	s3Client, err := storage.NewS3Client(context.Background(), storage.S3Options{
		Region:       cfg.Storage.Region,
		Endpoint:     cfg.Storage.Endpoint,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
		UsePathStyle: cfg.Storage.UsePathStyle,
	})
	if err != nil {
		logger.Fatal("Failed to create storage client", zap.Error(err))
	}
	diagrams := storage.NewBucketReader(s3Client, cfg.Storage.Bucket)

	// Watermark pipeline
	compositor, err := watermark.NewCompositor()
	if err != nil {
		logger.Fatal("Failed to initialize watermark compositor", zap.Error(err))
	}

	// Survey + export module
	repo := surveys.NewPostgresRepository(db)
	assembler := export.NewAssembler(diagrams, compositor, logger)
	exportService := export.NewService(repo, assembler, logger)
	exportHandler := export.NewHandler(exportService, logger)

	// Auth module
	secret := []byte(cfg.Security.JWTSecret)
	authService := auth.NewService(repo, secret, cfg.Security.SessionTTL, logger)
	authHandler := auth.NewHandler(authService, logger)
	sessions := auth.NewMiddleware(repo, secret, logger)

	// Security module
	previews, err := security.NewPreviewService(diagrams, logger)
	if err != nil {
		logger.Fatal("Failed to initialize preview service", zap.Error(err))
	}
	audit := security.NewAuditLogger(security.NewPostgresSink(db), logger)
	securityHandler := security.NewHandler(audit, previews, logger)

	sweeper := security.NewRetentionSweeper(db, cfg.Security.AuditRetention(), logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start retention sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(api)

		protected := api.Group("")
		protected.Use(sessions.RequireSession())
		{
			exportHandler.RegisterRoutes(protected)
			securityHandler.RegisterRoutes(protected)
		}
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", zap.Error(err))
	}

	logger.Info("Server exiting")
}
