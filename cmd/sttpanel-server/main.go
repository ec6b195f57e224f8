package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/synstt/sttpanel/pkg/sttpanel/analytics"
	"github.com/synstt/sttpanel/pkg/sttpanel/apikeys"
	"github.com/synstt/sttpanel/pkg/sttpanel/auth"
	"github.com/synstt/sttpanel/pkg/sttpanel/config"
	"github.com/synstt/sttpanel/pkg/sttpanel/database"
	"github.com/synstt/sttpanel/pkg/sttpanel/logging"
	"github.com/synstt/sttpanel/pkg/sttpanel/models"
	"github.com/synstt/sttpanel/pkg/sttpanel/users"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := database.Connect(cfg.DatabaseDSN); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	db := database.GetDB()

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	// Idempotent: an existing admin is never overwritten
	if err := auth.EnsureDefaultAdmin(db, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword); err != nil {
		logger.Fatal("failed to ensure default admin exists", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		authHandler := auth.NewHandler(db, cfg)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Key verification for the transcription service (key-authenticated)
		apiKeysHandler := apikeys.NewHandler(db)
		apiKeysHandler.RegisterVerifyRoutes(api)

		// Everything else requires a valid session cookie
		protected := api.Group("", auth.RequireSession(cfg))

		usersHandler := users.NewHandler(db)
		usersHandler.RegisterRoutes(protected)

		apiKeysHandler.RegisterRoutes(protected)

		analyticsHandler := analytics.NewHandler(db)
		analyticsHandler.RegisterRoutes(protected)
	}

	// Serve the static panel frontend if web/dist exists
	webDistPath := "./web/dist"
	if _, err := os.Stat(webDistPath); err == nil {
		r.Static("/assets", filepath.Join(webDistPath, "assets"))
		r.StaticFile("/favicon.ico", filepath.Join(webDistPath, "favicon.ico"))

		indexHTML := filepath.Join(webDistPath, "index.html")
		serveIndex := func(c *gin.Context) {
			c.File(indexHTML)
		}

		// Login is the only page reachable without a session
		r.GET("/login", serveIndex)

		gate := auth.RequireSession(cfg)
		for _, route := range []string{"/", "/users", "/analytics"} {
			r.GET(route, gate, serveIndex)
		}
		r.GET("/users/*path", gate, serveIndex)

		logger.Info("serving frontend", zap.String("path", webDistPath))
	} else {
		logger.Info("no frontend build found - API only mode")
	}

	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
