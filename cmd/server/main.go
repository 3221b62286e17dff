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

	"silverland-assistant/internal/agent"
	"silverland-assistant/internal/config"
	"silverland-assistant/internal/handler"
	"silverland-assistant/internal/llm"
	"silverland-assistant/internal/logger"
	"silverland-assistant/internal/repository"
	"silverland-assistant/internal/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()

	zlog.Info("SilverLand Property Assistant",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewProjectRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		zlog,
	)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()
	zlog.Info("Connected to PostgreSQL database")

	// Initialize session store
	sessions := repository.NewSessionStore(cfg.Redis, cfg.Session.TTL)
	defer sessions.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sessions.Ping(pingCtx); err != nil {
		zlog.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	zlog.Info("Connected to Redis session store",
		zap.Duration("session_ttl", cfg.Session.TTL))

	// Initialize the completion and web-search clients
	chatClient := llm.NewClient(&cfg.LLM, zlog)
	zlog.Info("Completion client initialized",
		zap.String("api_base", cfg.LLM.APIBase),
		zap.String("model", cfg.LLM.Model),
		zap.Float64("temperature", cfg.LLM.Temperature),
	)

	searcher := search.NewClient(&cfg.WebSearch, zlog)
	if cfg.WebSearch.APIURL == "" {
		zlog.Warn("Web search is disabled - project detail fallback will apologize instead. " +
			"Set WEB_SEARCH_API_URL to enable it")
	}

	// Wire the agent and handlers
	ag := agent.New(chatClient, repo, searcher, zlog)
	chatHandler := handler.NewChatHandler(sessions, ag, zlog)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "silverland-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/conversations", chatHandler.CreateConversation)
		apiV1.POST("/chat", chatHandler.Chat)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zlog.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Forced shutdown", zap.Error(err))
	}
	zlog.Info("Server stopped")
}
