package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/salcon83/lifebooks-ai/internal/config"
	"github.com/salcon83/lifebooks-ai/internal/gateway"
	"github.com/salcon83/lifebooks-ai/internal/interview"
	"github.com/salcon83/lifebooks-ai/internal/story"
)

// Deps are the collaborators the HTTP handlers delegate to.
type Deps struct {
	Catalog *interview.Catalog
	Gateway gateway.Gateway
	Store   *story.Store
}

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *slog.Logger
	router *gin.Engine
	deps   Deps
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	// Configure proxy trust for production (Fly.io)
	if cfg.IsProduction() {
		router.TrustedPlatform = gin.PlatformFlyIO
		logger.Debug("Configured trusted platform", "platform", "fly.io")
	}

	server := &Server{
		config: cfg,
		logger: logger,
		router: router,
		deps:   deps,
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/story-types", s.handleStoryTypes)

		api.POST("/transcribe", s.handleTranscribe)
		api.POST("/enhance-text", s.handleEnhance)
		api.POST("/interview/start", s.handleInterviewStart)
		api.POST("/interview/respond", s.handleInterviewRespond)
		api.POST("/interview/outline", s.handleInterviewOutline)

		api.POST("/story", s.handleCreateStory)
		api.GET("/story/:id", s.handleGetStory)
		api.POST("/story/:id/auto-save", s.handleAutoSave)
		api.GET("/stories", s.handleListStories)
	}

	// The front-end is served from PUBLIC_DIR when no API route matches.
	if s.config.PublicDir != "" {
		s.router.Use(static.Serve("/", static.LocalFile(s.config.PublicDir, false)))
	}
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "lifebooks",
	})
}

func (s *Server) handleStoryTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"story_types": s.deps.Catalog.Types()})
}
