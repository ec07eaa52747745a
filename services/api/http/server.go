package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marebio/respirolab/services/api/auth"
	"github.com/marebio/respirolab/services/api/config"
	"github.com/marebio/respirolab/services/api/export"
	"github.com/marebio/respirolab/services/api/lifecycle"
	"github.com/marebio/respirolab/services/api/logger"
	"github.com/marebio/respirolab/services/api/store"
	"github.com/marebio/respirolab/services/api/tags"
)

// operatorKey is the gin context key carrying the authenticated username.
const operatorKey = "operator"

// Server bundles router and dependencies for the lab API.
type Server struct {
	cfg        config.Config
	log        *logger.Logger
	auth       *auth.Service
	controller *lifecycle.Controller
	registry   *tags.Registry
	exporter   *export.Exporter
	records    *store.Records
	engine     *gin.Engine
}

// New constructs a server with routes and middleware.
func New(
	cfg config.Config,
	log *logger.Logger,
	authSvc *auth.Service,
	controller *lifecycle.Controller,
	registry *tags.Registry,
	exporter *export.Exporter,
	records *store.Records,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogMiddleware(log))
	engine.Use(corsMiddleware())

	server := &Server{
		cfg:        cfg,
		log:        log.With("component", "http"),
		auth:       authSvc,
		controller: controller,
		registry:   registry,
		exporter:   exporter,
		records:    records,
		engine:     engine,
	}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		username, err := s.auth.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Set(operatorKey, username)
		c.Next()
	}
}

func requestLogMiddleware(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		reqLog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// operator returns the authenticated username set by the auth middleware.
func operator(c *gin.Context) string {
	return c.GetString(operatorKey)
}

// fail converts a core error to the HTTP boundary: validation blocks with
// an inline message, everything else surfaces as a store failure. The
// interaction that triggered it is abandoned either way.
func fail(c *gin.Context, err error) {
	if errors.Is(err, lifecycle.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
