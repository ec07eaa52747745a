package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes sets up the v1 API structure.
// Groups: /api/v1/auth (open), everything else behind the token middleware.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")

	v1.POST("/auth/login", s.handleLogin)

	authed := v1.Group("")
	authed.Use(s.authMiddleware())
	{
		authed.GET("/workspace", s.handleWorkspace)

		authed.POST("/timer/start", s.handleTimerStart)
		authed.GET("/timer", s.handleTimerStatus)
		authed.POST("/timer/stop", s.handleTimerStop)

		authed.GET("/projects", s.handleProjects)
		authed.GET("/tags", s.handleTags)
		authed.GET("/falcon-sets", s.handleFalconSets)

		authed.POST("/sets/structure", s.handleCreateStructure)
		authed.POST("/sets", s.handleCreateSet)
		authed.GET("/sets/open", s.handleOpenSet)
		authed.PUT("/sets", s.handleUpdateSet)
		authed.POST("/sets/archive", s.handleArchive)

		authed.GET("/dry-weights/pending", s.handlePendingDryWeights)
		authed.PUT("/dry-weights", s.handleSaveDryWeights)

		authed.GET("/export", s.handleExport)
	}
}
