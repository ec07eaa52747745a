package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleWorkspace runs the resume protocol for the operator.
// GET /api/v1/workspace?project=
func (s *Server) handleWorkspace(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	ws, err := s.controller.Enter(ctx, operator(c), c.Query("project"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ws})
}

// handleTimerStart starts (or silently restarts) the operator's timer.
// POST /api/v1/timer/start
func (s *Server) handleTimerStart(c *gin.Context) {
	var body struct {
		Project string `json:"project"`
	}
	_ = c.ShouldBindJSON(&body) // body is optional

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status, err := s.controller.StartTimer(ctx, operator(c), body.Project)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// handleTimerStatus reports the running timer with recomputed elapsed time.
// GET /api/v1/timer
func (s *Server) handleTimerStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status, err := s.controller.Timer(ctx, operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active timer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// handleTimerStop clears the timer and returns its final reading.
// POST /api/v1/timer/stop
func (s *Server) handleTimerStop(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status, err := s.controller.StopTimer(ctx, operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active timer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}
