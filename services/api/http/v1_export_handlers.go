package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marebio/respirolab/services/api/lifecycle"
)

// handlePendingDryWeights lists rows still waiting for a Day-3 dry weight.
// GET /api/v1/dry-weights/pending?project=
func (s *Server) handlePendingDryWeights(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	pending, err := s.controller.PendingDryWeights(ctx, c.Query("project"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": pending,
		"meta": gin.H{"count": len(pending)},
	})
}

// handleSaveDryWeights writes the entered values; blank rows are skipped.
// PUT /api/v1/dry-weights
func (s *Server) handleSaveDryWeights(c *gin.Context) {
	var body struct {
		Entries []lifecycle.DryWeightEntry `json:"entries"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entries are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	updated, err := s.controller.SaveDryWeights(ctx, body.Entries)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": updated}})
}

// handleExport downloads the flattened table as CSV or JSON.
// GET /api/v1/export?format=csv|json&project=
func (s *Server) handleExport(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	table, err := s.exporter.Table(ctx, c.Query("project"))
	if err != nil {
		fail(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "csv":
		var buf bytes.Buffer
		if err := table.WriteCSV(&buf); err != nil {
			fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="respirometria.csv"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "json":
		c.JSON(http.StatusOK, gin.H{
			"data": table.JSONRows(),
			"meta": gin.H{"count": len(table.Rows)},
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid format"})
	}
}
