package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marebio/respirolab/services/api/calc"
	"github.com/marebio/respirolab/services/api/lifecycle"
)

// handleCreateStructure saves a SETUP skeleton: one row per animal, all
// measurement fields empty.
// POST /api/v1/sets/structure
func (s *Server) handleCreateStructure(c *gin.Context) {
	var in lifecycle.SetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	records, err := s.controller.CreateStructure(ctx, operator(c), in)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": records,
		"meta": gin.H{"count": len(records)},
	})
}

// handleCreateSet is the one-shot save with measurements and derived
// metrics computed per row.
// POST /api/v1/sets
func (s *Server) handleCreateSet(c *gin.Context) {
	var in lifecycle.SetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	records, err := s.controller.CreateSet(ctx, operator(c), in)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": records,
		"meta": gin.H{"count": len(records)},
	})
}

// handleOpenSet lists the operator's editable rows of today.
// GET /api/v1/sets/open?project=
func (s *Server) handleOpenSet(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	records, err := s.controller.OpenSet(ctx, operator(c), c.Query("project"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"meta": gin.H{"count": len(records)},
	})
}

// handleUpdateSet applies a batch of row edits (AGGIORNA DATI).
// PUT /api/v1/sets
func (s *Server) handleUpdateSet(c *gin.Context) {
	var body struct {
		Rows []lifecycle.RowEdit `json:"rows"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.Rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rows are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := s.controller.UpdateSet(ctx, operator(c), body.Rows)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// handleArchive moves every row of the named set to ARCHIVIATO.
// POST /api/v1/sets/archive
func (s *Server) handleArchive(c *gin.Context) {
	var body struct {
		Project string `json:"project"`
		Date    string `json:"date"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	archived, err := s.controller.Archive(ctx, operator(c), body.Project, body.Date)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"archived": archived}})
}

// handleProjects returns the sorted distinct project names.
// GET /api/v1/projects
func (s *Server) handleProjects(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	projects, err := s.records.Projects(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": projects})
}

// handleTags returns the tag names seen globally or within one project.
// GET /api/v1/tags?project=
func (s *Server) handleTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	var (
		names []string
		err   error
	)
	if project := c.Query("project"); project != "" {
		names, err = s.registry.ForProject(ctx, project)
	} else {
		names, err = s.registry.All(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": names})
}

// handleFalconSets lists the calibrated Falcon datasets and their tares.
// GET /api/v1/falcon-sets
func (s *Server) handleFalconSets(c *gin.Context) {
	sets := make([]gin.H, 0, len(calc.FalconSetNames()))
	for _, name := range calc.FalconSetNames() {
		sets = append(sets, gin.H{
			"name":  name,
			"tares": calc.FalconDatasets[name],
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": sets})
}
