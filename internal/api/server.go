package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"powersim/app"
	"powersim/domain/core"
	"powersim/domain/result"
	"powersim/domain/simspec"
	"powersim/internal"
	"powersim/internal/render"
	"powersim/ports"
)

// Server is the thin HTTP wrapper around the power-analysis service.
// It constructs SimulationSpecs from request bodies and returns reports;
// the engine itself defines no wire protocol.
type Server struct {
	service *app.PowerAnalysisService
	store   ports.RunStore // nil disables the read endpoints
	logger  *internal.Logger
}

// NewServer creates the API server. store may be nil.
func NewServer(service *app.PowerAnalysisService, store ports.RunStore) *Server {
	return &Server{
		service: service,
		store:   store,
		logger:  internal.DefaultLogger,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	api := router.Group("/api")
	{
		api.POST("/runs", s.handleCreateRun)
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)
		api.GET("/runs/:id/report.md", s.handleGetReportMarkdown)
		api.GET("/runs/:id/report.html", s.handleGetReportHTML)
	}
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateRun(c *gin.Context) {
	var spec simspec.SimulationSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spec body: " + err.Error()})
		return
	}

	record, err := s.service.Execute(c.Request.Context(), spec)
	if err != nil {
		if core.IsInvalidSpec(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, core.ErrNoSuccessfulReplications) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run failed"})
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	records, err := s.store.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list runs failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": records})
}

func (s *Server) fetchRun(c *gin.Context) *result.RunRecord {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is not configured"})
		return nil
	}
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil
	}
	record, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return nil
		}
		s.logger.Error("get run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return nil
	}
	return record
}

func (s *Server) handleGetRun(c *gin.Context) {
	if record := s.fetchRun(c); record != nil {
		c.JSON(http.StatusOK, record)
	}
}

func (s *Server) handleGetReportMarkdown(c *gin.Context) {
	if record := s.fetchRun(c); record != nil {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(render.ReportMarkdown(record)))
	}
}

func (s *Server) handleGetReportHTML(c *gin.Context) {
	if record := s.fetchRun(c); record != nil {
		c.Data(http.StatusOK, "text/html; charset=utf-8", render.ReportHTML(record))
	}
}
