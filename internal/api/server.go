// Package api exposes the survey analyses as a JSON HTTP API.
package api

import (
	"io"
	"net/http"

	"surveylens/domain/dataset"
	"surveylens/internal"
	"surveylens/internal/analysis"
	"surveylens/internal/errors"
	"surveylens/internal/session"

	"github.com/gin-gonic/gin"
)

// DatasetLoader turns an uploaded file into a dataset
type DatasetLoader interface {
	Load(name string, src io.Reader) (*dataset.Dataset, error)
}

// Server wires the analysis handlers to a gin engine
type Server struct {
	router    *gin.Engine
	store     *session.Store
	analyzer  *analysis.Analyzer
	loader    DatasetLoader
	hub       *SSEHub
	maxUpload int64
	logger    *internal.Logger
}

// NewServer creates the API server. maxUpload bounds multipart uploads in bytes.
func NewServer(store *session.Store, analyzer *analysis.Analyzer, loader DatasetLoader, hub *SSEHub, maxUpload int64) *Server {
	s := &Server{
		router:    gin.Default(),
		store:     store,
		analyzer:  analyzer,
		loader:    loader,
		hub:       hub,
		maxUpload: maxUpload,
		logger:    internal.DefaultLogger.WithComponent("API"),
	}
	s.router.MaxMultipartMemory = maxUpload
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/events", s.hub.HandleSSE)

	datasets := s.router.Group("/datasets")
	{
		datasets.POST("", s.handleUpload)
		datasets.GET("", s.handleListDatasets)
		datasets.GET("/:id", s.handleGetDataset)
		datasets.DELETE("/:id", s.handleDeleteDataset)

		datasets.GET("/:id/columns", s.handleColumns)
		datasets.GET("/:id/columns/:column/values", s.handleUniqueValues)
		datasets.GET("/:id/columns/:column/profile", s.handleColumnProfile)
		datasets.GET("/:id/profile", s.handleProfile)
		datasets.POST("/:id/filter", s.handleFilter)

		datasets.GET("/:id/summary", s.handleSummary)
		datasets.GET("/:id/segments", s.handleSegmentAnalysis)
		datasets.GET("/:id/segments/overview", s.handleSegmentOverview)
		datasets.GET("/:id/checkbox", s.handleCheckboxBySegment)
		datasets.GET("/:id/checkbox-groups", s.handleCheckboxGroups)
		datasets.GET("/:id/checkbox-groups/:prefix", s.handleCheckboxGroup)
		datasets.POST("/:id/advanced", s.handleAdvanced)
		datasets.GET("/:id/text-digest", s.handleTextDigest)
		datasets.GET("/:id/report", s.handleReport)
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, errors.Payload(err))
}
