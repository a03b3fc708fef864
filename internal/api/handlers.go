package api

import (
	"net/http"
	"path/filepath"
	"strconv"

	"surveylens/domain/dataset"
	"surveylens/internal/analysis"
	"surveylens/internal/errors"
	"surveylens/internal/profiling"
	"surveylens/internal/report"
	"surveylens/internal/session"

	"github.com/gin-gonic/gin"
)

// currentAlias addresses the most recently loaded dataset
const currentAlias = "current"

func datasetID(c *gin.Context) string {
	id := c.Param("id")
	if id == currentAlias {
		return ""
	}
	return id
}

// withDataset runs fn against the addressed dataset and writes its result as JSON
func (s *Server) withDataset(c *gin.Context, fn func(session.Entry, *dataset.Dataset) (interface{}, error)) {
	var body interface{}
	err := s.store.Use(datasetID(c), func(entry session.Entry, ds *dataset.Dataset) error {
		var err error
		body, err = fn(entry, ds)
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	header, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, errors.InvalidInput("a CSV or XLSX file is required in the \"file\" field"))
		return
	}
	f, err := header.Open()
	if err != nil {
		s.respondError(c, errors.Wrap(err, "failed to open upload"))
		return
	}
	defer f.Close()

	ds, err := s.loader.Load(header.Filename, f)
	if err != nil {
		s.respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}

	entry := s.store.Put(filepath.Base(header.Filename), ds)
	s.hub.Broadcast(AnalysisEvent{
		DatasetID: entry.ID.String(),
		EventType: EventDatasetLoaded,
		Data:      map[string]interface{}{"name": entry.Name, "rows": entry.Rows},
	})
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleListDatasets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"datasets": s.store.List()})
}

func (s *Server) handleGetDataset(c *gin.Context) {
	var (
		entry session.Entry
		err   error
	)
	if id := datasetID(c); id == "" {
		entry, err = s.store.Current()
	} else {
		entry, err = s.store.Get(id)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleDeleteDataset(c *gin.Context) {
	id := datasetID(c)
	if id == "" {
		current, err := s.store.Current()
		if err != nil {
			s.respondError(c, err)
			return
		}
		id = current.ID.String()
	}
	if err := s.store.Delete(id); err != nil {
		s.respondError(c, err)
		return
	}
	s.hub.Broadcast(AnalysisEvent{DatasetID: id, EventType: EventDatasetDeleted})
	c.Status(http.StatusNoContent)
}

func (s *Server) handleColumns(c *gin.Context) {
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		return gin.H{"columns": analysis.DescribeColumns(ds)}, nil
	})
}

func (s *Server) handleUniqueValues(c *gin.Context) {
	column := c.Param("column")
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		values, err := ds.UniqueValues(column)
		if err != nil {
			return nil, errors.ColumnNotFound("Selected column not found in data.")
		}
		return gin.H{"column": column, "values": values}, nil
	})
}

func (s *Server) handleColumnProfile(c *gin.Context) {
	column := c.Param("column")
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		profile, err := profiling.ProfileColumn(ds, column)
		if err != nil {
			return nil, err
		}
		return gin.H{"profile": profile}, nil
	})
}

func (s *Server) handleProfile(c *gin.Context) {
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		profiles := profiling.ProfileDataset(ds)
		return gin.H{"profiles": profiles, "table": profiling.Table(profiles)}, nil
	})
}

// FilterRequest keeps the rows whose value in each column is one of the listed values
type FilterRequest struct {
	Filters map[string][]string `json:"filters" binding:"required"`
}

func (s *Server) handleFilter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput("invalid filter request: "+err.Error()))
		return
	}

	var (
		filtered *dataset.Dataset
		name     string
	)
	err := s.store.Use(datasetID(c), func(entry session.Entry, ds *dataset.Dataset) error {
		var err error
		filtered, err = analysis.ApplyFilters(ds, req.Filters)
		name = entry.Name + " (filtered)"
		return err
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	entry := s.store.Put(name, filtered)
	s.hub.Broadcast(AnalysisEvent{DatasetID: entry.ID.String(), EventType: EventDatasetLoaded, Data: map[string]interface{}{"name": name, "rows": entry.Rows}})
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleSummary(c *gin.Context) {
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		return gin.H{"summary": s.analyzer.GenerateSummary(ds)}, nil
	})
}

func (s *Server) handleSegmentAnalysis(c *gin.Context) {
	segment, metric := c.Query("segment"), c.Query("metric")
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		result, err := s.analyzer.PerformSegmentAnalysis(ds, segment, metric)
		if err != nil {
			return nil, err
		}
		return gin.H{"result": result, "table": result.Table()}, nil
	})
}

func (s *Server) handleSegmentOverview(c *gin.Context) {
	column := c.Query("column")
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		table, err := s.analyzer.SegmentSummary(ds, column)
		if err != nil {
			return nil, err
		}
		return gin.H{"segment_summary": table}, nil
	})
}

func (s *Server) handleCheckboxBySegment(c *gin.Context) {
	checkbox, segment := c.Query("checkbox"), c.Query("segment")
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		result, err := s.analyzer.AnalyzeCheckboxBySegment(ds, checkbox, segment)
		if err != nil {
			return nil, err
		}
		return gin.H{"result": result, "table": result.Table()}, nil
	})
}

func (s *Server) handleCheckboxGroups(c *gin.Context) {
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		return gin.H{"groups": analysis.ResolveCheckboxGroups(ds)}, nil
	})
}

func (s *Server) handleCheckboxGroup(c *gin.Context) {
	prefix, segment := c.Param("prefix"), c.Query("segment")
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		result, err := s.analyzer.AnalyzeCheckboxGroup(ds, prefix, segment)
		if err != nil {
			return nil, err
		}
		if result.Empty() {
			return nil, errors.InsufficientData("No data found for this question group.")
		}
		return gin.H{"result": result, "table": result.Table()}, nil
	})
}

func (s *Server) handleAdvanced(c *gin.Context) {
	s.withDataset(c, func(entry session.Entry, ds *dataset.Dataset) (interface{}, error) {
		result := s.analyzer.RunAdvancedAnalysis(ds)
		s.hub.Broadcast(AnalysisEvent{
			DatasetID: entry.ID.String(),
			EventType: EventAnalysisCompleted,
			Data:      map[string]interface{}{"kind": "advanced", "sections": len(result.Sections)},
		})
		return gin.H{
			"result":       result,
			"notes":        report.Interpret(result),
			"insufficient": result.Insufficient(),
		}, nil
	})
}

func (s *Server) handleTextDigest(c *gin.Context) {
	top := queryInt(c, "top", 20)
	keepStopwords := c.Query("stopwords") == "keep"
	s.withDataset(c, func(_ session.Entry, ds *dataset.Dataset) (interface{}, error) {
		freq, col := s.analyzer.GenerateTextDigest(ds)
		if freq == nil {
			return nil, errors.InsufficientData("No suitable text column found for wordcloud.")
		}
		if !keepStopwords {
			freq = freq.WithoutStopwords(analysis.DefaultStopwords)
		}
		return gin.H{
			"column":  col,
			"total":   freq.Total(),
			"top":     freq.Top(top),
			"weights": freq.Normalized(),
		}, nil
	})
}

func (s *Server) handleReport(c *gin.Context) {
	opts := report.Options{
		SegmentColumn: c.Query("segment"),
		TopWords:      queryInt(c, "top", 0),
		Stopwords:     analysis.DefaultStopwords,
	}
	s.withDataset(c, func(entry session.Entry, ds *dataset.Dataset) (interface{}, error) {
		r, err := report.Build(c.Request.Context(), s.analyzer, ds, opts)
		if err != nil {
			return nil, err
		}
		s.hub.Broadcast(AnalysisEvent{
			DatasetID: entry.ID.String(),
			EventType: EventAnalysisCompleted,
			Data:      map[string]interface{}{"kind": "report", "sections": len(r.Advanced.Sections)},
		})
		return r, nil
	})
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return defaultValue
}
