package container

import (
	"context"
	"fmt"
	"path/filepath"

	"surveylens/adapters/excel"
	"surveylens/internal"
	"surveylens/internal/analysis"
	"surveylens/internal/api"
	"surveylens/internal/config"
	"surveylens/internal/errors"
	"surveylens/internal/session"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	Store    *session.Store
	Analyzer *analysis.Analyzer
	Reader   *excel.DataReader
	SSEHub   *api.SSEHub

	logger *internal.Logger
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	analyzerConfig := analysis.DefaultConfig()
	analyzerConfig.InPlace = cfg.Analysis.InPlace
	analyzerConfig.Coercion.Lenient = cfg.Data.LenientNumbers

	c := &Container{
		Config:   cfg,
		Store:    session.NewStore(),
		Analyzer: analysis.NewAnalyzer(analyzerConfig),
		Reader:   excel.NewDataReader(readerConfig(cfg, "")),
		SSEHub:   api.NewSSEHub(),
		logger:   internal.DefaultLogger.WithComponent("Container"),
	}

	return c, nil
}

func readerConfig(cfg *config.Config, path string) excel.ExcelConfig {
	readerConfig := excel.DefaultExcelConfig()
	readerConfig.FilePath = path
	readerConfig.Sheet = cfg.Data.Sheet
	readerConfig.CoercionConfig.Lenient = cfg.Data.LenientNumbers
	return readerConfig
}

// Preload loads DATA_FILE into the store when one is configured
func (c *Container) Preload() (*session.Entry, error) {
	path := c.Config.Data.File
	if path == "" {
		c.logger.Info("No data file configured, waiting for uploads")
		return nil, nil
	}

	ds, err := excel.NewDataReader(readerConfig(c.Config, path)).ReadDataset()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to preload %s", path)
	}
	entry := c.Store.Put(filepath.Base(path), ds)
	return &entry, nil
}

// APIServer builds the JSON API over the container's components
func (c *Container) APIServer() *api.Server {
	return api.NewServer(c.Store, c.Analyzer, c.Reader, c.SSEHub, c.Config.Data.MaxUploadBytes())
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	c.SSEHub.Close()
	c.logger.Info("Container shut down")
	return nil
}
