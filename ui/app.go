package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"surveylens/domain/dataset"
	"surveylens/internal"
	"surveylens/internal/analysis"
	"surveylens/internal/session"
	uimiddleware "surveylens/ui/middleware"
	"surveylens/ui/services"
)

//go:embed templates static
var embeddedFiles embed.FS

// DatasetLoader turns an uploaded file into a dataset
type DatasetLoader interface {
	Load(name string, src io.Reader) (*dataset.Dataset, error)
}

// App represents the dashboard application
type App struct {
	router    *chi.Mux
	store     *session.Store
	data      *services.DataService
	render    *services.RenderService
	loader    DatasetLoader
	templates *template.Template
	config    Config
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port           string
	MaxUploadBytes int64
}

// NewApp creates a new dashboard over the session store
func NewApp(config Config, store *session.Store, analyzer *analysis.Analyzer, loader DatasetLoader) (*App, error) {
	templates, err := template.New("").Funcs(funcMap()).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		store:     store,
		data:      services.NewDataService(store, analyzer),
		render:    services.NewRenderService(templates),
		loader:    loader,
		templates: templates,
		config:    config,
		logger:    internal.DefaultLogger.WithComponent("UI"),
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		a.logger.Error("Static filesystem unavailable: %v", err)
		return
	}
	a.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/upload", a.handleUpload)
	a.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	a.router.Route("/datasets/{id}", func(r chi.Router) {
		r.Use(uimiddleware.RequireDataset(a.store))

		r.Get("/", a.handleDataset)
		r.Post("/filter", a.handleFilter)
		r.Post("/delete", a.handleDelete)

		r.Get("/segments", a.handleSegments)
		r.Get("/overview", a.handleOverview)
		r.Get("/checkbox", a.handleCheckbox)
		r.Get("/groups", a.handleGroup)
		r.Get("/profile", a.handleProfile)
	})
}

// Handler returns the HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// Addr is the listen address for the configured port
func (a *App) Addr() string {
	return ":" + strings.TrimPrefix(a.config.Port, ":")
}

// HTMX helpers
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
