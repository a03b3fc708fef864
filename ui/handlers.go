package ui

import (
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"surveylens/domain/dataset"
	"surveylens/internal/analysis"
	"surveylens/internal/errors"
	"surveylens/internal/profiling"
	"surveylens/internal/session"
	"surveylens/ui/services"
)

// currentAlias addresses the most recently loaded dataset
const currentAlias = "current"

// filterField prefixes the form fields of the row filter
const filterField = "f."

type indexPage struct {
	Title    string
	Datasets []session.Entry
	Missing  bool
	Error    string
}

type datasetView struct {
	*services.DatasetPage
	Title string
	ID    string
}

type resultPage struct {
	Title   string
	ID      string
	Dataset string
	Table   template.HTML
}

func datasetID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if id == currentAlias {
		return ""
	}
	return id
}

func datasetURL(id string) string {
	if id == "" {
		id = currentAlias
	}
	return "/datasets/" + id
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, http.StatusOK, tmplIndex, indexPage{
		Title:    "Survey analysis",
		Datasets: a.data.Datasets(),
		Missing:  r.URL.Query().Get("missing") != "",
	})
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	fail := func(status int, message string) {
		a.renderTemplate(w, status, tmplIndex, indexPage{
			Title:    "Survey analysis",
			Datasets: a.data.Datasets(),
			Error:    message,
		})
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.config.MaxUploadBytes); err != nil {
		fail(http.StatusBadRequest, "Upload a CSV or XLSX file.")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		fail(http.StatusBadRequest, "Upload a CSV or XLSX file.")
		return
	}
	defer f.Close()

	ds, err := a.loader.Load(header.Filename, f)
	if err != nil {
		a.logger.Warn("Upload %s rejected: %v", header.Filename, err)
		fail(http.StatusBadRequest, err.Error())
		return
	}

	entry := a.store.Put(filepath.Base(header.Filename), ds)
	http.Redirect(w, r, datasetURL(entry.ID.String()), http.StatusSeeOther)
}

func (a *App) handleDataset(w http.ResponseWriter, r *http.Request) {
	id := datasetID(r)
	page, err := a.data.DatasetPage(r.Context(), id, r.URL.Query().Get("segment"))
	if err != nil {
		a.renderError(w, err, datasetURL(id))
		return
	}
	a.renderTemplate(w, http.StatusOK, tmplDataset, datasetView{
		DatasetPage: page,
		Title:       page.Entry.Name,
		ID:          page.Entry.ID.String(),
	})
}

// handleFilter keeps the rows whose values are ticked. A column with no ticked
// value is left unfiltered.
func (a *App) handleFilter(w http.ResponseWriter, r *http.Request) {
	id := datasetID(r)
	if err := r.ParseForm(); err != nil {
		a.renderError(w, errors.InvalidInput("invalid filter form"), datasetURL(id))
		return
	}
	filters := make(map[string][]string)
	for key, values := range r.PostForm {
		if column, ok := strings.CutPrefix(key, filterField); ok && len(values) > 0 {
			filters[column] = values
		}
	}

	entry, err := a.data.Filter(id, filters)
	if err != nil {
		a.renderError(w, err, datasetURL(id))
		return
	}
	http.Redirect(w, r, datasetURL(entry.ID.String()), http.StatusSeeOther)
}

func (a *App) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := datasetID(r)
	if id == "" {
		current, err := a.store.Current()
		if err != nil {
			a.renderError(w, err, "/")
			return
		}
		id = current.ID.String()
	}
	if err := a.store.Delete(id); err != nil {
		a.renderError(w, err, "/")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleSegments(w http.ResponseWriter, r *http.Request) {
	segment, metric := r.URL.Query().Get("segment"), r.URL.Query().Get("metric")
	a.renderResult(w, r, "Average "+analysis.Humanize(metric)+" by "+segment,
		func(an *analysis.Analyzer, ds *dataset.Dataset) (*dataset.Table, error) {
			result, err := an.PerformSegmentAnalysis(ds, segment, metric)
			if err != nil {
				return nil, err
			}
			return result.Table(), nil
		})
}

func (a *App) handleOverview(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	a.renderResult(w, r, "Responses by "+column,
		func(an *analysis.Analyzer, ds *dataset.Dataset) (*dataset.Table, error) {
			return an.SegmentSummary(ds, column)
		})
}

func (a *App) handleCheckbox(w http.ResponseWriter, r *http.Request) {
	checkbox, segment := r.URL.Query().Get("checkbox"), r.URL.Query().Get("segment")
	a.renderResult(w, r, analysis.Humanize(checkbox)+" selected by "+segment,
		func(an *analysis.Analyzer, ds *dataset.Dataset) (*dataset.Table, error) {
			result, err := an.AnalyzeCheckboxBySegment(ds, checkbox, segment)
			if err != nil {
				return nil, err
			}
			return result.Table(), nil
		})
}

func (a *App) handleGroup(w http.ResponseWriter, r *http.Request) {
	prefix, segment := r.URL.Query().Get("prefix"), r.URL.Query().Get("segment")
	a.renderResult(w, r, analysis.Humanize(prefix)+" options by "+segment,
		func(an *analysis.Analyzer, ds *dataset.Dataset) (*dataset.Table, error) {
			result, err := an.AnalyzeCheckboxGroup(ds, prefix, segment)
			if err != nil {
				return nil, err
			}
			if result.Empty() {
				return nil, errors.InsufficientData("No data found for this question group.")
			}
			return result.Table(), nil
		})
}

func (a *App) handleProfile(w http.ResponseWriter, r *http.Request) {
	a.renderResult(w, r, "Numeric column profiles",
		func(_ *analysis.Analyzer, ds *dataset.Dataset) (*dataset.Table, error) {
			return profiling.Table(profiling.ProfileDataset(ds)), nil
		})
}

// renderResult runs fn and shows its table, as a bare fragment for HTMX requests
func (a *App) renderResult(w http.ResponseWriter, r *http.Request, title string, fn func(*analysis.Analyzer, *dataset.Dataset) (*dataset.Table, error)) {
	id := datasetID(r)
	entry, table, err := a.data.Analyze(id, fn)
	if err != nil {
		a.renderError(w, err, datasetURL(id))
		return
	}

	fragment := a.render.RenderFragment(fragTable, table)
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fragment))
		return
	}
	a.renderTemplate(w, http.StatusOK, tmplResult, resultPage{
		Title:   title,
		ID:      entry.ID.String(),
		Dataset: entry.Name,
		Table:   fragment,
	})
}
