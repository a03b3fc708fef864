package ui

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"surveylens/internal/analysis"
	"surveylens/internal/errors"
	"surveylens/ui/services"
)

// Page and fragment template names
const (
	tmplIndex   = "index.html"
	tmplDataset = "dataset.html"
	tmplResult  = "result.html"
	tmplError   = "error.html"
	fragTable   = "table"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"markdown": services.Markdown,
		"cell":     services.FormatCell,
		"humanize": analysis.Humanize,
		"join":     strings.Join,
		// fontSize scales a word weight in (0, 1] to a cloud font size in px
		"fontSize": func(weight float64) int { return 12 + int(weight*28) },
	}
}

// renderTemplate executes a page template with the given data
func (a *App) renderTemplate(w http.ResponseWriter, status int, templateName string, data interface{}) {
	// Render to a buffer so a failing template never writes a partial page
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		a.logger.Error("Template error for %s: %v", templateName, err)
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("Error writing template response: %v", err)
	}
}

// errorPage is the view model of the error page
type errorPage struct {
	Title   string
	Message string
	Back    string
}

func (a *App) renderError(w http.ResponseWriter, err error, back string) {
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("Request failed: %v", err)
	}
	a.renderTemplate(w, status, tmplError, errorPage{
		Title:   "Analysis error",
		Message: errors.Payload(err)["error"],
		Back:    back,
	})
}
