package services

import (
	"html/template"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderService turns analysis output into HTML fragments
type RenderService struct {
	templates *template.Template
}

func NewRenderService(templates *template.Template) *RenderService {
	return &RenderService{
		templates: templates,
	}
}

// Markdown renders summary lines as one Markdown document. Raw HTML in the
// input (column names come from user files) is dropped.
func Markdown(lines []string) template.HTML {
	if len(lines) == 0 {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	out := markdown.ToHTML([]byte(strings.Join(lines, "\n\n")), p, renderer)
	return template.HTML(out)
}

// FormatCell prints a table cell; undefined values print as n/a
func FormatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// RenderFragment executes a fragment template into HTML for embedding in a page
func (s *RenderService) RenderFragment(name string, data interface{}) template.HTML {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[ERROR] Failed to render fragment %s: %v", name, err)
		return `<div class="error">Error rendering results</div>`
	}
	return template.HTML(buf.String())
}
