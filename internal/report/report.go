// Package report assembles the full survey report shown by the dashboard and the CLI.
package report

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"surveylens/domain/dataset"
	"surveylens/internal"
	"surveylens/internal/analysis"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTopWords      = 20
	significanceLevel    = 0.05
	strongCorrelationMin = 0.7
)

// Options selects the optional parts of a report
type Options struct {
	// SegmentColumn enables the segment overview and the checkbox group breakdowns
	SegmentColumn string
	TopWords      int
	// Stopwords are dropped from the word list; nil keeps every token
	Stopwords map[string]bool
}

// Note is an interpretation hint attached to one advanced-analysis section
type Note struct {
	Section string `json:"section"`
	Text    string `json:"text"`
}

// Report is everything the dashboard renders for one dataset
type Report struct {
	Rows            int                            `json:"rows"`
	Columns         []string                       `json:"columns"`
	Summary         []string                       `json:"summary"`
	TextColumn      string                         `json:"text_column,omitempty"`
	TopWords        []dataset.TokenCount           `json:"top_words,omitempty"`
	WordWeights     map[string]float64             `json:"word_weights,omitempty"`
	SegmentColumn   string                         `json:"segment_column,omitempty"`
	SegmentOverview *dataset.Table                 `json:"segment_overview,omitempty"`
	CheckboxGroups  []*dataset.CheckboxGroupResult `json:"checkbox_groups,omitempty"`
	Advanced        *dataset.AdvancedResult        `json:"advanced"`
	Notes           []Note                         `json:"notes,omitempty"`
	Duration        time.Duration                  `json:"duration_ns"`
}

// Build runs every analysis over ds. The read-only sections run concurrently on a
// snapshot; the advanced analysis runs last on ds itself, so an in-place analyzer
// leaves its cluster column there.
func Build(ctx context.Context, a *analysis.Analyzer, ds *dataset.Dataset, opts Options) (*Report, error) {
	start := time.Now()
	logger := internal.DefaultLogger.WithComponent("Report")
	if opts.TopWords <= 0 {
		opts.TopWords = defaultTopWords
	}

	snapshot := ds.Clone()
	report := &Report{
		Rows:          snapshot.Rows(),
		Columns:       snapshot.ColumnNames(),
		SegmentColumn: opts.SegmentColumn,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		report.Summary = a.GenerateSummary(snapshot)
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		freq, col := a.GenerateTextDigest(snapshot)
		if freq == nil {
			return nil
		}
		if opts.Stopwords != nil {
			freq = freq.WithoutStopwords(opts.Stopwords)
		}
		report.TextColumn = col
		report.TopWords = freq.Top(opts.TopWords)
		report.WordWeights = freq.Normalized()
		return nil
	})

	if opts.SegmentColumn != "" {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			overview, err := a.SegmentSummary(snapshot, opts.SegmentColumn)
			if err != nil {
				return err
			}
			report.SegmentOverview = overview
			return nil
		})

		g.Go(func() error {
			for _, prefix := range analysis.ResolveCheckboxGroups(snapshot).Prefixes() {
				if err := gctx.Err(); err != nil {
					return err
				}
				result, err := a.AnalyzeCheckboxGroup(snapshot, prefix, opts.SegmentColumn)
				if err != nil {
					return err
				}
				if !result.Empty() {
					report.CheckboxGroups = append(report.CheckboxGroups, result)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn("Report aborted: %v", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report.Advanced = a.RunAdvancedAnalysis(ds)
	report.Notes = Interpret(report.Advanced)
	report.Duration = time.Since(start)

	logger.Info("Report built in %.2fms: %d summary lines, %d sections", float64(report.Duration.Nanoseconds())/1e6, len(report.Summary), len(report.Advanced.Sections))
	return report, nil
}

// Interpret attaches a reading hint to the sections that warrant one
func Interpret(result *dataset.AdvancedResult) []Note {
	if result == nil {
		return nil
	}
	var notes []Note
	for _, section := range result.Sections {
		if text, ok := InterpretSection(section); ok {
			notes = append(notes, Note{Section: section.Title, Text: text})
		}
	}
	return notes
}

// InterpretSection returns the hint for one section, if any
func InterpretSection(section dataset.Section) (string, bool) {
	switch section.Kind {
	case dataset.SectionANOVA:
		if len(section.Table.Rows) == 0 {
			return "", false
		}
		row := section.Table.Rows[0]
		p, ok := section.Table.Cell(row.Label, "p-value")
		if !ok || math.IsNaN(p) || p >= significanceLevel {
			return "", false
		}
		_, categorical, _ := strings.Cut(section.Title, " ~ ")
		return fmt.Sprintf("There is a statistically significant difference in %s across %s (p = %.4f).", row.Label, categorical, p), true

	case dataset.SectionCorrelation:
		strong := strongPairs(section.Table)
		if len(strong) == 0 {
			return "Review correlation strengths; no pair reaches |r| ≥ 0.7.", true
		}
		return "Review correlation strengths; strongly related: " + strings.Join(strong, ", ") + ".", true

	case dataset.SectionRegression:
		return "Higher coefficients indicate stronger influence on the target.", true
	}
	return "", false
}

// strongPairs lists the upper-triangle pairs with |r| at or above the threshold
func strongPairs(t *dataset.Table) []string {
	var out []string
	for i, row := range t.Rows {
		for j := i + 1; j < len(row.Values) && j < len(t.Columns); j++ {
			r := row.Values[j]
			if !math.IsNaN(r) && math.Abs(r) >= strongCorrelationMin {
				out = append(out, fmt.Sprintf("%s/%s (%.2f)", row.Label, t.Columns[j], r))
			}
		}
	}
	return out
}
