package analysis

import (
	"fmt"
	"strings"

	"surveylens/domain/dataset"

	"github.com/montanaflynn/stats"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	summaryTopWords       = 5
	checkboxSummaryHeader = "**Popular features selected:**"
)

// GenerateSummary produces a Markdown digest of the numeric, checkbox and
// free-text columns. It never fails; categories with nothing to report produce no lines.
func (a *Analyzer) GenerateSummary(ds *dataset.Dataset) []string {
	var summary []string

	for _, c := range ds.Columns() {
		if !c.IsNumeric() {
			continue
		}
		values := c.NonMissingFloats()
		summary = append(summary, fmt.Sprintf("**%s**: mean %s, std %s, count %d",
			c.Name, formatStat(mean(values)), formatStat(sampleStdDev(values)), len(values)))
	}

	var checkboxLines []string
	for _, c := range ds.Columns() {
		if !IsBinaryIndicator(c) {
			continue
		}
		selected, _ := stats.Sum(c.NonMissingFloats())
		percent := selected / float64(ds.Rows()) * 100
		checkboxLines = append(checkboxLines, fmt.Sprintf("- %s: selected by %.1f%%", Humanize(c.Name), percent))
	}
	if len(checkboxLines) > 0 {
		summary = append(summary, checkboxSummaryHeader)
		summary = append(summary, checkboxLines...)
	}

	if c := firstRichTextColumn(ds); c != nil {
		top := NewFrequencyDistribution(tokenize(c)).Top(summaryTopWords)
		words := make([]string, len(top))
		for i, tc := range top {
			words[i] = tc.Token
		}
		summary = append(summary, fmt.Sprintf("**Top words in %s:** %s", c.Name, strings.Join(words, ", ")))
	}

	a.logger.Debug("Summary generated: %d lines for %d columns", len(summary), len(ds.ColumnNames()))
	return summary
}

// Humanize turns a column name like "feature_dark_mode" into "Feature Dark Mode"
func Humanize(name string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(name, checkboxSeparator, " "))
}

// mean returns ok=false for an empty input
func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m, err := stats.Mean(values)
	return m, err == nil
}

// sampleStdDev is the n-1 standard deviation; undefined below two values
func sampleStdDev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	sd, err := stats.StandardDeviationSample(values)
	return sd, err == nil
}

func formatStat(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
