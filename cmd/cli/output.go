package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"surveylens/domain/dataset"
	"surveylens/internal/analysis"
	"surveylens/internal/errors"
	"surveylens/internal/report"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return errors.InvalidInput(fmt.Sprintf("unknown format %q, use table, json or yaml", format))
}

// encode writes v as JSON or YAML. YAML goes through the JSON form so both
// outputs share field names and the NaN handling of result tables.
func encode(w io.Writer, format string, v interface{}) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

// cell prints a table value with at most four decimals; undefined values print as n/a
func cell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func renderTable(w io.Writer, t *dataset.Table) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{t.IndexName}, t.Columns...))
	for _, row := range t.Rows {
		line := make([]string, 0, len(row.Values)+1)
		line = append(line, row.Label)
		for _, v := range row.Values {
			line = append(line, cell(v))
		}
		table.Append(line)
	}
	table.Render()
}

func printLines(w io.Writer, format, key string, lines []string) error {
	if format != formatTable {
		return encode(w, format, map[string][]string{key: lines})
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

func printTable(w io.Writer, format string, t *dataset.Table, raw interface{}) error {
	if format != formatTable {
		return encode(w, format, raw)
	}
	renderTable(w, t)
	return nil
}

func printColumns(w io.Writer, format string, columns []analysis.ColumnInfo) error {
	if format != formatTable {
		return encode(w, format, columns)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Column", "Type", "Roles", "Values", "Filterable"})
	for _, c := range columns {
		table.Append([]string{c.Name, c.Type, strings.Join(c.Roles, ", "), strconv.Itoa(c.Count), strconv.FormatBool(c.Filterable)})
	}
	table.Render()
	return nil
}

func printGroups(w io.Writer, format string, groups analysis.CheckboxGroups) error {
	if format != formatTable {
		return encode(w, format, groups)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Prefix", "Options"})
	for _, g := range groups {
		table.Append([]string{g.Prefix, strings.Join(g.Columns, ", ")})
	}
	table.Render()
	return nil
}

func printTokens(w io.Writer, format, column string, tokens []dataset.TokenCount) error {
	if format != formatTable {
		return encode(w, format, map[string]interface{}{"column": column, "top": tokens})
	}
	fmt.Fprintf(w, "Words in %s\n", column)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Word", "Count"})
	for _, tc := range tokens {
		table.Append([]string{tc.Token, strconv.Itoa(tc.Count)})
	}
	table.Render()
	return nil
}

func printAdvanced(w io.Writer, format string, result *dataset.AdvancedResult, notes []report.Note) error {
	if format != formatTable {
		return encode(w, format, map[string]interface{}{"result": result, "notes": notes})
	}
	writeAdvanced(w, result, notes)
	return nil
}

func writeAdvanced(w io.Writer, result *dataset.AdvancedResult, notes []report.Note) {
	for _, section := range result.Sections {
		fmt.Fprintf(w, "\n%s\n", section.Title)
		renderTable(w, section.Table)
		for _, n := range notes {
			if n.Section == section.Title {
				fmt.Fprintf(w, "Note: %s\n", n.Text)
			}
		}
	}
	if r := result.Regression; r != nil {
		fmt.Fprintf(w, "Regression on %s: intercept %s, R² %s, %d rows\n", r.Target, cell(r.Intercept), cell(r.RSquared), r.Observations)
	}
	for _, skip := range result.Skipped {
		subject := ""
		if skip.Subject != "" {
			subject = " (" + skip.Subject + ")"
		}
		fmt.Fprintf(w, "Skipped %s%s: %s\n", skip.Kind, subject, skip.Reason)
	}
}

func printReport(w io.Writer, format string, r *report.Report) error {
	if format != formatTable {
		return encode(w, format, r)
	}

	fmt.Fprintf(w, "%d rows, %d columns\n\n", r.Rows, len(r.Columns))
	for _, line := range r.Summary {
		fmt.Fprintln(w, line)
	}

	if r.SegmentOverview != nil {
		fmt.Fprintf(w, "\nResponses by %s\n", r.SegmentColumn)
		renderTable(w, r.SegmentOverview)
	}
	for _, group := range r.CheckboxGroups {
		fmt.Fprintf(w, "\n%s by %s\n", analysis.Humanize(group.Prefix), group.SegmentColumn)
		renderTable(w, group.Table())
	}
	if len(r.TopWords) > 0 {
		words := make([]string, len(r.TopWords))
		for i, tc := range r.TopWords {
			words[i] = fmt.Sprintf("%s (%d)", tc.Token, tc.Count)
		}
		fmt.Fprintf(w, "\nCommon words in %s: %s\n", r.TextColumn, strings.Join(words, ", "))
	}

	writeAdvanced(w, r.Advanced, r.Notes)
	return nil
}
