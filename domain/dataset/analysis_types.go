package dataset

import (
	"encoding/json"
	"math"
)

// Row is one labelled row of a result table
type Row struct {
	Label  string
	Values []float64
}

// Table is a display-ready result: labelled rows of numeric cells.
// NaN and infinite cells encode as JSON null.
type Table struct {
	IndexName string
	Columns   []string
	Rows      []Row
}

// NewTable creates an empty table with the given index and column names
func NewTable(indexName string, columns ...string) *Table {
	return &Table{IndexName: indexName, Columns: columns}
}

// Append adds a labelled row
func (t *Table) Append(label string, values ...float64) {
	t.Rows = append(t.Rows, Row{Label: label, Values: values})
}

// Cell returns the value at (row label, column name)
func (t *Table) Cell(label, column string) (float64, bool) {
	col := -1
	for i, name := range t.Columns {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return 0, false
	}
	for _, r := range t.Rows {
		if r.Label == label && col < len(r.Values) {
			return r.Values[col], true
		}
	}
	return 0, false
}

// Labels returns the row labels in order
func (t *Table) Labels() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Label
	}
	return out
}

type jsonRow struct {
	Label  string     `json:"label"`
	Values []*float64 `json:"values"`
}

// MarshalJSON implements json.Marshaler
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := make([]jsonRow, len(t.Rows))
	for i, r := range t.Rows {
		values := make([]*float64, len(r.Values))
		for j := range r.Values {
			v := r.Values[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values[j] = &v
		}
		rows[i] = jsonRow{Label: r.Label, Values: values}
	}
	return json.Marshal(struct {
		IndexName string    `json:"index_name"`
		Columns   []string  `json:"columns"`
		Rows      []jsonRow `json:"rows"`
	}{t.IndexName, t.Columns, rows})
}

// SegmentStat is one group of a numeric segment comparison.
// SingleMember groups report StdDev and StdError as 0: spread is undefined for n=1.
type SegmentStat struct {
	Segment      string  `json:"segment"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std"`
	Count        int     `json:"count"`
	StdError     float64 `json:"std_error"`
	SingleMember bool    `json:"single_member,omitempty"`
}

// SegmentResult is the output of a numeric segment comparison
type SegmentResult struct {
	SegmentColumn string        `json:"segment_column"`
	MetricColumn  string        `json:"metric_column"`
	Groups        []SegmentStat `json:"segment_means"`
}

// Table renders the groups as a table keyed by segment value
func (r *SegmentResult) Table() *Table {
	t := NewTable(r.SegmentColumn, "mean", "std", "count", "std_error")
	for _, g := range r.Groups {
		t.Append(g.Segment, g.Mean, g.StdDev, float64(g.Count), g.StdError)
	}
	return t
}

// TotalCount sums the group counts
func (r *SegmentResult) TotalCount() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Count
	}
	return n
}

// CheckboxSegmentStat is the selection rate of one checkbox option within one segment
type CheckboxSegmentStat struct {
	Segment    string  `json:"segment"`
	Selected   float64 `json:"sum"`
	Total      int     `json:"count"`
	Percentage float64 `json:"percentage_selected"`
}

// CheckboxSegmentResult is the output of a checkbox-by-segment breakdown
type CheckboxSegmentResult struct {
	CheckboxColumn string                `json:"checkbox_column"`
	SegmentColumn  string                `json:"segment_column"`
	Groups         []CheckboxSegmentStat `json:"checkbox_segment"`
}

// Table renders the groups as a table keyed by segment value
func (r *CheckboxSegmentResult) Table() *Table {
	t := NewTable(r.SegmentColumn, "sum", "count", "percentage_selected")
	for _, g := range r.Groups {
		t.Append(g.Segment, g.Selected, float64(g.Total), g.Percentage)
	}
	return t
}

// CheckboxGroupRow is a CheckboxSegmentStat tagged with the option it came from
type CheckboxGroupRow struct {
	CheckboxSegmentStat
	Option string `json:"option"`
	Label  string `json:"label"`
}

// CheckboxGroupResult concatenates the per-option breakdowns of one multi-select question
type CheckboxGroupResult struct {
	Prefix        string             `json:"prefix"`
	SegmentColumn string             `json:"segment_column"`
	Rows          []CheckboxGroupRow `json:"rows"`
}

// Empty reports whether no option produced any rows
func (r *CheckboxGroupResult) Empty() bool {
	return len(r.Rows) == 0
}

// Table renders one row per (segment, option) label
func (r *CheckboxGroupResult) Table() *Table {
	t := NewTable("label", "sum", "count", "percentage_selected")
	for _, row := range r.Rows {
		t.Append(row.Label, row.Selected, float64(row.Total), row.Percentage)
	}
	return t
}

// SectionKind identifies an advanced-analysis step
type SectionKind string

const (
	SectionAdvanced    SectionKind = "advanced"
	SectionCorrelation SectionKind = "correlation"
	SectionANOVA       SectionKind = "anova"
	SectionRegression  SectionKind = "regression"
	SectionClustering  SectionKind = "clustering"
)

// Section is one (title, table) entry of an advanced analysis
type Section struct {
	Title string      `json:"title"`
	Kind  SectionKind `json:"kind"`
	Table *Table      `json:"table"`
}

// Skip records a step, or one pair within a step, that produced no section
type Skip struct {
	Kind    SectionKind `json:"kind"`
	Subject string      `json:"subject,omitempty"`
	Reason  string      `json:"reason"`
}

// RegressionSummary carries the fit details the coefficient table leaves out
type RegressionSummary struct {
	Target       string  `json:"target"`
	Intercept    float64 `json:"intercept"`
	RSquared     float64 `json:"r_squared"`
	Observations int     `json:"observations"`
}

// AdvancedResult is the ordered output of the advanced statistics engine
type AdvancedResult struct {
	Sections   []Section          `json:"sections"`
	Skipped    []Skip             `json:"skipped,omitempty"`
	Regression *RegressionSummary `json:"regression,omitempty"`
	// ClusterLabels holds one label per dataset row; -1 marks rows left out of the fit.
	ClusterLabels []int `json:"cluster_labels,omitempty"`
}

// Insufficient reports the soft "not enough signal" condition: nothing to show
func (r *AdvancedResult) Insufficient() bool {
	return len(r.Sections) == 0
}

// Section returns the first section of the given title
func (r *AdvancedResult) Section(title string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// TokenCount is one entry of a frequency distribution
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}
