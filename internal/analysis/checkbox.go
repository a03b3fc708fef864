package analysis

import (
	"strings"

	"surveylens/domain/dataset"
	"surveylens/internal/errors"
)

// checkboxSeparator splits a multi-select column name into question prefix and option
const checkboxSeparator = "_"

// CheckboxGroup is the set of 0/1 columns answering one multi-select question.
// Columns keep dataset order.
type CheckboxGroup struct {
	Prefix  string   `json:"prefix"`
	Columns []string `json:"columns"`
}

// CheckboxGroups lists groups in order of first appearance of their prefix
type CheckboxGroups []CheckboxGroup

// Lookup finds a group by prefix
func (gs CheckboxGroups) Lookup(prefix string) (CheckboxGroup, bool) {
	for _, g := range gs {
		if g.Prefix == prefix {
			return g, true
		}
	}
	return CheckboxGroup{}, false
}

// Prefixes returns the group prefixes in order
func (gs CheckboxGroups) Prefixes() []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Prefix
	}
	return out
}

// ResolveCheckboxGroups buckets every binary-indicator column whose name contains
// the separator by the text before its first separator. Unrelated columns sharing
// a prefix land in the same group.
func ResolveCheckboxGroups(ds *dataset.Dataset) CheckboxGroups {
	var groups CheckboxGroups
	index := make(map[string]int)
	for _, c := range ds.Columns() {
		if !strings.Contains(c.Name, checkboxSeparator) || !IsBinaryIndicator(c) {
			continue
		}
		prefix := strings.SplitN(c.Name, checkboxSeparator, 2)[0]
		i, seen := index[prefix]
		if !seen {
			i = len(groups)
			index[prefix] = i
			groups = append(groups, CheckboxGroup{Prefix: prefix})
		}
		groups[i].Columns = append(groups[i].Columns, c.Name)
	}
	return groups
}

// AnalyzeCheckboxGroup runs the checkbox breakdown for every option column of the
// group with the given prefix and concatenates the rows, labelled "segment | column".
// Options that fail are skipped, so the result may be empty.
func (a *Analyzer) AnalyzeCheckboxGroup(ds *dataset.Dataset, prefix, segmentCol string) (*dataset.CheckboxGroupResult, error) {
	group, ok := ResolveCheckboxGroups(ds).Lookup(prefix)
	if !ok {
		return nil, errors.InvalidSelection(msgInvalidSelection)
	}

	result := &dataset.CheckboxGroupResult{Prefix: prefix, SegmentColumn: segmentCol}
	for _, col := range group.Columns {
		breakdown, err := a.AnalyzeCheckboxBySegment(ds, col, segmentCol)
		if err != nil {
			a.logger.Debug("Skipping option %s of %s: %v", col, prefix, err)
			continue
		}
		for _, stat := range breakdown.Groups {
			result.Rows = append(result.Rows, dataset.CheckboxGroupRow{
				CheckboxSegmentStat: stat,
				Option:              col,
				Label:               stat.Segment + " | " + col,
			})
		}
	}

	if result.Empty() {
		a.logger.Info("Checkbox group %s produced no rows for segment %s", prefix, segmentCol)
	}
	return result, nil
}
