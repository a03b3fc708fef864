package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"surveylens/domain/dataset"
	"surveylens/internal/errors"

	"github.com/montanaflynn/stats"
)

const (
	msgColumnNotFound   = "Selected column not found in data."
	msgInvalidSelection = "Invalid column selection"
	msgSegmentNotFound  = "Segment column not found"

	// MissingLabel names the row counting missing values in a segment overview
	MissingLabel = "(missing)"
)

// PerformSegmentAnalysis compares a metric across the values of a segment column.
// Rows with a missing segment value are left out; groups with no metric values are omitted.
func (a *Analyzer) PerformSegmentAnalysis(ds *dataset.Dataset, segmentCol, metricCol string) (*dataset.SegmentResult, error) {
	if !ds.Has(segmentCol) || !ds.Has(metricCol) {
		return nil, errors.ColumnNotFound(msgColumnNotFound)
	}

	target := ds
	if !a.config.InPlace {
		target = ds.Clone()
	}

	result := &dataset.SegmentResult{SegmentColumn: segmentCol, MetricColumn: metricCol}
	err := guard("segment analysis", func() error {
		if err := target.ConvertToNumeric(metricCol, a.coercer.ParseFunc()); err != nil {
			return err
		}
		segment, _ := target.Column(segmentCol)
		metric, _ := target.Column(metricCol)

		for _, g := range groupRows(segment) {
			values := presentFloats(metric, g.rows)
			if len(values) == 0 {
				continue
			}
			stat, err := segmentStat(g.key, values)
			if err != nil {
				return err
			}
			result.Groups = append(result.Groups, stat)
		}
		return nil
	})
	if err != nil {
		a.logger.Warn("Segment analysis %s by %s failed: %v", metricCol, segmentCol, err)
		return nil, errors.ComputationError(err)
	}

	a.logger.Debug("Segment analysis %s by %s: %d groups", metricCol, segmentCol, len(result.Groups))
	return result, nil
}

func segmentStat(key string, values []float64) (dataset.SegmentStat, error) {
	m, err := stats.Mean(values)
	if err != nil {
		return dataset.SegmentStat{}, err
	}
	stat := dataset.SegmentStat{Segment: key, Mean: m, Count: len(values)}
	if len(values) == 1 {
		stat.SingleMember = true
		return stat, nil
	}
	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return dataset.SegmentStat{}, err
	}
	stat.StdDev = sd
	stat.StdError = sd / math.Sqrt(float64(len(values)))
	return stat, nil
}

// AnalyzeCheckboxBySegment reports how often a 0/1 column is selected within each segment
func (a *Analyzer) AnalyzeCheckboxBySegment(ds *dataset.Dataset, checkboxCol, segmentCol string) (*dataset.CheckboxSegmentResult, error) {
	checkbox, okCheckbox := ds.Column(checkboxCol)
	segment, okSegment := ds.Column(segmentCol)
	if !okCheckbox || !okSegment {
		return nil, errors.InvalidSelection(msgInvalidSelection)
	}
	if !checkbox.IsNumeric() {
		return nil, errors.ComputationError(fmt.Errorf("checkbox column %q is not numeric", checkboxCol))
	}

	result := &dataset.CheckboxSegmentResult{CheckboxColumn: checkboxCol, SegmentColumn: segmentCol}
	err := guard("checkbox analysis", func() error {
		for _, g := range groupRows(segment) {
			values := presentFloats(checkbox, g.rows)
			if len(values) == 0 {
				continue
			}
			selected, err := stats.Sum(values)
			if err != nil {
				return err
			}
			result.Groups = append(result.Groups, dataset.CheckboxSegmentStat{
				Segment:    g.key,
				Selected:   selected,
				Total:      len(values),
				Percentage: selected / float64(len(values)) * 100,
			})
		}
		return nil
	})
	if err != nil {
		a.logger.Warn("Checkbox analysis %s by %s failed: %v", checkboxCol, segmentCol, err)
		return nil, errors.ComputationError(err)
	}
	return result, nil
}

// SegmentSummary counts each value of a column, missing values included,
// most frequent first.
func (a *Analyzer) SegmentSummary(ds *dataset.Dataset, col string) (*dataset.Table, error) {
	c, ok := ds.Column(col)
	if !ok {
		return nil, errors.ColumnNotFound(msgSegmentNotFound)
	}

	type valueCount struct {
		label string
		count int
	}
	var counts []valueCount
	index := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		label := MissingLabel
		if !c.IsMissing(i) {
			label = c.Value(i)
		}
		if j, seen := index[label]; seen {
			counts[j].count++
			continue
		}
		index[label] = len(counts)
		counts = append(counts, valueCount{label: label, count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})

	table := dataset.NewTable(col, "count")
	for _, vc := range counts {
		table.Append(vc.label, float64(vc.count))
	}
	return table, nil
}

type rowGroup struct {
	key  string
	rows []int
}

// groupRows buckets row positions by segment value, skipping missing values.
// Numeric segments sort by value, text segments lexically.
func groupRows(segment *dataset.Column) []rowGroup {
	index := make(map[string]int)
	var groups []rowGroup
	for i := 0; i < segment.Len(); i++ {
		if segment.IsMissing(i) {
			continue
		}
		key := segment.Value(i)
		j, seen := index[key]
		if !seen {
			j = len(groups)
			index[key] = j
			groups = append(groups, rowGroup{key: key})
		}
		groups[j].rows = append(groups[j].rows, i)
	}

	if segment.IsNumeric() {
		sort.Slice(groups, func(i, j int) bool {
			vi, _ := strconv.ParseFloat(groups[i].key, 64)
			vj, _ := strconv.ParseFloat(groups[j].key, 64)
			return vi < vj
		})
	} else {
		sort.Slice(groups, func(i, j int) bool {
			return groups[i].key < groups[j].key
		})
	}
	return groups
}

func presentFloats(c *dataset.Column, rows []int) []float64 {
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := c.Float(r); ok {
			values = append(values, v)
		}
	}
	return values
}
