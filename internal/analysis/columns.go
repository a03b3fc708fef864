package analysis

import (
	"fmt"

	"surveylens/domain/dataset"
	"surveylens/internal/errors"
)

// ColumnInfo describes one column for pickers and filters
type ColumnInfo struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Roles      []string `json:"roles"`
	Count      int      `json:"count"`
	Filterable bool     `json:"filterable"`
}

// DescribeColumns classifies every column of ds
func DescribeColumns(ds *dataset.Dataset) []ColumnInfo {
	filterable := make(map[string]bool)
	for _, name := range ds.FilterableColumns() {
		filterable[name] = true
	}
	out := make([]ColumnInfo, 0, len(ds.ColumnNames()))
	for _, col := range ds.Columns() {
		roles := ClassifyColumn(col)
		names := make([]string, 0, 2)
		for _, r := range roles.Roles() {
			names = append(names, r.String())
		}
		out = append(out, ColumnInfo{
			Name:       col.Name,
			Type:       col.Type.String(),
			Roles:      names,
			Count:      col.Count(),
			Filterable: filterable[col.Name],
		})
	}
	return out
}

// ApplyFilters narrows ds by each filter in turn. Only columns with at most
// dataset.MaxFilterValues distinct values can be filtered.
func ApplyFilters(ds *dataset.Dataset, filters map[string][]string) (*dataset.Dataset, error) {
	filterable := make(map[string]bool)
	for _, name := range ds.FilterableColumns() {
		filterable[name] = true
	}
	out := ds
	for column, values := range filters {
		if !ds.Has(column) {
			return nil, errors.ColumnNotFound(msgColumnNotFound)
		}
		if !filterable[column] {
			return nil, errors.InvalidInput(fmt.Sprintf("column %q has too many distinct values to filter on", column))
		}
		next, err := out.Filter(column, values)
		if err != nil {
			return nil, errors.Wrap(err, "filter failed")
		}
		out = next
	}
	if out == ds {
		out = ds.Clone()
	}
	return out, nil
}
