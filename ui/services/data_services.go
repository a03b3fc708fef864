package services

import (
	"context"
	"sort"

	"surveylens/domain/dataset"
	"surveylens/internal/analysis"
	"surveylens/internal/report"
	"surveylens/internal/session"
)

// FilterOption is one filterable column and the values currently kept
type FilterOption struct {
	Column   string
	Values   []string
	Selected map[string]bool
}

// DatasetPage is the view model of the dataset report page
type DatasetPage struct {
	Entry   session.Entry
	Report  *report.Report
	Columns []analysis.ColumnInfo
	Filters []FilterOption

	// Pickers for the segment and checkbox forms
	Segments   []string
	Metrics    []string
	Checkboxes []string
	Groups     []string

	Segment string
}

// DataService assembles dashboard view models from the loaded datasets
type DataService struct {
	store    *session.Store
	analyzer *analysis.Analyzer
}

// NewDataService creates a data service over the session store
func NewDataService(store *session.Store, analyzer *analysis.Analyzer) *DataService {
	return &DataService{store: store, analyzer: analyzer}
}

// Datasets lists the loaded datasets, newest first
func (s *DataService) Datasets() []session.Entry {
	entries := s.store.List()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LoadedAt.After(entries[j].LoadedAt)
	})
	return entries
}

// DatasetPage builds the full report for the dataset with the given id. An
// empty id addresses the current dataset.
func (s *DataService) DatasetPage(ctx context.Context, id, segment string) (*DatasetPage, error) {
	page := &DatasetPage{Segment: segment}
	err := s.store.Use(id, func(entry session.Entry, ds *dataset.Dataset) error {
		r, err := report.Build(ctx, s.analyzer, ds, report.Options{
			SegmentColumn: segment,
			Stopwords:     analysis.DefaultStopwords,
		})
		if err != nil {
			return err
		}
		page.Entry = entry
		page.Report = r
		page.Columns = analysis.DescribeColumns(ds)
		page.Filters = filterOptions(ds)
		page.Segments = analysis.ColumnsWithRole(ds, analysis.RoleCategorical)
		page.Metrics = analysis.ColumnsWithRole(ds, analysis.RoleNumeric)
		page.Checkboxes = analysis.ColumnsWithRole(ds, analysis.RoleBinaryIndicator)
		page.Groups = analysis.ResolveCheckboxGroups(ds).Prefixes()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Filter stores the rows of dataset id that match filters as a new dataset
func (s *DataService) Filter(id string, filters map[string][]string) (session.Entry, error) {
	var (
		filtered *dataset.Dataset
		name     string
	)
	err := s.store.Use(id, func(entry session.Entry, ds *dataset.Dataset) error {
		var err error
		filtered, err = analysis.ApplyFilters(ds, filters)
		name = entry.Name + " (filtered)"
		return err
	})
	if err != nil {
		return session.Entry{}, err
	}
	return s.store.Put(name, filtered), nil
}

func filterOptions(ds *dataset.Dataset) []FilterOption {
	var out []FilterOption
	for _, name := range ds.FilterableColumns() {
		values, err := ds.UniqueValues(name)
		if err != nil {
			continue
		}
		selected := make(map[string]bool, len(values))
		for _, v := range values {
			selected[v] = true
		}
		out = append(out, FilterOption{Column: name, Values: values, Selected: selected})
	}
	return out
}

// Analyze runs one table-producing analysis against dataset id
func (s *DataService) Analyze(id string, fn func(*analysis.Analyzer, *dataset.Dataset) (*dataset.Table, error)) (session.Entry, *dataset.Table, error) {
	var (
		out   *dataset.Table
		entry session.Entry
	)
	err := s.store.Use(id, func(e session.Entry, ds *dataset.Dataset) error {
		var err error
		entry = e
		out, err = fn(s.analyzer, ds)
		return err
	})
	return entry, out, err
}
