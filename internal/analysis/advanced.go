package analysis

import (
	"fmt"
	"math"
	"strconv"

	"surveylens/adapters/stats/models"
	"surveylens/domain/core"
	"surveylens/domain/dataset"
)

// Section titles of the advanced analysis
const (
	TitleCorrelation = "Correlation Matrix"
	TitleRegression  = "Linear Regression"
	TitleClustering  = "KMeans Clustering: Cluster Means"
)

const (
	correlationDecimals = 2
	anovaMaxLevels      = 5
	regressionMinRows   = 5 // more rows than this are needed
	minNumericInputs    = 2
)

// ANOVATitle names the section testing numeric across the levels of categorical
func ANOVATitle(numeric, categorical string) string {
	return fmt.Sprintf("ANOVA: %s ~ %s", numeric, categorical)
}

// RunAdvancedAnalysis runs correlation, ANOVA, regression and clustering over the
// numeric columns. Each step that cannot run is recorded in Skipped and the
// remaining steps still run. With fewer than two numeric columns the result has no
// sections at all.
func (a *Analyzer) RunAdvancedAnalysis(ds *dataset.Dataset) *dataset.AdvancedResult {
	result := &dataset.AdvancedResult{}

	numeric := a.numericInputs(ds)
	if len(numeric) < minNumericInputs {
		result.Skipped = append(result.Skipped, dataset.Skip{
			Kind:   dataset.SectionAdvanced,
			Reason: fmt.Sprintf("insufficient data: %d numeric columns, need %d", len(numeric), minNumericInputs),
		})
		a.logger.Debug("Advanced analysis skipped: %d numeric columns", len(numeric))
		return result
	}

	a.runStep(result, dataset.SectionCorrelation, "", func() error {
		return a.correlation(ds, numeric, result)
	})
	a.anova(ds, numeric, result)
	a.runStep(result, dataset.SectionRegression, numeric[0].Name, func() error {
		return a.regression(ds, numeric, result)
	})
	a.runStep(result, dataset.SectionClustering, "", func() error {
		return a.clustering(ds, numeric, result)
	})

	a.logger.Info("Advanced analysis: %d sections, %d skipped", len(result.Sections), len(result.Skipped))
	return result
}

// runStep guards one step and records its failure as a skip
func (a *Analyzer) runStep(result *dataset.AdvancedResult, kind dataset.SectionKind, subject string, fn func() error) {
	if err := guard(string(kind), fn); err != nil {
		if core.IsStatisticalError(err) {
			a.logger.Debug("Skipping %s %s: %v", kind, subject, err)
		} else {
			a.logger.Warn("Skipping %s %s: %v", kind, subject, err)
		}
		result.Skipped = append(result.Skipped, dataset.Skip{Kind: kind, Subject: subject, Reason: err.Error()})
	}
}

// numericInputs returns the numeric columns other than the cluster label column
func (a *Analyzer) numericInputs(ds *dataset.Dataset) []*dataset.Column {
	var out []*dataset.Column
	for _, c := range ds.Columns() {
		if c.IsNumeric() && c.Name != a.config.ClusterColumn {
			out = append(out, c)
		}
	}
	return out
}

func columnNames(columns []*dataset.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

func (a *Analyzer) correlation(ds *dataset.Dataset, numeric []*dataset.Column, result *dataset.AdvancedResult) error {
	data := make([][]float64, len(numeric))
	for i, c := range numeric {
		data[i] = c.Floats()
	}
	matrix := models.PearsonMatrix(data)

	names := columnNames(numeric)
	table := dataset.NewTable("", names...)
	for i, name := range names {
		row := make([]float64, len(matrix[i]))
		for j, r := range matrix[i] {
			row[j] = models.Round(r, correlationDecimals)
		}
		table.Append(name, row...)
	}
	result.Sections = append(result.Sections, dataset.Section{
		Title: TitleCorrelation,
		Kind:  dataset.SectionCorrelation,
		Table: table,
	})
	return nil
}

// anova tests every numeric column across each low-cardinality categorical column
func (a *Analyzer) anova(ds *dataset.Dataset, numeric []*dataset.Column, result *dataset.AdvancedResult) {
	for _, cat := range ds.Columns() {
		if !ClassifyColumn(cat).Has(RoleCategorical) {
			continue
		}
		levels := cat.Distinct()
		if len(levels) > anovaMaxLevels {
			continue
		}
		for _, num := range numeric {
			subject := ANOVATitle(num.Name, cat.Name)
			a.runStep(result, dataset.SectionANOVA, subject, func() error {
				groups := partition(cat, num, levels)
				if len(groups) < 2 {
					return fmt.Errorf("%d non-empty groups, need 2", len(groups))
				}
				res, err := models.OneWayANOVA(groups)
				if err != nil {
					return err
				}
				table := dataset.NewTable("", "F-statistic", "p-value")
				table.Append(num.Name, res.FStatistic, res.PValue)
				result.Sections = append(result.Sections, dataset.Section{
					Title: subject,
					Kind:  dataset.SectionANOVA,
					Table: table,
				})
				return nil
			})
		}
	}
}

// partition splits the present values of num by the level of cat, dropping empty partitions
func partition(cat, num *dataset.Column, levels []string) [][]float64 {
	byLevel := make(map[string][]float64, len(levels))
	for i := 0; i < cat.Len(); i++ {
		if cat.IsMissing(i) {
			continue
		}
		if v, ok := num.Float(i); ok {
			byLevel[cat.Value(i)] = append(byLevel[cat.Value(i)], v)
		}
	}
	var groups [][]float64
	for _, level := range levels {
		if g := byLevel[level]; len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// completeRows returns the rows where every column is present
func completeRows(columns []*dataset.Column, rows int) []int {
	var out []int
	for i := 0; i < rows; i++ {
		complete := true
		for _, c := range columns {
			if c.IsMissing(i) {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, i)
		}
	}
	return out
}

func gather(c *dataset.Column, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i], _ = c.Float(r)
	}
	return out
}

// regression fits the first numeric column on the others
func (a *Analyzer) regression(ds *dataset.Dataset, numeric []*dataset.Column, result *dataset.AdvancedResult) error {
	rows := completeRows(numeric, ds.Rows())
	if len(rows) <= regressionMinRows {
		return fmt.Errorf("insufficient data: %d complete rows, need more than %d", len(rows), regressionMinRows)
	}

	target := numeric[0]
	predictors := numeric[1:]
	x := make([][]float64, len(predictors))
	for j, c := range predictors {
		x[j] = gather(c, rows)
	}
	fit, err := models.FitOLS(gather(target, rows), x)
	if err != nil {
		return err
	}

	table := dataset.NewTable("", "Coefficient")
	for j, c := range predictors {
		table.Append(c.Name, fit.Coefficients[j])
	}
	result.Sections = append(result.Sections, dataset.Section{
		Title: TitleRegression,
		Kind:  dataset.SectionRegression,
		Table: table,
	})
	result.Regression = &dataset.RegressionSummary{
		Target:       target.Name,
		Intercept:    fit.Intercept,
		RSquared:     fit.RSquared,
		Observations: fit.N,
	}
	return nil
}

// clustering runs k-means on the complete rows and reports per-cluster means.
// In place, the labels are also written to the cluster column.
func (a *Analyzer) clustering(ds *dataset.Dataset, numeric []*dataset.Column, result *dataset.AdvancedResult) error {
	rows := completeRows(numeric, ds.Rows())
	points := make([][]float64, len(rows))
	for i, r := range rows {
		point := make([]float64, len(numeric))
		for j, c := range numeric {
			point[j], _ = c.Float(r)
		}
		points[i] = point
	}

	fit, err := models.KMeans(points, a.config.KMeans)
	if err != nil {
		return err
	}

	labels := make([]int, ds.Rows())
	for i := range labels {
		labels[i] = -1
	}
	for i, r := range rows {
		labels[r] = fit.Labels[i]
	}

	k := len(fit.Centroids)
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, len(numeric))
	}
	for i, p := range points {
		label := fit.Labels[i]
		counts[label]++
		for j, v := range p {
			sums[label][j] += v
		}
	}

	table := dataset.NewTable(a.config.ClusterColumn, columnNames(numeric)...)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		means := make([]float64, len(numeric))
		for j := range means {
			means[j] = sums[c][j] / float64(counts[c])
		}
		table.Append(strconv.Itoa(c), means...)
	}

	if a.config.InPlace {
		values := make([]float64, len(labels))
		for i, l := range labels {
			if l < 0 {
				values[i] = math.NaN()
			} else {
				values[i] = float64(l)
			}
		}
		if err := ds.SetColumn(dataset.NewNumericColumn(a.config.ClusterColumn, values)); err != nil {
			return err
		}
	}

	result.Sections = append(result.Sections, dataset.Section{
		Title: TitleClustering,
		Kind:  dataset.SectionClustering,
		Table: table,
	})
	result.ClusterLabels = labels
	return nil
}
