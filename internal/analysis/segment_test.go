package analysis

import (
	"testing"

	"surveylens/domain/dataset"
	"surveylens/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionFixture() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewTextColumn("region", []string{"A", "A", "B"}),
		dataset.NewNumericColumn("metric", []float64{10, 20, 30}),
	)
}

func TestPerformSegmentAnalysis_Scenario(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	result, err := a.PerformSegmentAnalysis(regionFixture(), "region", "metric")
	require.NoError(t, err)
	require.Len(t, result.Groups, 2)

	groupA := result.Groups[0]
	assert.Equal(t, "A", groupA.Segment)
	assert.InDelta(t, 15.0, groupA.Mean, 1e-9)
	assert.Equal(t, 2, groupA.Count)
	assert.InDelta(t, 7.0710678, groupA.StdDev, 1e-6)
	assert.InDelta(t, 5.0, groupA.StdError, 1e-9)
	assert.False(t, groupA.SingleMember)

	groupB := result.Groups[1]
	assert.Equal(t, "B", groupB.Segment)
	assert.InDelta(t, 30.0, groupB.Mean, 1e-9)
	assert.Equal(t, 1, groupB.Count)
	assert.Zero(t, groupB.StdError)
	assert.True(t, groupB.SingleMember)

	table := result.Table()
	se, ok := table.Cell("B", "std_error")
	require.True(t, ok)
	assert.Zero(t, se)
}

func TestPerformSegmentAnalysis_CountsMatchPresentMetric(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewTextColumn("plan", []string{"pro", "", "free", "pro", "free", "team"}),
		dataset.NewNumericColumn("nps", []float64{9, 7, nan, 8, 3, nan}),
	)
	result, err := NewAnalyzer(DefaultConfig()).PerformSegmentAnalysis(ds, "plan", "nps")
	require.NoError(t, err)

	// the row with no plan is dropped, "team" has no scores and is omitted
	assert.Equal(t, 3, result.TotalCount())
	assert.Equal(t, []string{"free", "pro"}, result.Table().Labels())
}

func TestPerformSegmentAnalysis_NumericSegmentsSortByValue(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("age_band", []float64{10, 2, 10, 2, 1}),
		dataset.NewNumericColumn("score", []float64{1, 2, 3, 4, 5}),
	)
	result, err := NewAnalyzer(DefaultConfig()).PerformSegmentAnalysis(ds, "age_band", "score")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "10"}, result.Table().Labels())
}

func TestPerformSegmentAnalysis_CoercesMetric(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewTextColumn("region", []string{"A", "A", "B"}),
		dataset.NewTextColumn("spend", []string{"10", "n/a", "oops"}),
	)

	pure := NewAnalyzer(DefaultConfig())
	result, err := pure.PerformSegmentAnalysis(ds, "region", "spend")
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "A", result.Groups[0].Segment)
	spend, _ := ds.Column("spend")
	assert.False(t, spend.IsNumeric(), "pure analyzer must not touch the caller's dataset")

	inPlace := NewAnalyzer(InPlaceConfig())
	_, err = inPlace.PerformSegmentAnalysis(ds, "region", "spend")
	require.NoError(t, err)
	spend, _ = ds.Column("spend")
	assert.True(t, spend.IsNumeric())
}

func TestPerformSegmentAnalysis_MissingColumn(t *testing.T) {
	_, err := NewAnalyzer(DefaultConfig()).PerformSegmentAnalysis(regionFixture(), "region", "nope")
	require.Error(t, err)
	assert.Equal(t, errors.CodeColumnNotFound, errors.GetCode(err))
	assert.Equal(t, map[string]string{"error": "Selected column not found in data."}, errors.Payload(err))
}

func checkboxFixture() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewTextColumn("region", []string{"A", "A", "B", "B", "B"}),
		dataset.NewNumericColumn("feature_a", []float64{1, 0, 1, 1, 0}),
		dataset.NewNumericColumn("feature_b", []float64{0, 1, 1, 0, nan}),
		dataset.NewNumericColumn("feature_score", []float64{0, 2, 1, 0, 1}),
		dataset.NewNumericColumn("channel_email", []float64{1, 1, 0, 0, 1}),
		dataset.NewNumericColumn("satisfaction", []float64{4, 5, 3, 4, 5}),
	)
}

func TestAnalyzeCheckboxBySegment(t *testing.T) {
	result, err := NewAnalyzer(DefaultConfig()).AnalyzeCheckboxBySegment(checkboxFixture(), "feature_a", "region")
	require.NoError(t, err)
	require.Len(t, result.Groups, 2)

	assert.Equal(t, dataset.CheckboxSegmentStat{Segment: "A", Selected: 1, Total: 2, Percentage: 50}, result.Groups[0])
	assert.Equal(t, "B", result.Groups[1].Segment)
	assert.Equal(t, 3, result.Groups[1].Total)
	assert.InDelta(t, 66.6667, result.Groups[1].Percentage, 1e-4)
}

func TestAnalyzeCheckboxBySegment_Errors(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())

	_, err := a.AnalyzeCheckboxBySegment(checkboxFixture(), "feature_a", "nope")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidSelection, errors.GetCode(err))
	assert.Equal(t, "Invalid column selection", err.Error())

	_, err = a.AnalyzeCheckboxBySegment(checkboxFixture(), "region", "region")
	require.Error(t, err)
	assert.Equal(t, errors.CodeComputation, errors.GetCode(err))
}

func TestSegmentSummary(t *testing.T) {
	ds := dataset.MustNew(dataset.NewTextColumn("plan", []string{"pro", "", "free", "pro", "", "pro", "team"}))
	table, err := NewAnalyzer(DefaultConfig()).SegmentSummary(ds, "plan")
	require.NoError(t, err)

	assert.Equal(t, []string{"pro", MissingLabel, "free", "team"}, table.Labels())
	count, ok := table.Cell(MissingLabel, "count")
	require.True(t, ok)
	assert.Equal(t, 2.0, count)

	_, err = NewAnalyzer(DefaultConfig()).SegmentSummary(ds, "nope")
	require.Error(t, err)
	assert.Equal(t, "Segment column not found", err.Error())
}

func TestResolveCheckboxGroups(t *testing.T) {
	groups := ResolveCheckboxGroups(checkboxFixture())

	assert.Equal(t, []string{"feature", "channel"}, groups.Prefixes())
	feature, ok := groups.Lookup("feature")
	require.True(t, ok)
	// feature_score shares the prefix but is not 0/1
	assert.Equal(t, []string{"feature_a", "feature_b"}, feature.Columns)

	_, ok = groups.Lookup("satisfaction")
	assert.False(t, ok)
}

func TestAnalyzeCheckboxGroup(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	result, err := a.AnalyzeCheckboxGroup(checkboxFixture(), "feature", "region")
	require.NoError(t, err)
	require.False(t, result.Empty())

	assert.Equal(t, []string{"A | feature_a", "B | feature_a", "A | feature_b", "B | feature_b"}, result.Table().Labels())
	assert.Equal(t, "feature_b", result.Rows[3].Option)
	assert.Equal(t, 2, result.Rows[3].Total)

	_, err = a.AnalyzeCheckboxGroup(checkboxFixture(), "unknown", "region")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidSelection, errors.GetCode(err))

	// every option fails against a missing segment column
	result, err = a.AnalyzeCheckboxGroup(checkboxFixture(), "feature", "nope")
	require.NoError(t, err)
	assert.True(t, result.Empty())
}
