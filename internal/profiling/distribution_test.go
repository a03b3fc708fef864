package profiling

import (
	"math"
	"testing"

	"surveylens/domain/dataset"
	"surveylens/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileFixture() *dataset.Dataset {
	nan := math.NaN()
	return dataset.MustNew(
		dataset.NewTextColumn("region", []string{"A", "B", "A", "B", "A", "B"}),
		dataset.NewNumericColumn("spend", []float64{1, 2, 3, 4, 100, nan}),
		dataset.NewNumericColumn("flat", []float64{2, 2, 2, 2, 2, 2}),
		dataset.NewNumericColumn("empty", []float64{nan, nan, nan, nan, nan, nan}),
	)
}

func TestProfileColumn(t *testing.T) {
	p, err := ProfileColumn(profileFixture(), "spend")
	require.NoError(t, err)

	assert.Equal(t, 5, p.Count)
	assert.Equal(t, 1, p.Missing)
	assert.InDelta(t, 22.0, p.Mean, 1e-9)
	assert.InDelta(t, 3.0, p.Median, 1e-9)
	assert.Equal(t, 1.0, p.Min)
	assert.Equal(t, 100.0, p.Max)
	assert.Equal(t, 1, p.Outliers)
	assert.Greater(t, p.Skewness, 1.0)
}

func TestProfileColumn_Constant(t *testing.T) {
	p, err := ProfileColumn(profileFixture(), "flat")
	require.NoError(t, err)

	assert.Zero(t, p.StdDev)
	assert.Zero(t, p.Skewness)
	assert.Equal(t, 3.0, p.Kurtosis)
	assert.Zero(t, p.Outliers)
	assert.True(t, p.IsNormal)
}

func TestProfileColumn_Errors(t *testing.T) {
	ds := profileFixture()

	_, err := ProfileColumn(ds, "nope")
	assert.Equal(t, errors.CodeColumnNotFound, errors.GetCode(err))

	_, err = ProfileColumn(ds, "region")
	assert.Equal(t, errors.CodeInvalidSelection, errors.GetCode(err))

	_, err = ProfileColumn(ds, "empty")
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))
}

func TestProfileDataset(t *testing.T) {
	profiles := ProfileDataset(profileFixture())
	require.Len(t, profiles, 2)
	assert.Equal(t, "spend", profiles[0].Column)
	assert.Equal(t, "flat", profiles[1].Column)

	table := Table(profiles)
	assert.Equal(t, []string{"spend", "flat"}, table.Labels())
	mean, ok := table.Cell("spend", "mean")
	require.True(t, ok)
	assert.InDelta(t, 22.0, mean, 1e-9)
}

func TestJarqueBera(t *testing.T) {
	assert.Equal(t, 1.0, jarqueBera(2, 5, 10))
	assert.InDelta(t, 1.0, jarqueBera(100, 0, 3), 1e-12)
	assert.Less(t, jarqueBera(100, 2, 9), normalityAlpha)
}
