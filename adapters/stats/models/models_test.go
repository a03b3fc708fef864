package models

import (
	"errors"
	"math"
	"testing"

	"surveylens/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson_PerfectlyCollinear(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	assert.InDelta(t, 1.0, Pearson(x, y), 1e-12)
	assert.InDelta(t, -1.0, Pearson(x, []float64{5, 4, 3, 2, 1}), 1e-12)
}

func TestPearson_PairwiseComplete(t *testing.T) {
	nan := math.NaN()
	x := []float64{1, 2, nan, 4, 5}
	y := []float64{2, 4, 100, 8, nan}

	// Only rows 0, 1 and 3 are complete and they lie on a line.
	assert.InDelta(t, 1.0, Pearson(x, y), 1e-12)
	assert.True(t, math.IsNaN(Pearson([]float64{1, nan}, []float64{nan, 2})))
	assert.True(t, math.IsNaN(Pearson([]float64{3, 3, 3}, []float64{1, 2, 3})), "constant column has no correlation")
}

func TestPearsonMatrix_Symmetric(t *testing.T) {
	cols := [][]float64{
		{1, 2, 3, 4},
		{4, 3, 2, 1},
		{1, 3, 2, 4},
	}
	m := PearsonMatrix(cols)

	require.Len(t, m, 3)
	for i := range m {
		assert.InDelta(t, 1.0, m[i][i], 1e-12)
		for j := range m {
			assert.Equal(t, m[i][j], m[j][i])
		}
	}
	assert.InDelta(t, -1.0, m[0][1], 1e-12)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.84, Round(0.83666, 2))
	assert.Equal(t, 1.0, Round(0.999999, 2))
	assert.Equal(t, -0.5, Round(-0.499, 2))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestOneWayANOVA_KnownValues(t *testing.T) {
	result, err := OneWayANOVA([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	assert.InDelta(t, 13.5, result.FStatistic, 1e-9)
	assert.InDelta(t, 0.02131, result.PValue, 1e-4)
	assert.Equal(t, 1, result.DFBetween)
	assert.Equal(t, 4, result.DFWithin)
	assert.Equal(t, 6, result.N)
}

func TestOneWayANOVA_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		groups [][]float64
		want   error
	}{
		{"single group", [][]float64{{1, 2, 3}}, core.ErrInsufficientData},
		{"empty group", [][]float64{{1, 2}, {}}, core.ErrInsufficientData},
		{"no residual df", [][]float64{{1}, {2}}, core.ErrInsufficientData},
		{"zero within variance", [][]float64{{3, 3}, {5, 5}}, core.ErrDegenerate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OneWayANOVA(tt.groups)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestFitOLS_ExactLinearModel(t *testing.T) {
	x1 := []float64{1, 2, 3, 4, 5, 6, 7}
	x2 := []float64{2, 1, 4, 3, 6, 5, 8}
	y := make([]float64, len(x1))
	for i := range y {
		y[i] = 2 + 3*x1[i] - x2[i]
	}

	fit, err := FitOLS(y, [][]float64{x1, x2})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 3.0, fit.Coefficients[0], 1e-9)
	assert.InDelta(t, -1.0, fit.Coefficients[1], 1e-9)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-9)
	assert.Equal(t, 7, fit.N)
}

func TestFitOLS_CollinearPredictorsUseMinimumNorm(t *testing.T) {
	x1 := []float64{1, 2, 3, 4, 5, 6}
	x2 := []float64{2, 4, 6, 8, 10, 12}
	y := []float64{1, 2, 3, 4, 5, 6}

	fit, err := FitOLS(y, [][]float64{x1, x2})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, fit.Coefficients[0], 1e-9)
	assert.InDelta(t, 0.4, fit.Coefficients[1], 1e-9)
	assert.InDelta(t, 0.0, fit.Intercept, 1e-9)
}

func TestFitOLS_ConstantPredictor(t *testing.T) {
	fit, err := FitOLS([]float64{1, 2, 3, 4, 5, 6}, [][]float64{{7, 7, 7, 7, 7, 7}})
	require.NoError(t, err)

	assert.Equal(t, 0.0, fit.Coefficients[0])
	assert.InDelta(t, 3.5, fit.Intercept, 1e-12)
	assert.InDelta(t, 0.0, fit.RSquared, 1e-12)
}

func TestKMeans_SeparatedBlobs(t *testing.T) {
	points := [][]float64{
		{1, 1}, {1.2, 0.8}, {0.9, 1.1},
		{10, 10}, {10.2, 9.9}, {9.8, 10.1},
	}

	result, err := KMeans(points, DefaultKMeansConfig())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, result.Labels)
	require.Len(t, result.Centroids, 2)
	assert.InDelta(t, 1.0333, result.Centroids[0][0], 1e-3)
	assert.InDelta(t, 10.0, result.Centroids[1][0], 1e-3)

	again, err := KMeans(points, DefaultKMeansConfig())
	require.NoError(t, err)
	assert.Equal(t, result.Labels, again.Labels, "fixed seed is reproducible")
}

func TestKMeans_Degenerate(t *testing.T) {
	_, err := KMeans([][]float64{{1, 1}}, DefaultKMeansConfig())
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = KMeans([][]float64{{2, 2}, {2, 2}, {2, 2}}, DefaultKMeansConfig())
	assert.True(t, errors.Is(err, core.ErrDegenerate))
}
