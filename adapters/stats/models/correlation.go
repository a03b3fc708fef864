// Package models implements the statistical models behind the advanced analysis:
// Pearson correlation, one-way ANOVA, ordinary least squares and k-means.
// Inputs use NaN for missing observations; each model documents how it drops them.
package models

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Pearson computes the correlation of x and y over the rows where both are present.
// The result is NaN when fewer than two complete pairs remain or either side is constant.
func Pearson(x, y []float64) float64 {
	xs, ys := completePairs(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// PearsonMatrix computes the pairwise-complete correlation matrix of the given columns
func PearsonMatrix(columns [][]float64) [][]float64 {
	n := len(columns)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := Pearson(columns[i], columns[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return matrix
}

// Round rounds half away from zero to the given number of decimals. NaN stays NaN.
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func completePairs(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
