package models

import (
	"fmt"
	"math"

	"surveylens/domain/core"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// rankTolerance is the singular-value cutoff, relative to the largest, below which
// a direction of the design is treated as absent.
const rankTolerance = 1e-10

// OLSResult holds an ordinary least squares fit y = Intercept + X·Coefficients
type OLSResult struct {
	Intercept    float64
	Coefficients []float64
	RSquared     float64
	N            int
}

// FitOLS fits y on the predictor columns with an intercept.
// The problem is centred and solved through the SVD, so collinear predictors get the
// minimum-norm solution instead of failing. Rows must be complete.
func FitOLS(y []float64, predictors [][]float64) (OLSResult, error) {
	n := len(y)
	p := len(predictors)
	if p == 0 {
		return OLSResult{}, core.NewInsufficientDataError("regression predictors", 1, 0)
	}
	if n < 2 {
		return OLSResult{}, core.NewInsufficientDataError("regression rows", 2, n)
	}
	for j, col := range predictors {
		if len(col) != n {
			return OLSResult{}, fmt.Errorf("predictor %d has %d rows, target has %d", j, len(col), n)
		}
	}

	yMean := stat.Mean(y, nil)
	xMeans := make([]float64, p)
	x := mat.NewDense(n, p, nil)
	for j, col := range predictors {
		xMeans[j] = stat.Mean(col, nil)
		for i, v := range col {
			x.Set(i, j, v-xMeans[j])
		}
	}
	yc := mat.NewVecDense(n, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return OLSResult{}, fmt.Errorf("%w: SVD did not converge", core.ErrDegenerate)
	}

	coefficients := make([]float64, p)
	if rank := svd.Rank(rankTolerance); rank > 0 {
		var beta mat.VecDense
		svd.SolveVecTo(&beta, yc, rank)
		for j := range coefficients {
			coefficients[j] = beta.AtVec(j)
		}
	}

	intercept := yMean
	for j, b := range coefficients {
		intercept -= b * xMeans[j]
	}

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		pred := intercept
		for j := range coefficients {
			pred += coefficients[j] * predictors[j][i]
		}
		ssRes += (y[i] - pred) * (y[i] - pred)
		ssTot += (y[i] - yMean) * (y[i] - yMean)
	}

	for _, b := range coefficients {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return OLSResult{}, fmt.Errorf("%w: coefficient %v", core.ErrNonFinite, b)
		}
	}

	return OLSResult{
		Intercept:    intercept,
		Coefficients: coefficients,
		RSquared:     rSquared(ssRes, ssTot),
		N:            n,
	}, nil
}

// rSquared treats a constant target as perfectly fitted when the residuals vanish
func rSquared(ssRes, ssTot float64) float64 {
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
