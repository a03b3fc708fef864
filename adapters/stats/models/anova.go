package models

import (
	"fmt"
	"math"

	"surveylens/domain/core"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ANOVAResult is the outcome of a one-way analysis of variance
type ANOVAResult struct {
	FStatistic float64
	PValue     float64
	DFBetween  int
	DFWithin   int
	Groups     int
	N          int
}

// OneWayANOVA tests whether the group means differ.
// Every group must be non-empty; missing observations must already be dropped.
// Degenerate designs (no within-group spread, no residual degrees of freedom)
// are reported as errors rather than infinite or NaN statistics.
func OneWayANOVA(groups [][]float64) (ANOVAResult, error) {
	k := len(groups)
	if k < 2 {
		return ANOVAResult{}, core.NewInsufficientDataError("one-way ANOVA groups", 2, k)
	}

	n := 0
	var all []float64
	for i, g := range groups {
		if len(g) == 0 {
			return ANOVAResult{}, fmt.Errorf("%w: group %d is empty", core.ErrInsufficientData, i)
		}
		n += len(g)
		all = append(all, g...)
	}
	if n-k < 1 {
		return ANOVAResult{}, core.NewInsufficientDataError("one-way ANOVA observations", k+1, n)
	}

	grandMean := stat.Mean(all, nil)
	var ssBetween, ssWithin float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		ssBetween += float64(len(g)) * (m - grandMean) * (m - grandMean)
		for _, v := range g {
			ssWithin += (v - m) * (v - m)
		}
	}
	if ssWithin == 0 {
		return ANOVAResult{}, fmt.Errorf("%w: every group is constant", core.ErrDegenerate)
	}

	dfBetween := k - 1
	dfWithin := n - k
	f := (ssBetween / float64(dfBetween)) / (ssWithin / float64(dfWithin))
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ANOVAResult{}, fmt.Errorf("%w: F=%v", core.ErrNonFinite, f)
	}

	dist := distuv.F{D1: float64(dfBetween), D2: float64(dfWithin)}
	return ANOVAResult{
		FStatistic: f,
		PValue:     dist.Survival(f),
		DFBetween:  dfBetween,
		DFWithin:   dfWithin,
		Groups:     k,
		N:          n,
	}, nil
}
