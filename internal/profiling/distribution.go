// Package profiling describes the distribution of numeric survey columns.
package profiling

import (
	"fmt"
	"math"

	"surveylens/domain/dataset"
	"surveylens/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalityAlpha is the Jarque-Bera significance level below which a column is flagged non-normal
const normalityAlpha = 0.05

// ColumnProfile holds the distribution shape of one numeric column
type ColumnProfile struct {
	Column   string  `json:"column"`
	Count    int     `json:"count"`
	Missing  int     `json:"missing"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std"`
	Min      float64 `json:"min"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	Outliers int     `json:"outliers"`
	// NormalityP is the Jarque-Bera p-value
	NormalityP float64 `json:"normality_p"`
	IsNormal   bool    `json:"is_normal"`
}

// profileColumns lists the ColumnProfile fields shown in tables, in order
var profileColumns = []string{"count", "missing", "mean", "std", "min", "q25", "median", "q75", "max", "skewness", "kurtosis", "outliers", "normality_p"}

// ProfileColumn profiles the named numeric column of ds
func ProfileColumn(ds *dataset.Dataset, name string) (ColumnProfile, error) {
	c, ok := ds.Column(name)
	if !ok {
		return ColumnProfile{}, errors.ColumnNotFound("Selected column not found in data.")
	}
	if !c.IsNumeric() {
		return ColumnProfile{}, errors.InvalidSelection(fmt.Sprintf("column %q is not numeric", name))
	}
	return AnalyzeDistribution(c)
}

// ProfileDataset profiles every numeric column that has values, in column order
func ProfileDataset(ds *dataset.Dataset) []ColumnProfile {
	var out []ColumnProfile
	for _, c := range ds.Columns() {
		if !c.IsNumeric() {
			continue
		}
		if p, err := AnalyzeDistribution(c); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// Table lays profiles out one column per row
func Table(profiles []ColumnProfile) *dataset.Table {
	t := dataset.NewTable("column", profileColumns...)
	for _, p := range profiles {
		t.Append(p.Column,
			float64(p.Count), float64(p.Missing), p.Mean, p.StdDev,
			p.Min, p.Q25, p.Median, p.Q75, p.Max,
			p.Skewness, p.Kurtosis, float64(p.Outliers), p.NormalityP)
	}
	return t
}

// AnalyzeDistribution computes the profile of a numeric column's present values
func AnalyzeDistribution(c *dataset.Column) (ColumnProfile, error) {
	data := c.NonMissingFloats()
	profile := ColumnProfile{Column: c.Name, Count: len(data), Missing: c.Len() - len(data)}
	if len(data) == 0 {
		return profile, errors.InsufficientData(fmt.Sprintf("column %q has no values", c.Name))
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return profile, err
	}

	stdDev := 0.0
	if len(data) > 1 {
		if stdDev, err = stats.StandardDeviationSample(data); err != nil {
			return profile, err
		}
	}

	min, err := stats.Min(data)
	if err != nil {
		return profile, err
	}

	max, err := stats.Max(data)
	if err != nil {
		return profile, err
	}

	median, err := stats.Median(data)
	if err != nil {
		return profile, err
	}

	// Quartiles for IQR-based outlier detection
	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return profile, err
	}

	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return profile, err
	}

	profile.Mean = mean
	profile.StdDev = stdDev
	profile.Min = min
	profile.Max = max
	profile.Median = median
	profile.Q25 = q25
	profile.Q75 = q75
	profile.Skewness = calculateSkewness(data, mean, stdDev)
	profile.Kurtosis = calculateKurtosis(data, mean, stdDev)
	profile.Outliers = detectOutliers(data, q25, q75)
	profile.NormalityP = jarqueBera(len(data), profile.Skewness, profile.Kurtosis)
	profile.IsNormal = profile.NormalityP > normalityAlpha

	return profile, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	return skewness * math.Sqrt(n*(n-1)) / (n - 2)
}

// calculateKurtosis computes total (not excess) sample kurtosis, 3 for a normal distribution
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 3
	}

	n := float64(len(data))
	sumFourthDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumFourthDeviations += deviation * deviation * deviation * deviation
	}

	excessKurtosis := sumFourthDeviations/n - 3
	correction := (n - 1) / ((n - 2) * (n - 3))
	excessKurtosis = excessKurtosis*correction + 6/(n+1)

	return excessKurtosis + 3
}

// jarqueBera returns the p-value of the Jarque-Bera test, chi-squared with 2 degrees of freedom
func jarqueBera(n int, skewness, kurtosis float64) float64 {
	if n < 3 {
		return 1
	}
	excess := kurtosis - 3
	jb := float64(n) / 6 * (skewness*skewness + excess*excess/4)
	return 1 - distuv.ChiSquared{K: 2}.CDF(jb)
}

// detectOutliers counts values outside 1.5 IQR of the quartiles
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}

	return outlierCount
}
