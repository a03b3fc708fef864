// Package analysis turns a survey dataset into derived tables: summaries,
// segment comparisons, checkbox breakdowns, exploratory models and text digests.
//
// Every entry point is an independent call over one dataset. Analyses that need
// to change the dataset (numeric coercion of a metric, the cluster label column)
// only do so when the Analyzer is configured InPlace; otherwise they work on a
// private copy and return what they derived.
package analysis

import (
	"fmt"

	"surveylens/adapters/datareadiness/coercer"
	"surveylens/adapters/stats/models"
	"surveylens/internal"
)

// DefaultClusterColumn is the column the cluster labels are written to
const DefaultClusterColumn = "Cluster"

// Config controls analyzer behaviour
type Config struct {
	// InPlace lets analyses mutate the caller's dataset: the metric column of a
	// segment analysis is coerced to numeric and the cluster labels are appended.
	InPlace       bool
	Coercion      coercer.CoercionConfig
	KMeans        models.KMeansConfig
	ClusterColumn string
}

// DefaultConfig leaves the caller's dataset untouched
func DefaultConfig() Config {
	return Config{
		InPlace:       false,
		Coercion:      coercer.DefaultCoercionConfig(),
		KMeans:        models.DefaultKMeansConfig(),
		ClusterColumn: DefaultClusterColumn,
	}
}

// InPlaceConfig keeps derived columns on the dataset so later calls can see them
func InPlaceConfig() Config {
	config := DefaultConfig()
	config.InPlace = true
	return config
}

// Analyzer runs the survey analyses
type Analyzer struct {
	config  Config
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewAnalyzer creates an analyzer with the given config
func NewAnalyzer(config Config) *Analyzer {
	if config.ClusterColumn == "" {
		config.ClusterColumn = DefaultClusterColumn
	}
	if config.KMeans.K == 0 {
		config.KMeans = models.DefaultKMeansConfig()
	}
	return &Analyzer{
		config:  config,
		coercer: coercer.NewTypeCoercer(config.Coercion),
		logger:  internal.DefaultLogger.WithComponent("Analyzer"),
	}
}

// Config returns the analyzer configuration
func (a *Analyzer) Config() Config {
	return a.config
}

// guard runs fn and converts a panic inside it into an error
func guard(step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", step, r)
		}
	}()
	return fn()
}
