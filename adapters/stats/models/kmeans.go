package models

import (
	"fmt"
	"math"
	"math/rand"

	"surveylens/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KMeansConfig controls a k-means fit
type KMeansConfig struct {
	K       int
	Seed    int64
	MaxIter int
	Tol     float64 // relative to the mean feature variance
}

// DefaultKMeansConfig is two clusters with a fixed seed so repeated runs agree
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{K: 2, Seed: 42, MaxIter: 300, Tol: 1e-4}
}

// KMeansResult holds cluster assignments and centroids
type KMeansResult struct {
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
}

// KMeans clusters complete rows with k-means++ seeding and Lloyd iterations.
// Labels are renumbered by first appearance, so the first row is always in cluster 0.
func KMeans(points [][]float64, config KMeansConfig) (KMeansResult, error) {
	if config.K < 1 {
		return KMeansResult{}, fmt.Errorf("k must be positive, got %d", config.K)
	}
	if len(points) < config.K {
		return KMeansResult{}, core.NewInsufficientDataError("k-means rows", config.K, len(points))
	}
	if distinctRows(points) < config.K {
		return KMeansResult{}, fmt.Errorf("%w: fewer distinct rows than clusters", core.ErrDegenerate)
	}

	rng := rand.New(rand.NewSource(config.Seed))
	centroids := seedPlusPlus(points, config.K, rng)
	tol := config.Tol * meanVariance(points)

	labels := make([]int, len(points))
	iterations := 0
	for iterations < config.MaxIter {
		iterations++
		for i, p := range points {
			labels[i] = nearest(p, centroids)
		}

		next := recompute(points, labels, centroids)
		shift := 0.0
		for c := range centroids {
			d := floats.Distance(centroids[c], next[c], 2)
			shift += d * d
		}
		centroids = next
		if shift <= tol {
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		labels[i] = nearest(p, centroids)
		d := floats.Distance(p, centroids[labels[i]], 2)
		inertia += d * d
	}

	labels, centroids = relabel(labels, centroids)
	return KMeansResult{
		Labels:     labels,
		Centroids:  centroids,
		Inertia:    inertia,
		Iterations: iterations,
	}, nil
}

// seedPlusPlus picks the first centroid uniformly and the rest with probability
// proportional to the squared distance from the nearest chosen centroid.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := floats.Distance(p, centroids[nearest(p, centroids)], 2)
			dist[i] = d * d
			total += dist[i]
		}
		target := rng.Float64() * total
		chosen := len(points) - 1
		for i, d := range dist {
			target -= d
			if target < 0 && d > 0 {
				chosen = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), points[chosen]...))
	}
	return centroids
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// recompute averages each cluster; an empty cluster keeps its previous centroid
func recompute(points [][]float64, labels []int, previous [][]float64) [][]float64 {
	dims := len(points[0])
	sums := make([][]float64, len(previous))
	counts := make([]int, len(previous))
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for c := range sums {
		if counts[c] == 0 {
			copy(sums[c], previous[c])
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
	}
	return sums
}

func relabel(labels []int, centroids [][]float64) ([]int, [][]float64) {
	mapping := make(map[int]int, len(centroids))
	ordered := make([][]float64, 0, len(centroids))
	for _, l := range labels {
		if _, ok := mapping[l]; !ok {
			mapping[l] = len(ordered)
			ordered = append(ordered, centroids[l])
		}
	}
	for c := range centroids {
		if _, ok := mapping[c]; !ok {
			mapping[c] = len(ordered)
			ordered = append(ordered, centroids[c])
		}
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = mapping[l]
	}
	return out, ordered
}

func meanVariance(points [][]float64) float64 {
	dims := len(points[0])
	col := make([]float64, len(points))
	total := 0.0
	for j := 0; j < dims; j++ {
		for i, p := range points {
			col[i] = p[j]
		}
		if len(col) > 1 {
			total += stat.Variance(col, nil)
		}
	}
	return total / float64(dims)
}

func distinctRows(points [][]float64) int {
	seen := make(map[string]bool)
	for _, p := range points {
		seen[fmt.Sprint(p)] = true
	}
	return len(seen)
}
