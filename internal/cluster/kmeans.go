// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// KMeans is seeded Lloyd's k-means with k-means++ initialization.
type KMeans struct {
	K    int
	Seed int64

	// MaxIter and Tol default to 100 and 1e-4 when zero.
	MaxIter int
	Tol     float64
}

// Name returns the algorithm identifier.
func (k *KMeans) Name() string { return "kmeans" }

// Fit clusters X and returns per-row labels.
func (k *KMeans) Fit(X *mat.Dense) ([]int, error) {
	labels, _, err := k.FitCentroids(X)
	return labels, err
}

// FitCentroids clusters X and also returns the final centroids, one row per
// cluster. Identical seed and row order give identical output.
func (k *KMeans) FitCentroids(X *mat.Dense) ([]int, *mat.Dense, error) {
	n, d := X.Dims()
	if n == 0 {
		return nil, nil, &FitPreconditionError{Stage: "kmeans", Constraint: "empty input matrix"}
	}
	kk := k.K
	if kk > n {
		kk = n
	}
	maxIter := k.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	tol := k.Tol
	if tol <= 0 {
		tol = 1e-4
	}

	rng := rand.New(rand.NewSource(k.Seed))
	centroids := plusPlusInit(X, kk, rng)
	labels := make([]int, n)

	for iter := 0; iter < maxIter; iter++ {
		next := assignNearest(X, centroids)
		converged := true
		for i := range labels {
			if labels[i] != next[i] {
				converged = false
				break
			}
		}
		labels = next
		if converged && iter > 0 {
			break
		}

		updated := centroidsOf(X, labels, kk, d)
		shift := 0.0
		for c := 0; c < kk; c++ {
			shift += euclidean(centroids.RawRowView(c), updated.RawRowView(c))
		}
		centroids = updated
		if shift/float64(kk) < tol {
			break
		}
	}

	labels = relabelDense(labels)
	return labels, centroids, nil
}

// plusPlusInit picks initial centroids with squared-distance weighting.
func plusPlusInit(X *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := X.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, X.RawRowView(rng.Intn(n)))

	dists := make([]float64, n)
	for c := 1; c < k; c++ {
		total := 0.0
		for i := 0; i < n; i++ {
			best := math.Inf(1)
			for j := 0; j < c; j++ {
				if sd := sqDist(X.RawRowView(i), centroids.RawRowView(j)); sd < best {
					best = sd
				}
			}
			dists[i] = best
			total += best
		}
		if total == 0 {
			// All remaining points coincide with a centroid.
			centroids.SetRow(c, X.RawRowView(rng.Intn(n)))
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		pick := n - 1
		for i, sd := range dists {
			acc += sd
			if acc >= target {
				pick = i
				break
			}
		}
		centroids.SetRow(c, X.RawRowView(pick))
	}
	return centroids
}

func assignNearest(X, centroids *mat.Dense) []int {
	n, _ := X.Dims()
	k, _ := centroids.Dims()
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		row := X.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		for c := 0; c < k; c++ {
			if sd := sqDist(row, centroids.RawRowView(c)); sd < bestDist {
				best, bestDist = c, sd
			}
		}
		labels[i] = best
	}
	return labels
}

func centroidsOf(X *mat.Dense, labels []int, k, d int) *mat.Dense {
	centroids := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	n, _ := X.Dims()
	for i := 0; i < n; i++ {
		c := labels[i]
		row := X.RawRowView(i)
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)+row[j])
		}
		counts[c]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)/float64(counts[c]))
		}
	}
	return centroids
}

// relabelDense renumbers labels to dense 0..m-1 in order of first
// appearance, dropping ids of emptied clusters.
func relabelDense(labels []int) []int {
	next := 0
	seen := map[int]int{}
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := seen[l]
		if !ok {
			id = next
			seen[l] = id
			next++
		}
		out[i] = id
	}
	return out
}
