// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cluster partitions preprocessed feature matrices into a
// three-level nested hierarchy and assigns new samples to it. Two engines
// share one contract: the flexible variant picks an algorithm per level,
// the linkage variant slices a single Ward dendrogram.
package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// Algorithm is one flat clustering strategy. Implementations are stateless
// across Fit calls and deterministic under a fixed seed.
type Algorithm interface {
	Name() string

	// Fit returns one label per input row, in row order. Labels are dense
	// integers starting at 0.
	Fit(X *mat.Dense) ([]int, error)
}

// NewAlgorithm builds the configured algorithm.
func NewAlgorithm(cfg types.AlgorithmConfig) (Algorithm, error) {
	if cfg.Clusters < 1 {
		return nil, &FitPreconditionError{Stage: "cluster", Constraint: fmt.Sprintf("cluster count %d < 1", cfg.Clusters)}
	}
	switch cfg.Name {
	case "kmeans", "":
		return &KMeans{K: cfg.Clusters, Seed: cfg.Seed}, nil
	case "agglomerative":
		linkage := cfg.Linkage
		if linkage == "" {
			linkage = LinkageWard
		}
		return &Agglomerative{K: cfg.Clusters, Linkage: linkage}, nil
	case "spectral":
		return &Spectral{K: cfg.Clusters, Seed: cfg.Seed}, nil
	default:
		return nil, fmt.Errorf("unknown clustering algorithm %q", cfg.Name)
	}
}

// FitPreconditionError reports a violated fit-time constraint; it is fatal
// to the run and names the offending stage.
type FitPreconditionError struct {
	Stage      string
	Constraint string
}

func (e *FitPreconditionError) Error() string {
	return fmt.Sprintf("%s: fit precondition violated: %s", e.Stage, e.Constraint)
}

// ConsistencyError reports a malformed fitted model, such as a hierarchy
// level with no representative to descend into.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return "fitted model inconsistent: " + e.Detail
}

// euclidean returns the Euclidean distance between two vectors.
func euclidean(a, b []float64) float64 {
	return math.Sqrt(sqDist(a, b))
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// subMatrix copies the listed rows of X into a new matrix.
func subMatrix(X *mat.Dense, rows []int) *mat.Dense {
	_, d := X.Dims()
	sub := mat.NewDense(len(rows), d, nil)
	for i, r := range rows {
		sub.SetRow(i, X.RawRowView(r))
	}
	return sub
}

// meanVector averages the listed rows of X.
func meanVector(X *mat.Dense, rows []int) []float64 {
	_, d := X.Dims()
	m := make([]float64, d)
	if len(rows) == 0 {
		return m
	}
	for _, r := range rows {
		row := X.RawRowView(r)
		for j := range m {
			m[j] += row[j]
		}
	}
	for j := range m {
		m[j] /= float64(len(rows))
	}
	return m
}

// partitionRows groups row indices by label, preserving row order inside
// each group. Labels are dense so the result is indexable by label.
func partitionRows(labels []int) [][]int {
	max := -1
	for _, l := range labels {
		if l > max {
			max = l
		}
	}
	parts := make([][]int, max+1)
	for i, l := range labels {
		parts[l] = append(parts[l], i)
	}
	return parts
}
