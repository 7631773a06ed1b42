// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Spectral is graph-spectral clustering: an RBF affinity graph, its
// symmetrically normalized adjacency, the k leading eigenvectors as an
// embedding, then seeded k-means on the row-normalized embedding.
type Spectral struct {
	K    int
	Seed int64
}

// Name returns the algorithm identifier.
func (s *Spectral) Name() string { return "spectral" }

// Fit clusters X and returns per-row labels.
func (s *Spectral) Fit(X *mat.Dense) ([]int, error) {
	n, _ := X.Dims()
	if n == 0 {
		return nil, &FitPreconditionError{Stage: "spectral", Constraint: "empty input matrix"}
	}
	k := s.K
	if k > n {
		k = n
	}
	if n == 1 || k == 1 {
		return make([]int, n), nil
	}

	// RBF affinity with a median-heuristic bandwidth.
	sq := make([][]float64, n)
	var all []float64
	for i := 0; i < n; i++ {
		sq[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			sq[i][j] = sq[j][i]
		}
		for j := i + 1; j < n; j++ {
			sq[i][j] = sqDist(X.RawRowView(i), X.RawRowView(j))
			all = append(all, sq[i][j])
		}
	}
	sort.Float64s(all)
	sigma2 := 1.0
	if len(all) > 0 {
		if med := all[len(all)/2]; med > 0 {
			sigma2 = med
		}
	}

	W := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j {
				W.SetSym(i, j, 0)
				continue
			}
			W.SetSym(i, j, math.Exp(-sq[i][j]/(2*sigma2)))
		}
	}

	// Symmetric normalization D^{-1/2} W D^{-1/2}.
	dinv := make([]float64, n)
	for i := 0; i < n; i++ {
		deg := 0.0
		for j := 0; j < n; j++ {
			deg += W.At(i, j)
		}
		if deg > 0 {
			dinv[i] = 1 / math.Sqrt(deg)
		}
	}
	norm := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			norm.SetSym(i, j, W.At(i, j)*dinv[i]*dinv[j])
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(norm, true) {
		return nil, &FitPreconditionError{Stage: "spectral", Constraint: "eigendecomposition failed"}
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back ascending; the embedding takes the trailing k
	// columns, one row per sample, L2-normalized.
	embed := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		norm2 := 0.0
		for c := 0; c < k; c++ {
			v := vecs.At(i, n-k+c)
			embed.Set(i, c, v)
			norm2 += v * v
		}
		if norm2 > 0 {
			scale := 1 / math.Sqrt(norm2)
			for c := 0; c < k; c++ {
				embed.Set(i, c, embed.At(i, c)*scale)
			}
		}
	}

	km := &KMeans{K: k, Seed: s.Seed}
	return km.Fit(embed)
}
