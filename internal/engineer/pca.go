// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engineer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PCA is a fitted principal-component projection. Components is the d×k
// loading matrix; Project maps a centered sample onto the k leading
// directions.
type PCA struct {
	Mean       []float64   `json:"mean"`
	Components [][]float64 `json:"components"`
}

// fitPCA learns the top-k principal components of X via thin SVD of the
// centered data. k must already respect min(samples, features)-1.
func fitPCA(X *mat.Dense, k int) (*PCA, error) {
	n, d := X.Dims()

	mean := make([]float64, d)
	for i := 0; i < n; i++ {
		row := X.RawRowView(i)
		for j := range mean {
			mean[j] += row[j]
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	centered := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		row := X.RawRowView(i)
		for j := 0; j < d; j++ {
			centered.Set(i, j, row[j]-mean[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return nil, fmt.Errorf("pca: SVD failed to converge")
	}
	var v mat.Dense
	svd.VTo(&v)

	components := make([][]float64, d)
	for j := 0; j < d; j++ {
		components[j] = make([]float64, k)
		for c := 0; c < k; c++ {
			components[j][c] = v.At(j, c)
		}
	}
	return &PCA{Mean: mean, Components: components}, nil
}

// Project maps one sample into the component space.
func (p *PCA) Project(x []float64) []float64 {
	k := 0
	if len(p.Components) > 0 {
		k = len(p.Components[0])
	}
	out := make([]float64, k)
	for j, loadings := range p.Components {
		centered := x[j] - p.Mean[j]
		for c := 0; c < k; c++ {
			out[c] += centered * loadings[c]
		}
	}
	return out
}
