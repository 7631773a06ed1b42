// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Linkage criteria.
const (
	LinkageWard     = "ward"
	LinkageAverage  = "average"
	LinkageComplete = "complete"
)

// Merge is one step of the agglomeration history. A and B are linkage node
// ids: 0..n-1 are input rows, n+i is the cluster created by merge i.
type Merge struct {
	A    int     `json:"a"`
	B    int     `json:"b"`
	Dist float64 `json:"dist"`
	Size int     `json:"size"`
}

// Linkage is the full merge history of hierarchical-agglomerative
// clustering, sliceable at any target cluster count.
type Linkage struct {
	N        int     `json:"n"`
	Criterion string `json:"criterion"`
	Merges   []Merge `json:"merges"`
}

// Agglomerative clusters by building a linkage matrix and cutting it at a
// target cluster count.
type Agglomerative struct {
	K       int
	Linkage string
}

// Name returns the algorithm identifier.
func (a *Agglomerative) Name() string { return "agglomerative" }

// Fit builds the dendrogram over X and slices it into K flat clusters.
func (a *Agglomerative) Fit(X *mat.Dense) ([]int, error) {
	link, err := BuildLinkage(X, a.Linkage)
	if err != nil {
		return nil, err
	}
	return link.Cut(a.K), nil
}

// BuildLinkage computes the merge history over X's rows using Euclidean
// distances and the given criterion (default Ward).
func BuildLinkage(X *mat.Dense, criterion string) (*Linkage, error) {
	n, _ := X.Dims()
	if n == 0 {
		return nil, &FitPreconditionError{Stage: "linkage", Constraint: "empty input matrix"}
	}
	if criterion == "" {
		criterion = LinkageWard
	}
	squared := criterion == LinkageWard

	d := make([][]float64, n)
	for i := 0; i < n; i++ {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := sqDist(X.RawRowView(i), X.RawRowView(j))
			if !squared {
				dist = math.Sqrt(dist)
			}
			d[i][j], d[j][i] = dist, dist
		}
	}
	return linkageFromWorkingDist(d, criterion), nil
}

// linkageFromWorkingDist agglomerates a precomputed distance matrix.
// For the Ward criterion the matrix must hold squared distances; merge
// heights are reported in distance units either way. The matrix is consumed.
func linkageFromWorkingDist(d [][]float64, criterion string) *Linkage {
	n := len(d)
	link := &Linkage{N: n, Criterion: criterion}
	if n == 1 {
		return link
	}

	active := make([]bool, n)
	sizes := make([]float64, n)
	nodeID := make([]int, n)
	for i := range active {
		active[i] = true
		sizes[i] = 1
		nodeID[i] = i
	}

	for step := 0; step < n-1; step++ {
		// Nearest active pair; ties break on the lower index pair so runs
		// are reproducible.
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if d[i][j] < best {
					bi, bj, best = i, j, d[i][j]
				}
			}
		}

		height := best
		if criterion == LinkageWard {
			height = math.Sqrt(best)
		}
		mergedSize := sizes[bi] + sizes[bj]
		link.Merges = append(link.Merges, Merge{
			A: nodeID[bi], B: nodeID[bj], Dist: height, Size: int(mergedSize),
		})

		// Lance-Williams update of bi's distances to every other cluster.
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			var next float64
			switch criterion {
			case LinkageComplete:
				next = math.Max(d[bi][k], d[bj][k])
			case LinkageAverage:
				next = (sizes[bi]*d[bi][k] + sizes[bj]*d[bj][k]) / mergedSize
			default: // ward, on squared distances
				nk := sizes[k]
				next = ((sizes[bi]+nk)*d[bi][k] + (sizes[bj]+nk)*d[bj][k] - nk*d[bi][bj]) /
					(mergedSize + nk)
			}
			d[bi][k], d[k][bi] = next, next
		}

		active[bj] = false
		sizes[bi] = mergedSize
		nodeID[bi] = n + step
	}
	return link
}

// Cut slices the dendrogram into k flat clusters. Labels are dense,
// numbered by order of first appearance in row order. k greater than the
// row count degrades to one cluster per row.
func (l *Linkage) Cut(k int) []int {
	if k < 1 {
		k = 1
	}
	if k > l.N {
		k = l.N
	}
	parent := make([]int, l.N+len(l.Merges))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	// Applying the first n-k merges leaves exactly k clusters.
	for step := 0; step < l.N-k; step++ {
		m := l.Merges[step]
		node := l.N + step
		parent[find(m.A)] = node
		parent[find(m.B)] = node
	}

	labels := make([]int, l.N)
	seen := map[int]int{}
	next := 0
	for i := 0; i < l.N; i++ {
		root := find(i)
		id, ok := seen[root]
		if !ok {
			id = next
			seen[root] = id
			next++
		}
		labels[i] = id
	}
	return labels
}

// Cophenetic returns the n×n matrix of merge heights at which each row pair
// first joins a common cluster. This is the single global distance notion
// the linkage variant's sub-cuts reuse.
func (l *Linkage) Cophenetic() [][]float64 {
	coph := make([][]float64, l.N)
	for i := range coph {
		coph[i] = make([]float64, l.N)
	}
	members := make([][]int, l.N+len(l.Merges))
	for i := 0; i < l.N; i++ {
		members[i] = []int{i}
	}
	for step, m := range l.Merges {
		ma, mb := members[m.A], members[m.B]
		for _, a := range ma {
			for _, b := range mb {
				coph[a][b], coph[b][a] = m.Dist, m.Dist
			}
		}
		merged := make([]int, 0, len(ma)+len(mb))
		merged = append(merged, ma...)
		merged = append(merged, mb...)
		members[l.N+step] = merged
	}
	return coph
}

// cutDistanceMatrix clusters a precomputed distance submatrix with average
// linkage and returns k dense labels. Used for per-parent sub-cuts on
// cophenetic distances.
func cutDistanceMatrix(D [][]float64, k int) []int {
	work := make([][]float64, len(D))
	for i := range D {
		work[i] = append([]float64(nil), D[i]...)
	}
	return linkageFromWorkingDist(work, LinkageAverage).Cut(k)
}
