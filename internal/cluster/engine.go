// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

const defaultMinSplit = 5

// Representatives holds the mean feature vector of every hierarchy node,
// indexed by the dense cluster ids ([l1], [l1][l2], [l1][l2][l3]). The
// incremental assigner walks these top-down.
type Representatives struct {
	Level1 [][]float64     `json:"level1"`
	Level2 [][][]float64   `json:"level2"`
	Level3 [][][][]float64 `json:"level3"`
}

// Model is the fitted state of a nested clustering run: every training
// sample's assignment and feature vector plus the per-node representatives.
// Immutable after fit; retraining produces a new Model.
type Model struct {
	Variant     string              `json:"variant"`
	Width       int                 `json:"width"`
	IDs         []string            `json:"ids"`
	Vectors     [][]float64         `json:"vectors"`
	Assignments []types.Assignment  `json:"assignments"`
	Reps        Representatives     `json:"representatives"`
	Metrics     types.MetricsReport `json:"metrics"`

	// idIndex maps product id to row. Derived from IDs; rebuilt after
	// deserialization.
	idIndex map[string]int
}

// RebuildIndex reconstructs the id lookup table from IDs. Call it after
// decoding a persisted model.
func (m *Model) RebuildIndex() {
	m.idIndex = make(map[string]int, len(m.IDs))
	for i, id := range m.IDs {
		m.idIndex[id] = i
	}
}

// AssignmentByID returns the stored training assignment for a product id.
func (m *Model) AssignmentByID(id string) (types.Assignment, bool) {
	idx, ok := m.idIndex[id]
	if !ok {
		return types.Assignment{}, false
	}
	return m.Assignments[idx], true
}

// Engine fits a three-level nested partition over a feature matrix.
type Engine interface {
	Name() string

	// Fit assigns every row of X a (level1, level2, level3) triple, in row
	// order. ids pairs each row with its product identifier.
	Fit(X *mat.Dense, ids []string) (*Model, error)
}

// NewEngine builds the configured variant.
func NewEngine(cfg types.ClusterConfig) (Engine, error) {
	switch cfg.Variant {
	case "flexible", "":
		return &FlexibleNested{Config: cfg}, nil
	case "linkage":
		return &FixedLinkage{Config: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown clustering variant %q", cfg.Variant)
	}
}

// FlexibleNested applies an independently configured algorithm at each
// level, re-clustering every partition's rows in isolation.
type FlexibleNested struct {
	Config types.ClusterConfig
}

// Name returns the engine identifier stored with persisted models.
func (f *FlexibleNested) Name() string { return "flexible" }

// Fit runs the three nested clustering passes.
func (f *FlexibleNested) Fit(X *mat.Dense, ids []string) (*Model, error) {
	n, _ := X.Dims()
	if n == 0 {
		return nil, &FitPreconditionError{Stage: "clusterer", Constraint: "empty input matrix"}
	}
	if len(ids) != n {
		return nil, &FitPreconditionError{Stage: "clusterer", Constraint: fmt.Sprintf("%d ids for %d rows", len(ids), n)}
	}

	alg1, err := NewAlgorithm(f.Config.Level1)
	if err != nil {
		return nil, err
	}
	l1, err := alg1.Fit(X)
	if err != nil {
		return nil, fmt.Errorf("level1 clustering: %w", err)
	}

	asg := make([]types.Assignment, n)
	for i, l := range l1 {
		asg[i].Level1 = l
	}

	minSplit := f.Config.MinSplitSize
	if minSplit <= 0 {
		minSplit = defaultMinSplit
	}

	for _, rows := range partitionRows(l1) {
		sub2, err := f.splitPartition(X, rows, f.Config.Level2, minSplit)
		if err != nil {
			return nil, fmt.Errorf("level2 clustering: %w", err)
		}
		for i, r := range rows {
			asg[r].Level2 = sub2[i]
		}

		for _, subRows := range groupByLocal(rows, sub2) {
			sub3, err := f.splitPartition(X, subRows, f.Config.Level3, minSplit)
			if err != nil {
				return nil, fmt.Errorf("level3 clustering: %w", err)
			}
			for i, r := range subRows {
				asg[r].Level3 = sub3[i]
			}
		}
	}

	return finishModel(f.Name(), X, ids, asg)
}

// splitPartition clusters one parent's rows, honoring the minimum-size
// guard: partitions too small to split, and splits that would create a
// fragment below the minimum, degrade to a single child cluster.
func (f *FlexibleNested) splitPartition(X *mat.Dense, rows []int, cfg types.AlgorithmConfig, minSplit int) ([]int, error) {
	if len(rows) < minSplit || cfg.Clusters < 2 {
		return make([]int, len(rows)), nil
	}
	alg, err := NewAlgorithm(cfg)
	if err != nil {
		return nil, err
	}
	labels, err := alg.Fit(subMatrix(X, rows))
	if err != nil {
		return nil, err
	}
	return guardFragments(labels, minSplit), nil
}

// FixedLinkage computes one Ward dendrogram over the full matrix and
// derives all three levels from it: level1 by a direct cut, level2 and
// level3 by re-clustering each parent's rows on the cophenetic distances
// the global linkage induces. Refinement is strict by construction and
// every level shares the same distance notion.
type FixedLinkage struct {
	Config types.ClusterConfig
}

// Name returns the engine identifier stored with persisted models.
func (f *FixedLinkage) Name() string { return "linkage" }

// Fit builds the global linkage and slices it three times.
func (f *FixedLinkage) Fit(X *mat.Dense, ids []string) (*Model, error) {
	n, _ := X.Dims()
	if n == 0 {
		return nil, &FitPreconditionError{Stage: "clusterer", Constraint: "empty input matrix"}
	}
	if len(ids) != n {
		return nil, &FitPreconditionError{Stage: "clusterer", Constraint: fmt.Sprintf("%d ids for %d rows", len(ids), n)}
	}

	criterion := f.Config.Linkage
	if criterion == "" {
		criterion = LinkageWard
	}
	link, err := BuildLinkage(X, criterion)
	if err != nil {
		return nil, err
	}
	l1 := link.Cut(f.Config.Level1.Clusters)
	coph := link.Cophenetic()

	asg := make([]types.Assignment, n)
	for i, l := range l1 {
		asg[i].Level1 = l
	}

	minSplit := f.Config.MinSplitSize
	if minSplit <= 0 {
		minSplit = defaultMinSplit
	}

	for _, rows := range partitionRows(l1) {
		sub2 := cutWithin(coph, rows, f.Config.Level2.Clusters, minSplit)
		for i, r := range rows {
			asg[r].Level2 = sub2[i]
		}
		for _, subRows := range groupByLocal(rows, sub2) {
			sub3 := cutWithin(coph, subRows, f.Config.Level3.Clusters, minSplit)
			for i, r := range subRows {
				asg[r].Level3 = sub3[i]
			}
		}
	}

	return finishModel(f.Name(), X, ids, asg)
}

// cutWithin slices one parent's rows into k clusters on the cophenetic
// submatrix, with the same minimum-size guard as the flexible variant.
func cutWithin(coph [][]float64, rows []int, k, minSplit int) []int {
	if len(rows) < minSplit || k < 2 {
		return make([]int, len(rows))
	}
	D := make([][]float64, len(rows))
	for i, ri := range rows {
		D[i] = make([]float64, len(rows))
		for j, rj := range rows {
			D[i][j] = coph[ri][rj]
		}
	}
	return guardFragments(cutDistanceMatrix(D, k), minSplit)
}

// guardFragments collapses a split whose smallest child would fall under
// the minimum partition size.
func guardFragments(labels []int, minSplit int) []int {
	counts := map[int]int{}
	for _, l := range labels {
		counts[l]++
	}
	for _, c := range counts {
		if c < minSplit {
			return make([]int, len(labels))
		}
	}
	return labels
}

// groupByLocal groups absolute row indices by their local child label.
func groupByLocal(rows []int, local []int) [][]int {
	max := -1
	for _, l := range local {
		if l > max {
			max = l
		}
	}
	groups := make([][]int, max+1)
	for i, l := range local {
		groups[l] = append(groups[l], rows[i])
	}
	return groups
}

// finishModel derives representatives and quality metrics and freezes the
// fitted state.
func finishModel(variant string, X *mat.Dense, ids []string, asg []types.Assignment) (*Model, error) {
	n, d := X.Dims()

	vectors := make([][]float64, n)
	for i := 0; i < n; i++ {
		vectors[i] = append([]float64(nil), X.RawRowView(i)...)
	}
	l1 := make([]int, n)
	for i := range asg {
		l1[i] = asg[i].Level1
	}
	parts1 := partitionRows(l1)

	reps := Representatives{
		Level1: make([][]float64, len(parts1)),
		Level2: make([][][]float64, len(parts1)),
		Level3: make([][][][]float64, len(parts1)),
	}
	for c1, rows := range parts1 {
		reps.Level1[c1] = meanVector(X, rows)

		local2 := make([]int, len(rows))
		for i, r := range rows {
			local2[i] = asg[r].Level2
		}
		parts2 := groupByLocal(rows, local2)
		reps.Level2[c1] = make([][]float64, len(parts2))
		reps.Level3[c1] = make([][][]float64, len(parts2))
		for c2, rows2 := range parts2 {
			reps.Level2[c1][c2] = meanVector(X, rows2)

			local3 := make([]int, len(rows2))
			for i, r := range rows2 {
				local3[i] = asg[r].Level3
			}
			parts3 := groupByLocal(rows2, local3)
			reps.Level3[c1][c2] = make([][]float64, len(parts3))
			for c3, rows3 := range parts3 {
				reps.Level3[c1][c2][c3] = meanVector(X, rows3)
			}
		}
	}

	m := &Model{
		Variant:     variant,
		Width:       d,
		IDs:         append([]string(nil), ids...),
		Vectors:     vectors,
		Assignments: asg,
		Reps:        reps,
		Metrics:     computeReport(X, asg),
	}
	m.RebuildIndex()
	return m, nil
}
