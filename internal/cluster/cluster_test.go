// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// blobs builds n rows per center, jittered by a deterministic generator.
// The centers are far apart relative to the jitter so any sane clustering
// recovers them.
func blobs(t *testing.T, centers [][]float64, perCenter int, seed int64) (*mat.Dense, []int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	d := len(centers[0])
	X := mat.NewDense(len(centers)*perCenter, d, nil)
	truth := make([]int, len(centers)*perCenter)
	row := 0
	for c, center := range centers {
		for i := 0; i < perCenter; i++ {
			for j := 0; j < d; j++ {
				X.Set(row, j, center[j]+rng.NormFloat64()*0.1)
			}
			truth[row] = c
			row++
		}
	}
	return X, truth
}

func blobIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%03d", i)
	}
	return ids
}

// sameGrouping checks that two labelings induce the same partition,
// ignoring label names.
func sameGrouping(t *testing.T, want, got []int) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	mapping := map[int]int{}
	for i := range want {
		if m, ok := mapping[want[i]]; ok {
			assert.Equal(t, m, got[i], "row %d", i)
		} else {
			mapping[want[i]] = got[i]
		}
	}
}

func TestKMeansRecoversBlobs(t *testing.T) {
	X, truth := blobs(t, [][]float64{{0, 0}, {10, 0}, {0, 10}}, 20, 1)

	km := &KMeans{K: 3, Seed: 42}
	labels, err := km.Fit(X)
	require.NoError(t, err)
	sameGrouping(t, truth, labels)
}

func TestKMeansSeedDeterminism(t *testing.T) {
	X, _ := blobs(t, [][]float64{{0, 0}, {5, 5}, {10, 0}, {0, 10}}, 15, 2)

	a, err := (&KMeans{K: 4, Seed: 7}).Fit(X)
	require.NoError(t, err)
	b, err := (&KMeans{K: 4, Seed: 7}).Fit(X)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKMeansLabelsAreDense(t *testing.T) {
	X, _ := blobs(t, [][]float64{{0, 0}, {10, 10}}, 10, 3)
	labels, err := (&KMeans{K: 2, Seed: 1}).Fit(X)
	require.NoError(t, err)

	// Labels appear in first-appearance order starting from zero.
	assert.Equal(t, 0, labels[0])
	seen := map[int]bool{}
	for _, l := range labels {
		seen[l] = true
	}
	assert.Equal(t, map[int]bool{0: true, 1: true}, seen)
}

func TestKMeansClampsKToRowCount(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	labels, err := (&KMeans{K: 3, Seed: 1}).Fit(X)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, labels)
}

func TestAgglomerativeRecoversBlobs(t *testing.T) {
	for _, criterion := range []string{LinkageWard, LinkageAverage, LinkageComplete} {
		t.Run(criterion, func(t *testing.T) {
			X, truth := blobs(t, [][]float64{{0, 0}, {10, 0}, {0, 10}}, 12, 4)
			labels, err := (&Agglomerative{K: 3, Linkage: criterion}).Fit(X)
			require.NoError(t, err)
			sameGrouping(t, truth, labels)
		})
	}
}

func TestLinkageMergeHeightsAreMonotone(t *testing.T) {
	X, _ := blobs(t, [][]float64{{0, 0}, {8, 8}}, 10, 5)
	link, err := BuildLinkage(X, LinkageWard)
	require.NoError(t, err)
	require.Len(t, link.Merges, 19)

	for i := 1; i < len(link.Merges); i++ {
		assert.GreaterOrEqual(t, link.Merges[i].Dist, link.Merges[i-1].Dist)
	}
}

func TestLinkageCutSizes(t *testing.T) {
	X, truth := blobs(t, [][]float64{{0, 0}, {10, 0}, {0, 10}, {10, 10}}, 8, 6)
	link, err := BuildLinkage(X, LinkageWard)
	require.NoError(t, err)

	labels := link.Cut(4)
	sameGrouping(t, truth, labels)

	// Cutting at 1 collapses everything.
	one := link.Cut(1)
	for _, l := range one {
		assert.Equal(t, 0, l)
	}
}

func TestSpectralRecoversBlobs(t *testing.T) {
	X, truth := blobs(t, [][]float64{{0, 0}, {12, 0}}, 15, 7)
	labels, err := (&Spectral{K: 2, Seed: 9}).Fit(X)
	require.NoError(t, err)
	sameGrouping(t, truth, labels)
}

func TestFlexibleNestedRefinesStrictly(t *testing.T) {
	// Two widely separated super-groups, each containing two sub-groups.
	X, _ := blobs(t, [][]float64{
		{0, 0}, {3, 0},
		{100, 100}, {103, 100},
	}, 10, 8)
	ids := blobIDs(40)

	cfg := types.ClusterConfig{
		Variant:      "flexible",
		Level1:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
		Level2:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
		Level3:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
		MinSplitSize: 5,
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	model, err := engine.Fit(X, ids)
	require.NoError(t, err)

	// Every assigned triple must point at an existing representative node,
	// so the hierarchy is navigable exactly as labeled.
	for _, a := range model.Assignments {
		require.Less(t, a.Level1, len(model.Reps.Level1))
		require.Less(t, a.Level2, len(model.Reps.Level2[a.Level1]))
		require.Less(t, a.Level3, len(model.Reps.Level3[a.Level1][a.Level2]))
	}

	// The two far groups separate at level1 and the near pairs at level2.
	assert.NotEqual(t, model.Assignments[0].Level1, model.Assignments[25].Level1)
	assert.Equal(t, model.Assignments[0].Level1, model.Assignments[15].Level1)
	assert.NotEqual(t, model.Assignments[0].Level2, model.Assignments[15].Level2)
}

func TestFlexibleNestedMinSplitGuard(t *testing.T) {
	// 6 rows: below MinSplitSize 10 nothing may subdivide.
	X, _ := blobs(t, [][]float64{{0, 0}, {10, 10}}, 3, 9)
	ids := blobIDs(6)

	cfg := types.ClusterConfig{
		Variant:      "flexible",
		Level1:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
		Level2:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
		Level3:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
		MinSplitSize: 10,
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	model, err := engine.Fit(X, ids)
	require.NoError(t, err)

	for _, a := range model.Assignments {
		assert.Equal(t, 0, a.Level2)
		assert.Equal(t, 0, a.Level3)
	}
}

func TestFixedLinkageRefinesTheGlobalDendrogram(t *testing.T) {
	X, _ := blobs(t, [][]float64{
		{0, 0}, {4, 0},
		{100, 100}, {104, 100},
	}, 10, 10)
	ids := blobIDs(40)

	cfg := types.ClusterConfig{
		Variant: "linkage",
		Level1:  types.AlgorithmConfig{Clusters: 2},
		Level2:  types.AlgorithmConfig{Clusters: 2},
		Level3:  types.AlgorithmConfig{Clusters: 2},
		Linkage: LinkageWard,
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	model, err := engine.Fit(X, ids)
	require.NoError(t, err)
	assert.Equal(t, "linkage", model.Variant)

	// Level1 separates the two far super-groups.
	assert.NotEqual(t, model.Assignments[0].Level1, model.Assignments[25].Level1)

	// Level2 splits each super-group into its two sub-blobs.
	l2Seen := map[int]map[int]bool{}
	for _, a := range model.Assignments {
		if l2Seen[a.Level1] == nil {
			l2Seen[a.Level1] = map[int]bool{}
		}
		l2Seen[a.Level1][a.Level2] = true
	}
	for l1, children := range l2Seen {
		assert.Len(t, children, 2, "level1=%d", l1)
	}
}

func TestEngineRejectsBadInput(t *testing.T) {
	engine, err := NewEngine(types.ClusterConfig{
		Variant: "flexible",
		Level1:  types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
	})
	require.NoError(t, err)

	var pre *FitPreconditionError
	_, err = engine.Fit(mat.NewDense(1, 2, []float64{0, 0}), []string{"a", "b"})
	require.ErrorAs(t, err, &pre)

	_, err = NewEngine(types.ClusterConfig{Variant: "bogus"})
	require.Error(t, err)
}

func TestMetricsSanity(t *testing.T) {
	X, _ := blobs(t, [][]float64{{0, 0}, {10, 0}, {0, 10}, {10, 10}}, 10, 11)
	ids := blobIDs(40)

	cfg := types.ClusterConfig{
		Variant:      "flexible",
		Level1:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 3},
		Level2:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 3},
		Level3:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 3},
		MinSplitSize: 5,
	}
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	model, err := engine.Fit(X, ids)
	require.NoError(t, err)

	m := model.Metrics
	// Well-separated blobs give a strongly positive level1 silhouette.
	assert.Greater(t, m.Level1.Silhouette, 0.5)
	assert.GreaterOrEqual(t, m.Level1.Silhouette, -1.0)
	assert.LessOrEqual(t, m.Level1.Silhouette, 1.0)
	assert.Greater(t, m.Level1.CalinskiHarabasz, 0.0)
	assert.Greater(t, m.Level1.DaviesBouldin, 0.0)
	assert.InDelta(t, (m.Level1.Silhouette+m.Level2.Silhouette+m.Level3.Silhouette)/3, m.Headline, 1e-9)

	flat := m.Flatten()
	assert.Contains(t, flat, "headline")
	assert.Contains(t, flat, "level1.silhouette")
}

func TestAssignReturnsStoredTripleForKnownID(t *testing.T) {
	X, _ := blobs(t, [][]float64{{0, 0}, {10, 10}}, 10, 12)
	ids := blobIDs(20)

	engine, err := NewEngine(types.ClusterConfig{
		Variant: "flexible",
		Level1:  types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
	})
	require.NoError(t, err)
	model, err := engine.Fit(X, ids)
	require.NoError(t, err)

	// A known id returns the stored triple even with a contradicting vector.
	farAway := make([]float64, model.Width)
	for i := range farAway {
		farAway[i] = 1e6
	}
	got, err := Assign(ids[0], farAway, model)
	require.NoError(t, err)
	assert.Equal(t, model.Assignments[0], got)
}

func TestAssignWalksRepresentativesForNewProducts(t *testing.T) {
	X, _ := blobs(t, [][]float64{{0, 0}, {10, 0}, {0, 10}}, 10, 13)
	ids := blobIDs(30)

	engine, err := NewEngine(types.ClusterConfig{
		Variant:      "flexible",
		Level1:       types.AlgorithmConfig{Name: "kmeans", Clusters: 3, Seed: 1},
		Level2:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 1},
		MinSplitSize: 5,
	})
	require.NoError(t, err)
	model, err := engine.Fit(X, ids)
	require.NoError(t, err)

	// A probe near a training row lands in that row's level1 cluster.
	probe := append([]float64(nil), model.Vectors[0]...)
	probe[0] += 0.01
	got, err := Assign("unseen", probe, model)
	require.NoError(t, err)
	assert.Equal(t, model.Assignments[0].Level1, got.Level1)

	// Same input, same output.
	again, err := Assign("unseen", probe, model)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	// Dimension mismatch is an error, not a panic.
	_, err = Assign("unseen", []float64{1}, model)
	require.Error(t, err)
}

func TestAssignRejectsMalformedModel(t *testing.T) {
	m := &Model{Width: 2, Reps: Representatives{}}
	m.RebuildIndex()
	_, err := Assign("x", []float64{0, 0}, m)
	var cons *ConsistencyError
	require.ErrorAs(t, err, &cons)
}

func TestCopheneticMatchesMergeStructure(t *testing.T) {
	// Two tight pairs far apart: within-pair cophenetic distance is far
	// smaller than across pairs.
	X := mat.NewDense(4, 1, []float64{0, 0.1, 10, 10.1})
	link, err := BuildLinkage(X, LinkageAverage)
	require.NoError(t, err)

	coph := link.Cophenetic()
	assert.Less(t, coph[0][1], coph[0][2])
	assert.Less(t, coph[2][3], coph[1][2])
	assert.Zero(t, coph[0][0])
	assert.Equal(t, coph[0][2], coph[2][0])
}
