// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deploy

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliREZA79400/ProductStapler/internal/cluster"
	"github.com/aliREZA79400/ProductStapler/internal/engineer"
	"github.com/aliREZA79400/ProductStapler/internal/parser"
	"github.com/aliREZA79400/ProductStapler/internal/preprocess"
	"github.com/aliREZA79400/ProductStapler/internal/registry"
	"github.com/aliREZA79400/ProductStapler/internal/store"
	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// seededWorld builds a store with synthetic catalog products and a
// registry holding one model trained on all of them.
func seededWorld(t *testing.T, n int, policy types.OrdinalPolicy) (*store.Store, *registry.Registry) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	st, err := store.Open(types.StoreConfig{Path: filepath.Join(dir, "catalog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Seed(ctx, n, 7, io.Discard))

	raws, err := st.Find(ctx, 0)
	require.NoError(t, err)
	require.Len(t, raws, n)

	p := parser.New(nil)
	records := make([]types.Record, len(raws))
	ids := make([]string, len(raws))
	for i, raw := range raws {
		records[i] = p.Parse(raw)
		ids[i] = raw.ID
	}

	engState, err := engineer.Fit(records, types.EngineerConfig{Seed: 7})
	require.NoError(t, err)
	engineered := engState.Transform(records)

	pipeline, err := preprocess.Fit(engineered, types.PreprocessConfig{Ordinal: policy})
	require.NoError(t, err)
	X, err := pipeline.Transform(engineered)
	require.NoError(t, err)

	engine, err := cluster.NewEngine(types.ClusterConfig{
		Variant:      "flexible",
		Level1:       types.AlgorithmConfig{Name: "kmeans", Clusters: 3, Seed: 7},
		Level2:       types.AlgorithmConfig{Name: "kmeans", Clusters: 2, Seed: 7},
		MinSplitSize: 5,
	})
	require.NoError(t, err)
	model, err := engine.Fit(X, ids)
	require.NoError(t, err)

	reg, err := registry.New(types.RegistryConfig{Dir: filepath.Join(dir, "models")})
	require.NoError(t, err)
	bundle := &registry.Bundle{Engineer: engState, Pipeline: pipeline, Model: model}
	v, err := reg.Save("catalog", bundle, model.Metrics.Flatten(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	return st, reg
}

func TestRunAssignsUnlabeledProducts(t *testing.T) {
	ctx := context.Background()
	st, reg := seededWorld(t, 40, types.OrdinalFallback)

	u := New(st, reg, types.DeployConfig{ModelName: "catalog", Workers: 3}, nil)
	var out bytes.Buffer
	summary, err := u.Run(ctx, &out)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ModelVersion)
	assert.Equal(t, 40, summary.Candidates)
	assert.Equal(t, 40, summary.Updated)
	assert.Equal(t, 0, summary.Skipped)
	assert.Empty(t, summary.Reasons)
	assert.Contains(t, out.String(), "40 updated")

	total, missing, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, total)
	assert.Zero(t, missing)

	a, found, err := st.ClusterInfo(ctx, "prod-000001")
	require.NoError(t, err)
	require.True(t, found)
	assert.GreaterOrEqual(t, a.Level1, 0)
	assert.GreaterOrEqual(t, a.Level2, 0)
	assert.GreaterOrEqual(t, a.Level3, 0)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st, reg := seededWorld(t, 15, types.OrdinalFallback)

	u := New(st, reg, types.DeployConfig{ModelName: "catalog"}, nil)
	_, err := u.Run(ctx, io.Discard)
	require.NoError(t, err)

	var out bytes.Buffer
	summary, err := u.Run(ctx, &out)
	require.NoError(t, err)
	assert.Zero(t, summary.Candidates)
	assert.Zero(t, summary.Updated)
	assert.Contains(t, out.String(), "nothing to update")
}

func TestRunMatchesTrainingAssignments(t *testing.T) {
	// Products the model was trained on get back exactly the label the
	// fit produced, via the stored id lookup.
	ctx := context.Background()
	st, reg := seededWorld(t, 20, types.OrdinalFallback)

	bundle, _, err := reg.Load("catalog", 0)
	require.NoError(t, err)

	u := New(st, reg, types.DeployConfig{ModelName: "catalog"}, nil)
	_, err = u.Run(ctx, io.Discard)
	require.NoError(t, err)

	for i, id := range bundle.Model.IDs {
		got, found, err := st.ClusterInfo(ctx, id)
		require.NoError(t, err)
		require.True(t, found, id)
		assert.Equal(t, bundle.Model.Assignments[i], got, id)
	}
}

func TestRunSkipsOnModelMismatch(t *testing.T) {
	// A bundle whose pipeline disagrees with its model on feature width
	// must skip every product instead of writing garbage labels.
	ctx := context.Background()
	st, reg := seededWorld(t, 10, types.OrdinalFallback)

	bundle, _, err := reg.Load("catalog", 1)
	require.NoError(t, err)
	bundle.Model.Width++
	_, err = reg.Save("catalog", bundle, nil, nil)
	require.NoError(t, err)

	u := New(st, reg, types.DeployConfig{ModelName: "catalog", ModelVersion: 2}, nil)
	summary, err := u.Run(ctx, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ModelVersion)
	assert.Equal(t, 10, summary.Candidates)
	assert.Zero(t, summary.Updated)
	assert.Equal(t, 10, summary.Skipped)
	require.Len(t, summary.Reasons, 10)
	for id, reason := range summary.Reasons {
		assert.Contains(t, reason, "width", id)
	}

	_, missing, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, missing)
}

func TestRunSkipsUnencodableProduct(t *testing.T) {
	// Under the strict ordinal policy a product whose recording mode falls
	// outside the rank table fails encoding; the run labels the rest.
	ctx := context.Background()
	st, reg := seededWorld(t, 5, types.OrdinalStrict)

	odd := types.RawProduct{
		ID:      "prod-oddball",
		TitleEN: "oddball phone",
		Brand:   "Oddball",
		Specifications: []types.SpecGroup{{
			Title: "دوربین",
			Attributes: []types.SpecAttribute{
				{Title: "کیفیت فیلمبرداری", Values: []string{"1440p@60fps"}},
			},
		}},
	}
	require.NoError(t, st.UpsertProducts(ctx, []types.RawProduct{odd}))

	u := New(st, reg, types.DeployConfig{ModelName: "catalog"}, nil)
	var out bytes.Buffer
	summary, err := u.Run(ctx, &out)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Candidates)
	assert.Equal(t, 5, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	require.Contains(t, summary.Reasons, "prod-oddball")
	assert.Contains(t, summary.Reasons["prod-oddball"], "max_video_capability")
	assert.Contains(t, out.String(), "5 updated, 1 skipped")

	_, found, err := st.ClusterInfo(ctx, "prod-oddball")
	require.NoError(t, err)
	assert.False(t, found)

	_, missing, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, missing)
}

func TestRunUnknownModel(t *testing.T) {
	st, reg := seededWorld(t, 5, types.OrdinalFallback)

	u := New(st, reg, types.DeployConfig{ModelName: "nope"}, nil)
	_, err := u.Run(context.Background(), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading model")
}
