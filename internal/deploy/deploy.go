// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package deploy scores catalog products that lack a cluster assignment
// and writes the labels back to the store. A run never mutates the model;
// one malformed product skips that product, not the run.
package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aliREZA79400/ProductStapler/internal/cluster"
	"github.com/aliREZA79400/ProductStapler/internal/parser"
	"github.com/aliREZA79400/ProductStapler/internal/registry"
	"github.com/aliREZA79400/ProductStapler/internal/store"
	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

const defaultWorkers = 4

// Summary holds the counts of one deployment run.
type Summary struct {
	ModelVersion int
	Candidates   int
	Updated      int
	Skipped      int

	// Reasons maps skipped product ids to a short failure description.
	Reasons map[string]string
}

// Updater assigns cluster labels to unlabeled products using a saved
// model bundle.
type Updater struct {
	store    *store.Store
	registry *registry.Registry
	cfg      types.DeployConfig
	log      *slog.Logger
}

// New builds an updater. A nil logger discards.
func New(st *store.Store, reg *registry.Registry, cfg types.DeployConfig, log *slog.Logger) *Updater {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Updater{store: st, registry: reg, cfg: cfg, log: log}
}

// Run loads the configured model version, scores every product missing
// cluster info, and persists the assignments. Scoring fans out over a
// bounded worker pool; the write-back is one transaction.
func (u *Updater) Run(ctx context.Context, w io.Writer) (Summary, error) {
	bundle, meta, err := u.registry.Load(u.cfg.ModelName, u.cfg.ModelVersion)
	if err != nil {
		return Summary{}, fmt.Errorf("loading model: %w", err)
	}

	products, err := u.store.FindMissingClusterInfo(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("finding unlabeled products: %w", err)
	}

	summary := Summary{
		ModelVersion: meta.Version,
		Candidates:   len(products),
		Reasons:      make(map[string]string),
	}
	if len(products) == 0 {
		fmt.Fprintf(w, "model %s v%d: nothing to update\n", meta.Name, meta.Version)
		return summary, nil
	}

	workers := u.cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(products) {
		workers = len(products)
	}

	type result struct {
		id         string
		assignment types.Assignment
		err        error
	}

	jobs := make(chan types.RawProduct)
	results := make(chan result, len(products))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := parser.New(u.log)
			for raw := range jobs {
				a, err := scoreOne(p, bundle, raw)
				results <- result{id: raw.ID, assignment: a, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, raw := range products {
			select {
			case jobs <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	assignments := make(map[string]types.Assignment, len(products))
	for r := range results {
		if r.err != nil {
			u.log.Warn("product skipped", "id", r.id, "reason", r.err)
			summary.Reasons[r.id] = r.err.Error()
			summary.Skipped++
			continue
		}
		assignments[r.id] = r.assignment
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if len(assignments) > 0 {
		if err := u.store.BulkSetClusterInfo(ctx, assignments); err != nil {
			return summary, fmt.Errorf("writing assignments: %w", err)
		}
		summary.Updated = len(assignments)
	}

	fmt.Fprintf(w, "model %s v%d: %d candidates, %d updated, %d skipped\n",
		meta.Name, meta.Version, summary.Candidates, summary.Updated, summary.Skipped)
	return summary, nil
}

// scoreOne runs the per-product scoring path: parse, engineer, encode,
// assign. Any stage failure skips the product.
func scoreOne(p *parser.Parser, b *registry.Bundle, raw types.RawProduct) (types.Assignment, error) {
	if raw.ID == "" {
		return types.Assignment{}, fmt.Errorf("empty product id")
	}

	rec := p.Parse(raw)
	eng := b.Engineer.TransformOne(rec)

	vec, err := b.Pipeline.TransformOne(eng)
	if err != nil {
		return types.Assignment{}, fmt.Errorf("encoding features: %w", err)
	}
	if len(vec) != b.Model.Width {
		return types.Assignment{}, &cluster.ConsistencyError{
			Detail: fmt.Sprintf("feature width %d does not match model width %d", len(vec), b.Model.Width),
		}
	}

	a, err := cluster.Assign(raw.ID, vec, b.Model)
	if err != nil {
		return types.Assignment{}, fmt.Errorf("assigning clusters: %w", err)
	}
	return a, nil
}
