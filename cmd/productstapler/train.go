// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aliREZA79400/ProductStapler/internal/cluster"
	"github.com/aliREZA79400/ProductStapler/internal/engineer"
	"github.com/aliREZA79400/ProductStapler/internal/parser"
	"github.com/aliREZA79400/ProductStapler/internal/preprocess"
	"github.com/aliREZA79400/ProductStapler/internal/registry"
	"github.com/aliREZA79400/ProductStapler/internal/store"
	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a nested clustering model and save it to the registry",
	Long: `Train reads documents from the catalog store, parses and engineers their
features, fits the preprocessing pipeline, and trains a three-level nested
clustering model. The fitted bundle is saved to the registry under the
next free version number, together with its quality metrics.

Two variants are available: "flexible" runs an independently configured
algorithm at every level; "linkage" builds one global dendrogram and
derives all three levels from it.`,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	limit, _ := cmd.Flags().GetInt("limit")
	seed, _ := cmd.Flags().GetInt64("seed")
	variant, _ := cmd.Flags().GetString("variant")
	algorithm, _ := cmd.Flags().GetString("algorithm")
	linkage, _ := cmd.Flags().GetString("linkage")
	k1, _ := cmd.Flags().GetInt("level1-k")
	k2, _ := cmd.Flags().GetInt("level2-k")
	k3, _ := cmd.Flags().GetInt("level3-k")
	minSplit, _ := cmd.Flags().GetInt("min-split")
	ordinalPolicy, _ := cmd.Flags().GetString("ordinal-policy")
	cpuClusters, _ := cmd.Flags().GetInt("cpu-clusters")

	clusterCfg := types.ClusterConfig{
		Variant:      variant,
		Level1:       types.AlgorithmConfig{Name: algorithm, Clusters: k1, Linkage: linkage, Seed: seed},
		Level2:       types.AlgorithmConfig{Name: algorithm, Clusters: k2, Linkage: linkage, Seed: seed},
		Level3:       types.AlgorithmConfig{Name: algorithm, Clusters: k3, Linkage: linkage, Seed: seed},
		Linkage:      linkage,
		MinSplitSize: minSplit,
	}
	engineerCfg := types.EngineerConfig{CPUClusters: cpuClusters, Seed: seed}
	preprocessCfg := types.PreprocessConfig{Ordinal: types.OrdinalPolicy(ordinalPolicy)}

	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	reg, err := registry.New(registryConfig())
	if err != nil {
		return err
	}

	products, err := st.Find(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return fmt.Errorf("catalog store is empty: run seed first")
	}
	fmt.Fprintf(os.Stdout, "training on %d products\n", len(products))

	p := parser.New(nil)
	records := make([]types.Record, len(products))
	ids := make([]string, len(products))
	for i, raw := range products {
		records[i] = p.Parse(raw)
		ids[i] = raw.ID
	}

	engState, err := engineer.Fit(records, engineerCfg)
	if err != nil {
		return fmt.Errorf("fitting feature engineering: %w", err)
	}
	engineered := engState.Transform(records)

	pipeline, err := preprocess.Fit(engineered, preprocessCfg)
	if err != nil {
		return fmt.Errorf("fitting preprocessing: %w", err)
	}
	X, err := pipeline.Transform(engineered)
	if err != nil {
		return fmt.Errorf("encoding features: %w", err)
	}
	fmt.Fprintf(os.Stdout, "feature matrix: %d x %d\n", len(engineered), pipeline.Width)

	engine, err := cluster.NewEngine(clusterCfg)
	if err != nil {
		return err
	}
	model, err := engine.Fit(X, ids)
	if err != nil {
		return fmt.Errorf("fitting %s model: %w", engine.Name(), err)
	}

	bundle := &registry.Bundle{Engineer: engState, Pipeline: pipeline, Model: model}
	params := map[string]any{
		"variant":   engine.Name(),
		"algorithm": algorithm,
		"linkage":   linkage,
		"level1_k":  k1,
		"level2_k":  k2,
		"level3_k":  k3,
		"min_split": clusterCfg.MinSplitSize,
		"seed":      seed,
		"rows":      len(products),
	}
	version, err := reg.Save(name, bundle, model.Metrics.Flatten(), params)
	if err != nil {
		return fmt.Errorf("saving model: %w", err)
	}

	fmt.Fprintf(os.Stdout, "saved model %s v%d\n\n", name, version)
	printMetrics(model.Metrics.Flatten())
	return nil
}

func printMetrics(metrics map[string]float64) {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(os.Stdout, "%-32s %.4f\n", k, metrics[k])
	}
}

func init() {
	trainCmd.Flags().String("name", "catalog", "registry name to save the model under")
	trainCmd.Flags().Int("limit", 0, "maximum number of products to train on (0 = all)")
	trainCmd.Flags().Int64("seed", 42, "random seed for every stochastic sub-step")
	trainCmd.Flags().String("variant", "flexible", "nesting variant: flexible or linkage")
	trainCmd.Flags().String("algorithm", "kmeans", "per-level algorithm for the flexible variant: kmeans, agglomerative or spectral")
	trainCmd.Flags().String("linkage", "ward", "agglomerative criterion: ward, average or complete")
	trainCmd.Flags().Int("level1-k", 3, "cluster count at the top level")
	trainCmd.Flags().Int("level2-k", 3, "cluster count within each top-level cluster")
	trainCmd.Flags().Int("level3-k", 2, "cluster count within each mid-level cluster")
	trainCmd.Flags().Int("min-split", 5, "minimum partition size eligible for subdivision")
	trainCmd.Flags().String("ordinal-policy", "fallback", "unseen ordinal handling: strict or fallback")
	trainCmd.Flags().Int("cpu-clusters", 6, "cluster count for the CPU-model sub-model")

	rootCmd.AddCommand(trainCmd)
}
