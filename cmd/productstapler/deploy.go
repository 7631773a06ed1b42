// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aliREZA79400/ProductStapler/internal/deploy"
	"github.com/aliREZA79400/ProductStapler/internal/registry"
	"github.com/aliREZA79400/ProductStapler/internal/store"
	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Label every product that has no cluster assignment",
	Long: `Deploy loads a saved model from the registry and assigns a three-level
cluster triple to every product missing one. Products the pipeline cannot
score are skipped and reported; the run itself keeps going.`,
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	modelVersion, _ := cmd.Flags().GetInt("model-version")
	workers, _ := cmd.Flags().GetInt("workers")

	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	reg, err := registry.New(registryConfig())
	if err != nil {
		return err
	}

	cfg := types.DeployConfig{ModelName: name, ModelVersion: modelVersion, Workers: workers}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	summary, err := deploy.New(st, reg, cfg, log).Run(context.Background(), os.Stdout)
	if err != nil {
		return err
	}

	if summary.Skipped > 0 {
		ids := make([]string, 0, len(summary.Reasons))
		for id := range summary.Reasons {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(os.Stdout, "skipped %s: %s\n", id, summary.Reasons[id])
		}
	}
	return nil
}

func init() {
	deployCmd.Flags().String("name", "catalog", "registry name of the model to load")
	deployCmd.Flags().Int("model-version", 0, "model version to deploy (0 = latest)")
	deployCmd.Flags().Int("workers", 4, "concurrent scoring workers")

	rootCmd.AddCommand(deployCmd)
}
