// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aliREZA79400/ProductStapler/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the catalog store with synthetic product documents",
	Long: `Seed generates deterministic synthetic bilingual product documents and
upserts them into the catalog database. Existing documents with the same
ids are replaced and lose their cluster assignments.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetUint64("seed")

	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	return st.Seed(context.Background(), count, seed, os.Stdout)
}

func init() {
	seedCmd.Flags().Int("count", 500, "number of synthetic products to generate")
	seedCmd.Flags().Uint64("seed", 1, "random seed for the document generator")

	rootCmd.AddCommand(seedCmd)
}
