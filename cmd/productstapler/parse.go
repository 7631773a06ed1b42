// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aliREZA79400/ProductStapler/internal/parser"
	"github.com/aliREZA79400/ProductStapler/internal/store"
	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse stored documents into typed records and print them",
	Long: `Parse reads raw documents from the catalog store, runs the bilingual
specification parser over them, and prints the typed records as JSON.
Useful for inspecting what the training pipeline will see.`,
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	id, _ := cmd.Flags().GetString("id")
	verbose, _ := cmd.Flags().GetBool("verbose")

	st, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	var products []types.RawProduct
	if id != "" {
		raw, found, err := st.Get(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("product %s not found", id)
		}
		products = []types.RawProduct{raw}
	} else {
		products, err = st.Find(ctx, limit)
		if err != nil {
			return err
		}
	}

	var log *slog.Logger
	if verbose {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	p := parser.New(log)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, raw := range products {
		if err := enc.Encode(p.Parse(raw)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	parseCmd.Flags().Int("limit", 10, "maximum number of documents to parse (0 = all)")
	parseCmd.Flags().String("id", "", "parse only the product with this id")
	parseCmd.Flags().Bool("verbose", false, "log every attribute that fails to parse")

	rootCmd.AddCommand(parseCmd)
}
