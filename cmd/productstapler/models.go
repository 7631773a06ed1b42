// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aliREZA79400/ProductStapler/internal/registry"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List saved models and their versions",
	Long: `Models lists every model in the registry with its saved versions,
training size and headline quality score.`,
	RunE: runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	reg, err := registry.New(registryConfig())
	if err != nil {
		return err
	}

	names, err := reg.Models()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stdout, "No models saved.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-8s  %-10s  %-20s  %-6s  %s\n",
		"Model", "Version", "Variant", "Created", "Rows", "Headline")
	for _, name := range names {
		versions, err := reg.Versions(name)
		if err != nil {
			return err
		}
		for _, v := range versions {
			_, meta, err := reg.Load(name, v)
			if err != nil {
				fmt.Fprintf(os.Stdout, "%-20s  v%-7d  (unreadable: %v)\n", name, v, err)
				continue
			}
			fmt.Fprintf(os.Stdout, "%-20s  v%-7d  %-10s  %-20s  %-6d  %.4f\n",
				name, v, meta.Variant, meta.CreatedAt.Format("2006-01-02 15:04:05"),
				meta.Rows, meta.Metrics["headline"])
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
