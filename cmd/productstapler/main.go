// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the productstapler CLI. Each
// pipeline stage is a subcommand: seed, parse, train, deploy, models.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the productstapler CLI.
var rootCmd = &cobra.Command{
	Use:   "productstapler",
	Short: "Product catalog feature extraction and nested clustering",
	Long: `productstapler turns raw bilingual product documents into typed feature
records and groups them with a three-level nested clustering model.

The pipeline is a sequence of subcommands: seed loads documents into the
catalog store, train fits and versions a model, and deploy labels every
product that has no cluster assignment yet. parse and models inspect
intermediate state.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./productstapler.yaml or ~/.config/productstapler/config.yaml)")
	rootCmd.PersistentFlags().String("db", "catalog.db", "path to the catalog SQLite database")
	rootCmd.PersistentFlags().String("registry", "models", "path to the model registry directory")

	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("registry.dir", rootCmd.PersistentFlags().Lookup("registry"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("productstapler")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "productstapler"))
		}
	}

	viper.SetEnvPrefix("PRODUCTSTAPLER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func storeConfig() types.StoreConfig {
	return types.StoreConfig{Path: viper.GetString("store.path")}
}

func registryConfig() types.RegistryConfig {
	return types.RegistryConfig{Dir: viper.GetString("registry.dir")}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
