// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StoreConfig holds settings for the product document store.
type StoreConfig struct {
	// Path is the SQLite database file backing the product collection.
	Path string `json:"path" yaml:"path"`
}

// RegistryConfig holds settings for the model registry.
type RegistryConfig struct {
	// Dir is the base directory; each model name gets a subdirectory with
	// one directory per version.
	Dir string `json:"dir" yaml:"dir"`
}

// EngineerConfig holds settings for the feature-engineering stage.
type EngineerConfig struct {
	// CPUClusters is the k for the CPU-model k-means sub-model (default 6).
	CPUClusters int `json:"cpu_clusters" yaml:"cpu_clusters"`

	// CPUComponents is the PCA target dimensionality for the CPU sub-model
	// (default 50, capped at min(samples, features)-1).
	CPUComponents int `json:"cpu_components" yaml:"cpu_components"`

	// RareBrandMax folds brands observed this many times or fewer into the
	// "other" category (default 2).
	RareBrandMax int `json:"rare_brand_max" yaml:"rare_brand_max"`

	// Seed drives every randomized sub-step so a fit is reproducible.
	Seed int64 `json:"seed" yaml:"seed"`
}

// OrdinalPolicy selects how strict ordinal encoders treat unseen categories.
type OrdinalPolicy string

const (
	// OrdinalStrict fails the batch with an EncodingError.
	OrdinalStrict OrdinalPolicy = "strict"

	// OrdinalFallback maps unseen categories to the reserved unknown rank.
	OrdinalFallback OrdinalPolicy = "fallback"
)

// PreprocessConfig holds settings for the preprocessing pipeline.
type PreprocessConfig struct {
	// Ordinal selects the unseen-category policy for strict ordinal fields
	// (default OrdinalFallback).
	Ordinal OrdinalPolicy `json:"ordinal" yaml:"ordinal"`
}

// AlgorithmConfig selects and parameterizes one clustering sub-algorithm.
type AlgorithmConfig struct {
	// Name is "kmeans", "agglomerative" or "spectral".
	Name string `json:"name" yaml:"name"`

	// Clusters is the target cluster count.
	Clusters int `json:"clusters" yaml:"clusters"`

	// Linkage is the agglomerative criterion: "ward", "average" or
	// "complete". Ignored by the other algorithms.
	Linkage string `json:"linkage,omitempty" yaml:"linkage,omitempty"`

	// Seed seeds centroid initialization. Required for determinism.
	Seed int64 `json:"seed" yaml:"seed"`
}

// ClusterConfig configures the nested clustering engine.
type ClusterConfig struct {
	// Variant is "flexible" (independent algorithm per level) or "linkage"
	// (single Ward dendrogram sliced three times).
	Variant string `json:"variant" yaml:"variant"`

	// Level1..Level3 configure each level. The linkage variant reads only
	// the Clusters counts; its criterion comes from Linkage below.
	Level1 AlgorithmConfig `json:"level1" yaml:"level1"`
	Level2 AlgorithmConfig `json:"level2" yaml:"level2"`
	Level3 AlgorithmConfig `json:"level3" yaml:"level3"`

	// Linkage is the criterion for the linkage variant (default "ward").
	Linkage string `json:"linkage,omitempty" yaml:"linkage,omitempty"`

	// MinSplitSize stops subdividing partitions smaller than this
	// (default 5); their members become a degenerate single-cluster leaf.
	MinSplitSize int `json:"min_split_size" yaml:"min_split_size"`
}

// TrainConfig holds settings for a training run.
type TrainConfig struct {
	// ModelName is the registry name trained models are saved under.
	ModelName string `json:"model_name" yaml:"model_name"`

	// Limit caps how many products are read from the store (0 = all).
	Limit int `json:"limit" yaml:"limit"`
}

// DeployConfig holds settings for the deployment updater.
type DeployConfig struct {
	// ModelName is the registry name to load.
	ModelName string `json:"model_name" yaml:"model_name"`

	// ModelVersion selects the registry version (0 = latest).
	ModelVersion int `json:"model_version" yaml:"model_version"`

	// Workers bounds the concurrent store I/O (default 4). The feature
	// computation itself is deterministic per product regardless of this.
	Workers int `json:"workers" yaml:"workers"`
}
