// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry versions trained model bundles on the filesystem.
// Each saved model lives at <dir>/<name>/v<N>/ with the fitted state in
// model.json and run metadata in metadata.yaml. Versions are immutable;
// Save always allocates the next number.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/aliREZA79400/ProductStapler/internal/cluster"
	"github.com/aliREZA79400/ProductStapler/internal/engineer"
	"github.com/aliREZA79400/ProductStapler/internal/preprocess"
	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

const (
	modelFile    = "model.json"
	metadataFile = "metadata.yaml"
)

// Bundle ties together everything a deployment needs to score a product:
// the feature-engineering state, the fitted preprocessing pipeline and the
// trained nested clustering model.
type Bundle struct {
	Engineer *engineer.State      `json:"engineer"`
	Pipeline *preprocess.Pipeline `json:"pipeline"`
	Model    *cluster.Model       `json:"model"`
}

// Metadata describes one saved version.
type Metadata struct {
	Name      string             `yaml:"name"`
	Version   int                `yaml:"version"`
	Variant   string             `yaml:"variant"`
	CreatedAt time.Time          `yaml:"created_at"`
	Rows      int                `yaml:"rows"`
	Width     int                `yaml:"width"`
	Params    map[string]any     `yaml:"params,omitempty"`
	Metrics   map[string]float64 `yaml:"metrics,omitempty"`
}

// Registry is a filesystem-backed model store.
type Registry struct {
	dir string
}

// New returns a registry rooted at cfg.Dir, creating it if needed.
func New(cfg types.RegistryConfig) (*Registry, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("registry: empty directory")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}
	return &Registry{dir: cfg.Dir}, nil
}

// Save persists a bundle under name and returns the allocated version
// number. The model file is written before the metadata file so a version
// directory with metadata always has a readable model.
func (r *Registry) Save(name string, b *Bundle, metrics map[string]float64, params map[string]any) (int, error) {
	if err := validName(name); err != nil {
		return 0, err
	}
	if b == nil || b.Engineer == nil || b.Pipeline == nil || b.Model == nil {
		return 0, fmt.Errorf("registry: incomplete bundle for %s", name)
	}

	versions, err := r.Versions(name)
	if err != nil {
		return 0, err
	}
	version := 1
	if len(versions) > 0 {
		version = versions[len(versions)-1] + 1
	}

	dir := r.versionDir(name, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating version directory: %w", err)
	}

	modelJSON, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encoding model bundle: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, modelFile), modelJSON, 0o644); err != nil {
		return 0, fmt.Errorf("writing model file: %w", err)
	}

	meta := Metadata{
		Name:      name,
		Version:   version,
		Variant:   b.Model.Variant,
		CreatedAt: time.Now().UTC(),
		Rows:      len(b.Model.IDs),
		Width:     b.Pipeline.Width,
		Params:    params,
		Metrics:   metrics,
	}
	metaYAML, err := yaml.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), metaYAML, 0o644); err != nil {
		return 0, fmt.Errorf("writing metadata file: %w", err)
	}

	return version, nil
}

// Load reads one saved version. version <= 0 loads the latest.
func (r *Registry) Load(name string, version int) (*Bundle, *Metadata, error) {
	if version <= 0 {
		latest, err := r.Latest(name)
		if err != nil {
			return nil, nil, err
		}
		version = latest
	}

	dir := r.versionDir(name, version)

	modelJSON, err := os.ReadFile(filepath.Join(dir, modelFile))
	if err != nil {
		return nil, nil, fmt.Errorf("reading model %s v%d: %w", name, version, err)
	}
	var b Bundle
	if err := json.Unmarshal(modelJSON, &b); err != nil {
		return nil, nil, fmt.Errorf("decoding model %s v%d: %w", name, version, err)
	}
	if b.Model != nil {
		b.Model.RebuildIndex()
	}

	metaYAML, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, nil, fmt.Errorf("reading metadata %s v%d: %w", name, version, err)
	}
	var meta Metadata
	if err := yaml.Unmarshal(metaYAML, &meta); err != nil {
		return nil, nil, fmt.Errorf("decoding metadata %s v%d: %w", name, version, err)
	}

	return &b, &meta, nil
}

// Latest returns the highest version number saved under name.
func (r *Registry) Latest(name string) (int, error) {
	versions, err := r.Versions(name)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("registry: no versions of model %s", name)
	}
	return versions[len(versions)-1], nil
}

// Versions lists the saved version numbers of name in ascending order. A
// model that was never saved has no versions and no error.
func (r *Registry) Versions(name string) ([]int, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(r.dir, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading model directory %s: %w", name, err)
	}

	var versions []int
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "v") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "v"))
		if err != nil || n < 1 {
			continue
		}
		versions = append(versions, n)
	}
	sort.Ints(versions)
	return versions, nil
}

// Models lists the model names present in the registry.
func (r *Registry) Models() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("reading registry directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *Registry) versionDir(name string, version int) string {
	return filepath.Join(r.dir, name, fmt.Sprintf("v%d", version))
}

// validName rejects names that would escape the registry directory.
func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("registry: invalid model name %q", name)
	}
	return nil
}
