// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Assignment locates one product in the three-level cluster hierarchy.
// Ids are small non-negative integers, unique only within their parent's
// scope. An assignment is atomic: all three levels are set together.
type Assignment struct {
	Level1 int `json:"level1_id" yaml:"level1_id"`
	Level2 int `json:"level2_id" yaml:"level2_id"`
	Level3 int `json:"level3_id" yaml:"level3_id"`
}

// LevelMetrics holds the clustering quality indices for one hierarchy level.
// At level 1 they are computed over the full matrix; at deeper levels they
// are row-count-weighted averages across parent partitions.
type LevelMetrics struct {
	Silhouette       float64 `json:"silhouette" yaml:"silhouette"`
	DaviesBouldin    float64 `json:"davies_bouldin" yaml:"davies_bouldin"`
	CalinskiHarabasz float64 `json:"calinski_harabasz" yaml:"calinski_harabasz"`

	// Partitions is the number of parent partitions that contributed
	// (those with at least two child clusters).
	Partitions int `json:"partitions" yaml:"partitions"`
}

// MetricsReport aggregates per-level quality metrics plus a headline score
// (mean silhouette across levels) used for model comparison.
type MetricsReport struct {
	Level1   LevelMetrics `json:"level1" yaml:"level1"`
	Level2   LevelMetrics `json:"level2" yaml:"level2"`
	Level3   LevelMetrics `json:"level3" yaml:"level3"`
	Headline float64      `json:"headline" yaml:"headline"`
}

// Flatten returns the metrics as a flat key/value map, the shape the model
// registry persists.
func (r MetricsReport) Flatten() map[string]float64 {
	out := map[string]float64{"headline": r.Headline}
	for name, m := range map[string]LevelMetrics{"level1": r.Level1, "level2": r.Level2, "level3": r.Level3} {
		out[name+".silhouette"] = m.Silhouette
		out[name+".davies_bouldin"] = m.DaviesBouldin
		out[name+".calinski_harabasz"] = m.CalinskiHarabasz
	}
	return out
}
