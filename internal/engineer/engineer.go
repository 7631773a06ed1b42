// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engineer derives composite features from structured product
// records: the CPU-family cluster id, the engagement score and bucket,
// physical density, pixel totals, and the quantile price bucket. Fit
// captures every statistic the derivations need; Transform is a pure
// function of (records, state) and never refits.
package engineer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/aliREZA79400/ProductStapler/internal/cluster"
	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

const (
	defaultCPUClusters   = 6
	defaultCPUComponents = 50
	defaultRareBrandMax  = 2

	// missingCPU stands in for absent CPU model strings so they cluster
	// together instead of dropping out of the sub-model.
	missingCPU = "unknown"
)

// Engagement weights. Popularity dominates; interaction counters share the
// rest.
const (
	weightPopularity = 0.30
	weightRating     = 0.15
	weightRaters     = 0.15
	weightQuestions  = 0.20
	weightComments   = 0.20
)

// engagementLabels orders the five ordinal engagement buckets.
var engagementLabels = []string{"very_low", "low", "medium", "high", "very_high"}

// CPUModel is the fitted TF-IDF + PCA + k-means sub-pipeline over CPU
// model strings. Owned exclusively by the engineer state; transform maps
// any string to its nearest fitted centroid without refitting.
type CPUModel struct {
	TFIDF     *TFIDF      `json:"tfidf"`
	PCA       *PCA        `json:"pca,omitempty"`
	Centroids [][]float64 `json:"centroids"`
}

// ClusterID returns the nearest-centroid cluster for a CPU model string.
func (c *CPUModel) ClusterID(model string) string {
	vec := c.TFIDF.Vector(cpuText(model))
	if c.PCA != nil {
		vec = c.PCA.Project(vec)
	}
	best, bestDist := 0, math.Inf(1)
	for i, cent := range c.Centroids {
		d := 0.0
		for j := range cent {
			diff := vec[j] - cent[j]
			d += diff * diff
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return strconv.Itoa(best)
}

// EngagementStats holds the fit-time normalization maxima and the
// quantile-derived bucket thresholds.
type EngagementStats struct {
	MaxPopularity float64   `json:"max_popularity"`
	MaxRating     float64   `json:"max_rating"`
	MaxRaters     float64   `json:"max_raters"`
	MaxQuestions  float64   `json:"max_questions"`
	MaxComments   float64   `json:"max_comments"`
	Thresholds    []float64 `json:"thresholds"`
}

// State is the fitted feature-engineering state. Immutable after Fit.
type State struct {
	Seed       int64           `json:"seed"`
	CPU        *CPUModel       `json:"cpu,omitempty"`
	Engagement EngagementStats `json:"engagement"`

	// PriceEdges are the nine interior quantile bin edges; values outside
	// clamp to the outermost bucket.
	PriceEdges []float64 `json:"price_edges,omitempty"`

	// RareBrands lists brands folded into "other" at fit time.
	RareBrands map[string]bool `json:"rare_brands,omitempty"`
}

// Fit learns the engineering state from a training batch. Identical batch
// and seed produce identical state.
func Fit(records []types.Record, cfg types.EngineerConfig) (*State, error) {
	if len(records) == 0 {
		return nil, &cluster.FitPreconditionError{Stage: "engineer", Constraint: "empty training batch"}
	}

	s := &State{Seed: cfg.Seed}

	cpu, err := fitCPUModel(records, cfg)
	if err != nil {
		return nil, err
	}
	s.CPU = cpu

	s.RareBrands = rareBrands(records, cfg)
	s.Engagement = fitEngagement(records)
	s.PriceEdges = priceEdges(records)
	return s, nil
}

// Transform derives the engineered features for each record. Pure.
func (s *State) Transform(records []types.Record) []types.EngineeredRecord {
	out := make([]types.EngineeredRecord, len(records))
	for i, rec := range records {
		e := types.EngineeredRecord{Record: rec}

		if s.RareBrands[strings.ToLower(rec.Brand)] {
			e.Brand = "other"
		}
		if s.CPU != nil {
			e.CPUClusterID = s.CPU.ClusterID(rec.CPUModel)
		}

		score := s.Engagement.score(rec)
		e.EngagementScore = types.Float(score)
		e.EngagementBucket = bucketLabel(score, s.Engagement.Thresholds, engagementLabels)

		if rec.WeightG != nil && rec.VolumeMM3 != nil && *rec.VolumeMM3 > 0 {
			e.Density = types.Float(*rec.WeightG / *rec.VolumeMM3)
		}
		if rec.PixelDensityPPI != nil && rec.ScreenSizeInches != nil {
			e.AllPixels = types.Float(*rec.PixelDensityPPI * *rec.ScreenSizeInches)
		}
		if rec.Price != nil && len(s.PriceEdges) > 0 {
			e.PriceBucket = strconv.Itoa(binIndex(*rec.Price, s.PriceEdges))
		}
		e.DBRBucket = rangeBucket(rec.DisplayToBodyRatioPct, 50, 89, 100)
		e.RefreshBucket = rangeBucket(rec.RefreshRateHz, 50, 60, 180)

		out[i] = e
	}
	return out
}

// TransformOne derives features for a single record.
func (s *State) TransformOne(rec types.Record) types.EngineeredRecord {
	return s.Transform([]types.Record{rec})[0]
}

// --- CPU sub-model ---

func fitCPUModel(records []types.Record, cfg types.EngineerConfig) (*CPUModel, error) {
	corpus := make([]string, len(records))
	for i, rec := range records {
		corpus[i] = cpuText(rec.CPUModel)
	}

	vectorizer := fitTFIDF(corpus)
	d := len(vectorizer.IDF)
	if d == 0 {
		return nil, nil
	}

	X := mat.NewDense(len(corpus), d, nil)
	for i, text := range corpus {
		X.SetRow(i, vectorizer.Vector(text))
	}

	bound := len(corpus) - 1
	if d-1 < bound {
		bound = d - 1
	}
	components := cfg.CPUComponents
	switch {
	case components == 0:
		components = defaultCPUComponents
		if components > bound {
			components = bound
		}
	case components > bound:
		return nil, &cluster.FitPreconditionError{
			Stage:      "engineer",
			Constraint: fmt.Sprintf("cpu_components %d exceeds min(samples, features)-1 = %d", components, bound),
		}
	}

	model := &CPUModel{TFIDF: vectorizer}
	reduced := X
	if components >= 1 {
		pca, err := fitPCA(X, components)
		if err != nil {
			return nil, err
		}
		model.PCA = pca
		reduced = mat.NewDense(len(corpus), components, nil)
		for i := 0; i < len(corpus); i++ {
			reduced.SetRow(i, pca.Project(X.RawRowView(i)))
		}
	}

	k := cfg.CPUClusters
	if k <= 0 {
		k = defaultCPUClusters
	}
	km := &cluster.KMeans{K: k, Seed: cfg.Seed}
	_, centroids, err := km.FitCentroids(reduced)
	if err != nil {
		return nil, fmt.Errorf("cpu clustering: %w", err)
	}
	rows, cols := centroids.Dims()
	model.Centroids = make([][]float64, rows)
	for i := 0; i < rows; i++ {
		model.Centroids[i] = make([]float64, cols)
		copy(model.Centroids[i], centroids.RawRowView(i))
	}
	return model, nil
}

func cpuText(model string) string {
	t := strings.TrimSpace(strings.ToLower(model))
	if t == "" {
		return missingCPU
	}
	return t
}

// --- brand folding ---

func rareBrands(records []types.Record, cfg types.EngineerConfig) map[string]bool {
	max := cfg.RareBrandMax
	if max <= 0 {
		max = defaultRareBrandMax
	}
	counts := map[string]int{}
	for _, rec := range records {
		if b := strings.ToLower(rec.Brand); b != "" {
			counts[b]++
		}
	}
	rare := map[string]bool{}
	for b, c := range counts {
		if c <= max {
			rare[b] = true
		}
	}
	if len(rare) == 0 {
		return nil
	}
	return rare
}

// --- engagement ---

func fitEngagement(records []types.Record) EngagementStats {
	var st EngagementStats
	for _, rec := range records {
		st.MaxPopularity = math.Max(st.MaxPopularity, deref(rec.Popularity))
		st.MaxRating = math.Max(st.MaxRating, deref(rec.Rating))
		st.MaxRaters = math.Max(st.MaxRaters, deref(rec.RaterCount))
		st.MaxQuestions = math.Max(st.MaxQuestions, deref(rec.QuestionCount))
		st.MaxComments = math.Max(st.MaxComments, deref(rec.CommentCount))
	}

	scores := make([]float64, len(records))
	for i, rec := range records {
		scores[i] = st.score(rec)
	}
	sort.Float64s(scores)
	st.Thresholds = []float64{
		quantile(scores, 0.2),
		quantile(scores, 0.4),
		quantile(scores, 0.6),
		quantile(scores, 0.8),
	}
	return st
}

// score is the weighted sum of max-normalized engagement inputs. Missing
// inputs count as zero engagement.
func (st EngagementStats) score(rec types.Record) float64 {
	return weightPopularity*normTo(deref(rec.Popularity), st.MaxPopularity) +
		weightRating*normTo(deref(rec.Rating), st.MaxRating) +
		weightRaters*normTo(deref(rec.RaterCount), st.MaxRaters) +
		weightQuestions*normTo(deref(rec.QuestionCount), st.MaxQuestions) +
		weightComments*normTo(deref(rec.CommentCount), st.MaxComments)
}

func normTo(v, max float64) float64 {
	if max == 0 {
		return 0
	}
	return v / max
}

// --- binning ---

func priceEdges(records []types.Record) []float64 {
	var prices []float64
	for _, rec := range records {
		if rec.Price != nil {
			prices = append(prices, *rec.Price)
		}
	}
	if len(prices) == 0 {
		return nil
	}
	sort.Float64s(prices)
	edges := make([]float64, 9)
	for i := 1; i <= 9; i++ {
		edges[i-1] = quantile(prices, float64(i)/10)
	}
	return edges
}

// binIndex counts the edges below v, which clamps extreme values to the
// outermost buckets for free.
func binIndex(v float64, edges []float64) int {
	idx := 0
	for _, e := range edges {
		if v > e {
			idx++
		}
	}
	return idx
}

func bucketLabel(v float64, thresholds []float64, labels []string) string {
	idx := 0
	for _, t := range thresholds {
		if v > t {
			idx++
		}
	}
	if idx >= len(labels) {
		idx = len(labels) - 1
	}
	return labels[idx]
}

// rangeBucket maps a value to "low"/"mid"/"high" by two interior cut
// points, mirroring the catalog's display-ratio and refresh-rate bins.
// Values outside (0, upper] stay missing.
func rangeBucket(v *float64, lowCut, midCut, upper float64) string {
	if v == nil || *v <= 0 || *v > upper {
		return ""
	}
	switch {
	case *v <= lowCut:
		return "low"
	case *v <= midCut:
		return "mid"
	default:
		return "high"
	}
}

// quantile interpolates the q-quantile of pre-sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
