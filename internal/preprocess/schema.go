// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preprocess

import (
	"sort"

	"github.com/aliREZA79400/ProductStapler/internal/parser"
	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// The per-field strategy table is fixed at design time. Fit learns the
// parameters (categories, means, scales, bin populations); the mapping of
// field to strategy never changes per call.

type catGetter func(types.EngineeredRecord) string
type numGetter func(types.EngineeredRecord) *float64

// missingCategory is the constant every absent categorical value imputes
// to before one-hot encoding.
const missingCategory = "missing"

// unknownRank is the reserved ordinal rank for missing values and, under
// the fallback policy, for unseen ones.
const unknownRank = -1.0

type oneHotField struct {
	name string
	get  catGetter
}

// oneHotFields are the low-cardinality categoricals. An unseen category at
// transform time encodes as an all-zero block, never an error.
var oneHotFields = []oneHotField{
	{"os", func(r types.EngineeredRecord) string { return r.OS }},
	{"introduction_date", func(r types.EngineeredRecord) string { return r.IntroductionDate }},
	{"display_technology", func(r types.EngineeredRecord) string { return r.DisplayTechnology }},
	{"cpu_cluster_id", func(r types.EngineeredRecord) string { return r.CPUClusterID }},
	{"brand", func(r types.EngineeredRecord) string { return r.Brand }},
}

type ordinalField struct {
	name  string
	ranks []string
	get   catGetter
}

var levelRanks = []string{"low", "mid", "high"}

// ordinalFields are the strict ordinals with fixed rank tables. Missing
// values take the reserved unknown rank; unseen values obey the configured
// policy.
var ordinalFields = []ordinalField{
	{"category_level", levelRanks,
		func(r types.EngineeredRecord) string { return r.CategoryLevel }},
	{"network_generation", []string{"2G", "3G", "4G", "5G"},
		func(r types.EngineeredRecord) string { return r.NetworkGeneration }},
	{"max_video_capability", videoRanks(),
		func(r types.EngineeredRecord) string { return r.VideoCapability }},
	{"engagement_bucket", []string{"very_low", "low", "medium", "high", "very_high"},
		func(r types.EngineeredRecord) string { return r.EngagementBucket }},
	{"price_bucket", []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"},
		func(r types.EngineeredRecord) string { return r.PriceBucket }},
	{"dbr_bucket", levelRanks,
		func(r types.EngineeredRecord) string { return r.DBRBucket }},
	{"refresh_bucket", levelRanks,
		func(r types.EngineeredRecord) string { return r.RefreshBucket }},
}

// videoRanks enumerates the recognized recording modes, ordered by the
// parser's resolution-then-framerate ranking.
func videoRanks() []string {
	labels := []string{
		"480p@15FPS", "480p@30FPS",
		"720p@30FPS", "720p@60FPS", "720p@240FPS",
		"1080p@30FPS", "1080p@60FPS", "1080p@120FPS", "1080p@240FPS",
		"1440p@30FPS", "2160p@30FPS",
		"4K@24FPS", "4K@30FPS", "4K@60FPS", "4K@120FPS",
		"6K@30FPS",
		"8K@24FPS", "8K@30FPS", "8K@60FPS",
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return parser.VideoRank(labels[i]) < parser.VideoRank(labels[j])
	})
	return labels
}

type numericField struct {
	name string

	// log applies log1p before scaling, for skewed fields.
	log bool

	// imputeZero fills missing values with zero instead of the fit-time
	// mean (count-like fields where absence means none observed).
	imputeZero bool

	get numGetter
}

var numericFields = []numericField{
	{name: "thickness_mm", log: true,
		get: func(r types.EngineeredRecord) *float64 { return r.ThicknessMM }},
	{name: "density", log: true,
		get: func(r types.EngineeredRecord) *float64 { return r.Density }},
	{name: "volume_mm3",
		get: func(r types.EngineeredRecord) *float64 { return r.VolumeMM3 }},
	{name: "screen_size_inches",
		get: func(r types.EngineeredRecord) *float64 { return r.ScreenSizeInches }},
	{name: "pixel_density_ppi",
		get: func(r types.EngineeredRecord) *float64 { return r.PixelDensityPPI }},
	{name: "all_pixels",
		get: func(r types.EngineeredRecord) *float64 { return r.AllPixels }},
	{name: "battery_mah",
		get: func(r types.EngineeredRecord) *float64 { return r.BatteryMAH }},
	{name: "engagement_score",
		get: func(r types.EngineeredRecord) *float64 { return r.EngagementScore }},
	{name: "ram_gb", imputeZero: true,
		get: func(r types.EngineeredRecord) *float64 { return r.RAMGB }},
	{name: "storage_gb", imputeZero: true,
		get: func(r types.EngineeredRecord) *float64 { return r.StorageGB }},
	{name: "camera_count", imputeZero: true,
		get: func(r types.EngineeredRecord) *float64 { return r.CameraCount }},
	{name: "main_camera_mp", imputeZero: true,
		get: func(r types.EngineeredRecord) *float64 { return r.MainCameraMP }},
	{name: "rating",
		get: func(r types.EngineeredRecord) *float64 { return r.Rating }},
	{name: "rater_count",
		get: func(r types.EngineeredRecord) *float64 { return r.RaterCount }},
	{name: "popularity",
		get: func(r types.EngineeredRecord) *float64 { return r.Popularity }},
	{name: "question_count",
		get: func(r types.EngineeredRecord) *float64 { return r.QuestionCount }},
	{name: "comment_count",
		get: func(r types.EngineeredRecord) *float64 { return r.CommentCount }},
	{name: "suggestions_count",
		get: func(r types.EngineeredRecord) *float64 { return r.SuggestionsCount }},
	{name: "suggestions_pct",
		get: func(r types.EngineeredRecord) *float64 { return r.SuggestionsPct }},
}

func oneHotGetter(name string) catGetter {
	for _, f := range oneHotFields {
		if f.name == name {
			return f.get
		}
	}
	return nil
}

func ordinalSpec(name string) (ordinalField, bool) {
	for _, f := range ordinalFields {
		if f.name == name {
			return f, true
		}
	}
	return ordinalField{}, false
}

func numericGetter(name string) numGetter {
	for _, f := range numericFields {
		if f.name == name {
			return f.get
		}
	}
	return nil
}
