// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SpecAttribute is a single key/value entry inside a specification block.
// Titles and values may be Persian or English and may use Persian or
// Arabic-indic digit glyphs.
type SpecAttribute struct {
	Title  string   `json:"title" yaml:"title"`
	Values []string `json:"values" yaml:"values"`
}

// SpecGroup is one named block of specification attributes.
type SpecGroup struct {
	Title      string          `json:"title" yaml:"title"`
	Attributes []SpecAttribute `json:"attributes" yaml:"attributes"`
}

// Suggestions aggregates the buyer-recommendation counters attached to a
// product listing.
type Suggestions struct {
	Count      float64 `json:"count" yaml:"count"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// RawProduct is a product document as stored in the catalog collection.
// Only the fields the pipeline depends on are modeled; the document store
// may carry more.
type RawProduct struct {
	ID      string `json:"id" yaml:"id"`
	TitleEN string `json:"title_en,omitempty" yaml:"title_en,omitempty"`
	TitleFA string `json:"title_fa,omitempty" yaml:"title_fa,omitempty"`

	// Brand is the listing-level brand label.
	Brand string `json:"brand,omitempty" yaml:"brand,omitempty"`

	// Price is the listing price in the catalog's currency unit (rial).
	Price *float64 `json:"price,omitempty" yaml:"price,omitempty"`

	// Engagement counters collected by the catalog.
	Rating        *float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	RaterCount    *float64 `json:"count_raters,omitempty" yaml:"count_raters,omitempty"`
	Popularity    *float64 `json:"popularity,omitempty" yaml:"popularity,omitempty"`
	QuestionCount *float64 `json:"num_questions,omitempty" yaml:"num_questions,omitempty"`
	CommentCount  *float64 `json:"num_comments,omitempty" yaml:"num_comments,omitempty"`

	Suggestions *Suggestions `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`

	// Specifications is the nested bilingual specification table.
	Specifications []SpecGroup `json:"specifications,omitempty" yaml:"specifications,omitempty"`
}

// Record is one product's parsed, typed attribute set. Numeric fields are
// pointers: nil means the attribute was absent or unparseable (explicit
// missing, never zero). Categorical fields use the empty string for missing.
type Record struct {
	ID string `json:"id"`

	// CategoryLevel is the market tier: "low", "mid" or "high". Derived
	// from the manufacturer tier label; forced to "low" when RAMGB < 2.
	CategoryLevel string `json:"category_level,omitempty"`

	Brand             string `json:"brand,omitempty"`
	CPUModel          string `json:"cpu_model,omitempty"`
	GPUModel          string `json:"gpu_model,omitempty"`
	OS                string `json:"os,omitempty"`
	IntroductionDate  string `json:"introduction_date,omitempty"`
	DisplayTechnology string `json:"display_technology,omitempty"`

	// NetworkGeneration is the highest supported cellular generation:
	// "2G", "3G", "4G" or "5G".
	NetworkGeneration string `json:"network_generation,omitempty"`

	// VideoCapability is the best recording mode as "<res>@<fps>FPS",
	// e.g. "4K@30FPS".
	VideoCapability string `json:"video_capability,omitempty"`

	ScreenSizeInches      *float64 `json:"screen_size_inches,omitempty"`
	RefreshRateHz         *float64 `json:"refresh_rate_hz,omitempty"`
	PixelDensityPPI       *float64 `json:"pixel_density_ppi,omitempty"`
	DisplayToBodyRatioPct *float64 `json:"display_to_body_ratio_pct,omitempty"`
	RAMGB                 *float64 `json:"ram_gb,omitempty"`
	StorageGB             *float64 `json:"storage_gb,omitempty"`
	CameraCount           *float64 `json:"camera_count,omitempty"`
	MainCameraMP          *float64 `json:"main_camera_mp,omitempty"`
	BatteryMAH            *float64 `json:"battery_mah,omitempty"`
	ThicknessMM           *float64 `json:"thickness_mm,omitempty"`
	VolumeMM3             *float64 `json:"volume_mm3,omitempty"`
	WeightG               *float64 `json:"weight_g,omitempty"`

	Price            *float64 `json:"price,omitempty"`
	Popularity       *float64 `json:"popularity,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	RaterCount       *float64 `json:"rater_count,omitempty"`
	QuestionCount    *float64 `json:"question_count,omitempty"`
	CommentCount     *float64 `json:"comment_count,omitempty"`
	SuggestionsCount *float64 `json:"suggestions_count,omitempty"`
	SuggestionsPct   *float64 `json:"suggestions_pct,omitempty"`
}

// EngineeredRecord is a Record extended with derived features.
type EngineeredRecord struct {
	Record

	// CPUClusterID is the id of the TF-IDF/PCA/k-means CPU family cluster,
	// as a categorical label ("0".."5" by default). Empty when the CPU
	// model was missing and the sub-model produced no cluster.
	CPUClusterID string `json:"cpu_cluster_id,omitempty"`

	// EngagementScore is the weighted composite of the engagement inputs,
	// each max-normalized with statistics captured at fit time.
	EngagementScore *float64 `json:"engagement_score,omitempty"`

	// EngagementBucket is one of "very_low", "low", "medium", "high",
	// "very_high".
	EngagementBucket string `json:"engagement_bucket,omitempty"`

	// PriceBucket is the quantile bin label "0".."9".
	PriceBucket string `json:"price_bucket,omitempty"`

	// DBRBucket buckets the display-to-body ratio into "low"/"mid"/"high".
	DBRBucket string `json:"dbr_bucket,omitempty"`

	// RefreshBucket buckets the refresh rate into "low"/"mid"/"high".
	RefreshBucket string `json:"refresh_bucket,omitempty"`

	Density   *float64 `json:"density,omitempty"`
	AllPixels *float64 `json:"all_pixels,omitempty"`
}

// Float returns a pointer to v. Convenience constructor for optional fields.
func Float(v float64) *float64 { return &v }
