// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parser turns raw bilingual product documents into flat, typed
// attribute records. Parsing is total: any malformed sub-value degrades to
// an explicit missing marker, never an error, and each field fails
// independently of the rest of the record.
package parser

import (
	"io"
	"log/slog"
	"strings"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// specTable is the flattened specification block: insertion-ordered keys so
// "first match wins" is stable across runs.
type specTable struct {
	keys   []string
	values map[string]string
}

func flattenSpecs(groups []types.SpecGroup) specTable {
	t := specTable{values: map[string]string{}}
	for _, g := range groups {
		for _, attr := range g.Attributes {
			key := normKey(attr.Title)
			val := joinValues(attr.Values)
			if key == "" || val == "" {
				continue
			}
			if _, dup := t.values[key]; dup {
				continue
			}
			t.keys = append(t.keys, key)
			t.values[key] = val
		}
	}
	return t
}

func joinValues(vals []string) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// lookup returns the first specification value whose key matches one of the
// bilingual candidates. No match yields "".
func (t specTable) lookup(candidates ...string) string {
	normed := make([]string, len(candidates))
	for i, c := range candidates {
		normed[i] = normKey(c)
	}
	for _, key := range t.keys {
		for _, want := range normed {
			if key == want {
				return t.values[key]
			}
		}
	}
	return ""
}

// joined concatenates the values of every matching key, for attributes the
// catalog splits across multiple rows (network bands, for example).
func (t specTable) joined(candidates ...string) string {
	var parts []string
	for _, c := range candidates {
		if v := t.lookup(c); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Parser converts raw products into structured records. The zero value is
// usable; a logger records per-field parse failures.
type Parser struct {
	log *slog.Logger
}

// New returns a Parser. A nil logger disables field-failure logging.
func New(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{log: log}
}

// Parse flattens the product's specification block and extracts every
// structured attribute. Pure: no state survives between calls.
func (p *Parser) Parse(raw types.RawProduct) types.Record {
	specs := flattenSpecs(raw.Specifications)

	rec := types.Record{
		ID:    raw.ID,
		Brand: strings.TrimSpace(raw.Brand),
	}

	rec.Price = clone(raw.Price)
	rec.Popularity = clone(raw.Popularity)
	rec.Rating = clone(raw.Rating)
	rec.RaterCount = clone(raw.RaterCount)
	rec.QuestionCount = clone(raw.QuestionCount)
	rec.CommentCount = clone(raw.CommentCount)
	if raw.Suggestions != nil {
		rec.SuggestionsCount = types.Float(raw.Suggestions.Count)
		rec.SuggestionsPct = types.Float(raw.Suggestions.Percentage)
	}

	// Free-text categoricals.
	rec.CPUModel = toASCII(specs.lookup("تراشه", "چیپست", "chipset", "soc", "پردازنده", "cpu"))
	rec.GPUModel = toASCII(specs.lookup("پردازنده گرافیکی", "چیپ گرافیکی", "gpu", "graphics processor"))
	rec.DisplayTechnology = toASCII(specs.lookup(
		"فناوری صفحه نمایش", "فناوری نمایش", "display technology", "panel"))
	rec.OS = p.parseOS(raw.ID, specs)

	if year, ok := firstYear(specs.lookup("تاریخ معرفی", "زمان معرفی", "introduce date", "introduction date")); ok {
		rec.IntroductionDate = year
	} else {
		p.fieldMissed(raw.ID, "introduction_date")
	}

	// Market tier, later overridden by the RAM rule.
	if lvl, ok := parseCategoryLevel(specs.lookup("دسته بندی", "category")); ok {
		rec.CategoryLevel = lvl
	} else {
		p.fieldMissed(raw.ID, "category_level")
	}

	// Numerics.
	p.setNumber(raw.ID, &rec.ScreenSizeInches, "screen_size_inches", parseInches,
		specs.lookup("اندازه", "اندازه صفحه", "اندازه صفحه نمایش", "display size"))
	p.setNumber(raw.ID, &rec.RefreshRateHz, "refresh_rate_hz", firstNumber,
		specs.lookup("نرخ به روزرسانی تصویر", "نرخ بروزرسانی", "refresh rate"))
	p.setNumber(raw.ID, &rec.PixelDensityPPI, "pixel_density_ppi", firstNumber,
		specs.lookup("تراکم پیکسلی", "ppi", "pixel density"))
	p.setNumber(raw.ID, &rec.DisplayToBodyRatioPct, "display_to_body_ratio_pct", firstNumber,
		specs.lookup("نسبت صفحه نمایش به بدنه", "نسبت نمایشگر به بدنه", "screen-to-body ratio", "display to body ratio"))
	p.setNumber(raw.ID, &rec.CameraCount, "camera_count", firstNumber,
		specs.lookup("تعداد دوربین های پشت گوشی", "rear cameras", "number of rear cameras"))
	p.setNumber(raw.ID, &rec.MainCameraMP, "main_camera_mp", firstNumber,
		specs.lookup("رزولوشن دوربین اصلی", "دوربین اصلی", "main camera resolution"))
	p.setNumber(raw.ID, &rec.BatteryMAH, "battery_mah", firstNumber,
		specs.joined("ظرفیت باتری", "battery capacity", "مشخصات باتری"))
	p.setNumber(raw.ID, &rec.WeightG, "weight_g", firstNumber,
		specs.lookup("وزن", "weight"))

	// Storage and memory, normalized to GB.
	if gb, ok := parseStorageGB(specs.lookup("حافظه داخلی", "storage", "internal storage")); ok {
		rec.StorageGB = types.Float(gb)
	} else {
		p.fieldMissed(raw.ID, "storage_gb")
	}
	if gb, ok := parseStorageGB(specs.lookup("مقدار ram", "ram", "حافظه رم")); ok {
		rec.RAMGB = types.Float(gb)
	} else {
		p.fieldMissed(raw.ID, "ram_gb")
	}

	// Physical dimensions: thickness is the minimum of the three parsed
	// numbers, volume their product. Either both derive or neither does.
	if th, vol, ok := parseDimensions(specs.lookup("ابعاد", "size", "dimension", "dimensions")); ok {
		rec.ThicknessMM = types.Float(th)
		rec.VolumeMM3 = types.Float(vol)
	} else {
		p.fieldMissed(raw.ID, "thickness_mm")
	}

	// Ordinals: highest-ranked token present, absence means missing.
	if gen, ok := parseNetworkGeneration(specs.joined(
		"شبکه های مخابراتی", "شبکه های ارتباطی قابل پشتیبانی", "network", "networks", "communication networks")); ok {
		rec.NetworkGeneration = gen
	} else {
		p.fieldMissed(raw.ID, "network_generation")
	}
	if video, ok := parseVideoCapability(specs.joined(
		"سایر مشخصات فیلمبرداری", "کیفیت فیلمبرداری", "video", "video recording")); ok {
		rec.VideoCapability = video
	} else {
		p.fieldMissed(raw.ID, "video_capability")
	}

	// Business rule: under 2 GB of RAM the tier label is not trusted.
	if rec.RAMGB != nil && *rec.RAMGB < 2 {
		rec.CategoryLevel = "low"
	}

	return rec
}

// parseOS reads the operating-system attribute, falling back to sniffing
// the whole specification table for an android/ios mention.
func (p *Parser) parseOS(id string, specs specTable) string {
	if v := toASCII(specs.lookup("سیستم عامل", "os", "operating system")); v != "" {
		return v
	}
	var all strings.Builder
	for _, k := range specs.keys {
		all.WriteString(strings.ToLower(toASCII(specs.values[k])))
		all.WriteByte(' ')
	}
	switch {
	case strings.Contains(all.String(), "android"):
		return "Android"
	case strings.Contains(all.String(), "ios"), strings.Contains(all.String(), "i os"):
		return "iOS"
	}
	p.fieldMissed(id, "os")
	return ""
}

func (p *Parser) setNumber(id string, dst **float64, field string, extract func(string) (float64, bool), raw string) {
	v, ok := extract(raw)
	if !ok {
		p.fieldMissed(id, field)
		return
	}
	*dst = types.Float(v)
}

func (p *Parser) fieldMissed(id, field string) {
	p.log.Debug("attribute missing or malformed", "product", id, "field", field)
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
