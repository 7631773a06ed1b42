// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

func specProduct(id string, attrs map[string]string) types.RawProduct {
	group := types.SpecGroup{Title: "مشخصات"}
	for k, v := range attrs {
		group.Attributes = append(group.Attributes, types.SpecAttribute{Title: k, Values: []string{v}})
	}
	return types.RawProduct{ID: id, Specifications: []types.SpecGroup{group}}
}

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"persian digits", "۱۲۸ گیگابایت", "128 گیگابایت"},
		{"arabic digits", "٤٨ مگاپیکسل", "48 مگاپیکسل"},
		{"mixed scripts in one value", "۱۲ و ٣٤", "12 و 34"},
		{"ascii passes through", "128 GB", "128 GB"},
		{"strips zero-width non-joiner", "می‌لی", "میلی"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDigits(tt.in)
			assert.Equal(t, tt.want, got)
			// A second pass must not change anything.
			assert.Equal(t, got, NormalizeDigits(got))
		})
	}
}

func TestParseStorageGB(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"gigabytes english", "128 GB", 128, true},
		{"gigabytes persian", "۱۲۸ گیگابایت", 128, true},
		{"terabytes scale up", "1 TB", 1024, true},
		{"megabytes scale down", "512 MB", 0.5, true},
		{"persian megabytes", "۵۱۲ مگابایت", 0.5, true},
		{"bare number with persian hint", "۸ گیگ", 8, true},
		{"no number", "نامشخص", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseStorageGB(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseDimensions(t *testing.T) {
	t.Run("thickness is minimum volume is product", func(t *testing.T) {
		th, vol, ok := parseDimensions("160.8×78.1×7.6 میلی‌متر")
		require.True(t, ok)
		assert.InDelta(t, 7.6, th, 1e-9)
		assert.InDelta(t, 160.8*78.1*7.6, vol, 1e-6)
	})

	t.Run("asterisk and x separators", func(t *testing.T) {
		th, _, ok := parseDimensions("146 * 70.9 * 7.4 mm")
		require.True(t, ok)
		assert.InDelta(t, 7.4, th, 1e-9)
	})

	t.Run("persian digits", func(t *testing.T) {
		th, vol, ok := parseDimensions("۱۵۰×۷۰×۸")
		require.True(t, ok)
		assert.InDelta(t, 8, th, 1e-9)
		assert.InDelta(t, 150*70*8, vol, 1e-6)
	})

	t.Run("fewer than three numbers fails", func(t *testing.T) {
		_, _, ok := parseDimensions("150×70 mm")
		assert.False(t, ok)
	})

	t.Run("zero dimension fails", func(t *testing.T) {
		_, _, ok := parseDimensions("150×0×8")
		assert.False(t, ok)
	})
}

func TestParseNetworkGeneration(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2G, 3G, 4G, 5G", "5G", true},
		{"GSM / LTE", "4G", true},
		{"شبکه 3G و 2G", "3G", true},
		{"GSM only", "2G", true},
		{"Wi-Fi 6", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := parseNetworkGeneration(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseVideoCapability(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"single mode", "4K@30fps", "4K@30FPS", true},
		{"slash list takes minimum fps", "1080p@30/60fps", "1080p@30FPS", true},
		{"best resolution wins", "720p@30fps, 1080p@30fps, 4K@30fps", "4K@30FPS", true},
		{"repeated single mentions keep max fps", "1080p@30fps 1080p@60fps", "1080p@60FPS", true},
		{"spaced persian text falls back to window", "فیلمبرداری 4k با سرعت ۳۰ فریم", "4K@30FPS", true},
		{"parenthesized fps", "4K(30/60fps)", "4K@30FPS", true},
		{"no resolution token", "دوربین ۱۲ مگاپیکسل", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseVideoCapability(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVideoRankOrdering(t *testing.T) {
	assert.Greater(t, VideoRank("8K@24FPS"), VideoRank("4K@60FPS"))
	assert.Greater(t, VideoRank("4K@60FPS"), VideoRank("4K@30FPS"))
	assert.Greater(t, VideoRank("1080p@30FPS"), VideoRank("720p@240FPS"))
	assert.Equal(t, 0, VideoRank("garbage"))
}

func TestParseCategoryLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"پرچم دار", "high", true},
		{"گوشی پرچمدار", "high", true},
		{"میان رده", "mid", true},
		{"اقتصادی", "low", true},
		{"flagship", "high", true},
		{"mid-range", "mid", true},
		{"entry level", "low", true},
		{"نامشخص", "", false},
	}
	for _, tt := range tests {
		got, ok := parseCategoryLevel(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseInches(t *testing.T) {
	got, ok := parseInches("6.5 inch")
	require.True(t, ok)
	assert.InDelta(t, 6.5, got, 1e-9)

	// Prefer the inch-annotated number over an earlier bare one.
	got, ok = parseInches(`1080x2400, 6.7"`)
	require.True(t, ok)
	assert.InDelta(t, 6.7, got, 1e-9)

	got, ok = parseInches("۶.۱ اینچ")
	require.True(t, ok)
	assert.InDelta(t, 6.1, got, 1e-9)
}

func TestParseFullRecord(t *testing.T) {
	p := New(nil)

	raw := specProduct("p1", map[string]string{
		"تراشه":                    "Snapdragon 8 Gen 2",
		"سیستم عامل":               "Android 13",
		"دسته بندی":                "پرچم دار",
		"زمان معرفی":               "معرفی شده در 2023",
		"مقدار RAM":                "۸ گیگابایت",
		"حافظه داخلی":              "256 GB",
		"ابعاد":                    "158.2×76.1×7.6 میلی‌متر",
		"اندازه":                   "6.7 اینچ",
		"تراکم پیکسلی":             "425 ppi",
		"نرخ بروزرسانی":            "120 هرتز",
		"نسبت صفحه نمایش به بدنه":  "89.7 درصد",
		"تعداد دوربین های پشت گوشی": "3",
		"رزولوشن دوربین اصلی":      "50 مگاپیکسل",
		"کیفیت فیلمبرداری":         "4K@30/60fps",
		"شبکه های مخابراتی":        "2G, 3G, 4G, 5G",
		"ظرفیت باتری":              "5000 میلی‌آمپر ساعت",
		"وزن":                      "195 گرم",
	})
	raw.Brand = "Samsung"
	raw.Price = types.Float(45_000_000)
	raw.Suggestions = &types.Suggestions{Count: 120, Percentage: 91}

	rec := p.Parse(raw)

	assert.Equal(t, "p1", rec.ID)
	assert.Equal(t, "Samsung", rec.Brand)
	assert.Equal(t, "Snapdragon 8 Gen 2", rec.CPUModel)
	assert.Equal(t, "Android 13", rec.OS)
	assert.Equal(t, "high", rec.CategoryLevel)
	assert.Equal(t, "2023", rec.IntroductionDate)
	assert.Equal(t, "5G", rec.NetworkGeneration)
	assert.Equal(t, "4K@30FPS", rec.VideoCapability)

	require.NotNil(t, rec.RAMGB)
	assert.InDelta(t, 8, *rec.RAMGB, 1e-9)
	require.NotNil(t, rec.StorageGB)
	assert.InDelta(t, 256, *rec.StorageGB, 1e-9)
	require.NotNil(t, rec.ThicknessMM)
	assert.InDelta(t, 7.6, *rec.ThicknessMM, 1e-9)
	require.NotNil(t, rec.ScreenSizeInches)
	assert.InDelta(t, 6.7, *rec.ScreenSizeInches, 1e-9)
	require.NotNil(t, rec.BatteryMAH)
	assert.InDelta(t, 5000, *rec.BatteryMAH, 1e-9)
	require.NotNil(t, rec.SuggestionsCount)
	assert.InDelta(t, 120, *rec.SuggestionsCount, 1e-9)
}

func TestParseLowRAMOverridesTier(t *testing.T) {
	p := New(nil)

	rec := p.Parse(specProduct("p2", map[string]string{
		"دسته بندی": "پرچم دار",
		"مقدار RAM": "1 گیگابایت",
	}))
	assert.Equal(t, "low", rec.CategoryLevel)

	// At exactly 2 GB the declared tier stands.
	rec = p.Parse(specProduct("p3", map[string]string{
		"دسته بندی": "پرچم دار",
		"مقدار RAM": "2 GB",
	}))
	assert.Equal(t, "high", rec.CategoryLevel)
}

func TestParseIsTotal(t *testing.T) {
	p := New(nil)

	// Garbage in every field must still yield a record, with every
	// unparseable attribute explicitly missing.
	rec := p.Parse(specProduct("junk", map[string]string{
		"مقدار RAM":   "نامشخص",
		"حافظه داخلی": "!!!",
		"ابعاد":       "نامعلوم",
		"دسته بندی":   "???",
		"ظرفیت باتری": "",
	}))
	assert.Equal(t, "junk", rec.ID)
	assert.Nil(t, rec.RAMGB)
	assert.Nil(t, rec.StorageGB)
	assert.Nil(t, rec.ThicknessMM)
	assert.Nil(t, rec.BatteryMAH)
	assert.Empty(t, rec.CategoryLevel)

	// An entirely empty document parses too.
	rec = p.Parse(types.RawProduct{ID: "empty"})
	assert.Equal(t, "empty", rec.ID)
	assert.Nil(t, rec.Price)
}

func TestFlattenSpecsFirstMatchWins(t *testing.T) {
	table := flattenSpecs([]types.SpecGroup{
		{Title: "a", Attributes: []types.SpecAttribute{
			{Title: "RAM", Values: []string{"8 GB"}},
		}},
		{Title: "b", Attributes: []types.SpecAttribute{
			{Title: "ram", Values: []string{"4 GB"}},
		}},
	})
	assert.Equal(t, "8 GB", table.lookup("ram"))
}

func TestParseOSSniffsSpecTable(t *testing.T) {
	p := New(nil)
	rec := p.Parse(specProduct("p4", map[string]string{
		"قابلیت ها": "سازگار با Android Auto",
	}))
	assert.Equal(t, "Android", rec.OS)
}
