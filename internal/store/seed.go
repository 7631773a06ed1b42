// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

var seedBrands = []string{"Samsung", "Xiaomi", "Apple", "Nokia", "Honor", "Motorola"}

var seedCPUs = []string{
	"Snapdragon 8 Gen 2", "Snapdragon 888", "Snapdragon 695",
	"MediaTek Dimensity 9200", "MediaTek Helio G99",
	"Exynos 2200", "Apple A16 Bionic", "Unisoc T612",
}

var seedTiers = []string{"پرچم دار", "میان رده", "اقتصادی", "flagship", "mid-range", "budget"}

var seedDisplays = []string{"AMOLED", "Super AMOLED", "IPS LCD", "OLED", "TFT"}

var seedNetworks = []string{"5G", "4G LTE", "3G", "۴G"}

var seedVideo = []string{
	"4K@30fps", "4K@60fps", "1080p@30/60fps", "8K@24fps",
	"720p@30fps", "فیلمبرداری 1080p",
}

var seedStorage = []string{"128 گیگابایت", "256 GB", "64 GB", "512 گیگابایت", "1 TB"}

var seedRAM = []string{"8 گیگابایت", "12 GB", "6 GB", "4 گیگابایت", "1 گیگابایت"}

// Seed fills the store with n synthetic bilingual product documents. The
// generator is deterministic for a given seed so test fixtures and demo
// databases are reproducible.
func (s *Store) Seed(ctx context.Context, n int, seed uint64, w io.Writer) error {
	faker := gofakeit.New(int64(seed))

	products := make([]types.RawProduct, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, syntheticProduct(faker, i))
	}

	if err := s.UpsertProducts(ctx, products); err != nil {
		return fmt.Errorf("seeding store: %w", err)
	}
	fmt.Fprintf(w, "seeded %d products\n", n)
	return nil
}

func syntheticProduct(f *gofakeit.Faker, i int) types.RawProduct {
	brand := f.RandomString(seedBrands)
	model := fmt.Sprintf("%s %d", f.RandomString([]string{"Galaxy", "Redmi", "Note", "Edge", "Magic"}), f.Number(5, 15))

	p := types.RawProduct{
		ID:         fmt.Sprintf("prod-%06d", i),
		TitleEN:    fmt.Sprintf("%s %s mobile phone", brand, model),
		TitleFA:    fmt.Sprintf("گوشی موبایل %s مدل %s", brand, model),
		Brand:      brand,
		Price:      types.Float(float64(f.Number(5_000_000, 800_000_000))),
		Rating:     types.Float(f.Float64Range(1, 5)),
		RaterCount: types.Float(float64(f.Number(0, 5000))),
		Popularity: types.Float(float64(f.Number(0, 100))),
	}
	if f.Bool() {
		p.QuestionCount = types.Float(float64(f.Number(0, 200)))
		p.CommentCount = types.Float(float64(f.Number(0, 900)))
	}
	if f.Bool() {
		p.Suggestions = &types.Suggestions{
			Count:      float64(f.Number(0, 400)),
			Percentage: float64(f.Number(0, 100)),
		}
	}

	general := types.SpecGroup{Title: "مشخصات کلی", Attributes: []types.SpecAttribute{
		{Title: "دسته بندی", Values: []string{f.RandomString(seedTiers)}},
		{Title: "ابعاد", Values: []string{fmt.Sprintf("%.1f×%.1f×%.1f میلی‌متر",
			f.Float64Range(140, 170), f.Float64Range(65, 80), f.Float64Range(6.5, 10.5))}},
		{Title: "وزن", Values: []string{fmt.Sprintf("%d گرم", f.Number(140, 240))}},
		{Title: "زمان معرفی", Values: []string{fmt.Sprintf("%d", f.Number(2015, 2024))}},
	}}

	hardware := types.SpecGroup{Title: "پردازنده", Attributes: []types.SpecAttribute{
		{Title: "تراشه", Values: []string{f.RandomString(seedCPUs)}},
		{Title: "مقدار RAM", Values: []string{f.RandomString(seedRAM)}},
		{Title: "حافظه داخلی", Values: []string{f.RandomString(seedStorage)}},
		{Title: "سیستم عامل", Values: []string{f.RandomString([]string{"Android 13", "Android 12", "iOS 16", "اندروید ۱۱"})}},
	}}

	display := types.SpecGroup{Title: "صفحه نمایش", Attributes: []types.SpecAttribute{
		{Title: "فناوری صفحه نمایش", Values: []string{f.RandomString(seedDisplays)}},
		{Title: "اندازه", Values: []string{fmt.Sprintf("%.2f اینچ", f.Float64Range(5.0, 7.1))}},
		{Title: "تراکم پیکسلی", Values: []string{fmt.Sprintf("%d ppi", f.Number(260, 520))}},
		{Title: "نرخ بروزرسانی", Values: []string{fmt.Sprintf("%d هرتز", f.RandomInt([]int{60, 90, 120, 144}))}},
		{Title: "نسبت صفحه نمایش به بدنه", Values: []string{fmt.Sprintf("%.1f درصد", f.Float64Range(68, 93))}},
	}}

	camera := types.SpecGroup{Title: "دوربین", Attributes: []types.SpecAttribute{
		{Title: "تعداد دوربین های پشت گوشی", Values: []string{fmt.Sprintf("%d", f.Number(1, 4))}},
		{Title: "رزولوشن دوربین اصلی", Values: []string{fmt.Sprintf("%d مگاپیکسل", f.RandomInt([]int{12, 13, 48, 50, 64, 108}))}},
		{Title: "کیفیت فیلمبرداری", Values: []string{f.RandomString(seedVideo)}},
	}}

	connectivity := types.SpecGroup{Title: "ارتباطات", Attributes: []types.SpecAttribute{
		{Title: "شبکه های مخابراتی", Values: []string{f.RandomString(seedNetworks)}},
		{Title: "ظرفیت باتری", Values: []string{fmt.Sprintf("%d میلی‌آمپر ساعت", f.Number(2500, 6000))}},
	}}

	p.Specifications = []types.SpecGroup{general, hardware, display, camera, connectivity}

	// A thin slice of documents with holes, so parsing and imputation paths
	// stay exercised on seeded data.
	if i%13 == 0 {
		p.Specifications = p.Specifications[:2]
		p.Rating = nil
		p.Price = nil
	}
	return p
}
