// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preprocess maps engineered product records onto a fixed-width
// numeric matrix. Fit learns encoders, scalers and imputation statistics
// from a training batch; Transform is stateless given the fitted
// parameters and its output width never varies once Fit completes.
package preprocess

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// OneHotBlock is the fitted category list of one one-hot field.
type OneHotBlock struct {
	Field      string   `json:"field"`
	Categories []string `json:"categories"`
}

// OrdinalBlock is the rank table of one strict ordinal field, captured at
// fit time so a loaded pipeline is self-describing.
type OrdinalBlock struct {
	Field string   `json:"field"`
	Ranks []string `json:"ranks"`
}

// NumericBlock holds one numeric field's imputation and scaling state.
type NumericBlock struct {
	Field      string  `json:"field"`
	Log        bool    `json:"log,omitempty"`
	ImputeZero bool    `json:"impute_zero,omitempty"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
}

// Pipeline is the fitted preprocessing state. Construct it with Fit or by
// deserializing a persisted model; the zero value rejects Transform.
type Pipeline struct {
	Policy   types.OrdinalPolicy `json:"policy"`
	OneHot   []OneHotBlock       `json:"one_hot"`
	Ordinal  []OrdinalBlock      `json:"ordinal"`
	Numeric  []NumericBlock      `json:"numeric"`
	Width    int                 `json:"width"`
	IsFitted bool                `json:"fitted"`
}

// Fit learns the pipeline parameters from a training batch.
func Fit(records []types.EngineeredRecord, cfg types.PreprocessConfig) (*Pipeline, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("preprocess: empty training batch")
	}
	policy := cfg.Ordinal
	if policy == "" {
		policy = types.OrdinalFallback
	}

	p := &Pipeline{Policy: policy, IsFitted: true}

	for _, f := range oneHotFields {
		seen := map[string]struct{}{missingCategory: {}}
		for _, rec := range records {
			if v := categoryOf(f.get(rec)); v != missingCategory {
				seen[v] = struct{}{}
			}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		p.OneHot = append(p.OneHot, OneHotBlock{Field: f.name, Categories: cats})
	}

	for _, f := range ordinalFields {
		p.Ordinal = append(p.Ordinal, OrdinalBlock{Field: f.name, Ranks: f.ranks})
	}

	for _, f := range numericFields {
		var vals []float64
		for _, rec := range records {
			if v := f.get(rec); v != nil {
				vals = append(vals, numericSpace(*v, f.log))
			}
		}
		blk := NumericBlock{Field: f.name, Log: f.log, ImputeZero: f.imputeZero, Std: 1}
		if len(vals) > 0 {
			sum := 0.0
			for _, v := range vals {
				sum += v
			}
			blk.Mean = sum / float64(len(vals))
			ss := 0.0
			for _, v := range vals {
				d := v - blk.Mean
				ss += d * d
			}
			if std := math.Sqrt(ss / float64(len(vals))); std > 0 {
				blk.Std = std
			}
		}
		p.Numeric = append(p.Numeric, blk)
	}

	for _, b := range p.OneHot {
		p.Width += len(b.Categories)
	}
	p.Width += len(p.Ordinal) + len(p.Numeric)
	return p, nil
}

// Transform encodes a batch into a matrix with one row per record. Output
// width equals the fitted width regardless of input content. Pure: calling
// it twice on the same input yields the same matrix.
func (p *Pipeline) Transform(records []types.EngineeredRecord) (*mat.Dense, error) {
	if !p.IsFitted {
		return nil, ErrNotFitted
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("preprocess: empty batch")
	}
	X := mat.NewDense(len(records), p.Width, nil)
	for i, rec := range records {
		row, err := p.encodeRow(rec)
		if err != nil {
			return nil, err
		}
		X.SetRow(i, row)
	}
	return X, nil
}

// TransformOne encodes a single record.
func (p *Pipeline) TransformOne(rec types.EngineeredRecord) ([]float64, error) {
	if !p.IsFitted {
		return nil, ErrNotFitted
	}
	return p.encodeRow(rec)
}

func (p *Pipeline) encodeRow(rec types.EngineeredRecord) ([]float64, error) {
	row := make([]float64, 0, p.Width)

	for _, blk := range p.OneHot {
		get := oneHotGetter(blk.Field)
		v := categoryOf(get(rec))
		block := make([]float64, len(blk.Categories))
		// Unseen categories leave the whole block zero.
		for j, c := range blk.Categories {
			if c == v {
				block[j] = 1
				break
			}
		}
		row = append(row, block...)
	}

	for _, blk := range p.Ordinal {
		spec, ok := ordinalSpec(blk.Field)
		if !ok {
			return nil, fmt.Errorf("preprocess: no getter for ordinal field %q", blk.Field)
		}
		v := strings.TrimSpace(spec.get(rec))
		rank, err := p.ordinalRank(blk, v)
		if err != nil {
			return nil, err
		}
		row = append(row, rank)
	}

	for _, blk := range p.Numeric {
		get := numericGetter(blk.Field)
		v := get(rec)
		var x float64
		switch {
		case v != nil:
			x = numericSpace(*v, blk.Log)
		case blk.ImputeZero:
			x = numericSpace(0, blk.Log)
		default:
			x = blk.Mean
		}
		row = append(row, (x-blk.Mean)/blk.Std)
	}

	return row, nil
}

func (p *Pipeline) ordinalRank(blk OrdinalBlock, v string) (float64, error) {
	if v == "" {
		return unknownRank, nil
	}
	for i, r := range blk.Ranks {
		if r == v {
			return float64(i), nil
		}
	}
	if p.Policy == types.OrdinalStrict {
		return 0, &EncodingError{Field: blk.Field, Value: v}
	}
	return unknownRank, nil
}

// numericSpace applies the field's pre-scaling transform. log1p tolerates
// zero, which mean imputation and zero filling can produce.
func numericSpace(v float64, log bool) float64 {
	if log {
		return math.Log1p(math.Max(v, 0))
	}
	return v
}

func categoryOf(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return missingCategory
	}
	return v
}
