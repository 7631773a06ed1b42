// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engineer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// TFIDF is a term-frequency / inverse-document-frequency vectorizer over
// CPU model strings. The vocabulary is sorted so fitting the same corpus
// always yields the same column order. State is exported for persistence.
type TFIDF struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// fitTFIDF builds the vocabulary and smoothed IDF weights from the corpus.
func fitTFIDF(corpus []string) *TFIDF {
	df := map[string]int{}
	for _, text := range corpus {
		seen := map[string]struct{}{}
		for _, tok := range tokenize(text) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	v := &TFIDF{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, t := range terms {
		v.Vocabulary[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v
}

// Vector embeds text into the fitted vocabulary space, L2-normalized.
// Out-of-vocabulary tokens contribute zero; the vectorizer never refits.
func (v *TFIDF) Vector(text string) []float64 {
	vec := make([]float64, len(v.IDF))
	tf := map[int]int{}
	total := 0
	for _, tok := range tokenize(text) {
		if idx, ok := v.Vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * v.IDF[idx]
	}
	norm := 0.0
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
