// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// digitGlyphs maps Persian and Arabic-indic digit runes to their ASCII
// counterparts. Both scripts appear in catalog specifications, sometimes
// within one value.
var digitGlyphs = map[rune]rune{
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// formatStrip removes format-class runes (zero-width non-joiners, bidi
// marks) that Persian text embeds between words and around numbers.
var formatStrip = transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))

// NormalizeDigits maps Persian/Arabic-indic digit glyphs to ASCII and strips
// format-control runes. Idempotent: already-ASCII input passes through
// unchanged.
func NormalizeDigits(s string) string {
	cleaned, _, err := transform.String(formatStrip, s)
	if err != nil {
		cleaned = s
	}
	return strings.Map(func(r rune) rune {
		if d, ok := digitGlyphs[r]; ok {
			return d
		}
		return r
	}, cleaned)
}

// toASCII normalizes digits and drops every rune outside printable ASCII.
// Used for values whose useful content is Latin (model names, units).
func toASCII(s string) string {
	var b strings.Builder
	for _, r := range NormalizeDigits(s) {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// firstNumber returns the first decimal number in s, false when none parses.
func firstNumber(s string) (float64, bool) {
	m := numberRe.FindString(NormalizeDigits(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var yearRe = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

// firstYear returns the first four-digit Gregorian year in s.
func firstYear(s string) (string, bool) {
	m := yearRe.FindString(NormalizeDigits(s))
	return m, m != ""
}

// normKey lowercases and collapses whitespace for keyword comparison.
// Format runes are already stripped by NormalizeDigits so Persian keys with
// and without zero-width joiners compare equal.
func normKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(NormalizeDigits(s))), " ")
}
