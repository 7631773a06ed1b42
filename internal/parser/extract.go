// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// --- storage / memory ---

var (
	tbRe = regexp.MustCompile(`\b(\d{1,2}(?:\.\d+)?)\s*(?:tb|tib|terabytes?|ترابایت|ترابايت)\b`)
	gbRe = regexp.MustCompile(`\b(\d{1,4}(?:\.\d+)?)\s*(?:gb|gib|gigabytes?|گیگابایت|گيگابايت)\b`)
	mbRe = regexp.MustCompile(`\b(\d{1,5}(?:\.\d+)?)\s*(?:mb|mib|مگابایت|مگابايت)\b`)
)

// parseStorageGB extracts a storage or memory capacity and normalizes it to
// gigabytes: TB multiplies by 1024, MB divides by 1024. When no unit token
// is present a bare number next to a gig/meg/tera hint still counts.
func parseStorageGB(raw string) (float64, bool) {
	t := strings.ToLower(NormalizeDigits(raw))

	if m := tbRe.FindStringSubmatch(t); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v * 1024, true
	}
	if m := gbRe.FindStringSubmatch(t); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v, true
	}
	if m := mbRe.FindStringSubmatch(t); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v / 1024, true
	}

	// Unit token absent: fall back on script-level hints from the raw text.
	n, ok := firstNumber(raw)
	if !ok {
		return 0, false
	}
	switch {
	case strings.Contains(raw, "ترا") || strings.Contains(t, "t"):
		return n * 1024, true
	case strings.Contains(raw, "گیگ") || strings.Contains(raw, "گيگ") || strings.Contains(t, "g"):
		return n, true
	case strings.Contains(raw, "مگ") || strings.Contains(t, "m"):
		return n / 1024, true
	}
	return 0, false
}

// --- physical dimensions ---

var dimSepRe = regexp.MustCompile(`[×X*]`)

// parseDimensions reads a "N x N x N" size string (millimeters) and returns
// the minimum (thickness) and the product (volume). Fewer than three numbers
// means the whole triple is unusable.
func parseDimensions(raw string) (thickness, volume float64, ok bool) {
	t := NormalizeDigits(dimSepRe.ReplaceAllString(raw, "x"))
	nums := numberRe.FindAllString(t, -1)
	if len(nums) < 3 {
		return 0, 0, false
	}
	vals := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(nums[i], 64)
		if err != nil || v <= 0 {
			return 0, 0, false
		}
		vals[i] = v
	}
	thickness = vals[0]
	volume = 1
	for _, v := range vals {
		if v < thickness {
			thickness = v
		}
		volume *= v
	}
	return thickness, volume, true
}

// --- network generation ---

// networkRanked lists generations from highest to lowest; the first token
// found wins. LTE counts as 4G.
var networkRanked = []struct {
	label  string
	tokens []string
}{
	{"5G", []string{"5g"}},
	{"4G", []string{"4g", "lte"}},
	{"3G", []string{"3g"}},
	{"2G", []string{"2g", "gsm"}},
}

// parseNetworkGeneration returns the highest cellular generation named in
// the text. Absence of any token is missing, not lowest rank.
func parseNetworkGeneration(raw string) (string, bool) {
	t := strings.ToLower(NormalizeDigits(raw))
	for _, gen := range networkRanked {
		for _, tok := range gen.tokens {
			if strings.Contains(t, tok) {
				return gen.label, true
			}
		}
	}
	return "", false
}

// --- video capability ---

// resLines ranks resolution tokens by vertical line count.
var resLines = map[string]int{
	"8k": 4320, "6k": 3160, "5k": 2880, "4k": 2160,
	"4320p": 4320, "2160p": 2160, "1440p": 1440,
	"1080p": 1080, "720p": 720, "480p": 480,
}

// resTokens is resLines's keys, longest first so "4320p" matches before "4k"
// never clips a longer token.
var resTokens = func() []string {
	toks := make([]string, 0, len(resLines))
	for t := range resLines {
		toks = append(toks, t)
	}
	sort.Slice(toks, func(i, j int) bool {
		if len(toks[i]) != len(toks[j]) {
			return len(toks[i]) > len(toks[j])
		}
		return toks[i] < toks[j]
	})
	return toks
}()

var (
	videoSlashRe  = regexp.MustCompile(`(8k|6k|5k|4k|4320p|2160p|1440p|1080p|720p|480p)@?\(?(\d{1,3}(?:/\d{1,3})+)fps\)?`)
	videoSingleRe = regexp.MustCompile(`(8k|6k|5k|4k|4320p|2160p|1440p|1080p|720p|480p)@?\(?(\d{1,3})fps\)?`)
	windowNumRe   = regexp.MustCompile(`\d{1,3}`)
)

// parseVideoCapability finds the best resolution×framerate combination in a
// free-text recording description and renders it canonically, e.g.
// "4K@30FPS". Slash fps lists ("30/60fps") contribute their minimum rate;
// repeated single-fps mentions keep the maximum. A resolution token with no
// fps nearby falls back to the first number in a trailing window.
func parseVideoCapability(raw string) (string, bool) {
	spaced := strings.ToLower(NormalizeDigits(strings.ReplaceAll(raw, "×", "x")))
	compact := strings.ReplaceAll(spaced, " ", "")

	resFPS := map[string]int{}
	slashSeen := map[string]bool{}

	for _, m := range videoSlashRe.FindAllStringSubmatch(compact, -1) {
		res := m[1]
		minFPS := 0
		for _, part := range strings.Split(m[2], "/") {
			f, err := strconv.Atoi(part)
			if err != nil {
				continue
			}
			if minFPS == 0 || f < minFPS {
				minFPS = f
			}
		}
		if minFPS == 0 {
			continue
		}
		if prev, ok := resFPS[res]; !ok || minFPS < prev {
			resFPS[res] = minFPS
		}
		slashSeen[res] = true
	}

	for _, m := range videoSingleRe.FindAllStringSubmatch(compact, -1) {
		res := m[1]
		f, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if slashSeen[res] {
			continue
		}
		if prev, ok := resFPS[res]; !ok || f > prev {
			resFPS[res] = f
		}
	}

	// Persian-format fallback: resolution token followed by a bare number.
	for _, rt := range resTokens {
		if _, ok := resFPS[rt]; ok {
			continue
		}
		idx := strings.Index(spaced, rt)
		if idx < 0 {
			continue
		}
		window := spaced[idx+len(rt):]
		if len(window) > 60 {
			window = window[:60]
		}
		if m := windowNumRe.FindString(window); m != "" {
			if f, err := strconv.Atoi(m); err == nil {
				resFPS[rt] = f
			}
		}
	}

	if len(resFPS) == 0 {
		return "", false
	}

	best, bestFPS := "", 0
	for res, fps := range resFPS {
		if best == "" || resLines[res] > resLines[best] ||
			(resLines[res] == resLines[best] && fps > bestFPS) {
			best, bestFPS = res, fps
		}
	}
	label := best
	if strings.HasSuffix(best, "k") {
		label = strings.ToUpper(best)
	}
	return fmt.Sprintf("%s@%dFPS", label, bestFPS), true
}

// VideoRank orders canonical video capability labels: resolution first,
// framerate second. Unparseable labels rank lowest.
func VideoRank(label string) int {
	parts := strings.SplitN(strings.ToLower(strings.TrimSuffix(label, "FPS")), "@", 2)
	if len(parts) != 2 {
		return 0
	}
	lines, ok := resLines[parts[0]]
	if !ok {
		return 0
	}
	fps, err := strconv.Atoi(strings.TrimSuffix(parts[1], "fps"))
	if err != nil {
		fps = 0
	}
	return lines*1000 + fps
}

// --- market tier ---

var (
	tierHigh = []string{"پرچم", "پرچمدار", "بالا رده"}
	tierMid  = []string{"میان رده", "ميان رده", "میانرده"}
	tierLow  = []string{"پایین رده", "پايين رده", "پایینرده", "اقتصادی"}
)

// parseCategoryLevel maps a bilingual manufacturer tier label to
// high/mid/low. Persian matching runs before ASCII stripping since the
// labels rarely carry Latin text.
func parseCategoryLevel(raw string) (string, bool) {
	t := normKey(raw)
	for _, k := range tierHigh {
		if strings.Contains(t, normKey(k)) {
			return "high", true
		}
	}
	for _, k := range tierMid {
		if strings.Contains(t, normKey(k)) {
			return "mid", true
		}
	}
	for _, k := range tierLow {
		if strings.Contains(t, normKey(k)) {
			return "low", true
		}
	}
	a := toASCII(t)
	switch {
	case strings.Contains(a, "flagship"):
		return "high", true
	case strings.Contains(a, "mid"):
		return "mid", true
	case strings.Contains(a, "low"), strings.Contains(a, "entry"):
		return "low", true
	}
	return "", false
}

// parseInches extracts a screen diagonal, preferring a number annotated with
// an inch marker over the first bare number.
var inchRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:inch|in\b|'|")`)

func parseInches(raw string) (float64, bool) {
	t := strings.ToLower(NormalizeDigits(raw))
	if m := inchRe.FindStringSubmatch(t); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return firstNumber(raw)
}
