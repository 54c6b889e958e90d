package usecase

import (
	"log"
	"sort"
	"strings"

	"github.com/allergyscan/backend/internal/domain"
)

// Evidence confidence per match kind. Direct listings are certain;
// "may contain" advisories signal cross-contamination risk only.
const (
	confidenceDirect     = 1.0
	confidenceMayContain = 0.6
)

// mayContainNeedle marks the start of a cross-contamination advisory
const mayContainNeedle = "may contain"

// DetectorConfig holds configuration for the allergen detector
type DetectorConfig struct {
	FuzzyThreshold     float64 // minimum similarity for a fuzzy match, 0-1
	MayContainWindow   int     // tokens scanned after "may contain"
	EnableDebugLogging bool
}

// Detector finds allergen keyword matches in ingredient text using the lexicon
type Detector struct {
	lexicon            *Lexicon
	fuzzyThreshold     float64
	mayContainWindow   int
	enableDebugLogging bool
}

// NewDetector creates a detector with the given configuration
func NewDetector(lexicon *Lexicon, config DetectorConfig) *Detector {
	threshold := config.FuzzyThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8 // Default: catches single-character misspellings in 5+ letter keywords
	}

	window := config.MayContainWindow
	if window <= 0 {
		window = 10 // Default token window after "may contain"
	}

	return &Detector{
		lexicon:            lexicon,
		fuzzyThreshold:     threshold,
		mayContainWindow:   window,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// span is a half-open byte range [start, end) in normalized text
type span struct {
	start, end int
}

func (s span) contains(pos int) bool {
	return pos >= s.start && pos < s.end
}

// Detect scans ingredient text for allergen keywords and returns the match
// evidence, deduplicated per (category, kind) keeping the highest confidence.
// Keywords inside a "may contain" advisory window count as advisory matches,
// not direct ones. Empty or malformed text yields no evidence, never an error.
func (d *Detector) Detect(text string) []domain.MatchEvidence {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	best := make(map[domain.AllergenCategory]map[domain.MatchKind]domain.MatchEvidence)
	record := func(ev domain.MatchEvidence) {
		kinds, ok := best[ev.Category]
		if !ok {
			kinds = make(map[domain.MatchKind]domain.MatchEvidence)
			best[ev.Category] = kinds
		}
		if prev, ok := kinds[ev.Kind]; !ok || ev.Confidence > prev.Confidence {
			kinds[ev.Kind] = ev
		}
	}

	spans := d.advisorySpans(normalized)
	d.detectDirect(normalized, spans, record)
	d.detectMayContain(normalized, spans, record)
	d.detectFuzzy(normalized, spans, record)

	return d.collect(best)
}

// advisorySpans locates every "may contain" advisory and the bounded token
// window that follows it. Normalized text has single spaces, so the byte
// length of the first N window tokens is exact.
func (d *Detector) advisorySpans(text string) []span {
	var spans []span
	start := 0
	for {
		idx := strings.Index(text[start:], mayContainNeedle)
		if idx == -1 {
			return spans
		}
		idx += start

		afterStart := idx + len(mayContainNeedle)
		after := text[afterStart:]
		trimmed := strings.TrimLeft(after, " ")
		lead := len(after) - len(trimmed)

		tokens := strings.Fields(trimmed)
		n := d.mayContainWindow
		if n > len(tokens) {
			n = len(tokens)
		}
		end := afterStart + lead + len(strings.Join(tokens[:n], " "))

		spans = append(spans, span{start: idx, end: end})
		start = afterStart
	}
}

// detectDirect matches lexicon keywords with word-boundary semantics,
// skipping occurrences inside advisory windows
func (d *Detector) detectDirect(text string, spans []span, record func(domain.MatchEvidence)) {
	for _, entry := range d.lexicon.entries {
		for i, pattern := range entry.Patterns {
			for _, loc := range pattern.FindAllStringIndex(text, -1) {
				if insideAny(spans, loc[0]) {
					continue
				}
				if d.enableDebugLogging {
					log.Printf("[MATCH] direct: %q -> %s at %d", entry.Keywords[i], entry.Category, loc[0])
				}
				record(domain.MatchEvidence{
					Category:    entry.Category,
					MatchedTerm: entry.Keywords[i],
					Position:    loc[0],
					Kind:        domain.MatchDirect,
					Confidence:  confidenceDirect,
				})
				break
			}
		}
	}
}

// detectMayContain scans each advisory window for lexicon keywords
func (d *Detector) detectMayContain(text string, spans []span, record func(domain.MatchEvidence)) {
	for _, sp := range spans {
		window := text[sp.start+len(mayContainNeedle) : sp.end]
		for _, entry := range d.lexicon.entries {
			for i, pattern := range entry.Patterns {
				loc := pattern.FindStringIndex(window)
				if loc == nil {
					continue
				}
				if d.enableDebugLogging {
					log.Printf("[MATCH] may-contain: %q -> %s (advisory at %d)", entry.Keywords[i], entry.Category, sp.start)
				}
				record(domain.MatchEvidence{
					Category:    entry.Category,
					MatchedTerm: entry.Keywords[i],
					Position:    sp.start,
					Kind:        domain.MatchMayContain,
					Confidence:  confidenceMayContain,
				})
			}
		}
	}
}

// detectFuzzy compares n-grams outside advisory windows against lexicon
// keywords by edit-distance similarity, catching misspellings and OCR
// artifacts from scanned labels
func (d *Detector) detectFuzzy(text string, spans []span, record func(domain.MatchEvidence)) {
	// Mask advisory windows with spaces; byte positions stay aligned
	masked := maskSpans(text, spans)

	tokens := strings.Fields(masked)
	grams := make([]string, 0, 3*len(tokens))
	grams = append(grams, tokens...)
	grams = append(grams, ngrams(tokens, 2)...)
	grams = append(grams, ngrams(tokens, 3)...)

	for _, entry := range d.lexicon.entries {
		for _, keyword := range entry.Keywords {
			for _, gram := range grams {
				if gram == keyword {
					continue // exact occurrences are the direct matcher's job
				}
				score := similarity(keyword, gram)
				if score < d.fuzzyThreshold {
					continue
				}
				if d.enableDebugLogging {
					log.Printf("[MATCH] fuzzy: %q ~ %q -> %s (%.2f)", gram, keyword, entry.Category, score)
				}
				record(domain.MatchEvidence{
					Category:    entry.Category,
					MatchedTerm: gram,
					Position:    strings.Index(masked, gram),
					Kind:        domain.MatchFuzzy,
					Confidence:  score,
				})
			}
		}
	}
}

// collect flattens the dedup map into a deterministic evidence slice,
// ordered by canonical category order then kind precedence
func (d *Detector) collect(best map[domain.AllergenCategory]map[domain.MatchKind]domain.MatchEvidence) []domain.MatchEvidence {
	kindOrder := map[domain.MatchKind]int{
		domain.MatchDirect:     0,
		domain.MatchMayContain: 1,
		domain.MatchFuzzy:      2,
	}

	var result []domain.MatchEvidence
	for _, category := range domain.Categories() {
		kinds, ok := best[category]
		if !ok {
			continue
		}
		var evs []domain.MatchEvidence
		for _, ev := range kinds {
			evs = append(evs, ev)
		}
		sort.Slice(evs, func(i, j int) bool {
			return kindOrder[evs[i].Kind] < kindOrder[evs[j].Kind]
		})
		result = append(result, evs...)
	}
	return result
}

// insideAny reports whether pos falls inside any span
func insideAny(spans []span, pos int) bool {
	for _, sp := range spans {
		if sp.contains(pos) {
			return true
		}
	}
	return false
}

// maskSpans replaces span bytes with spaces, preserving text length
func maskSpans(text string, spans []span) string {
	if len(spans) == 0 {
		return text
	}
	b := []byte(text)
	for _, sp := range spans {
		for i := sp.start; i < sp.end && i < len(b); i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

// similarity converts edit distance to a 0-1 score relative to the longer string
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(a, b))/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of a full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
