package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex    = regexp.MustCompile(`[^a-z0-9\s]+`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// Normalize lowercases ingredient text, collapses punctuation and
// whitespace runs to single spaces, and trims the result.
// Idempotent: normalizing already-normalized text returns it unchanged.
// Empty input yields an empty string, never an error.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	result := strings.ToLower(text)
	result = punctuationRegex.ReplaceAllString(result, " ")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// ngrams joins consecutive tokens into space-separated n-grams.
// Needed for multi-word lexicon keywords like "sulfur dioxide".
func ngrams(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}
