package domain

import "errors"

var (
	// ErrProductNotFound is returned when a barcode is unknown to both the cache and the upstream
	ErrProductNotFound = errors.New("product not found")

	// ErrUpstreamUnavailable is returned when the Open Food Facts request fails or times out
	ErrUpstreamUnavailable = errors.New("upstream product lookup failed")

	// ErrCacheMiss is returned when no record exists for a barcode in the store
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidLexicon is returned when the allergen lexicon data fails validation at load
	ErrInvalidLexicon = errors.New("invalid allergen lexicon")
)
