package domain

import "time"

// RecordSource values describe where a served ProductRecord came from
const (
	SourceLive          = "live"           // fetched from the upstream on this request
	SourceCached        = "cached"         // served from a cache entry
	SourceStaleFallback = "stale-fallback" // TTL expired and the refresh failed
)

// ProductSnapshot is the raw product data returned by the upstream fetcher
type ProductSnapshot struct {
	Name            string `json:"name"`
	Brand           string `json:"brand,omitempty"`
	IngredientsText string `json:"ingredientsText,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// ProductRecord is a cached product keyed by barcode.
// At most one record exists per barcode and FetchedAt never decreases.
type ProductRecord struct {
	Barcode         string    `json:"barcode"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand,omitempty"`
	IngredientsText string    `json:"ingredientsText,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	FetchedAt       time.Time `json:"fetchedAt"`
	Source          string    `json:"source"` // "live", "cached", or "stale-fallback"
}

// CacheStats holds process-wide cache counters, reset on restart
type CacheStats struct {
	Hits            int64 `json:"hits"`
	Misses          int64 `json:"misses"`
	RefreshFailures int64 `json:"refreshFailures"`
}

// ScanRequest represents a barcode scan request
type ScanRequest struct {
	Barcode   string   `json:"barcode" binding:"required"`
	Allergens []string `json:"allergens,omitempty"`
}

// ScanResult pairs the resolved product with the risk assessment for the caller
type ScanResult struct {
	Product ProductRecord  `json:"product"`
	Risk    RiskAssessment `json:"risk"`
}
