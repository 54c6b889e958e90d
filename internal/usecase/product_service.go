package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/allergyscan/backend/internal/domain"
	"golang.org/x/sync/singleflight"
)

// cacheCounters holds the process-wide cache statistics. Counters are
// atomic so concurrent scans never lose increments; lifetime is tied to
// the owning ProductService, reset on restart.
type cacheCounters struct {
	hits            atomic.Int64
	misses          atomic.Int64
	refreshFailures atomic.Int64
}

func (c *cacheCounters) snapshot() domain.CacheStats {
	return domain.CacheStats{
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		RefreshFailures: c.refreshFailures.Load(),
	}
}

// ProductServiceConfig holds configuration for the product cache coordinator
type ProductServiceConfig struct {
	TTL                    time.Duration // freshness window, default 7 days
	FetchTimeout           time.Duration // upstream fetch bound, default 10s
	ServeStaleWhileRefresh bool          // serve stale immediately and refresh in background
	EnableDebugLogging     bool
}

// ProductService is the read-through coordinator in front of the persistent
// product store and the upstream fetcher. Concurrent requests for the same
// barcode collapse into a single upstream call; unrelated barcodes never
// serialize on each other.
type ProductService struct {
	store                  domain.ProductStore
	fetcher                domain.ProductFetcher
	ttl                    time.Duration
	fetchTimeout           time.Duration
	serveStaleWhileRefresh bool
	enableDebugLogging     bool

	counters cacheCounters
	group    singleflight.Group
	now      func() time.Time
}

// NewProductService creates a product service with dependencies
func NewProductService(
	store domain.ProductStore,
	fetcher domain.ProductFetcher,
	config ProductServiceConfig,
) *ProductService {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour // Default 7 days
	}

	fetchTimeout := config.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}

	return &ProductService{
		store:                  store,
		fetcher:                fetcher,
		ttl:                    ttl,
		fetchTimeout:           fetchTimeout,
		serveStaleWhileRefresh: config.ServeStaleWhileRefresh,
		enableDebugLogging:     config.EnableDebugLogging,
		now:                    time.Now,
	}
}

// GetProduct returns the product record for a barcode.
// Flow: fresh cache entry -> serve; stale entry -> refresh (serving the
// stale copy on upstream failure); absent -> fetch or ErrProductNotFound.
func (s *ProductService) GetProduct(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}

	cached, err := s.store.Get(ctx, barcode)
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		return nil, err
	}

	if cached != nil && s.now().Sub(cached.FetchedAt) < s.ttl {
		s.counters.hits.Add(1)
		if s.enableDebugLogging {
			log.Printf("[CACHE] hit: %s (age %s)", barcode, s.now().Sub(cached.FetchedAt))
		}
		cached.Source = domain.SourceCached
		return cached, nil
	}

	s.counters.misses.Add(1)

	if cached == nil {
		record, err := s.refresh(barcode)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrProductNotFound, err)
		}
		return record, nil
	}

	// Stale entry. In strict-latency mode the caller gets the stale copy
	// immediately and the refresh runs behind the same single-flight key.
	if s.serveStaleWhileRefresh {
		go func() {
			if _, err := s.refresh(barcode); err != nil {
				log.Printf("[CACHE] background refresh failed for %s: %v", barcode, err)
			}
		}()
		cached.Source = domain.SourceCached
		return cached, nil
	}

	record, err := s.refresh(barcode)
	if err != nil {
		// Upstream unreachable but stale data exists: serve it rather than fail
		log.Printf("[CACHE] refresh failed for %s, serving stale copy: %v", barcode, err)
		cached.Source = domain.SourceStaleFallback
		return cached, nil
	}
	return record, nil
}

// refresh fetches the barcode upstream and upserts the result. Concurrent
// callers for the same barcode share one flight; the fetch runs on its own
// timeout-bounded context so a cancelled requester cannot abort joiners.
func (s *ProductService) refresh(barcode string) (*domain.ProductRecord, error) {
	v, err, shared := s.group.Do(barcode, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()

		snapshot, err := s.fetcher.Fetch(ctx, barcode)
		if err != nil {
			s.counters.refreshFailures.Add(1)
			return nil, err
		}

		record := &domain.ProductRecord{
			Barcode:         barcode,
			Name:            snapshot.Name,
			Brand:           snapshot.Brand,
			IngredientsText: snapshot.IngredientsText,
			ImageURL:        snapshot.ImageURL,
			FetchedAt:       s.now(),
			Source:          domain.SourceLive,
		}
		if err := s.store.Put(ctx, record); err != nil {
			return nil, fmt.Errorf("cache upsert: %w", err)
		}
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	if s.enableDebugLogging && shared {
		log.Printf("[CACHE] joined in-flight refresh for %s", barcode)
	}

	record := v.(*domain.ProductRecord)
	// Copy so concurrent joiners can adjust Source independently
	out := *record
	return &out, nil
}

// Stats returns a snapshot of the cache counters
func (s *ProductService) Stats() domain.CacheStats {
	return s.counters.snapshot()
}
