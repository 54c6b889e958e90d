package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/allergyscan/backend/internal/domain"
)

// fakeStore is an in-memory domain.ProductStore for coordinator tests
type fakeStore struct {
	mu      sync.Mutex
	records map[string]domain.ProductRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]domain.ProductRecord)}
}

func (s *fakeStore) Get(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[barcode]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	out := rec
	return &out, nil
}

func (s *fakeStore) Put(ctx context.Context, record *domain.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.Barcode]; ok && existing.FetchedAt.After(record.FetchedAt) {
		return nil
	}
	s.records[record.Barcode] = *record
	return nil
}

func (s *fakeStore) Close() error { return nil }

// fakeFetcher is a scripted domain.ProductFetcher that counts calls and
// can hold fetches open on a gate channel
type fakeFetcher struct {
	mu       sync.Mutex
	calls    int
	snapshot *domain.ProductSnapshot
	err      error
	gate     chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, barcode string) (*domain.ProductSnapshot, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.err != nil {
		return nil, f.err
	}
	out := *f.snapshot
	return &out, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGetProduct(t *testing.T) {
	ctx := context.Background()
	snapshot := &domain.ProductSnapshot{
		Name:            "Hazelnut Spread",
		Brand:           "Testco",
		IngredientsText: "sugar, hazelnuts, milk",
	}

	t.Run("rejects empty barcode", func(t *testing.T) {
		svc := NewProductService(newFakeStore(), &fakeFetcher{snapshot: snapshot}, ProductServiceConfig{})
		_, err := svc.GetProduct(ctx, "")
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("absent barcode is fetched and cached", func(t *testing.T) {
		store := newFakeStore()
		fetcher := &fakeFetcher{snapshot: snapshot}
		svc := NewProductService(store, fetcher, ProductServiceConfig{})

		record, err := svc.GetProduct(ctx, "4001686301265")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Source != domain.SourceLive {
			t.Errorf("Source = %q, want live", record.Source)
		}
		if record.Name != "Hazelnut Spread" {
			t.Errorf("Name = %q", record.Name)
		}

		if _, err := store.Get(ctx, "4001686301265"); err != nil {
			t.Errorf("record not persisted: %v", err)
		}

		stats := svc.Stats()
		if stats.Misses != 1 || stats.Hits != 0 {
			t.Errorf("stats = %+v, want 1 miss", stats)
		}
	})

	t.Run("fresh record is served from cache", func(t *testing.T) {
		store := newFakeStore()
		fetcher := &fakeFetcher{snapshot: snapshot}
		svc := NewProductService(store, fetcher, ProductServiceConfig{})

		if _, err := svc.GetProduct(ctx, "111"); err != nil {
			t.Fatalf("seed fetch: %v", err)
		}

		record, err := svc.GetProduct(ctx, "111")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Source != domain.SourceCached {
			t.Errorf("Source = %q, want cached", record.Source)
		}
		if fetcher.callCount() != 1 {
			t.Errorf("fetch calls = %d, want 1", fetcher.callCount())
		}

		stats := svc.Stats()
		if stats.Hits != 1 || stats.Misses != 1 {
			t.Errorf("stats = %+v, want 1 hit and 1 miss", stats)
		}
	})

	t.Run("absent barcode with failing upstream is not found", func(t *testing.T) {
		fetcher := &fakeFetcher{err: domain.ErrUpstreamUnavailable}
		svc := NewProductService(newFakeStore(), fetcher, ProductServiceConfig{})

		_, err := svc.GetProduct(ctx, "222")
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("error = %v, want ErrProductNotFound", err)
		}
	})
}

func TestGetProduct_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	ttl := time.Hour
	base := time.Now()
	snapshot := &domain.ProductSnapshot{Name: "Refetched"}

	seed := func(fetchedAt time.Time) (*ProductService, *fakeFetcher) {
		store := newFakeStore()
		store.records["333"] = domain.ProductRecord{
			Barcode:   "333",
			Name:      "Original",
			FetchedAt: fetchedAt,
		}
		fetcher := &fakeFetcher{snapshot: snapshot}
		svc := NewProductService(store, fetcher, ProductServiceConfig{TTL: ttl})
		svc.now = func() time.Time { return base }
		return svc, fetcher
	}

	t.Run("fresh one second before expiry", func(t *testing.T) {
		svc, fetcher := seed(base.Add(-ttl + time.Second))

		record, err := svc.GetProduct(ctx, "333")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Name != "Original" || record.Source != domain.SourceCached {
			t.Errorf("record = %+v, want cached original", record)
		}
		if fetcher.callCount() != 0 {
			t.Errorf("fetch calls = %d, want 0", fetcher.callCount())
		}
	})

	t.Run("stale exactly at expiry", func(t *testing.T) {
		svc, fetcher := seed(base.Add(-ttl))

		record, err := svc.GetProduct(ctx, "333")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Name != "Refetched" || record.Source != domain.SourceLive {
			t.Errorf("record = %+v, want refetched live record", record)
		}
		if fetcher.callCount() != 1 {
			t.Errorf("fetch calls = %d, want 1", fetcher.callCount())
		}
	})
}

func TestGetProduct_StaleFallback(t *testing.T) {
	ctx := context.Background()
	ttl := time.Hour

	store := newFakeStore()
	store.records["444"] = domain.ProductRecord{
		Barcode:   "444",
		Name:      "Stale Crackers",
		FetchedAt: time.Now().Add(-2 * ttl),
	}
	fetcher := &fakeFetcher{err: domain.ErrUpstreamUnavailable}
	svc := NewProductService(store, fetcher, ProductServiceConfig{TTL: ttl})

	record, err := svc.GetProduct(ctx, "444")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Name != "Stale Crackers" {
		t.Errorf("Name = %q, want stale record served", record.Name)
	}
	if record.Source != domain.SourceStaleFallback {
		t.Errorf("Source = %q, want stale-fallback", record.Source)
	}

	stats := svc.Stats()
	if stats.RefreshFailures != 1 {
		t.Errorf("RefreshFailures = %d, want exactly 1", stats.RefreshFailures)
	}
}

func TestGetProduct_SingleFlight(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	fetcher := &fakeFetcher{
		snapshot: &domain.ProductSnapshot{Name: "Shared"},
		gate:     gate,
	}
	svc := NewProductService(newFakeStore(), fetcher, ProductServiceConfig{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]*domain.ProductRecord, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetProduct(ctx, "555")
		}(i)
	}

	// Let every goroutine reach the in-flight refresh before releasing it
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := fetcher.callCount(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (single-flight)", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if results[i].Name != "Shared" {
			t.Errorf("request %d got %q", i, results[i].Name)
		}
	}
}

func TestGetProduct_ServeStaleWhileRefresh(t *testing.T) {
	ctx := context.Background()
	ttl := time.Hour

	store := newFakeStore()
	store.records["666"] = domain.ProductRecord{
		Barcode:   "666",
		Name:      "Old Biscuits",
		FetchedAt: time.Now().Add(-2 * ttl),
	}
	fetcher := &fakeFetcher{snapshot: &domain.ProductSnapshot{Name: "New Biscuits"}}
	svc := NewProductService(store, fetcher, ProductServiceConfig{
		TTL:                    ttl,
		ServeStaleWhileRefresh: true,
	})

	record, err := svc.GetProduct(ctx, "666")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Name != "Old Biscuits" {
		t.Errorf("Name = %q, want stale copy served immediately", record.Name)
	}

	// Background refresh lands shortly after
	deadline := time.After(2 * time.Second)
	for {
		rec, err := store.Get(ctx, "666")
		if err == nil && rec.Name == "New Biscuits" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background refresh never updated the store")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
