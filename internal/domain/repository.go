package domain

import "context"

// ProductStore defines the interface for the persistent product cache.
// Upserts are atomic per barcode; only the cache coordinator mutates it.
type ProductStore interface {
	Get(ctx context.Context, barcode string) (*ProductRecord, error)
	Put(ctx context.Context, record *ProductRecord) error
	Close() error
}

// ProductFetcher defines the interface for the external product lookup
type ProductFetcher interface {
	Fetch(ctx context.Context, barcode string) (*ProductSnapshot, error)
}
