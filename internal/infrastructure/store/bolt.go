// Package store implements the domain.ProductStore interface using bbolt
// (embedded B+ tree). One bucket holds JSON-serialized product records keyed
// by barcode. Writes are transactional, so a crash mid-write cannot corrupt
// previously committed records and readers never observe a partial upsert.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allergyscan/backend/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var bucketProducts = []byte("products")

// BoltStore implements domain.ProductStore backed by bbolt
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a bbolt database at the given path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProducts)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get retrieves the record for a barcode.
// Returns domain.ErrCacheMiss when no record exists.
func (s *BoltStore) Get(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := tx.Bucket(bucketProducts).Get([]byte(barcode)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, domain.ErrCacheMiss
	}

	var record domain.ProductRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode record %q: %w", barcode, err)
	}
	return &record, nil
}

// Put upserts the record for its barcode. The write is atomic per key and
// preserves the FetchedAt invariant: an older record never overwrites a
// newer one.
func (s *BoltStore) Put(ctx context.Context, record *domain.ProductRecord) error {
	if record == nil || record.Barcode == "" {
		return fmt.Errorf("%w: record must have a barcode", domain.ErrInvalidRequest)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %q: %w", record.Barcode, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketProducts)
		key := []byte(record.Barcode)

		if v := bucket.Get(key); v != nil {
			var existing domain.ProductRecord
			if err := json.Unmarshal(v, &existing); err == nil && existing.FetchedAt.After(record.FetchedAt) {
				return nil
			}
		}
		return bucket.Put(key, data)
	})
}

// Len returns the number of stored records (for debugging/monitoring)
func (s *BoltStore) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketProducts).Stats().KeyN
		return nil
	})
	return n, err
}
