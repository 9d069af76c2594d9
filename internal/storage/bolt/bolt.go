// Package bolt is a bbolt-backed KV store. Keys live in a single bucket and
// prefix scans walk a cursor, so entries come back in byte-wise key order.
package bolt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"kantong/internal/storage"
)

// BucketLedger holds every ledger key.
const BucketLedger = "ledger"

// Store represents the bbolt database wrapper.
type Store struct {
	db *bbolt.DB
}

var _ storage.KV = (*Store)(nil)

// Open creates or opens the database file and initializes the bucket.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BucketLedger)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketLedger, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := ledgerBucket(tx)
		if err != nil {
			return err
		}
		if data := b.Get([]byte(key)); data != nil {
			// Copy the value since it's only valid during the transaction.
			value = bytes.Clone(data)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := ledgerBucket(tx)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

func (s *Store) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := ledgerBucket(tx)
		if err != nil {
			return err
		}
		return b.Delete([]byte(key))
	})
}

func (s *Store) GetByPrefix(ctx context.Context, prefix string) ([]storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var results []storage.Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := ledgerBucket(tx)
		if err != nil {
			return err
		}
		p := []byte(prefix)
		c := b.Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			results = append(results, storage.Entry{Key: string(k), Value: bytes.Clone(v)})
		}
		return nil
	})
	return results, err
}

func ledgerBucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(BucketLedger))
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", BucketLedger)
	}
	return b, nil
}
