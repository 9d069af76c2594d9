// Package storage encapsulates the flat key-value layout of the ledger.
//
// All entities live in one key space. Per-month collections share a
// "{kind}:{YYYY-MM}:" prefix, so listing a month is a single prefix scan; that
// convention is owned by this package and nowhere else.
package storage

import "context"

type (
	// Entry is a key with its raw value as returned by a prefix scan.
	Entry struct {
		Key   string
		Value []byte
	}

	// KV is the backend contract. Get reports absence with found=false, Del of
	// an absent key is not an error, and GetByPrefix returns entries in the
	// backend's natural order.
	KV interface {
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		Set(ctx context.Context, key string, value []byte) error
		Del(ctx context.Context, key string) error
		GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
	}
)
