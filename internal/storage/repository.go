package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository exposes one method set per entity kind on top of a KV backend.
type Repository struct {
	kv    KV
	now   func() time.Time
	newID func() string
}

// Option customizes a Repository.
type Option func(*Repository)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) {
		r.newID = gen
	}
}

func NewRepository(kv KV, opts ...Option) *Repository {
	r := &Repository{
		kv:    kv,
		now:   time.Now,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewID returns a time-ordered UUIDv7 so that key order follows creation order
// on sorted backends. It falls back to a random UUID if the clock source fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Now returns the repository clock reading, used for audit timestamps.
func (r *Repository) Now() time.Time {
	return r.now()
}

func (r *Repository) getJSON(ctx context.Context, key string, out any) (bool, error) {
	data, found, err := r.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) putJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func scanJSON[T any](ctx context.Context, kv KV, prefix string) ([]T, error) {
	entries, err := kv.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
