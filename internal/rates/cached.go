package rates

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"kantong/internal/cache"
)

// CachedSource memoizes another Source per currency pair.
type CachedSource struct {
	next  Source
	cache *cache.LRUCache[Rate]
}

func NewCachedSource(next Source, size int, ttl time.Duration, opts ...cache.Option) *CachedSource {
	return &CachedSource{
		next:  next,
		cache: cache.NewLRUCache[Rate](size, ttl, opts...),
	}
}

func (s *CachedSource) GetRate(ctx context.Context, base, quote string) (Rate, error) {
	key := strings.ToUpper(base) + ":" + strings.ToUpper(quote)
	if r, ok := s.cache.Get(key); ok {
		return r, nil
	}

	r, err := s.next.GetRate(ctx, base, quote)
	if err != nil {
		return Rate{}, err
	}
	s.cache.Set(key, r)

	slog.DebugContext(ctx, "Cached exchange rate",
		"pair", key,
		"rate", r.Value.String(),
		"last_updated", r.LastUpdated)

	return r, nil
}

// Cache exposes the underlying cache for periodic sweeping.
func (s *CachedSource) Cache() *cache.LRUCache[Rate] {
	return s.cache
}
