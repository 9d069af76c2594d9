package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCacheExpiresByTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](4, time.Minute, WithClock(clock.Now))

	c.Set("USD:IDR", 16000)
	v, ok := c.Get("USD:IDR")
	require.True(t, ok)
	assert.Equal(t, 16000, v)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("USD:IDR")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string](2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	_, _ = c.Get("a")
	c.Set("c", "3")

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestManagerSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Second, WithClock(clock.Now))
	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(time.Minute)
	c.Set("c", 3)

	m := NewManager()
	m.Register("rates", c)
	assert.Equal(t, 2, m.Sweep(context.Background()))
	assert.Equal(t, 1, c.Size())

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx, time.Millisecond)
	cancel()
	m.Wait()
}
