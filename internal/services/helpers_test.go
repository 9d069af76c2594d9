package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"kantong/internal/amqp"
	"kantong/internal/core"
	"kantong/internal/rates"
	"kantong/internal/storage"
	"kantong/internal/storage/memory"
)

var wib = time.FixedZone("WIB", 7*60*60)

type testEnv struct {
	repo       *storage.Repository
	aggregator *Aggregator
	pockets    *PocketRegistry
	ledger     *Ledger
	publisher  *recordingPublisher
	now        time.Time
}

type envOption func(*envConfig)

type envConfig struct {
	rates     rates.Source
	publisher *recordingPublisher
	wrapKV    func(storage.KV) storage.KV
}

func withRates(src rates.Source) envOption {
	return func(c *envConfig) { c.rates = src }
}

func withKV(wrap func(storage.KV) storage.KV) envOption {
	return func(c *envConfig) { c.wrapKV = wrap }
}

func withFailingPublisher() envOption {
	return func(c *envConfig) { c.publisher = &recordingPublisher{err: errors.New("broker down")} }
}

// newTestEnv wires the services over an in-memory store with "now" pinned
// to 2025-11-10 08:00 WIB and sequential ids.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{publisher: &recordingPublisher{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	env := &testEnv{now: time.Date(2025, 11, 10, 8, 0, 0, 0, wib)}
	clock := func() time.Time { return env.now }

	var kv storage.KV = memory.New()
	if cfg.wrapKV != nil {
		kv = cfg.wrapKV(kv)
	}

	var seq int
	env.repo = storage.NewRepository(kv,
		storage.WithClock(clock),
		storage.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%04d", seq)
		}))
	env.aggregator = NewAggregator(env.repo, WithAggregatorClock(clock), WithLocation(wib))
	env.pockets = NewPocketRegistry(env.repo, env.aggregator)

	ledgerOpts := []LedgerOption{WithPublisher(cfg.publisher)}
	if cfg.rates != nil {
		ledgerOpts = append(ledgerOpts, WithRateSource(cfg.rates))
	}
	env.ledger = NewLedger(env.repo, env.pockets, env.aggregator, ledgerOpts...)
	env.publisher = cfg.publisher
	return env
}

func idr(amount int64) *decimal.Decimal {
	d := decimal.NewFromInt(amount)
	return &d
}

func input(name string, amount int64, date string, pocketID string) core.TransactionInput {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.TransactionInput{
		Name:     name,
		Amount:   idr(amount),
		Date:     d,
		PocketID: pocketID,
	}
}

func transferInput(amount int64, date, from, to string) core.TransactionInput {
	in := input("Pindah dana", amount, date, from)
	in.ToPocketID = to
	return in
}

func (e *testEnv) mustCreatePocket(t *testing.T, name string) core.Pocket {
	t.Helper()
	p, err := e.pockets.Create(context.Background(), core.PocketDraft{Name: name})
	require.NoError(t, err)
	return p
}

func (e *testEnv) mustBalance(t *testing.T, pocketID string, month core.MonthKey) core.PocketBalance {
	t.Helper()
	b, err := e.aggregator.ComputeBalance(context.Background(), pocketID, month)
	require.NoError(t, err)
	return b
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, evt *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *evt)
	return nil
}

func (p *recordingPublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Op)
	}
	return out
}

type fixedRates struct {
	value decimal.Decimal
	err   error
	calls int
}

func (f *fixedRates) GetRate(_ context.Context, base, quote string) (rates.Rate, error) {
	f.calls++
	if f.err != nil {
		return rates.Rate{}, f.err
	}
	return rates.Rate{Base: base, Quote: quote, Value: f.value}, nil
}

// countingKV counts Get calls per key prefix.
type countingKV struct {
	storage.KV
	mu   sync.Mutex
	gets map[string]int
}

func (c *countingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	if c.gets == nil {
		c.gets = map[string]int{}
	}
	c.gets[key]++
	c.mu.Unlock()
	return c.KV.Get(ctx, key)
}

func (c *countingKV) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets[key]
}
