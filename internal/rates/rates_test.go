package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kantong/internal/cache"
)

func newRatesServer(t *testing.T, calls *int32, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/latest/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const successBody = `{"result":"success","time_last_update_unix":1762732800,"rates":{"USD":1,"IDR":16250.5,"EUR":0.86}}`

func TestHTTPSourceGetRate(t *testing.T) {
	var calls int32
	srv := newRatesServer(t, &calls, http.StatusOK, successBody)

	src := NewHTTPSource(srv.URL, time.Second)
	r, err := src.GetRate(context.Background(), "usd", "idr")
	require.NoError(t, err)

	assert.Equal(t, "USD", r.Base)
	assert.Equal(t, "IDR", r.Quote)
	assert.True(t, r.Value.Equal(decimal.RequireFromString("16250.5")))
	assert.Equal(t, time.Unix(1762732800, 0).UTC(), r.LastUpdated)
}

func TestHTTPSourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		quote  string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, quote: "IDR"},
		{name: "api failure", status: http.StatusOK, body: `{"result":"error","error-type":"unsupported-code"}`, quote: "IDR"},
		{name: "missing quote", status: http.StatusOK, body: successBody, quote: "JPY"},
		{name: "malformed json", status: http.StatusOK, body: `{"result":`, quote: "IDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := newRatesServer(t, &calls, tt.status, tt.body)
			_, err := NewHTTPSource(srv.URL, time.Second).GetRate(context.Background(), "USD", tt.quote)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrRateUnavailable)
		})
	}
}

func TestCachedSourceServesRepeatedPairsFromCache(t *testing.T) {
	var calls int32
	srv := newRatesServer(t, &calls, http.StatusOK, successBody)

	now := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	src := NewCachedSource(NewHTTPSource(srv.URL, time.Second), 8, time.Hour, cache.WithClock(clock))

	for i := 0; i < 3; i++ {
		_, err := src.GetRate(context.Background(), "USD", "IDR")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	now = now.Add(2 * time.Hour)
	_, err := src.GetRate(context.Background(), "USD", "IDR")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
