// Package rates fetches exchange rates from an external HTTP API. Rates are
// only consulted when a transaction is recorded; stored amounts never need one.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL serves {"result":"success","rates":{...}} documents at /latest/{BASE}.
const DefaultBaseURL = "https://open.er-api.com/v6"

var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Rate is the price of one unit of the base currency in the quote currency.
type Rate struct {
	Base        string
	Quote       string
	Value       decimal.Decimal
	LastUpdated time.Time
}

// Source looks up a rate between two ISO currency codes.
type Source interface {
	GetRate(ctx context.Context, base, quote string) (Rate, error)
}

// HTTPSource queries a latest-rates endpoint.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type latestResponse struct {
	Result             string                     `json:"result"`
	ErrorType          string                     `json:"error-type"`
	TimeLastUpdateUnix int64                      `json:"time_last_update_unix"`
	Rates              map[string]decimal.Decimal `json:"rates"`
}

func (s *HTTPSource) GetRate(ctx context.Context, base, quote string) (Rate, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return Rate{}, fmt.Errorf("%w: currency codes are required", ErrRateUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/latest/"+base, nil)
	if err != nil {
		return Rate{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Rate{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("%w: rates API error (status %d): %s", ErrRateUnavailable, resp.StatusCode, string(body))
	}

	var doc latestResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return Rate{}, fmt.Errorf("%w: decode response: %v", ErrRateUnavailable, err)
	}
	if doc.Result != "success" {
		return Rate{}, fmt.Errorf("%w: rates API returned %q (%s)", ErrRateUnavailable, doc.Result, doc.ErrorType)
	}

	value, ok := doc.Rates[quote]
	if !ok || !value.IsPositive() {
		return Rate{}, fmt.Errorf("%w: no %s rate for %s", ErrRateUnavailable, quote, base)
	}

	return Rate{
		Base:        base,
		Quote:       quote,
		Value:       value,
		LastUpdated: time.Unix(doc.TimeLastUpdateUnix, 0).UTC(),
	}, nil
}
