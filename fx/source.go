// Package fx provides currency exchange rates: a thin HTTP client for the
// public rate provider plus a read-through cache with stale fallback.
package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrRateUnavailable signals that the provider answered badly or not at
	// all and no usable rate could be produced.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	// ErrTimeout signals that the provider did not answer within the
	// configured deadline.
	ErrTimeout = errors.New("exchange rate lookup timed out")
)

type SourceConfig struct {
	BaseURL string        `split_words:"true" default:"https://api.exchangerate-api.com/v4/latest"`
	Timeout time.Duration `split_words:"true" default:"5s"`
}

// RatesPage is one provider response: every known quote for a single base
// currency, tagged with the provider's last update time.
type RatesPage struct {
	Base      string
	Rates     map[string]float64
	UpdatedAt time.Time
}

type ratePayload struct {
	Base            string             `json:"base"`
	TimeLastUpdated int64              `json:"time_last_updated"`
	Rates           map[string]float64 `json:"rates"`
}

// Source fetches rate pages from the upstream provider.
type Source struct {
	baseURL    string
	httpClient *http.Client
}

type SourceOption func(*Source)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) SourceOption {
	return func(s *Source) {
		if client != nil {
			s.httpClient = client
		}
	}
}

func NewSource(cfg SourceConfig, opts ...SourceOption) (*Source, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("rate provider base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	src := &Source{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(src)
	}
	return src, nil
}

func MustNewSource(cfg SourceConfig, opts ...SourceOption) *Source {
	src, err := NewSource(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return src
}

// Rates fetches the full quote page for one base currency.
func (s *Source) Rates(ctx context.Context, base string) (RatesPage, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return RatesPage{}, fmt.Errorf("%w: base currency is empty", ErrRateUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+base, nil)
	if err != nil {
		return RatesPage{}, fmt.Errorf("%w: build request: %v", ErrRateUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return RatesPage{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return RatesPage{}, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RatesPage{}, fmt.Errorf("%w: provider returned status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var payload ratePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RatesPage{}, fmt.Errorf("%w: malformed payload: %v", ErrRateUnavailable, err)
	}
	if len(payload.Rates) == 0 {
		return RatesPage{}, fmt.Errorf("%w: provider returned no rates for %s", ErrRateUnavailable, base)
	}

	return RatesPage{
		Base:      base,
		Rates:     payload.Rates,
		UpdatedAt: time.Unix(payload.TimeLastUpdated, 0).UTC(),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
