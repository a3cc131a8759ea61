package fx

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	metricsx "github.com/agilbank/teller/pkg/metrics"
)

// ErrUnsupportedCurrency signals a currency code outside the supported set.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// DefaultCurrencies is the supported set when no override is configured.
var DefaultCurrencies = []string{"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "INR", "BRL"}

const defaultCacheTTL = 10 * time.Minute

type CacheConfig struct {
	TTL        time.Duration `split_words:"true" default:"10m"`
	Currencies []string      `split_words:"true"`
}

// RatesFetcher is the upstream the cache reads through. *Source satisfies it.
type RatesFetcher interface {
	Rates(ctx context.Context, base string) (RatesPage, error)
}

var _ RatesFetcher = (*Source)(nil)

// Quote is one resolved conversion rate. Stale marks a rate served from an
// expired cache entry because the provider could not be reached.
type Quote struct {
	Base      string
	Quote     string
	Rate      float64
	FetchedAt time.Time
	Stale     bool
}

type cacheEntry struct {
	page      RatesPage
	fetchedAt time.Time
}

// Cache is a read-through rate cache keyed by base currency. Concurrent
// lookups for the same base collapse into a single upstream fetch.
type Cache struct {
	fetcher   RatesFetcher
	ttl       time.Duration
	supported map[string]bool
	now       func() time.Time

	group singleflight.Group

	mu    sync.RWMutex
	pages map[string]cacheEntry
}

type CacheOption func(*Cache)

// WithClock swaps the time source, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCache(fetcher RatesFetcher, cfg CacheConfig, opts ...CacheOption) (*Cache, error) {
	if fetcher == nil {
		return nil, errors.New("rates fetcher is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	currencies := cfg.Currencies
	if len(currencies) == 0 {
		currencies = DefaultCurrencies
	}
	supported := make(map[string]bool, len(currencies))
	for _, code := range currencies {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			supported[code] = true
		}
	}
	if len(supported) == 0 {
		return nil, errors.New("supported currency set is empty")
	}

	c := &Cache{
		fetcher:   fetcher,
		ttl:       ttl,
		supported: supported,
		now:       time.Now,
		pages:     make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func MustNewCache(fetcher RatesFetcher, cfg CacheConfig, opts ...CacheOption) *Cache {
	c, err := NewCache(fetcher, cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Supported reports whether a currency code is in the supported set.
func (c *Cache) Supported(code string) bool {
	return c.supported[strings.ToUpper(strings.TrimSpace(code))]
}

// SupportedList returns the supported currency codes in alphabetical order.
func (c *Cache) SupportedList() []string {
	out := make([]string, 0, len(c.supported))
	for code := range c.supported {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Quote resolves the rate for one currency pair. A fresh cache entry answers
// directly; otherwise the page is fetched, and when the fetch fails an
// expired entry is served with Stale set rather than failing the lookup.
func (c *Cache) Quote(ctx context.Context, base, quote string) (Quote, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))

	if !c.supported[base] {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, base)
	}
	if !c.supported[quote] {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, quote)
	}

	if entry, ok := c.freshEntry(base); ok {
		metricsx.RateLookupsTotal.WithLabelValues("hit").Inc()
		return c.buildQuote(entry, base, quote, false)
	}

	entry, err := c.fetchPage(ctx, base)
	if err != nil {
		if stale, ok := c.anyEntry(base); ok {
			metricsx.RateLookupsTotal.WithLabelValues("stale").Inc()
			return c.buildQuote(stale, base, quote, true)
		}
		metricsx.RateLookupsTotal.WithLabelValues("error").Inc()
		return Quote{}, err
	}

	metricsx.RateLookupsTotal.WithLabelValues("miss").Inc()
	return c.buildQuote(entry, base, quote, false)
}

func (c *Cache) freshEntry(base string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.pages[base]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *Cache) anyEntry(base string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.pages[base]
	return entry, ok
}

// fetchPage collapses concurrent fetches for the same base into one upstream
// call; every waiter receives the same page or the same error.
func (c *Cache) fetchPage(ctx context.Context, base string) (cacheEntry, error) {
	v, err, _ := c.group.Do(base, func() (any, error) {
		page, err := c.fetcher.Rates(ctx, base)
		if err != nil {
			return nil, err
		}

		entry := cacheEntry{page: page, fetchedAt: c.now()}
		c.mu.Lock()
		c.pages[base] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return cacheEntry{}, err
	}
	return v.(cacheEntry), nil
}

func (c *Cache) buildQuote(entry cacheEntry, base, quote string, stale bool) (Quote, error) {
	rate, ok := entry.page.Rates[quote]
	if !ok {
		return Quote{}, fmt.Errorf("%w: provider lists no %s rate for %s", ErrRateUnavailable, quote, base)
	}
	return Quote{
		Base:      base,
		Quote:     quote,
		Rate:      rate,
		FetchedAt: entry.fetchedAt,
		Stale:     stale,
	}, nil
}
