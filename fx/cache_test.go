package fx

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakeFetcher struct {
	mu    sync.Mutex
	rates map[string]float64
	err   error
	delay time.Duration
	calls int
}

func (f *fakeFetcher) Rates(ctx context.Context, base string) (RatesPage, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls++
	err := f.err
	f.mu.Unlock()

	if err != nil {
		return RatesPage{}, err
	}
	return RatesPage{Base: base, Rates: f.rates, UpdatedAt: time.Unix(1717243200, 0).UTC()}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func newTestCache(t *testing.T, fetcher RatesFetcher, at *time.Time) *Cache {
	t.Helper()

	cache, err := NewCache(fetcher, CacheConfig{TTL: 10 * time.Minute}, WithClock(func() time.Time { return *at }))
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	return cache
}

func TestCacheQuoteFreshHit(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1, "EUR": 0.92}}
	cache := newTestCache(t, fetcher, &now)
	ctx := context.Background()

	first, err := cache.Quote(ctx, "USD", "EUR")
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if first.Rate != 0.92 || first.Stale {
		t.Fatalf("unexpected quote %+v", first)
	}

	now = now.Add(9 * time.Minute)
	second, err := cache.Quote(ctx, "USD", "EUR")
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if second.Stale {
		t.Fatal("entry inside its TTL must not be stale")
	}
	if fetcher.callCount() != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", fetcher.callCount())
	}
}

func TestCacheQuoteRefetchesAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1, "EUR": 0.92}}
	cache := newTestCache(t, fetcher, &now)
	ctx := context.Background()

	if _, err := cache.Quote(ctx, "USD", "EUR"); err != nil {
		t.Fatalf("Quote() error = %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := cache.Quote(ctx, "USD", "EUR"); err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Fatalf("expected a refetch after expiry, got %d calls", fetcher.callCount())
	}
}

func TestCacheQuoteStaleFallback(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	fetchedAt := now
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1, "EUR": 0.92}}
	cache := newTestCache(t, fetcher, &now)
	ctx := context.Background()

	if _, err := cache.Quote(ctx, "USD", "EUR"); err != nil {
		t.Fatalf("Quote() error = %v", err)
	}

	now = now.Add(time.Hour)
	fetcher.fail(errors.New("provider down"))

	quote, err := cache.Quote(ctx, "USD", "EUR")
	if err != nil {
		t.Fatalf("expected stale fallback, got error %v", err)
	}
	if !quote.Stale {
		t.Fatal("quote served from an expired entry must be marked stale")
	}
	if quote.Rate != 0.92 {
		t.Fatalf("stale rate = %v, want 0.92", quote.Rate)
	}
	if !quote.FetchedAt.Equal(fetchedAt) {
		t.Fatalf("stale quote must keep the original fetch time, got %v", quote.FetchedAt)
	}
}

func TestCacheQuoteErrorWithoutCache(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{}
	fetcher.fail(errors.New("provider down"))
	cache := newTestCache(t, fetcher, &now)

	if _, err := cache.Quote(context.Background(), "USD", "EUR"); err == nil {
		t.Fatal("expected error when no cached page exists")
	}
}

func TestCacheQuoteUnsupportedCurrency(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1}}
	cache := newTestCache(t, fetcher, &now)
	ctx := context.Background()

	if _, err := cache.Quote(ctx, "XXX", "USD"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency for base, got %v", err)
	}
	if _, err := cache.Quote(ctx, "USD", "XXX"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency for quote, got %v", err)
	}
	if fetcher.callCount() != 0 {
		t.Fatal("unsupported pairs must not reach the provider")
	}
}

func TestCacheQuoteMissingRate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1}}
	cache := newTestCache(t, fetcher, &now)

	if _, err := cache.Quote(context.Background(), "USD", "EUR"); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}

func TestCacheCollapsesConcurrentFetches(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rates: map[string]float64{"USD": 1, "EUR": 0.92}, delay: 50 * time.Millisecond}
	cache := newTestCache(t, fetcher, &now)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Quote(context.Background(), "USD", "EUR"); err != nil {
				t.Errorf("Quote() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if fetcher.callCount() != 1 {
		t.Fatalf("concurrent lookups must collapse into one fetch, got %d", fetcher.callCount())
	}
}

func TestCacheSupportedList(t *testing.T) {
	t.Parallel()

	cache := MustNewCache(&fakeFetcher{rates: map[string]float64{"USD": 1}}, CacheConfig{})

	want := []string{"AUD", "BRL", "CAD", "CHF", "CNY", "EUR", "GBP", "INR", "JPY", "USD"}
	if got := cache.SupportedList(); !reflect.DeepEqual(got, want) {
		t.Fatalf("SupportedList() = %v, want %v", got, want)
	}
	if !cache.Supported("brl") {
		t.Fatal("Supported must be case insensitive")
	}
}
