package fx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSourceRates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/USD" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"base":"USD","time_last_updated":1717243200,"rates":{"USD":1,"EUR":0.92,"BRL":5.1}}`)
	}))
	defer srv.Close()

	src := MustNewSource(SourceConfig{BaseURL: srv.URL, Timeout: time.Second})

	page, err := src.Rates(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Rates() error = %v", err)
	}
	if page.Base != "USD" {
		t.Fatalf("base = %q, want USD", page.Base)
	}
	if page.Rates["EUR"] != 0.92 {
		t.Fatalf("EUR rate = %v", page.Rates["EUR"])
	}
	want := time.Unix(1717243200, 0).UTC()
	if !page.UpdatedAt.Equal(want) {
		t.Fatalf("updated at = %v, want %v", page.UpdatedAt, want)
	}
}

func TestSourceRatesProviderError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := MustNewSource(SourceConfig{BaseURL: srv.URL, Timeout: time.Second})

	if _, err := src.Rates(context.Background(), "USD"); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}

func TestSourceRatesMalformedPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"base":"USD","rates":`)
	}))
	defer srv.Close()

	src := MustNewSource(SourceConfig{BaseURL: srv.URL, Timeout: time.Second})

	if _, err := src.Rates(context.Background(), "USD"); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}

func TestSourceRatesEmptyRates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"base":"USD","time_last_updated":1717243200,"rates":{}}`)
	}))
	defer srv.Close()

	src := MustNewSource(SourceConfig{BaseURL: srv.URL, Timeout: time.Second})

	if _, err := src.Rates(context.Background(), "USD"); !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}
}

func TestSourceRatesTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"rates":{"USD":1}}`)
	}))
	defer srv.Close()

	src := MustNewSource(SourceConfig{BaseURL: srv.URL, Timeout: 30 * time.Millisecond})

	if _, err := src.Rates(context.Background(), "USD"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestNewSourceValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewSource(SourceConfig{BaseURL: "  "}); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := NewSource(SourceConfig{BaseURL: "not a url"}); err == nil {
		t.Fatal("expected error for invalid base url")
	}
}
