package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cryptoalert/internal/core"
)

func testCurrencies() core.CurrencySet {
	return core.NewCurrencySet(map[string]string{
		"BTC": "bitcoin",
		"ETH": "ethereum",
	})
}

func TestFetchAll_MapsSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/simple/price") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		ids := r.URL.Query().Get("ids")
		if ids != "bitcoin,ethereum" {
			t.Errorf("unexpected ids: %s", ids)
		}
		if r.URL.Query().Get("vs_currencies") != "usd" {
			t.Errorf("unexpected vs_currencies: %s", r.URL.Query().Get("vs_currencies"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bitcoin":{"usd":67234.12},"ethereum":{"usd":3456.78}}`))
	}))
	defer srv.Close()

	src := NewWithBaseURL("", srv.URL, testCurrencies())

	prices, err := src.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("expected 2 prices, got %d", len(prices))
	}
	if prices["BTC"].String() != "67234.12" {
		t.Errorf("BTC = %s", prices["BTC"])
	}
	if prices["ETH"].String() != "3456.78" {
		t.Errorf("ETH = %s", prices["ETH"])
	}
}

func TestFetchAll_SendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	src := NewWithBaseURL("demo-key", srv.URL, testCurrencies())
	if _, err := src.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if gotKey != "demo-key" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestFetchAll_NoKeyNoHeader(t *testing.T) {
	var hasHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasHeader = r.Header["X-Cg-Demo-Api-Key"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	src := NewWithBaseURL("", srv.URL, testCurrencies())
	src.FetchAll(context.Background())
	if hasHeader {
		t.Error("header must be absent without a configured key")
	}
}

func TestFetchAll_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewWithBaseURL("", srv.URL, testCurrencies())
	_, err := src.FetchAll(context.Background())
	if !errors.Is(err, core.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestFetchAll_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	src := NewWithBaseURL("", srv.URL, testCurrencies())
	_, err := src.FetchAll(context.Background())
	if !errors.Is(err, core.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestFetchAll_IgnoresUnknownCoins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":50000},"shiba-inu":{"usd":0.00001}}`))
	}))
	defer srv.Close()

	src := NewWithBaseURL("", srv.URL, testCurrencies())
	prices, err := src.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(prices) != 1 {
		t.Errorf("expected only mapped coins, got %v", prices)
	}
}

func TestFetchAll_PartialResponse(t *testing.T) {
	// Provider silently dropping a coin yields a smaller batch, not an error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":50000}}`))
	}))
	defer srv.Close()

	src := NewWithBaseURL("", srv.URL, testCurrencies())
	prices, err := src.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(prices) != 1 {
		t.Errorf("expected 1 price, got %d", len(prices))
	}
}
