package fx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type mockRateRepo struct {
	rates map[string]Rate
	saved []Rate
}

func key(base, quote string) string { return base + "/" + quote }

func (m *mockRateRepo) SaveRate(_ context.Context, base, quote string, rate decimal.Decimal, asOf time.Time) error {
	r := Rate{Base: base, Quote: quote, Rate: rate, AsOf: asOf, UpdatedAt: time.Now()}
	m.rates[key(base, quote)] = r
	m.saved = append(m.saved, r)
	return nil
}

func (m *mockRateRepo) GetRate(_ context.Context, base, quote string, _ time.Time) (Rate, error) {
	r, ok := m.rates[key(base, quote)]
	if !ok {
		return Rate{}, errors.New("no rows in result set")
	}
	return r, nil
}

func (m *mockRateRepo) GetLatestRates(_ context.Context) ([]Rate, error) {
	var out []Rate
	for _, r := range m.rates {
		out = append(out, r)
	}
	return out, nil
}

func newTestService(t *testing.T, repo RateRepository) *Service {
	t.Helper()
	svc, err := NewService(nil, repo, []string{"SGD", "USD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestConvertSameCurrency(t *testing.T) {
	svc := newTestService(t, &mockRateRepo{rates: map[string]Rate{}})

	got, err := svc.Convert(context.Background(), "SGD", "SGD", decimal.RequireFromString("100.00"), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StringFixed(2) != "100.00" {
		t.Errorf("got %s, want 100.00", got.StringFixed(2))
	}
}

func TestConvertDirectRate(t *testing.T) {
	repo := &mockRateRepo{rates: map[string]Rate{
		key("SGD", "USD"): {Base: "SGD", Quote: "USD", Rate: decimal.RequireFromString("0.74")},
	}}
	svc := newTestService(t, repo)

	got, err := svc.Convert(context.Background(), "SGD", "USD", decimal.RequireFromString("100.00"), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StringFixed(2) != "74.00" {
		t.Errorf("got %s, want 74.00", got.StringFixed(2))
	}
}

func TestConvertFallsBackToInverseRate(t *testing.T) {
	repo := &mockRateRepo{rates: map[string]Rate{
		key("SGD", "USD"): {Base: "SGD", Quote: "USD", Rate: decimal.RequireFromString("0.8")},
	}}
	svc := newTestService(t, repo)

	got, err := svc.Convert(context.Background(), "USD", "SGD", decimal.RequireFromString("80.00"), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StringFixed(2) != "100.00" {
		t.Errorf("got %s, want 100.00", got.StringFixed(2))
	}
}

func TestConvertMissingRate(t *testing.T) {
	svc := newTestService(t, &mockRateRepo{rates: map[string]Rate{}})

	_, err := svc.Convert(context.Background(), "SGD", "USD", decimal.NewFromInt(1), time.Now())
	if err == nil {
		t.Error("expected error for missing rate")
	}
}

func TestConvertRejectsUnknownCurrency(t *testing.T) {
	svc := newTestService(t, &mockRateRepo{rates: map[string]Rate{}})

	if _, err := svc.Convert(context.Background(), "XXQ", "USD", decimal.NewFromInt(1), time.Now()); err == nil {
		t.Error("expected error for unknown source currency")
	}
}

func TestNewServiceRejectsUnknownCurrency(t *testing.T) {
	if _, err := NewService(nil, &mockRateRepo{rates: map[string]Rate{}}, []string{"SGD", "NOPE"}); err == nil {
		t.Error("expected error for invalid currency list")
	}
}

func TestRefreshRatesStoresEveryPair(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := r.URL.Query().Get("base")
		w.Header().Set("Content-Type", "application/json")
		switch base {
		case "SGD":
			fmt.Fprint(w, `{"base":"SGD","rates":{"USD":0.74}}`)
		case "USD":
			fmt.Fprint(w, `{"base":"USD","rates":{"SGD":1.35}}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	repo := &mockRateRepo{rates: map[string]Rate{}}
	feed := NewFeedClient(server.URL, 0, 1)
	svc, err := NewService(feed, repo, []string{"SGD", "USD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RefreshRates(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.saved) != 2 {
		t.Fatalf("saved %d rates, want 2", len(repo.saved))
	}
	if repo.rates[key("SGD", "USD")].Rate.StringFixed(2) != "0.74" {
		t.Errorf("SGD/USD = %s, want 0.74", repo.rates[key("SGD", "USD")].Rate)
	}
}

func TestFetchRatesRetryOn429(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"base":"SGD","rates":{"USD":0.74}}`)
	}))
	defer server.Close()

	client := NewFeedClient(server.URL, 10*time.Millisecond, 2)
	rates, err := client.FetchRates(context.Background(), "SGD", []string{"USD"})
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if rates["USD"].StringFixed(2) != "0.74" {
		t.Errorf("USD = %s, want 0.74", rates["USD"])
	}
}
