package fx

import (
	"context"
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Service converts amounts between currencies using stored exchange rates.
type Service struct {
	feed       *FeedClient
	repo       RateRepository
	currencies []string
}

// NewService creates a new currency conversion service. The currency list is
// the set of active reporting currencies; each must be a valid ISO 4217 code.
func NewService(feed *FeedClient, repo RateRepository, currencies []string) (*Service, error) {
	if repo == nil {
		panic("fx: nil rate repository")
	}
	for _, code := range currencies {
		if money.GetCurrency(code) == nil {
			return nil, fmt.Errorf("unknown currency code %q", code)
		}
	}
	return &Service{
		feed:       feed,
		repo:       repo,
		currencies: currencies,
	}, nil
}

// ActiveCurrencies returns the configured reporting currencies.
func (s *Service) ActiveCurrencies() []string {
	return s.currencies
}

// Convert converts an amount between two currencies at the rate in effect on
// the given date. Identical currencies convert 1:1 without a lookup. A stored
// inverse rate is used when no direct rate exists.
func (s *Service) Convert(ctx context.Context, from, to string, amount decimal.Decimal, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	if money.GetCurrency(from) == nil {
		return decimal.Zero, fmt.Errorf("unknown currency code %q", from)
	}
	if money.GetCurrency(to) == nil {
		return decimal.Zero, fmt.Errorf("unknown currency code %q", to)
	}

	rate, err := s.repo.GetRate(ctx, from, to, asOf)
	if err == nil {
		return amount.Mul(rate.Rate), nil
	}

	inverse, invErr := s.repo.GetRate(ctx, to, from, asOf)
	if invErr != nil {
		return decimal.Zero, fmt.Errorf("no rate for %s/%s: %w", from, to, err)
	}
	if inverse.Rate.IsZero() {
		return decimal.Zero, fmt.Errorf("zero inverse rate for %s/%s", to, from)
	}
	return amount.Div(inverse.Rate), nil
}

// RefreshRates fetches the latest rates from the feed for every active
// currency pair and stores them. Rates are stored with each active currency
// as base against every other active currency.
func (s *Service) RefreshRates(ctx context.Context) error {
	if s.feed == nil {
		return fmt.Errorf("no rate feed configured")
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	for _, base := range s.currencies {
		quotes := make([]string, 0, len(s.currencies)-1)
		for _, quote := range s.currencies {
			if quote != base {
				quotes = append(quotes, quote)
			}
		}
		if len(quotes) == 0 {
			continue
		}

		rates, err := s.feed.FetchRates(ctx, base, quotes)
		if err != nil {
			return fmt.Errorf("fetching rates for %s: %w", base, err)
		}
		for quote, rate := range rates {
			if err := s.repo.SaveRate(ctx, base, quote, rate, asOf); err != nil {
				return fmt.Errorf("storing rate %s/%s: %w", base, quote, err)
			}
		}
	}
	return nil
}
