package fx

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Rate is a stored exchange rate: one unit of Base buys Rate units of Quote,
// valid from AsOf onward until a newer rate supersedes it.
type Rate struct {
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	Rate      decimal.Decimal `json:"rate"`
	AsOf      time.Time       `json:"asOf"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// RateRepository defines persistent storage for exchange rates.
type RateRepository interface {
	SaveRate(ctx context.Context, base, quote string, rate decimal.Decimal, asOf time.Time) error
	GetRate(ctx context.Context, base, quote string, asOf time.Time) (Rate, error)
	GetLatestRates(ctx context.Context) ([]Rate, error)
}

// PgRateRepository implements RateRepository with PostgreSQL.
type PgRateRepository struct {
	pool *pgxpool.Pool
}

// NewPgRateRepository creates a new PostgreSQL rate repository.
func NewPgRateRepository(pool *pgxpool.Pool) *PgRateRepository {
	return &PgRateRepository{pool: pool}
}

func (r *PgRateRepository) SaveRate(ctx context.Context, base, quote string, rate decimal.Decimal, asOf time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fx_rates (base, quote, rate, as_of, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (base, quote, as_of) DO UPDATE SET rate = $3, updated_at = NOW()`,
		base, quote, rate, asOf)
	if err != nil {
		return fmt.Errorf("saving rate %s/%s: %w", base, quote, err)
	}
	return nil
}

func (r *PgRateRepository) GetRate(ctx context.Context, base, quote string, asOf time.Time) (Rate, error) {
	var rate Rate
	err := r.pool.QueryRow(ctx,
		`SELECT base, quote, rate, as_of, updated_at FROM fx_rates
		 WHERE base = $1 AND quote = $2 AND as_of <= $3
		 ORDER BY as_of DESC LIMIT 1`,
		base, quote, asOf).Scan(&rate.Base, &rate.Quote, &rate.Rate, &rate.AsOf, &rate.UpdatedAt)
	if err != nil {
		return Rate{}, fmt.Errorf("getting rate %s/%s: %w", base, quote, err)
	}
	return rate, nil
}

func (r *PgRateRepository) GetLatestRates(ctx context.Context) ([]Rate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (base, quote) base, quote, rate, as_of, updated_at
		 FROM fx_rates ORDER BY base, quote, as_of DESC`)
	if err != nil {
		return nil, fmt.Errorf("getting latest rates: %w", err)
	}
	defer rows.Close()

	var rates []Rate
	for rows.Next() {
		var rate Rate
		if err := rows.Scan(&rate.Base, &rate.Quote, &rate.Rate, &rate.AsOf, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning rate: %w", err)
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}
