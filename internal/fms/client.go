// Package fms is the HTTP client for the fund-management data plane: the
// injected data-access layer behind every upstream fetch the summary engine
// performs. Timestamps on the wire are RFC 3339; calendar-only values are
// midnight UTC.
package fms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/vantagewealth/summary/internal/domain"
)

// ErrNotFound marks a 404 from the upstream service: the requested entity
// does not exist, as opposed to a transport or server failure.
var ErrNotFound = errors.New("not found")

// Client is an HTTP client for the FMS API with retry on 429.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewClient creates a new FMS API client.
func NewClient(baseURL string, maxRetries int, baseDelay time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// get performs a GET request with retry on 429.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("HTTP 429 at %s (attempt %d/%d)", url, attempt+1, c.maxRetries+1)
			if attempt < c.maxRetries {
				delay := c.baseDelay * time.Duration(1<<uint(attempt))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, lastErr
		}

		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(body))
	}

	return nil, lastErr
}

// getJSON performs a GET request and unmarshals the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing JSON from %s: %w", path, err)
	}
	return nil
}

// Securities fetches reference data for all instruments, keyed by id.
func (c *Client) Securities(ctx context.Context) (map[int]domain.Security, error) {
	var rows []domain.Security
	if err := c.getJSON(ctx, "/v1/securities", &rows); err != nil {
		return nil, fmt.Errorf("fetching securities: %w", err)
	}
	return lo.KeyBy(rows, func(s domain.Security) int { return s.ID }), nil
}

// HoldingSnapshots fetches the holding rows for a portfolio as of a date.
func (c *Client) HoldingSnapshots(ctx context.Context, portfolioID int64, date time.Time) ([]domain.HoldingSnapshot, error) {
	path := fmt.Sprintf("/v1/portfolios/%d/holdings?date=%s", portfolioID, date.Format(domain.DateLayout))
	var rows []domain.HoldingSnapshot
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, fmt.Errorf("fetching holding snapshots: %w", err)
	}
	return rows, nil
}

// NextBusinessDate resolves the next business date after from, offset by days.
func (c *Client) NextBusinessDate(ctx context.Context, from time.Time, offsetDays int) (time.Time, error) {
	path := fmt.Sprintf("/v1/calendar/next-business-date?from=%s&offsetDays=%d",
		from.Format(domain.DateLayout), offsetDays)
	var resp struct {
		Date time.Time `json:"date"`
	}
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return time.Time{}, fmt.Errorf("fetching next business date: %w", err)
	}
	return resp.Date, nil
}

// PortfolioTransactions fetches all completed transactions for a portfolio.
func (c *Client) PortfolioTransactions(ctx context.Context, portfolioID int64) ([]domain.Transaction, error) {
	var rows []domain.Transaction
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/portfolios/%d/transactions", portfolioID), &rows); err != nil {
		return nil, fmt.Errorf("fetching portfolio transactions: %w", err)
	}
	return rows, nil
}

// PortfolioInfo fetches the detailed info record for a portfolio.
func (c *Client) PortfolioInfo(ctx context.Context, portfolioID int64) (domain.PortfolioInfo, error) {
	var info domain.PortfolioInfo
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/portfolios/%d/info", portfolioID), &info); err != nil {
		return domain.PortfolioInfo{}, fmt.Errorf("fetching portfolio info: %w", err)
	}
	return info, nil
}

// InProgressWithdrawals fetches withdrawals still being processed.
func (c *Client) InProgressWithdrawals(ctx context.Context, portfolioID int64) ([]domain.Withdrawal, error) {
	var rows []domain.Withdrawal
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/portfolios/%d/withdrawals/in-progress", portfolioID), &rows); err != nil {
		return nil, fmt.Errorf("fetching in-progress withdrawals: %w", err)
	}
	return rows, nil
}

// HistoricalNavs fetches the end-of-day NAV series in the given currency.
func (c *Client) HistoricalNavs(ctx context.Context, portfolioID int64, currency string) ([]domain.HistoricalNav, error) {
	path := fmt.Sprintf("/v1/portfolios/%d/navs?currency=%s", portfolioID, url.QueryEscape(currency))
	var rows []domain.HistoricalNav
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, fmt.Errorf("fetching historical navs: %w", err)
	}
	return rows, nil
}

// CashRebates fetches the paid cash-rebate rows for a portfolio.
func (c *Client) CashRebates(ctx context.Context, portfolioID int64) ([]domain.CashRebate, error) {
	var rows []domain.CashRebate
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/portfolios/%d/rebates", portfolioID), &rows); err != nil {
		return nil, fmt.Errorf("fetching cash rebates: %w", err)
	}
	return rows, nil
}

// IndicativeNav fetches the provisional intra-day valuation record.
func (c *Client) IndicativeNav(ctx context.Context, portfolioID int64, currency string) (domain.IndicativeNav, error) {
	path := fmt.Sprintf("/v1/portfolios/%d/indicative-nav?currency=%s", portfolioID, url.QueryEscape(currency))
	var nav domain.IndicativeNav
	if err := c.getJSON(ctx, path, &nav); err != nil {
		return domain.IndicativeNav{}, fmt.Errorf("fetching indicative nav: %w", err)
	}
	return nav, nil
}

// AllowedWithdrawalAmounts fetches the withdrawal limit record in the given currency.
func (c *Client) AllowedWithdrawalAmounts(ctx context.Context, portfolioID int64, currency string) (domain.WithdrawableAmounts, error) {
	path := fmt.Sprintf("/v1/portfolios/%d/withdrawable-amounts?currency=%s", portfolioID, url.QueryEscape(currency))
	var limits domain.WithdrawableAmounts
	if err := c.getJSON(ctx, path, &limits); err != nil {
		return domain.WithdrawableAmounts{}, fmt.Errorf("fetching withdrawable amounts: %w", err)
	}
	return limits, nil
}

// CashFlows fetches cash flows in the given states.
func (c *Client) CashFlows(ctx context.Context, portfolioID int64, states []domain.CashFlowState, processType domain.ProcessType) ([]domain.CashFlow, error) {
	stateParams := lo.Map(states, func(s domain.CashFlowState, _ int) string { return string(s) })
	path := fmt.Sprintf("/v1/portfolios/%d/cash-flows?states=%s&processType=%s",
		portfolioID, strings.Join(stateParams, ","), processType)
	var rows []domain.CashFlow
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, fmt.Errorf("fetching cash flows: %w", err)
	}
	return rows, nil
}

// WithdrawalsByID fetches withdrawal records for the given ids, keyed by id.
// An empty id list short-circuits without a network call.
func (c *Client) WithdrawalsByID(ctx context.Context, ids []int64, processType domain.ProcessType) (map[int64]domain.Withdrawal, error) {
	if len(ids) == 0 {
		return map[int64]domain.Withdrawal{}, nil
	}
	idParams := lo.Map(ids, func(id int64, _ int) string { return strconv.FormatInt(id, 10) })
	path := fmt.Sprintf("/v1/withdrawals?ids=%s&processType=%s", strings.Join(idParams, ","), processType)
	var rows []domain.Withdrawal
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, fmt.Errorf("fetching withdrawals by id: %w", err)
	}
	return lo.KeyBy(rows, func(w domain.Withdrawal) int64 { return w.ID }), nil
}

// ManagementFees fetches all management-fee records for the portfolio lifetime.
func (c *Client) ManagementFees(ctx context.Context, portfolioID int64, currency string) ([]domain.ManagementFee, error) {
	path := fmt.Sprintf("/v1/portfolios/%d/management-fees?currency=%s", portfolioID, url.QueryEscape(currency))
	var rows []domain.ManagementFee
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, fmt.Errorf("fetching management fees: %w", err)
	}
	return rows, nil
}

// PagedManagementFees fetches one page of management-fee records without a total.
func (c *Client) PagedManagementFees(ctx context.Context, portfolioID int64, currency string, size, page int) ([]domain.ManagementFee, error) {
	path := fmt.Sprintf("/v1/portfolios/%d/management-fees?currency=%s&size=%d&page=%d",
		portfolioID, url.QueryEscape(currency), size, page)
	var rows []domain.ManagementFee
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, fmt.Errorf("fetching paged management fees: %w", err)
	}
	return rows, nil
}

// PaginatedManagementFees fetches one fee page plus the server-computed grand total.
func (c *Client) PaginatedManagementFees(ctx context.Context, portfolioID int64, currency string, size, page int, includeTotal bool) (domain.FeePage, error) {
	path := fmt.Sprintf("/v1/portfolios/%d/management-fees/paginated?currency=%s&size=%d&page=%d&includeTotal=%t",
		portfolioID, url.QueryEscape(currency), size, page, includeTotal)
	var feePage domain.FeePage
	if err := c.getJSON(ctx, path, &feePage); err != nil {
		return domain.FeePage{}, fmt.Errorf("fetching paginated management fees: %w", err)
	}
	return feePage, nil
}

// TransactionsPrecomputedData fetches the upstream lifetime cash-flow totals.
func (c *Client) TransactionsPrecomputedData(ctx context.Context, portfolioID int64, currency string) (domain.PrecomputedCashFlows, error) {
	path := fmt.Sprintf("/v1/portfolios/%d/transactions/precomputed?currency=%s", portfolioID, url.QueryEscape(currency))
	var pre domain.PrecomputedCashFlows
	if err := c.getJSON(ctx, path, &pre); err != nil {
		return domain.PrecomputedCashFlows{}, fmt.Errorf("fetching precomputed transaction data: %w", err)
	}
	return pre, nil
}

// Portfolio fetches the user portfolio record.
func (c *Client) Portfolio(ctx context.Context, portfolioID int64) (domain.Portfolio, error) {
	var p domain.Portfolio
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/portfolios/%d", portfolioID), &p); err != nil {
		return domain.Portfolio{}, fmt.Errorf("fetching portfolio: %w", err)
	}
	return p, nil
}

// PortfoliosByUser fetches every portfolio of a user, keyed by id. The summary
// engine needs the full set to resolve transfer counterparts.
func (c *Client) PortfoliosByUser(ctx context.Context, userID int64) (map[int64]domain.Portfolio, error) {
	var rows []domain.Portfolio
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/users/%d/portfolios", userID), &rows); err != nil {
		return nil, fmt.Errorf("fetching user portfolios: %w", err)
	}
	return lo.KeyBy(rows, func(p domain.Portfolio) int64 { return p.ID }), nil
}
