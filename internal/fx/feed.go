package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeedClient fetches spot exchange rates from the upstream rate feed.
type FeedClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewFeedClient creates a new rate feed client.
func NewFeedClient(baseURL string, delay time.Duration, maxRetries int) *FeedClient {
	return &FeedClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// FetchRates fetches the latest rates from the given base into each quote
// currency. Returns a map of quote -> rate.
func (c *FeedClient) FetchRates(ctx context.Context, base string, quotes []string) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/latest?base=%s&symbols=%s", c.baseURL, base, strings.Join(quotes, ","))

	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	// Parse: {"base":"SGD","rates":{"USD":0.74,"EUR":0.68}}
	var raw struct {
		Base  string                     `json:"base"`
		Rates map[string]decimal.Decimal `json:"rates"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing rate feed response: %w", err)
	}

	result := make(map[string]decimal.Decimal, len(quotes))
	for _, quote := range quotes {
		rate, ok := raw.Rates[quote]
		if !ok {
			continue
		}
		result[quote] = rate
	}

	return result, nil
}

func (c *FeedClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating rate feed request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("rate feed request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading rate feed response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate feed rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("rate feed HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
