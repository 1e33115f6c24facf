package tradier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xhhuango/json"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.tradier.com"

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(2), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetQuote returns the latest quote for one symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	q := url.Values{}
	q.Set("symbols", symbol)

	quotes := &Quotes{}
	if err := c.get(ctx, "/v1/markets/quotes", q, quotes); err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	for _, quote := range quotes.Quotes.Quote {
		if strings.EqualFold(quote.Symbol, symbol) {
			quote := quote
			return &quote, nil
		}
	}
	return nil, fmt.Errorf("quote %s: symbol not found", symbol)
}

// GetHistory returns OHLC bars between start and end (2006-01-02) at the given
// interval (daily, weekly, monthly).
func (c *Client) GetHistory(ctx context.Context, symbol, start, end, interval string) (*QuoteHistory, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("start", start)
	q.Set("end", end)
	q.Set("session_filter", "all")

	history := &QuoteHistory{}
	if err := c.get(ctx, "/v1/markets/history", q, history); err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	return history, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Add("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response data: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(responseData)))
	}

	if err := json.Unmarshal(responseData, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}
