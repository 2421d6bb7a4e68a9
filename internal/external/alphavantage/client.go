package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/config"
	"github.com/wonny/funddash/pkg/httputil"
	"github.com/wonny/funddash/pkg/logger"
)

const providerName = "alphavantage"

// Client talks to the Alpha Vantage query API. All endpoints share one
// URL and are selected with the function query parameter.
type Client struct {
	cfg        config.ProviderConfig
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewClient creates a new Alpha Vantage client.
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httputil.New(log).DisableRetry(),
		logger:     log.WithField("module", "alphavantage"),
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Limits() quota.Limits {
	return quota.Limits{Daily: c.cfg.DailyLimit, PerMinute: c.cfg.MinuteLimit}
}

func (c *Client) MaxBatchSize() int { return 1 }

func (c *Client) Supports(kind contracts.DataKind) bool {
	switch kind {
	case contracts.KindQuote, contracts.KindFinancials, contracts.KindIndicators:
		return true
	}
	return false
}

// FetchSingle fetches one ticker's data for the request's kind.
func (c *Client) FetchSingle(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult {
	params := url.Values{}
	params.Set("symbol", req.Ticker)
	params.Set("apikey", c.cfg.APIKey)

	switch req.Kind {
	case contracts.KindQuote:
		params.Set("function", "GLOBAL_QUOTE")
	case contracts.KindFinancials:
		params.Set("function", "OVERVIEW")
	case contracts.KindIndicators:
		params.Set("function", "RSI")
		params.Set("interval", "daily")
		params.Set("time_period", "14")
		params.Set("series_type", "close")
	default:
		return contracts.PermanentError(providerName, fmt.Errorf("unsupported kind: %s", req.Kind))
	}

	resp, err := c.httpClient.Get(ctx, c.cfg.BaseURL+"?"+params.Encode())
	if err != nil {
		return contracts.TransientError(providerName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return contracts.RateLimited(providerName, httputil.RetryAfter(resp), fmt.Errorf("rate limited by Alpha Vantage"))
	case resp.StatusCode >= 500:
		return contracts.TransientError(providerName, fmt.Errorf("Alpha Vantage returned status %d", resp.StatusCode))
	default:
		return contracts.PermanentError(providerName, fmt.Errorf("Alpha Vantage returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return contracts.TransientError(providerName, fmt.Errorf("read response body: %w", err))
	}

	payload, err := parseResponse(body)
	if err != nil {
		return contracts.PermanentError(providerName, fmt.Errorf("parse response: %w", err))
	}

	// Alpha Vantage reports throttling as HTTP 200 with a Note or
	// Information message instead of a 429.
	if msg := throttleMessage(payload); msg != "" {
		return contracts.RateLimited(providerName, 0, fmt.Errorf("throttled by Alpha Vantage: %s", msg))
	}
	if msg, ok := payload["Error Message"].(string); ok {
		return contracts.PermanentError(providerName, fmt.Errorf("Alpha Vantage error: %s", msg))
	}
	if len(payload) == 0 {
		return contracts.PermanentError(providerName, fmt.Errorf("no data for %s", req.Ticker))
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": req.Ticker,
		"kind":   string(req.Kind),
	}).Debug("Fetched from Alpha Vantage")
	return contracts.Success(providerName, payload)
}

// FetchBatch always fails: Alpha Vantage has no batch endpoint.
func (c *Client) FetchBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult {
	return contracts.PermanentError(providerName, fmt.Errorf("no batch endpoint"))
}

func parseResponse(body []byte) (contracts.Payload, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	// GLOBAL_QUOTE nests the fields one level down
	if quote, ok := raw["Global Quote"].(map[string]interface{}); ok {
		return contracts.Payload(quote), nil
	}
	return contracts.Payload(raw), nil
}

func throttleMessage(p contracts.Payload) string {
	if msg, ok := p["Note"].(string); ok {
		return msg
	}
	if msg, ok := p["Information"].(string); ok {
		return msg
	}
	return ""
}
