package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/config"
	"github.com/wonny/funddash/pkg/httputil"
	"github.com/wonny/funddash/pkg/logger"
)

const providerName = "finnhub"

// Client talks to the Finnhub REST API. Authentication is the
// X-Finnhub-Token header.
type Client struct {
	cfg        config.ProviderConfig
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewClient creates a new Finnhub client.
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httputil.New(log).DisableRetry(),
		logger:     log.WithField("module", "finnhub"),
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Limits() quota.Limits {
	return quota.Limits{Daily: c.cfg.DailyLimit, PerMinute: c.cfg.MinuteLimit}
}

func (c *Client) MaxBatchSize() int { return 1 }

func (c *Client) Supports(kind contracts.DataKind) bool {
	switch kind {
	case contracts.KindProfile, contracts.KindQuote, contracts.KindFinancials, contracts.KindEarnings:
		return true
	}
	return false
}

// FetchSingle fetches one ticker's data for the request's kind.
func (c *Client) FetchSingle(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult {
	var url string
	switch req.Kind {
	case contracts.KindQuote:
		url = fmt.Sprintf("%s/quote?symbol=%s", c.cfg.BaseURL, req.Ticker)
	case contracts.KindProfile:
		url = fmt.Sprintf("%s/stock/profile2?symbol=%s", c.cfg.BaseURL, req.Ticker)
	case contracts.KindFinancials:
		url = fmt.Sprintf("%s/stock/metric?symbol=%s&metric=all", c.cfg.BaseURL, req.Ticker)
	case contracts.KindEarnings:
		url = fmt.Sprintf("%s/stock/earnings?symbol=%s", c.cfg.BaseURL, req.Ticker)
	default:
		return contracts.PermanentError(providerName, fmt.Errorf("unsupported kind: %s", req.Kind))
	}

	headers := map[string]string{"X-Finnhub-Token": c.cfg.APIKey}
	resp, err := c.httpClient.GetWithHeaders(ctx, url, headers)
	if err != nil {
		return contracts.TransientError(providerName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return contracts.RateLimited(providerName, httputil.RetryAfter(resp), fmt.Errorf("rate limited by Finnhub"))
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return contracts.PermanentError(providerName, fmt.Errorf("Finnhub rejected credentials: status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return contracts.TransientError(providerName, fmt.Errorf("Finnhub returned status %d", resp.StatusCode))
	default:
		return contracts.PermanentError(providerName, fmt.Errorf("Finnhub returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return contracts.TransientError(providerName, fmt.Errorf("read response body: %w", err))
	}

	payload, err := parseResponse(body, req.Kind)
	if err != nil {
		return contracts.PermanentError(providerName, fmt.Errorf("parse response: %w", err))
	}
	if len(payload) == 0 {
		return contracts.PermanentError(providerName, fmt.Errorf("no data for %s", req.Ticker))
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": req.Ticker,
		"kind":   string(req.Kind),
	}).Debug("Fetched from Finnhub")
	return contracts.Success(providerName, payload)
}

// FetchBatch always fails: Finnhub has no batch endpoint.
func (c *Client) FetchBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult {
	return contracts.PermanentError(providerName, fmt.Errorf("no batch endpoint"))
}

func parseResponse(body []byte, kind contracts.DataKind) (contracts.Payload, error) {
	// The earnings endpoint returns an array of quarterly surprises,
	// newest first. Keep the full history under one key.
	if kind == contracts.KindEarnings {
		var rows []map[string]interface{}
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return contracts.Payload{}, nil
		}
		p := contracts.Payload{"surprises": rows}
		for k, v := range rows[0] {
			p[k] = v
		}
		return p, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	// The metric endpoint nests the useful fields under "metric"
	if metric, ok := raw["metric"].(map[string]interface{}); ok {
		return contracts.Payload(metric), nil
	}
	return contracts.Payload(raw), nil
}
