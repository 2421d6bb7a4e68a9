package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/config"
	"github.com/wonny/funddash/pkg/httputil"
	"github.com/wonny/funddash/pkg/logger"
)

const providerName = "fmp"

// batchLimit is the maximum symbols FMP accepts in one quote call.
const batchLimit = 100

// Client talks to the Financial Modeling Prep REST API.
type Client struct {
	cfg        config.ProviderConfig
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewClient creates a new FMP client.
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httputil.New(log).DisableRetry(),
		logger:     log.WithField("module", "fmp"),
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Limits() quota.Limits {
	return quota.Limits{Daily: c.cfg.DailyLimit, PerMinute: c.cfg.MinuteLimit}
}

func (c *Client) MaxBatchSize() int { return batchLimit }

func (c *Client) Supports(kind contracts.DataKind) bool {
	switch kind {
	case contracts.KindProfile, contracts.KindQuote, contracts.KindFinancials, contracts.KindEarnings:
		return true
	}
	return false
}

// FetchSingle fetches one ticker's data for the request's kind.
func (c *Client) FetchSingle(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult {
	path, ok := c.endpoint(req.Kind)
	if !ok {
		return contracts.PermanentError(providerName, fmt.Errorf("unsupported kind: %s", req.Kind))
	}

	url := fmt.Sprintf("%s/%s/%s?apikey=%s", c.cfg.BaseURL, path, req.Ticker, c.cfg.APIKey)
	body, res := c.get(ctx, url)
	if body == nil {
		return res
	}

	payloads, err := parseRows(body)
	if err != nil {
		return contracts.PermanentError(providerName, fmt.Errorf("parse %s response: %w", path, err))
	}
	if len(payloads) == 0 {
		return contracts.PermanentError(providerName, fmt.Errorf("no data for %s", req.Ticker))
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": req.Ticker,
		"kind":   string(req.Kind),
	}).Debug("Fetched from FMP")
	return contracts.Success(providerName, payloads[0])
}

// FetchBatch fetches quote data for up to batchLimit tickers in one call.
// Only quotes have a batch endpoint at FMP.
func (c *Client) FetchBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult {
	if kind != contracts.KindQuote {
		return contracts.PermanentError(providerName, fmt.Errorf("no batch endpoint for kind: %s", kind))
	}
	if len(tickers) > batchLimit {
		tickers = tickers[:batchLimit]
	}

	url := fmt.Sprintf("%s/quote/%s?apikey=%s", c.cfg.BaseURL, strings.Join(tickers, ","), c.cfg.APIKey)
	body, res := c.get(ctx, url)
	if body == nil {
		return res
	}

	payloads, err := parseRows(body)
	if err != nil {
		return contracts.PermanentError(providerName, fmt.Errorf("parse batch response: %w", err))
	}

	batch := make(map[string]contracts.Payload, len(payloads))
	for _, p := range payloads {
		symbol, _ := p["symbol"].(string)
		if symbol != "" {
			batch[symbol] = p
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(tickers),
		"returned":  len(batch),
	}).Debug("Fetched quote batch from FMP")
	return contracts.BatchSuccess(providerName, batch)
}

func (c *Client) endpoint(kind contracts.DataKind) (string, bool) {
	switch kind {
	case contracts.KindProfile:
		return "profile", true
	case contracts.KindQuote:
		return "quote", true
	case contracts.KindFinancials:
		return "ratios-ttm", true
	case contracts.KindEarnings:
		return "earnings-surprises", true
	}
	return "", false
}

// get performs the request and classifies the HTTP outcome. On success
// the raw body is returned and the result is the zero value; on failure
// the body is nil and the result carries the classification.
func (c *Client) get(ctx context.Context, url string) ([]byte, contracts.ProviderResult) {
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, contracts.TransientError(providerName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, contracts.RateLimited(providerName, httputil.RetryAfter(resp), fmt.Errorf("rate limited by FMP"))
	case resp.StatusCode >= 500:
		return nil, contracts.TransientError(providerName, fmt.Errorf("FMP returned status %d", resp.StatusCode))
	default:
		return nil, contracts.PermanentError(providerName, fmt.Errorf("FMP returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.TransientError(providerName, fmt.Errorf("read response body: %w", err))
	}
	return body, contracts.ProviderResult{}
}

// parseRows decodes FMP's usual top-level JSON array of objects.
func parseRows(body []byte) ([]contracts.Payload, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		// Single-object responses appear on a few endpoints
		var single map[string]interface{}
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return nil, err
		}
		rows = []map[string]interface{}{single}
	}

	payloads := make([]contracts.Payload, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, contracts.Payload(row))
	}
	return payloads, nil
}
