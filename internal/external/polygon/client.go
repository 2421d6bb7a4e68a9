package polygon

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

const providerName = "polygon"

// Client talks to the Polygon.io REST API.
type Client struct {
	cfg        config.ProviderConfig
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewClient creates a new Polygon client.
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httputil.New(log).DisableRetry(),
		logger:     log.WithField("module", "polygon"),
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Limits() quota.Limits {
	return quota.Limits{Daily: c.cfg.DailyLimit, PerMinute: c.cfg.MinuteLimit}
}

func (c *Client) MaxBatchSize() int { return 1 }

func (c *Client) Supports(kind contracts.DataKind) bool {
	switch kind {
	case contracts.KindProfile, contracts.KindQuote, contracts.KindIndicators:
		return true
	}
	return false
}

// FetchSingle fetches one ticker's data for the request's kind.
func (c *Client) FetchSingle(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult {
	var url string
	switch req.Kind {
	case contracts.KindQuote:
		url = fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true&apiKey=%s", c.cfg.BaseURL, req.Ticker, c.cfg.APIKey)
	case contracts.KindProfile:
		url = fmt.Sprintf("%s/v3/reference/tickers/%s?apiKey=%s", c.cfg.BaseURL, req.Ticker, c.cfg.APIKey)
	case contracts.KindIndicators:
		url = fmt.Sprintf("%s/v1/indicators/rsi/%s?timespan=day&window=14&series_type=close&apiKey=%s", c.cfg.BaseURL, req.Ticker, c.cfg.APIKey)
	default:
		return contracts.PermanentError(providerName, fmt.Errorf("unsupported kind: %s", req.Kind))
	}

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return contracts.TransientError(providerName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return contracts.RateLimited(providerName, httputil.RetryAfter(resp), fmt.Errorf("rate limited by Polygon"))
	case resp.StatusCode >= 500:
		return contracts.TransientError(providerName, fmt.Errorf("Polygon returned status %d", resp.StatusCode))
	default:
		return contracts.PermanentError(providerName, fmt.Errorf("Polygon returned status %d", resp.StatusCode))
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
	}).Debug("Fetched from Polygon")
	return contracts.Success(providerName, payload)
}

// FetchBatch always fails: Polygon serves one ticker per call on the
// endpoints used here.
func (c *Client) FetchBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult {
	return contracts.PermanentError(providerName, fmt.Errorf("no batch endpoint"))
}

// parseResponse unwraps Polygon's envelope. Every endpoint wraps its
// data differently: aggregates under results[], reference data under a
// results object, indicators under results.values[].
func parseResponse(body []byte, kind contracts.DataKind) (contracts.Payload, error) {
	var envelope struct {
		Status  string          `json:"status"`
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Status != "OK" && envelope.Status != "DELAYED" {
		return nil, fmt.Errorf("status %q", envelope.Status)
	}
	if len(envelope.Results) == 0 {
		return contracts.Payload{}, nil
	}

	switch kind {
	case contracts.KindQuote:
		var rows []map[string]interface{}
		if err := json.Unmarshal(envelope.Results, &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return contracts.Payload{}, nil
		}
		return contracts.Payload(rows[0]), nil

	case contracts.KindIndicators:
		var results struct {
			Values []map[string]interface{} `json:"values"`
		}
		if err := json.Unmarshal(envelope.Results, &results); err != nil {
			return nil, err
		}
		if len(results.Values) == 0 {
			return contracts.Payload{}, nil
		}
		return contracts.Payload(results.Values[0]), nil

	default:
		var obj map[string]interface{}
		if err := json.Unmarshal(envelope.Results, &obj); err != nil {
			return nil, err
		}
		return contracts.Payload(obj), nil
	}
}
