package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/config"
	"github.com/wonny/funddash/pkg/httputil"
	"github.com/wonny/funddash/pkg/logger"
)

const providerName = "yahoo"

var requestHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	"Accept":          "text/html,application/xhtml+xml",
	"Accept-Language": "en-US,en;q=0.9",
}

// Client scrapes Yahoo Finance quote pages. Yahoo has no keyed API for
// this data, so responses are parsed out of the page HTML.
type Client struct {
	cfg        config.ProviderConfig
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewClient creates a new Yahoo Finance client.
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httputil.New(log).DisableRetry(),
		logger:     log.WithField("module", "yahoo"),
	}
}

func (c *Client) Name() string { return providerName }

func (c *Client) Limits() quota.Limits {
	return quota.Limits{Daily: c.cfg.DailyLimit, PerMinute: c.cfg.MinuteLimit}
}

func (c *Client) MaxBatchSize() int { return 1 }

func (c *Client) Supports(kind contracts.DataKind) bool {
	return kind == contracts.KindQuote || kind == contracts.KindProfile
}

// FetchSingle scrapes one ticker's quote page.
func (c *Client) FetchSingle(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult {
	if !c.Supports(req.Kind) {
		return contracts.PermanentError(providerName, fmt.Errorf("unsupported kind: %s", req.Kind))
	}

	url := fmt.Sprintf("%s/quote/%s", c.cfg.BaseURL, req.Ticker)
	resp, err := c.httpClient.GetWithHeaders(ctx, url, requestHeaders)
	if err != nil {
		return contracts.TransientError(providerName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return contracts.RateLimited(providerName, httputil.RetryAfter(resp), fmt.Errorf("rate limited by Yahoo"))
	case resp.StatusCode == http.StatusNotFound:
		return contracts.PermanentError(providerName, fmt.Errorf("unknown ticker %s", req.Ticker))
	case resp.StatusCode >= 500:
		return contracts.TransientError(providerName, fmt.Errorf("Yahoo returned status %d", resp.StatusCode))
	default:
		return contracts.PermanentError(providerName, fmt.Errorf("Yahoo returned status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return contracts.TransientError(providerName, fmt.Errorf("parse HTML: %w", err))
	}

	payload := parseQuotePage(doc, req.Ticker)
	if len(payload) == 0 {
		return contracts.PermanentError(providerName, fmt.Errorf("no parseable data for %s", req.Ticker))
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": req.Ticker,
		"fields": len(payload),
	}).Debug("Scraped Yahoo quote page")
	return contracts.Success(providerName, payload)
}

// FetchBatch always fails: one page per ticker.
func (c *Client) FetchBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult {
	return contracts.PermanentError(providerName, fmt.Errorf("no batch endpoint"))
}

// parseQuotePage extracts quote fields from the page. Live values sit in
// fin-streamer elements keyed by data-field; the statistics table below
// the chart carries the rest as label/value pairs.
func parseQuotePage(doc *goquery.Document, ticker string) contracts.Payload {
	payload := contracts.Payload{}

	streamerFields := map[string]string{
		"regularMarketPrice":         "price",
		"regularMarketChangePercent": "change_percent",
		"regularMarketVolume":        "volume",
		"marketCap":                  "market_cap",
	}

	doc.Find(fmt.Sprintf(`fin-streamer[data-symbol=%q]`, ticker)).Each(func(_ int, s *goquery.Selection) {
		field, ok := s.Attr("data-field")
		if !ok {
			return
		}
		name, wanted := streamerFields[field]
		if !wanted {
			return
		}
		raw, ok := s.Attr("data-value")
		if !ok {
			raw = s.Text()
		}
		if v, ok := parseNumber(raw); ok {
			payload[name] = v
		}
	})

	tableFields := map[string]string{
		"PE Ratio (TTM)":    "pe_ratio",
		"EPS (TTM)":         "eps",
		"Avg. Volume":       "avg_volume",
		"Beta (5Y Monthly)": "beta",
	}

	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Find("span").First().Text())
		name, wanted := tableFields[label]
		if !wanted {
			return
		}
		raw := strings.TrimSpace(s.Find("span").Last().Text())
		if v, ok := parseNumber(raw); ok {
			payload[name] = v
		}
	})

	return payload
}

// parseNumber handles Yahoo's display formats: thousands separators and
// K/M/B/T magnitude suffixes.
func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" || raw == "N/A" || raw == "--" {
		return 0, false
	}

	mult := 1.0
	switch raw[len(raw)-1] {
	case 'K':
		mult, raw = 1e3, raw[:len(raw)-1]
	case 'M':
		mult, raw = 1e6, raw[:len(raw)-1]
	case 'B':
		mult, raw = 1e9, raw[:len(raw)-1]
	case 'T':
		mult, raw = 1e12, raw[:len(raw)-1]
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}
