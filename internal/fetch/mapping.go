package fetch

import (
	"strconv"
	"time"

	"github.com/wonny/funddash/internal/contracts"
)

// Providers spell the same field differently, so each input field maps
// from a list of known payload keys, first match wins. Keys cover FMP,
// Alpha Vantage, Yahoo, Finnhub and Polygon response shapes.

var (
	closeKeys     = []string{"price", "c", "close", "05. price", "regularMarketPrice"}
	volumeKeys    = []string{"volume", "v", "06. volume", "regularMarketVolume"}
	avgVolumeKeys = []string{"avgVolume", "avg_volume", "10DayAverageTradingVolume"}

	peKeys            = []string{"peRatioTTM", "peTTM", "PERatio", "pe_ratio", "pe"}
	pbKeys            = []string{"priceToBookRatioTTM", "pbQuarterly", "PriceToBookRatio", "pb_ratio"}
	roeKeys           = []string{"returnOnEquityTTM", "roeTTM", "ReturnOnEquityTTM", "roe"}
	roaKeys           = []string{"returnOnAssetsTTM", "roaTTM", "ReturnOnAssetsTTM", "roa"}
	debtEquityKeys    = []string{"debtEquityRatioTTM", "totalDebt/totalEquityQuarterly", "debt_to_equity"}
	currentRatioKeys  = []string{"currentRatioTTM", "currentRatioQuarterly", "current_ratio"}
	grossMarginKeys   = []string{"grossProfitMarginTTM", "grossMarginTTM", "GrossProfitTTM", "gross_margin"}
	opMarginKeys      = []string{"operatingProfitMarginTTM", "operatingMarginTTM", "OperatingMarginTTM", "operating_margin"}
	revGrowthKeys     = []string{"revenueGrowthTTM", "revenueGrowthTTMYoy", "QuarterlyRevenueGrowthYOY", "revenue_growth"}
	epsGrowthKeys     = []string{"epsGrowthTTM", "epsGrowthTTMYoy", "QuarterlyEarningsGrowthYOY", "eps_growth"}
	fcfKeys           = []string{"freeCashFlowPerShareTTM", "freeCashFlowTTM", "free_cash_flow"}
	assetTurnoverKeys = []string{"assetTurnoverTTM", "assetTurnoverAnnual", "asset_turnover"}

	ratingKeys     = []string{"rating", "recommendationMean", "consensus_rating"}
	targetKeys     = []string{"priceTargetAverage", "targetMeanPrice", "AnalystTargetPrice", "target_price"}
	countKeys      = []string{"numberOfAnalysts", "numberAnalystOpinions", "analyst_count"}
	surpriseKeys   = []string{"surprisePercent", "surprisePercentage", "surprise_pct"}
	revisionsUp    = []string{"upgrades", "revisions_up"}
	revisionsDown  = []string{"downgrades", "revisions_down"}
	earningsDate   = []string{"earningsDate", "nextEarningsDate", "date", "earnings_date"}
)

// floatField returns the first key present in the payload as a float.
// Numeric strings are accepted; anything else is treated as missing.
func floatField(p contracts.Payload, keys ...string) *float64 {
	for _, key := range keys {
		raw, ok := p[key]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// dateField returns the first key parseable as a date.
func dateField(p contracts.Payload, keys ...string) *time.Time {
	for _, key := range keys {
		raw, ok := p[key].(string)
		if !ok {
			continue
		}
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(layout, raw); err == nil {
				return &t
			}
		}
	}
	return nil
}

// mapTechnical folds a quote payload and an indicator payload into one
// input row. Either payload may be nil.
func mapTechnical(ticker string, date time.Time, quote, indicators contracts.Payload) *contracts.TechnicalInputs {
	in := &contracts.TechnicalInputs{Ticker: ticker, Date: date}
	if quote != nil {
		in.Close = floatField(quote, closeKeys...)
		in.Volume = floatField(quote, volumeKeys...)
		in.AvgVolume20 = floatField(quote, avgVolumeKeys...)
	}
	if indicators != nil {
		in.RSI14 = floatField(indicators, "value", "rsi", "RSI")
		in.SMA50 = floatField(indicators, "sma50", "priceAvg50")
		in.SMA200 = floatField(indicators, "sma200", "priceAvg200")
	}
	return in
}

func mapFundamentals(ticker string, date time.Time, p contracts.Payload) *contracts.FundamentalInputs {
	return &contracts.FundamentalInputs{
		Ticker:          ticker,
		Date:            date,
		PERatio:         floatField(p, peKeys...),
		PBRatio:         floatField(p, pbKeys...),
		ROE:             floatField(p, roeKeys...),
		ROA:             floatField(p, roaKeys...),
		DebtToEquity:    floatField(p, debtEquityKeys...),
		CurrentRatio:    floatField(p, currentRatioKeys...),
		GrossMargin:     floatField(p, grossMarginKeys...),
		OperatingMargin: floatField(p, opMarginKeys...),
		RevenueGrowth:   floatField(p, revGrowthKeys...),
		EPSGrowth:       floatField(p, epsGrowthKeys...),
		FreeCashFlow:    floatField(p, fcfKeys...),
		AssetTurnover:   floatField(p, assetTurnoverKeys...),
	}
}

func mapAnalyst(ticker string, earnings, quote contracts.Payload) *contracts.AnalystInputs {
	in := &contracts.AnalystInputs{Ticker: ticker}
	if earnings != nil {
		in.ConsensusRating = floatField(earnings, ratingKeys...)
		in.TargetPrice = floatField(earnings, targetKeys...)
		in.AnalystCount = floatField(earnings, countKeys...)
		in.LastSurprisePct = floatField(earnings, surpriseKeys...)
		in.RevisionsUp = floatField(earnings, revisionsUp...)
		in.RevisionsDown = floatField(earnings, revisionsDown...)
		in.NextEarningsDate = dateField(earnings, earningsDate...)
	}
	if quote != nil {
		in.CurrentPrice = floatField(quote, closeKeys...)
	}
	return in
}
