package pnlkit

import (
	"context"
	"time"

	"github.com/pnlkit/pnlkit/date"
)

// Interval is the sampling granularity of a historical series.
type Interval string

const (
	IntervalDay Interval = "day"
)

// Exchange identifies a trading venue by its ISO-10383 operating MIC.
type Exchange string

// SearchResult is one match of a security search. The first result of a
// search is authoritative for resolving an ISIN to its primary listing.
type SearchResult struct {
	Name     string
	Exchange Exchange
	Ticker   string
}

// Quote is a price observation: an amount in minor units of a currency at an
// instant.
type Quote struct {
	Currency Currency
	Amount   int64
	Time     time.Time
}

// RateQuote is an FX rate observation.
type RateQuote struct {
	Time time.Time
	Rate float64
}

// HistoricalPrices is a per-day OHLC series in a single currency.
type HistoricalPrices struct {
	Currency Currency
	Days     map[date.Date]OHLC
}

// Split is a multiplicative share-count adjustment effective at Time.
// Holders of N shares before Time hold N*Ratio after it.
type Split struct {
	Time  time.Time `json:"time"`
	Ratio float64   `json:"split"`
}

// Searcher finds securities by free-text term or ISIN.
type Searcher interface {
	Search(ctx context.Context, term string) ([]SearchResult, error)
}

// PriceSource serves historical security prices by listing.
type PriceSource interface {
	// PriceAtClose returns the closing price on the trading day at or before t.
	// Weekend and holiday gaps resolve to the nearest prior close, never a
	// later one.
	PriceAtClose(ctx context.Context, exchange Exchange, ticker string, t time.Time, adjustedForSplits bool) (Quote, error)
	// HistoricalPrices returns the per-day closing series over [start, end].
	HistoricalPrices(ctx context.Context, exchange Exchange, ticker string, start, end time.Time, interval Interval, adjustedForSplits bool) (HistoricalPrices, error)
}

// FXSource serves historical currency exchange rates.
type FXSource interface {
	// ExchangeRateAtClose returns the closing rate on the trading day at or
	// before t, with the same backward gap-filling policy as PriceAtClose.
	ExchangeRateAtClose(ctx context.Context, from, to Currency, t time.Time) (RateQuote, error)
	// HistoricalExchangeRate returns the per-day rate series over [start, end].
	HistoricalExchangeRate(ctx context.Context, from, to Currency, start, end time.Time, interval Interval) (map[date.Date]OHLC, error)
}

// SplitSource serves stock split history by listing.
type SplitSource interface {
	StockSplits(ctx context.Context, start, end time.Time, exchange Exchange, ticker string) ([]Split, error)
}

// MarketSource is the full market-data collaborator contract consumed by the
// resolver. A single provider usually implements all of it.
type MarketSource interface {
	Searcher
	PriceSource
	FXSource
	SplitSource
}
