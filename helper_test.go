package pnlkit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pnlkit/pnlkit/cache"
	"github.com/pnlkit/pnlkit/date"
)

// day returns midnight UTC of day n of January 2024, the test calendar.
func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func deposit(n int, amount int64, cur Currency) Transaction {
	return NewCashTx(day(n), M(amount, cur))
}

func buy(n int, isin string, shares float64, total int64, cur Currency) Transaction {
	return NewSecurityTx(day(n), M(-total, cur), Security{ISIN: isin}, shares)
}

func sell(n int, isin string, shares float64, total int64, cur Currency) Transaction {
	return NewSecurityTx(day(n), M(total, cur), Security{ISIN: isin}, -shares)
}

func dividend(n int, isin string, amount int64, cur Currency) Transaction {
	return NewDividendTx(day(n), M(amount, cur), Security{ISIN: isin})
}

// stubSource is a MarketSource with canned per-day answers. The zero value
// answers every search with a fixed listing and fails everything else.
type stubSource struct {
	// prices maps "ticker/YYYY-MM-DD" to a closing quote.
	prices map[string]Quote
	// rates maps "FROM/TO/YYYY-MM-DD" to a closing rate.
	rates map[string]float64
	// splits maps an ISIN-derived ticker to its full split history.
	splits map[string][]Split
	// series maps a ticker to its historical prices, for prewarm tests.
	series map[string]HistoricalPrices
	// rateSeries maps "FROM/TO" to a historical rate series.
	rateSeries map[string]map[date.Date]OHLC

	// calls counts fetches per method, to assert cache hits.
	calls map[string]int
}

func (s *stubSource) count(method string) {
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
}

// ticker derives the stub listing ticker of an ISIN.
func ticker(isin string) string { return "T-" + isin }

func (s *stubSource) Search(ctx context.Context, term string) ([]SearchResult, error) {
	s.count("search")
	return []SearchResult{{Name: term, Exchange: "XTST", Ticker: ticker(term)}}, nil
}

func (s *stubSource) PriceAtClose(ctx context.Context, exchange Exchange, tk string, t time.Time, adjusted bool) (Quote, error) {
	s.count("price")
	q, ok := s.prices[fmt.Sprintf("%s/%s", tk, date.FromTime(t))]
	if !ok {
		return Quote{}, fmt.Errorf("no stub price for %s on %s", tk, date.FromTime(t))
	}
	return q, nil
}

func (s *stubSource) HistoricalPrices(ctx context.Context, exchange Exchange, tk string, start, end time.Time, interval Interval, adjusted bool) (HistoricalPrices, error) {
	s.count("historicalPrices")
	h, ok := s.series[tk]
	if !ok {
		return HistoricalPrices{}, fmt.Errorf("no stub series for %s", tk)
	}
	return h, nil
}

func (s *stubSource) ExchangeRateAtClose(ctx context.Context, from, to Currency, t time.Time) (RateQuote, error) {
	s.count("rate")
	rate, ok := s.rates[fmt.Sprintf("%s/%s/%s", from, to, date.FromTime(t))]
	if !ok {
		return RateQuote{}, fmt.Errorf("no stub rate for %s/%s on %s", from, to, date.FromTime(t))
	}
	return RateQuote{Time: t, Rate: rate}, nil
}

func (s *stubSource) HistoricalExchangeRate(ctx context.Context, from, to Currency, start, end time.Time, interval Interval) (map[date.Date]OHLC, error) {
	s.count("historicalRates")
	r, ok := s.rateSeries[fmt.Sprintf("%s/%s", from, to)]
	if !ok {
		return nil, fmt.Errorf("no stub rate series for %s/%s", from, to)
	}
	return r, nil
}

func (s *stubSource) StockSplits(ctx context.Context, start, end time.Time, exchange Exchange, tk string) ([]Split, error) {
	s.count("splits")
	return s.splits[tk], nil
}

// setPrice records a closing price, in minor units per share, for a day.
func (s *stubSource) setPrice(isin string, n int, cur Currency, amount int64) {
	if s.prices == nil {
		s.prices = make(map[string]Quote)
	}
	key := fmt.Sprintf("%s/%s", ticker(isin), date.FromTime(day(n)))
	s.prices[key] = Quote{Currency: cur, Amount: amount, Time: day(n)}
}

// setRate records a closing exchange rate for a day.
func (s *stubSource) setRate(from, to Currency, n int, rate float64) {
	if s.rates == nil {
		s.rates = make(map[string]float64)
	}
	s.rates[fmt.Sprintf("%s/%s/%s", from, to, date.FromTime(day(n)))] = rate
}

// newTestResolver wires a stub source to a fresh in-memory cache.
func newTestResolver(t *testing.T, src *stubSource) *Resolver {
	t.Helper()
	return NewResolver(src, cache.NewMemory())
}
