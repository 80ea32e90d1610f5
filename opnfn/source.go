package opnfn

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pnlkit/pnlkit"
	"github.com/pnlkit/pnlkit/date"
)

// Compile-time check that Client is a full market-data source.
var _ pnlkit.MarketSource = (*Client)(nil)

// searchItem matches one entry of the search API response.
type searchItem struct {
	Name     string `json:"name"`
	Exchange string `json:"exchange"` // operating MIC
	Ticker   string `json:"ticker"`
}

// Search finds securities matching a free-text term or ISIN. The first
// result is the security's primary listing.
func (c *Client) Search(ctx context.Context, term string) ([]pnlkit.SearchResult, error) {
	addr := fmt.Sprintf("%s/search?query=%s", c.baseURL, url.QueryEscape(term))
	var items []searchItem
	if err := c.jwget(addr, &items); err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	results := make([]pnlkit.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, pnlkit.SearchResult{
			Name:     item.Name,
			Exchange: pnlkit.Exchange(item.Exchange),
			Ticker:   item.Ticker,
		})
	}
	return results, nil
}

// priceCloseResponse matches the close-price API response. Amounts are
// requested as integer minor units (useIntegers=true).
type priceCloseResponse struct {
	Currency string    `json:"currency"`
	Amount   int64     `json:"amount"`
	Time     time.Time `json:"time"`
}

// PriceAtClose returns the closing price of a listing on the trading day at
// or before t. The API resolves weekend and holiday gaps to the nearest
// prior close.
func (c *Client) PriceAtClose(ctx context.Context, exchange pnlkit.Exchange, ticker string, t time.Time, adjustedForSplits bool) (pnlkit.Quote, error) {
	addr := fmt.Sprintf("%s/prices/exchange/%s/ticker/%s/close/time/%s?useIntegers=true&adjustedForSplits=%t",
		c.baseURL, url.PathEscape(string(exchange)), url.PathEscape(ticker),
		t.UTC().Format(time.RFC3339), adjustedForSplits)
	var resp priceCloseResponse
	if err := c.jwget(addr, &resp); err != nil {
		return pnlkit.Quote{}, fmt.Errorf("price %s.%s at close: %w", ticker, exchange, err)
	}
	cur, err := pnlkit.ParseCurrency(resp.Currency)
	if err != nil {
		return pnlkit.Quote{}, err
	}
	return pnlkit.Quote{Currency: cur, Amount: resp.Amount, Time: resp.Time}, nil
}

// ohlcPoint is one day of a historical series.
type ohlcPoint struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

type historicalPricesResponse struct {
	Currency string      `json:"currency"`
	Prices   []ohlcPoint `json:"prices"`
}

// HistoricalPrices returns the per-day price series of a listing over
// [start, end].
func (c *Client) HistoricalPrices(ctx context.Context, exchange pnlkit.Exchange, ticker string, start, end time.Time, interval pnlkit.Interval, adjustedForSplits bool) (pnlkit.HistoricalPrices, error) {
	addr := fmt.Sprintf("%s/prices/exchange/%s/ticker/%s/period/start/%s/end/%s?useIntegers=true&adjustedForSplits=%t",
		c.baseURL, url.PathEscape(string(exchange)), url.PathEscape(ticker),
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), adjustedForSplits)
	var resp historicalPricesResponse
	if err := c.jwget(addr, &resp); err != nil {
		return pnlkit.HistoricalPrices{}, fmt.Errorf("historical prices %s.%s: %w", ticker, exchange, err)
	}
	cur, err := pnlkit.ParseCurrency(resp.Currency)
	if err != nil {
		return pnlkit.HistoricalPrices{}, err
	}
	hist := pnlkit.HistoricalPrices{
		Currency: cur,
		Days:     make(map[date.Date]pnlkit.OHLC, len(resp.Prices)),
	}
	for _, p := range resp.Prices {
		hist.Days[date.FromTime(p.Time)] = pnlkit.OHLC{Open: p.Open, High: p.High, Low: p.Low, Close: p.Close}
	}
	return hist, nil
}

type rateCloseResponse struct {
	ExchangeRate float64   `json:"exchangeRate"`
	Time         time.Time `json:"time"`
}

// ExchangeRateAtClose returns the closing exchange rate on the trading day
// at or before t, with the same backward gap-filling as PriceAtClose.
func (c *Client) ExchangeRateAtClose(ctx context.Context, from, to pnlkit.Currency, t time.Time) (pnlkit.RateQuote, error) {
	addr := fmt.Sprintf("%s/fx/from/%s/to/%s/close/time/%s",
		c.baseURL, from, to, t.UTC().Format(time.RFC3339))
	var resp rateCloseResponse
	if err := c.jwget(addr, &resp); err != nil {
		return pnlkit.RateQuote{}, fmt.Errorf("fx %s/%s at close: %w", from, to, err)
	}
	return pnlkit.RateQuote{Time: resp.Time, Rate: resp.ExchangeRate}, nil
}

type historicalRatesResponse struct {
	ExchangeRates []ohlcPoint `json:"exchangeRates"`
}

// HistoricalExchangeRate returns the per-day rate series over [start, end].
func (c *Client) HistoricalExchangeRate(ctx context.Context, from, to pnlkit.Currency, start, end time.Time, interval pnlkit.Interval) (map[date.Date]pnlkit.OHLC, error) {
	addr := fmt.Sprintf("%s/fx/from/%s/to/%s/period/start/%s/end/%s",
		c.baseURL, from, to, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	var resp historicalRatesResponse
	if err := c.jwget(addr, &resp); err != nil {
		return nil, fmt.Errorf("historical fx %s/%s: %w", from, to, err)
	}
	rates := make(map[date.Date]pnlkit.OHLC, len(resp.ExchangeRates))
	for _, p := range resp.ExchangeRates {
		rates[date.FromTime(p.Time)] = pnlkit.OHLC{Open: p.Open, High: p.High, Low: p.Low, Close: p.Close}
	}
	return rates, nil
}

type splitItem struct {
	Time  time.Time `json:"time"`
	Split float64   `json:"split"`
}

// StockSplits returns the splits of a listing between start and end.
func (c *Client) StockSplits(ctx context.Context, start, end time.Time, exchange pnlkit.Exchange, ticker string) ([]pnlkit.Split, error) {
	addr := fmt.Sprintf("%s/splits/exchange/%s/ticker/%s/period/start/%s/end/%s",
		c.baseURL, url.PathEscape(string(exchange)), url.PathEscape(ticker),
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	var items []splitItem
	if err := c.jwget(addr, &items); err != nil {
		return nil, fmt.Errorf("splits %s.%s: %w", ticker, exchange, err)
	}
	splits := make([]pnlkit.Split, 0, len(items))
	for _, item := range items {
		splits = append(splits, pnlkit.Split{Time: item.Time, Ratio: item.Split})
	}
	return splits, nil
}
