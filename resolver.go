package pnlkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/pnlkit/pnlkit/cache"
	"github.com/pnlkit/pnlkit/date"
)

var (
	// ErrTickerNotFound reports that the search returned no listing for an
	// ISIN. Fatal for the whole computation; never cached.
	ErrTickerNotFound = errors.New("no ticker found")
	// ErrInvalidPrice reports a negative or non-finite resolved price, which
	// would corrupt the cache if stored.
	ErrInvalidPrice = errors.New("invalid resolved price")
	// ErrFXDateUnresolved reports that the backward day-walk over a sparse
	// historical series exhausted its bound without finding a value.
	ErrFXDateUnresolved = errors.New("no prior value within lookback window")
)

// Cache lifetimes per lookup kind. Historical prices and FX rates are
// immutable so they never expire. The ISIN-to-listing mapping can change
// (renames, relistings). Splits are announced with effect as soon as the
// next day, so their lookups must stay short-lived.
const (
	TTLListing = 365 * 24 * time.Hour
	TTLSplits  = 24 * time.Hour
	TTLForever = time.Duration(0)
)

// DefaultMaxLookback bounds the backward day-walk used to fill weekend and
// holiday gaps in historical series.
const DefaultMaxLookback = 10

// Resolver memoizes market-data lookups through a Cache. It is a thin layer:
// all fetch errors propagate to the caller, nothing is retried, and failed
// lookups are never cached.
//
// The resolver performs lookups strictly sequentially; the cache is not a
// single-flight point, so racing two resolvers over the same cold keys only
// costs redundant fetches, not correctness.
type Resolver struct {
	Source MarketSource
	Cache  cache.Cache

	// MaxLookback is the bound, in days, of the backward walk over sparse
	// historical series. Zero means DefaultMaxLookback.
	MaxLookback int

	Log zerolog.Logger
}

// NewResolver returns a resolver over the given source and cache.
func NewResolver(src MarketSource, c cache.Cache) *Resolver {
	return &Resolver{Source: src, Cache: c, Log: zerolog.Nop()}
}

func listingKey(isin string) string { return "exchangeTicker/" + isin }

func rateKey(from, to Currency, day date.Date) string {
	return fmt.Sprintf("exchangeRate/%s/%s/%s", from, to, day)
}

func priceKey(isin string, cur Currency, day date.Date) string {
	return fmt.Sprintf("price/%s/%s/%s", isin, cur, day)
}

func splitsKey(isin string, until date.Date) string {
	return fmt.Sprintf("stockSplits/%s/%s", isin, until)
}

type listing struct {
	Exchange Exchange `json:"exchange"`
	Ticker   string   `json:"ticker"`
}

func (r *Resolver) getJSON(key string, v any) (bool, error) {
	raw, ok, err := r.Cache.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("corrupt cache entry %q: %w", key, err)
	}
	return true, nil
}

func (r *Resolver) putJSON(key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	return r.Cache.Put(key, raw, ttl)
}

// Listing resolves an ISIN to its primary listing (venue and ticker) using
// the first search result, memoized for a year.
func (r *Resolver) Listing(ctx context.Context, isin string) (Exchange, string, error) {
	var l listing
	if ok, err := r.getJSON(listingKey(isin), &l); err != nil {
		return "", "", err
	} else if ok {
		return l.Exchange, l.Ticker, nil
	}

	results, err := r.Source.Search(ctx, isin)
	if err != nil {
		return "", "", fmt.Errorf("search %q: %w", isin, err)
	}
	if len(results) == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrTickerNotFound, isin)
	}

	l = listing{Exchange: results[0].Exchange, Ticker: results[0].Ticker}
	r.Log.Debug().Str("isin", isin).Str("ticker", l.Ticker).
		Str("mic", string(l.Exchange)).Msg("resolved listing")
	if err := r.putJSON(listingKey(isin), l, TTLListing); err != nil {
		return "", "", err
	}
	return l.Exchange, l.Ticker, nil
}

// ExchangeRate resolves the closing rate from one currency to another on the
// day of t. Identical currencies convert at 1 without any lookup. Historical
// rates are immutable, so resolved rates are cached forever.
func (r *Resolver) ExchangeRate(ctx context.Context, from, to Currency, t time.Time) (float64, error) {
	if from == to {
		return 1, nil
	}

	key := rateKey(from, to, date.FromTime(t))
	var rate float64
	if ok, err := r.getJSON(key, &rate); err != nil {
		return 0, err
	} else if ok {
		return rate, nil
	}

	quote, err := r.Source.ExchangeRateAtClose(ctx, from, to, t)
	if err != nil {
		return 0, fmt.Errorf("exchange rate %s/%s at %s: %w", from, to, date.FromTime(t), err)
	}
	if err := r.putJSON(key, quote.Rate, TTLForever); err != nil {
		return 0, err
	}
	return quote.Rate, nil
}

// Price resolves the closing price of a security on the day of t, in minor
// units of the requested currency. The listing's native-currency close is
// converted at that day's rate; the product is floored to integer minor
// units before it is cached, and cached forever.
func (r *Resolver) Price(ctx context.Context, isin string, t time.Time, cur Currency) (int64, error) {
	exchange, ticker, err := r.Listing(ctx, isin)
	if err != nil {
		return 0, err
	}

	key := priceKey(isin, cur, date.FromTime(t))
	var cached int64
	if ok, err := r.getJSON(key, &cached); err != nil {
		return 0, err
	} else if ok {
		return cached, nil
	}

	quote, err := r.Source.PriceAtClose(ctx, exchange, ticker, t, false)
	if err != nil {
		return 0, fmt.Errorf("price %s (%s.%s) at %s: %w", isin, ticker, exchange, date.FromTime(t), err)
	}
	rate := 1.0
	if quote.Currency != cur {
		rq, err := r.Source.ExchangeRateAtClose(ctx, quote.Currency, cur, t)
		if err != nil {
			return 0, fmt.Errorf("price conversion %s/%s at %s: %w", quote.Currency, cur, date.FromTime(t), err)
		}
		rate = rq.Rate
	}

	product := rate * float64(quote.Amount)
	if product < 0 || math.IsNaN(product) || math.IsInf(product, 0) {
		return 0, fmt.Errorf("%w: %s at %s: %v", ErrInvalidPrice, isin, date.FromTime(t), product)
	}
	price := int64(math.Floor(product))
	if err := r.putJSON(key, price, TTLForever); err != nil {
		return 0, err
	}
	return price, nil
}

// StockSplits resolves the splits of a security between start and end. Split
// lookups are only cached for a day: a split can be announced effective the
// next day, so a stale miss must not stick around.
func (r *Resolver) StockSplits(ctx context.Context, isin string, start, end time.Time) ([]Split, error) {
	exchange, ticker, err := r.Listing(ctx, isin)
	if err != nil {
		return nil, err
	}

	key := splitsKey(isin, date.FromTime(end))
	var splits []Split
	if ok, err := r.getJSON(key, &splits); err != nil {
		return nil, err
	} else if ok {
		return splits, nil
	}

	splits, err = r.Source.StockSplits(ctx, start, end, exchange, ticker)
	if err != nil {
		return nil, fmt.Errorf("stock splits %s: %w", isin, err)
	}
	if splits == nil {
		splits = []Split{}
	}
	if err := r.putJSON(key, splits, TTLSplits); err != nil {
		return nil, err
	}
	return splits, nil
}

// PutPrice stores an already-resolved price, in minor units of cur, under
// the same key Price reads from. Bulk backfills use it to pre-warm the cache.
func (r *Resolver) PutPrice(isin string, day date.Date, cur Currency, price int64) error {
	if price < 0 {
		return fmt.Errorf("%w: %s at %s: %d", ErrInvalidPrice, isin, day, price)
	}
	return r.putJSON(priceKey(isin, cur, day), price, TTLForever)
}

func (r *Resolver) maxLookback() int {
	if r.MaxLookback > 0 {
		return r.MaxLookback
	}
	return DefaultMaxLookback
}

// nearestPrior returns the series value at day, or at the nearest prior day
// within the resolver's lookback bound. The walk only ever moves backward:
// a missing Saturday resolves to Friday's close, never to Monday's.
func (r *Resolver) nearestPrior(series map[date.Date]OHLC, day date.Date) (OHLC, date.Date, error) {
	for i := 0; i <= r.maxLookback(); i++ {
		d := day.Add(-i)
		if v, ok := series[d]; ok {
			return v, d, nil
		}
	}
	return OHLC{}, date.Date{}, fmt.Errorf("%w: %s (lookback %d days)", ErrFXDateUnresolved, day, r.maxLookback())
}
