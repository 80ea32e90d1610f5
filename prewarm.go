package pnlkit

import (
	"context"
	"math"
	"time"
)

// Prewarm bulk-fetches the daily closing prices of every security position
// in the history over its own transaction date range and stores them, in
// the reporting currency, under the keys Price reads from. One historical
// request per security replaces one request per security per day.
func Prewarm(ctx context.Context, txs []Transaction, cur Currency, r *Resolver) error {
	// Full-lifetime window so every position, open or closed, is covered.
	if len(txs) == 0 {
		return nil
	}
	earliest, latest := txs[0].When(), txs[0].When()
	for _, tx := range txs {
		if tx.When().Before(earliest) {
			earliest = tx.When()
		}
		if tx.When().After(latest) {
			latest = tx.When()
		}
	}
	positions, err := Aggregate(earliest, latest, txs)
	if err != nil {
		return err
	}

	for _, pos := range positions.SecurityPositions {
		first, last := pos.Transactions[0].Time, pos.Transactions[0].Time
		for _, tx := range pos.Transactions {
			if tx.Time.Before(first) {
				first = tx.Time
			}
			if tx.Time.After(last) {
				last = tx.Time
			}
		}
		if err := prewarmSecurity(ctx, pos.Security.ISIN, first, last, cur, r); err != nil {
			return err
		}
	}
	return nil
}

func prewarmSecurity(ctx context.Context, isin string, from, to time.Time, cur Currency, r *Resolver) error {
	exchange, ticker, err := r.Listing(ctx, isin)
	if err != nil {
		return err
	}

	hist, err := r.Source.HistoricalPrices(ctx, exchange, ticker, from, to, IntervalDay, false)
	if err != nil {
		return err
	}

	if hist.Currency == cur {
		for day, ohlc := range hist.Days {
			if err := r.PutPrice(isin, day, cur, int64(math.Floor(ohlc.Close))); err != nil {
				return err
			}
		}
		return nil
	}

	rates, err := r.Source.HistoricalExchangeRate(ctx, hist.Currency, cur, from, to, IntervalDay)
	if err != nil {
		return err
	}
	for day, ohlc := range hist.Days {
		// FX series have weekend and holiday gaps of their own; fill from
		// the nearest prior day, never a later one.
		fx, _, err := r.nearestPrior(rates, day)
		if err != nil {
			return err
		}
		if err := r.PutPrice(isin, day, cur, int64(math.Floor(fx.Close*ohlc.Close))); err != nil {
			return err
		}
	}
	return nil
}

// Pipeline prepares a raw transaction history for performance computation:
// it drops positions with faulty price data, corrects the survivors for
// stock splits up to the cutoff, and pre-warms the price cache.
func Pipeline(ctx context.Context, txs []Transaction, eps float64, until time.Time, cur Currency, r *Resolver) ([]Transaction, error) {
	filtered, err := FilterTransactions(ctx, txs, eps, r)
	if err != nil {
		return nil, err
	}
	corrected, err := SplitAdjusted(ctx, filtered, until, r)
	if err != nil {
		return nil, err
	}
	if err := Prewarm(ctx, corrected, cur, r); err != nil {
		return nil, err
	}
	return corrected, nil
}
