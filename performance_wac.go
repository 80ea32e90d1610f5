package pnlkit

import (
	"context"
	"time"
)

// WACPerformance computes a Performance snapshot under weighted-average
// cost: one average purchase price per position, applied uniformly to every
// sale's cost basis and to the valuation of the remaining holding. No lot is
// tracked individually.
//
// Unlike the per-lot engines, the history is split-corrected first, so the
// average is computed over post-split share counts.
func WACPerformance(ctx context.Context, fullHistory []Transaction, start, end time.Time, cur Currency, r *Resolver) (*Performance, error) {
	corrected, err := SplitAdjusted(ctx, fullHistory, end, r)
	if err != nil {
		return nil, err
	}
	positions, err := Aggregate(start, end, corrected)
	if err != nil {
		return nil, err
	}

	b := &perfBuilder{cur: cur, r: r}
	if err := b.addCashPositions(ctx, end, positions); err != nil {
		return nil, err
	}

	for _, sp := range positions.SecurityPositions {
		posRealised, err := b.dividends(ctx, sp)
		if err != nil {
			return nil, err
		}
		if sp.Shares < 0 {
			continue
		}

		// Average cost over every purchase, each converted at its own date.
		var cost, boughtShares float64
		for _, buy := range sp.OutTransactions {
			rate, err := r.ExchangeRate(ctx, buy.Value.Currency, cur, buy.Time)
			if err != nil {
				return nil, err
			}
			cost += float64(-buy.Value.Amount) * rate
			boughtShares += buy.Shares
		}
		var wac float64
		if boughtShares != 0 {
			wac = cost / boughtShares
		}

		for _, sale := range sp.InTransactions {
			rate, err := r.ExchangeRate(ctx, sale.Value.Currency, cur, sale.Time)
			if err != nil {
				return nil, err
			}
			profit := float64(sale.Value.Amount)*rate - (-sale.Shares)*wac
			b.realised += profit
			posRealised += profit
		}

		posTotalPrice := sp.Shares * wac
		if sp.Shares > 0 {
			price, err := r.Price(ctx, sp.Security.ISIN, end, cur)
			if err != nil {
				return nil, err
			}
			value := sp.Shares * float64(price)

			b.totalValue += value
			b.unrealised += value - posTotalPrice

			b.open = append(b.open, OpenPosition{
				Security:     sp,
				TotalValue:   floorMoney(value, cur),
				TotalPrice:   floorMoney(posTotalPrice, cur),
				RealisedPL:   floorMoney(posRealised, cur),
				UnrealisedPL: floorMoney(value-posTotalPrice, cur),
			})
		} else {
			b.closed = append(b.closed, ClosedPosition{
				Security:   sp,
				TotalPrice: floorMoney(posTotalPrice, cur),
				RealisedPL: floorMoney(posRealised, cur),
			})
		}
	}

	return b.build(), nil
}
