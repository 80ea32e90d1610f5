package pnlkit

import (
	"context"
	"time"
)

// FIFOPerformance computes a Performance snapshot matching every sale
// against the oldest purchase lots first.
func FIFOPerformance(ctx context.Context, fullHistory []Transaction, start, end time.Time, cur Currency, r *Resolver) (*Performance, error) {
	return lotPerformance(ctx, fullHistory, start, end, cur, r, false)
}

// LIFOPerformance computes a Performance snapshot matching every sale
// against the newest purchase lots first.
func LIFOPerformance(ctx context.Context, fullHistory []Transaction, start, end time.Time, cur Currency, r *Resolver) (*Performance, error) {
	return lotPerformance(ctx, fullHistory, start, end, cur, r, true)
}

// lotPerformance is the shared per-lot engine behind FIFO and LIFO; the two
// differ only in the direction the purchase lots are walked.
//
// Realized profit per sale: the sale's proceeds (converted at the sale's
// date) minus the cost of the lots it consumed (each converted at its own
// purchase date). Whatever lots the sales left over value the open position
// at the window-end price, lot by lot.
func lotPerformance(ctx context.Context, fullHistory []Transaction, start, end time.Time, cur Currency, r *Resolver, newestFirst bool) (*Performance, error) {
	positions, err := Aggregate(start, end, fullHistory)
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

		// Short positions are skipped for capital gains; their dividends
		// above still count.
		if sp.Shares < 0 {
			continue
		}

		cursor := newLotCursor(sp.OutTransactions, newestFirst)

		for _, sale := range sp.InTransactions {
			var costOfSold float64
			err := cursor.consume(-sale.Shares, func(lot SecurityTx, n float64) error {
				rate, err := r.ExchangeRate(ctx, lot.Value.Currency, cur, lot.Time)
				if err != nil {
					return err
				}
				costOfSold += n * lot.PricePerShare() * rate
				return nil
			})
			if err != nil {
				return nil, err
			}

			rate, err := r.ExchangeRate(ctx, sale.Value.Currency, cur, sale.Time)
			if err != nil {
				return nil, err
			}
			profit := float64(sale.Value.Amount)*rate - costOfSold
			b.realised += profit
			posRealised += profit
		}

		if sp.Shares > 0 {
			price, err := r.Price(ctx, sp.Security.ISIN, end, cur)
			if err != nil {
				return nil, err
			}

			var posTotalPrice, posTotalValue, posUnrealised float64
			err = cursor.remaining(func(lot SecurityTx, n float64) error {
				rate, err := r.ExchangeRate(ctx, lot.Value.Currency, cur, lot.Time)
				if err != nil {
					return err
				}
				cost := n * lot.PricePerShare() * rate
				value := float64(price) * n

				b.totalValue += value
				b.unrealised += value - cost
				posTotalValue += value
				posTotalPrice += cost
				posUnrealised += value - cost
				return nil
			})
			if err != nil {
				return nil, err
			}

			b.open = append(b.open, OpenPosition{
				Security:     sp,
				TotalValue:   floorMoney(posTotalValue, cur),
				TotalPrice:   floorMoney(posTotalPrice, cur),
				RealisedPL:   floorMoney(posRealised, cur),
				UnrealisedPL: floorMoney(posUnrealised, cur),
			})
		} else {
			b.closed = append(b.closed, ClosedPosition{
				Security:   sp,
				TotalPrice: M(0, cur),
				RealisedPL: floorMoney(posRealised, cur),
			})
		}
	}

	return b.build(), nil
}
