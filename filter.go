package pnlkit

import (
	"context"
	"math"
)

// DefaultFilterEpsilon is the default tolerated divergence between a
// transaction's implied price and the resolved closing price, as a fraction.
const DefaultFilterEpsilon = 0.10

// FilterTransactions drops every security position that has at least one
// transaction whose implied per-share price diverges from the resolved
// closing price of that day by more than eps. Such divergence almost always
// means faulty provider data for the security, not a lucky trade.
//
// Resolution failures count as divergence: a position whose price cannot be
// resolved is excluded rather than aborting the whole batch. Cash
// transactions are always kept; dividends are kept only for securities that
// survived the filter, so the result still aggregates cleanly.
func FilterTransactions(ctx context.Context, txs []Transaction, eps float64, r *Resolver) ([]Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
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
		return nil, err
	}

	kept := make(map[string]bool)
	var filtered []Transaction
	var total, skipped int

positionsLoop:
	for _, pos := range positions.SecurityPositions {
		total += len(pos.Transactions)
		for _, tx := range pos.Transactions {
			implied := tx.PricePerShare()
			closing, err := r.Price(ctx, tx.Security.ISIN, tx.Time, tx.Value.Currency)
			if err != nil {
				r.Log.Warn().Err(err).Str("isin", pos.Security.ISIN).
					Msg("skipping position, price unresolved")
				skipped += len(pos.Transactions)
				continue positionsLoop
			}

			divergence := (float64(closing) - implied) / implied
			r.Log.Debug().Str("isin", tx.Security.ISIN).
				Time("on", tx.Time).
				Float64("divergence", divergence).
				Msg("checked transaction price")

			if math.IsNaN(divergence) || math.Abs(divergence) > eps {
				r.Log.Warn().Str("isin", tx.Security.ISIN).
					Time("on", tx.Time).
					Float64("divergence", divergence).
					Msg("skipping position, price divergence too large")
				skipped += len(pos.Transactions)
				continue positionsLoop
			}
		}
		kept[pos.Security.ISIN] = true
		for _, tx := range pos.Transactions {
			filtered = append(filtered, tx)
		}
	}

	for _, tx := range txs {
		switch t := tx.(type) {
		case CashTx:
			filtered = append(filtered, t)
		case DividendTx:
			if kept[t.Security.ISIN] {
				filtered = append(filtered, t)
			}
		}
	}

	SortTransactions(filtered)
	r.Log.Info().Int("kept", total-skipped).Int("skipped", skipped).
		Msg("filtered transactions")
	return filtered, nil
}
