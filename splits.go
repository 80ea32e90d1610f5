package pnlkit

import (
	"context"
	"math"
	"time"
)

// SplitAdjusted rewrites a transaction history for the stock splits known up
// to the explicit cutoff. For every split effective at or after a security
// transaction's time, that transaction's share count and cash value are
// multiplied by the split ratio, so pre-split lots are expressed in
// post-split shares.
//
// The input is never mutated: correction operates on a copy. Scaled cash
// amounts are floored back to integer minor units.
func SplitAdjusted(ctx context.Context, txs []Transaction, until time.Time, r *Resolver) ([]Transaction, error) {
	adjusted := make([]Transaction, len(txs))
	copy(adjusted, txs)

	// indices of security transactions, grouped by ISIN in chronological order
	byISIN := make(map[string][]int)
	var isins []string
	for i, tx := range adjusted {
		st, ok := tx.(SecurityTx)
		if !ok {
			continue
		}
		if _, seen := byISIN[st.Security.ISIN]; !seen {
			isins = append(isins, st.Security.ISIN)
		}
		byISIN[st.Security.ISIN] = append(byISIN[st.Security.ISIN], i)
	}

	for _, isin := range isins {
		indices := byISIN[isin]

		earliest := until
		for _, i := range indices {
			if t := adjusted[i].When(); t.Before(earliest) {
				earliest = t
			}
		}
		if !earliest.Before(until) {
			continue
		}

		splits, err := r.StockSplits(ctx, isin, earliest, until)
		if err != nil {
			return nil, err
		}

		for _, split := range splits {
			for _, i := range indices {
				st := adjusted[i].(SecurityTx)
				if st.Time.After(split.Time) {
					continue
				}
				st.Shares *= split.Ratio
				st.Value.Amount = int64(math.Floor(float64(st.Value.Amount) * split.Ratio))
				adjusted[i] = st
			}
		}
	}

	return adjusted, nil
}
