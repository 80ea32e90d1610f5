package pnlkit

import (
	"errors"
	"fmt"
	"time"
)

// ErrDanglingDividend reports a dividend transaction for a security that has
// no open position at that point of the ledger. A well-formed ledger opens a
// position before it pays dividends on it.
var ErrDanglingDividend = errors.New("dividend without open position")

// SecurityPosition is the accumulated state of one security across its
// transactions. Shares == 0 marks a closed position.
//
// InTransactions holds the money-increasing entries (sales), OutTransactions
// the money-decreasing ones (purchases), each in chronological order. That
// ordering is what FIFO and LIFO lot matching walk over.
type SecurityPosition struct {
	Security             Security
	Shares               float64
	InTransactions       []SecurityTx
	OutTransactions      []SecurityTx
	DividendTransactions []DividendTx
	Transactions         []SecurityTx
}

// Closed reports whether the position's share count has returned to zero.
func (p *SecurityPosition) Closed() bool { return p.Shares == 0 }

// CashPosition is the running cash balance of one currency, with every
// transaction that touched it.
type CashPosition struct {
	Value           Money
	InTransactions  []Transaction
	OutTransactions []Transaction
	Transactions    []Transaction
}

// Positions is the reconstructed portfolio state as of a reporting window.
//
// SecurityPositions lists the currently open positions first, in the order
// they were first opened, followed by the closed positions in the order they
// closed. A security that opens and closes several times within the window
// contributes one closed entry per round trip.
type Positions struct {
	Transactions      []Transaction
	SecurityPositions []*SecurityPosition
	CashPositions     []*CashPosition
}

// Aggregate folds a full transaction history into positions as of end.
//
// The history must cover the whole account lifetime, not just the reporting
// window: positions opened before start still hold their original lots.
// Transactions are assumed chronologically ordered (DecodeLedger guarantees
// it). Closed positions are only reported if they closed on or after start.
func Aggregate(start, end time.Time, fullHistory []Transaction) (*Positions, error) {
	var transactions []Transaction

	open := make(map[string]*SecurityPosition)
	var openOrder []string // first-open order of ISINs still open
	var closed []*SecurityPosition

	cash := make(map[Currency]*CashPosition)
	var cashOrder []Currency

	for _, tx := range fullHistory {
		if tx.When().After(end) {
			continue
		}
		transactions = append(transactions, tx)

		switch t := tx.(type) {
		case SecurityTx:
			pos, ok := open[t.Security.ISIN]
			if !ok {
				pos = &SecurityPosition{Security: t.Security}
				open[t.Security.ISIN] = pos
				openOrder = append(openOrder, t.Security.ISIN)
			}
			pos.Transactions = append(pos.Transactions, t)
			pos.Shares += t.Shares
			if t.Value.Amount > 0 {
				pos.InTransactions = append(pos.InTransactions, t)
			} else {
				pos.OutTransactions = append(pos.OutTransactions, t)
			}

			if pos.Shares == 0 {
				delete(open, t.Security.ISIN)
				openOrder = removeISIN(openOrder, t.Security.ISIN)
				if !t.When().Before(start) {
					closed = append(closed, pos)
				}
			}

		case DividendTx:
			pos, ok := open[t.Security.ISIN]
			if !ok {
				return nil, fmt.Errorf("%w: %s on %s", ErrDanglingDividend,
					t.Security.ISIN, t.When().Format(time.RFC3339))
			}
			pos.DividendTransactions = append(pos.DividendTransactions, t)
		}

		// Every transaction kind moves the cash balance of its currency.
		value := tx.Cash()
		bal, ok := cash[value.Currency]
		if !ok {
			bal = &CashPosition{Value: value}
			cash[value.Currency] = bal
			cashOrder = append(cashOrder, value.Currency)
		} else {
			bal.Value.Amount += value.Amount
		}
		bal.Transactions = append(bal.Transactions, tx)
		if value.Amount > 0 {
			bal.InTransactions = append(bal.InTransactions, tx)
		} else {
			bal.OutTransactions = append(bal.OutTransactions, tx)
		}
	}

	positions := &Positions{Transactions: transactions}
	for _, isin := range openOrder {
		positions.SecurityPositions = append(positions.SecurityPositions, open[isin])
	}
	positions.SecurityPositions = append(positions.SecurityPositions, closed...)
	for _, c := range cashOrder {
		positions.CashPositions = append(positions.CashPositions, cash[c])
	}
	return positions, nil
}

func removeISIN(order []string, isin string) []string {
	for i, s := range order {
		if s == isin {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
