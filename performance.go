package pnlkit

import (
	"context"
	"fmt"
	"time"
)

// Method selects the cost-basis accounting convention used to split a
// position's profit into realized and unrealized parts. All methods agree on
// total value; they disagree on which lots a sale consumed.
type Method int

const (
	// FIFO matches sales against the oldest purchase lots first.
	FIFO Method = iota
	// LIFO matches sales against the newest purchase lots first.
	LIFO
	// WAC applies one weighted-average cost to every sale and to the
	// remaining holding, with no per-lot tracking.
	WAC
)

func (m Method) String() string {
	switch m {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	case WAC:
		return "wac"
	default:
		return "unknown"
	}
}

// ParseMethod parses a string into a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	case "wac", "average":
		return WAC, nil
	default:
		return 0, fmt.Errorf("unknown cost basis method: %q", s)
	}
}

// OpenPosition is a still-open position enriched with its valuation.
// Exactly one of Security and Cash is set.
type OpenPosition struct {
	Security *SecurityPosition `json:"security,omitempty"`
	Cash     *CashPosition     `json:"cash,omitempty"`

	TotalPrice   Money `json:"totalPrice"` // cost basis of the remaining holding
	TotalValue   Money `json:"totalValue"` // market value at the window end
	RealisedPL   Money `json:"realisedPL"`
	UnrealisedPL Money `json:"unrealisedPL"`
}

// ClosedPosition is a position whose share count returned to zero within the
// window. It has no market value left, only crystallized profit.
type ClosedPosition struct {
	Security   *SecurityPosition `json:"security"`
	TotalPrice Money             `json:"totalPrice"`
	RealisedPL Money             `json:"realisedPL"`
}

// Performance is a profit-and-loss snapshot of a portfolio over a window,
// in a single reporting currency. It is computed fresh per call and never
// mutated after return.
type Performance struct {
	TotalValue      Money            `json:"totalValue"`
	UnrealisedPL    Money            `json:"unrealisedPL"`
	RealisedPL      Money            `json:"realisedPL"`
	OpenPositions   []OpenPosition   `json:"openPositions"`
	ClosedPositions []ClosedPosition `json:"closedPositions"`
}

// Engine computes a Performance snapshot from a full transaction history.
// The history must cover the account's whole lifetime; start only restricts
// which closed positions are reported.
type Engine func(ctx context.Context, fullHistory []Transaction, start, end time.Time, cur Currency, r *Resolver) (*Performance, error)

// Engine returns the Engine implementing the method.
func (m Method) Engine() Engine {
	switch m {
	case FIFO:
		return FIFOPerformance
	case LIFO:
		return LIFOPerformance
	case WAC:
		return WACPerformance
	default:
		return nil
	}
}

// perfBuilder accumulates a Performance in float64 and floors the totals to
// integer minor units once, when the snapshot is built. Intermediate FX and
// price products stay floating point; persisted results never do.
type perfBuilder struct {
	cur Currency
	r   *Resolver

	totalValue float64
	unrealised float64
	realised   float64

	open   []OpenPosition
	closed []ClosedPosition
}

// addCashPositions converts every cash balance to the reporting currency at
// the window end and adds it to the total value. Only base-currency cash is
// reported as an open position; valuing a foreign-currency cash position's
// transactions is a known gap.
func (b *perfBuilder) addCashPositions(ctx context.Context, end time.Time, positions *Positions) error {
	for _, cp := range positions.CashPositions {
		rate, err := b.r.ExchangeRate(ctx, cp.Value.Currency, b.cur, end)
		if err != nil {
			return err
		}
		b.totalValue += float64(cp.Value.Amount) * rate

		if cp.Value.Currency == b.cur {
			b.open = append(b.open, OpenPosition{
				Cash:         cp,
				TotalValue:   cp.Value,
				TotalPrice:   cp.Value,
				RealisedPL:   M(0, b.cur),
				UnrealisedPL: M(0, b.cur),
			})
		}
	}
	return nil
}

// dividends treats every dividend of the position as immediately realized
// profit, converted at the dividend's own date. Returns the position's
// realized dividend sum in the reporting currency.
func (b *perfBuilder) dividends(ctx context.Context, sp *SecurityPosition) (float64, error) {
	var sum float64
	for _, div := range sp.DividendTransactions {
		rate, err := b.r.ExchangeRate(ctx, div.Value.Currency, b.cur, div.Time)
		if err != nil {
			return 0, err
		}
		sum += float64(div.Value.Amount) * rate
	}
	b.realised += sum
	return sum, nil
}

// build floors the accumulated totals into the final snapshot.
func (b *perfBuilder) build() *Performance {
	return &Performance{
		TotalValue:      floorMoney(b.totalValue, b.cur),
		UnrealisedPL:    floorMoney(b.unrealised, b.cur),
		RealisedPL:      floorMoney(b.realised, b.cur),
		OpenPositions:   b.open,
		ClosedPositions: b.closed,
	}
}
