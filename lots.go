package pnlkit

import (
	"errors"
	"fmt"
)

// ErrOversoldPosition reports a sale that consumes more shares than all
// purchase lots of the position hold. It indicates a malformed history
// (a short sale slipping through a long-only ledger).
var ErrOversoldPosition = errors.New("sale exceeds purchased shares")

// lotCursor walks a position's purchase lots in one fixed direction,
// carrying a partially consumed lot over from one sale to the next.
// FIFO walks oldest to newest, LIFO newest to oldest; everything else about
// the matching is identical.
type lotCursor struct {
	lots []SecurityTx // purchase transactions, in chronological order
	idx  int
	used float64 // shares of lots[idx] already consumed
	step int
}

func newLotCursor(purchases []SecurityTx, newestFirst bool) *lotCursor {
	c := &lotCursor{lots: purchases, step: 1}
	if newestFirst {
		c.idx, c.step = len(purchases)-1, -1
	}
	return c
}

func (c *lotCursor) valid() bool { return c.idx >= 0 && c.idx < len(c.lots) }

// consume takes shares from the current lots, calling take once per
// (possibly partial) slice of a lot. A lot fully consumed advances the
// cursor; a partially consumed one is left for the next call.
func (c *lotCursor) consume(shares float64, take func(lot SecurityTx, shares float64) error) error {
	var done float64
	for done < shares {
		if !c.valid() {
			return fmt.Errorf("%w: %g shares unmatched", ErrOversoldPosition, shares-done)
		}
		lot := c.lots[c.idx]
		available := lot.Shares - c.used
		using := shares - done
		if available < using {
			using = available
		}
		if err := take(lot, using); err != nil {
			return err
		}
		c.used += using
		done += using
		if lot.Shares-c.used == 0 {
			c.idx += c.step
			c.used = 0
		}
	}
	return nil
}

// remaining visits every lot slice not yet consumed, exhausting the cursor.
func (c *lotCursor) remaining(visit func(lot SecurityTx, shares float64) error) error {
	for c.valid() {
		lot := c.lots[c.idx]
		if err := visit(lot, lot.Shares-c.used); err != nil {
			return err
		}
		c.idx += c.step
		c.used = 0
	}
	return nil
}
