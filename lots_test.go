package pnlkit

import (
	"errors"
	"testing"
)

func purchases() []SecurityTx {
	return []SecurityTx{
		NewSecurityTx(day(1), M(-1500, USD), Security{ISIN: "US1"}, 1),
		NewSecurityTx(day(2), M(-5000, USD), Security{ISIN: "US1"}, 2),
		NewSecurityTx(day(3), M(-3500, USD), Security{ISIN: "US1"}, 1),
	}
}

func TestLotCursorConsumeOldestFirst(t *testing.T) {
	c := newLotCursor(purchases(), false)

	var taken []float64
	err := c.consume(2, func(lot SecurityTx, n float64) error {
		taken = append(taken, lot.PricePerShare()*n)
		return nil
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	// 1 share of the 15.00 lot, 1 of the 25.00 lot
	if len(taken) != 2 || taken[0] != 1500 || taken[1] != 2500 {
		t.Errorf("taken = %v, want [1500 2500]", taken)
	}
}

func TestLotCursorConsumeNewestFirst(t *testing.T) {
	c := newLotCursor(purchases(), true)

	var taken []float64
	err := c.consume(2, func(lot SecurityTx, n float64) error {
		taken = append(taken, lot.PricePerShare()*n)
		return nil
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	// 1 share of the 35.00 lot, 1 of the 25.00 lot
	if len(taken) != 2 || taken[0] != 3500 || taken[1] != 2500 {
		t.Errorf("taken = %v, want [3500 2500]", taken)
	}
}

func TestLotCursorPartialLotCarry(t *testing.T) {
	c := newLotCursor(purchases(), false)

	// two sales of 1.5 shares: the second must resume mid-lot
	for i := 0; i < 2; i++ {
		if err := c.consume(1.5, func(SecurityTx, float64) error { return nil }); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}

	var left float64
	if err := c.remaining(func(lot SecurityTx, n float64) error {
		left += n
		return nil
	}); err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if left != 1 {
		t.Errorf("remaining shares = %v, want 1", left)
	}
}

func TestLotCursorOversold(t *testing.T) {
	c := newLotCursor(purchases(), false)

	err := c.consume(5, func(SecurityTx, float64) error { return nil })
	if !errors.Is(err, ErrOversoldPosition) {
		t.Fatalf("got %v, want ErrOversoldPosition", err)
	}
}

func TestLotCursorRemainingUntouched(t *testing.T) {
	for _, newestFirst := range []bool{false, true} {
		c := newLotCursor(purchases(), newestFirst)
		var total float64
		if err := c.remaining(func(lot SecurityTx, n float64) error {
			total += n
			return nil
		}); err != nil {
			t.Fatalf("remaining: %v", err)
		}
		if total != 4 {
			t.Errorf("newestFirst=%v: remaining = %v, want 4", newestFirst, total)
		}
	}
}
