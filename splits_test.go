package pnlkit

import (
	"context"
	"testing"
)

func TestSplitAdjusted(t *testing.T) {
	src := &stubSource{
		splits: map[string][]Split{
			ticker("US1"): {{Time: day(5), Ratio: 4}},
		},
	}
	r := newTestResolver(t, src)

	history := []Transaction{
		deposit(1, 100000, USD),
		buy(2, "US1", 10, 10000, USD),  // pre-split, rewritten
		buy(6, "US1", 10, 2500, USD),   // post-split, untouched
		buy(3, "US2", 5, 5000, USD),    // other security, untouched
	}

	adjusted, err := SplitAdjusted(context.Background(), history, day(10), r)
	if err != nil {
		t.Fatalf("SplitAdjusted: %v", err)
	}

	pre := adjusted[1].(SecurityTx)
	if pre.Shares != 40 {
		t.Errorf("pre-split shares = %v, want 40", pre.Shares)
	}
	if want := M(-40000, USD); !pre.Value.Equal(want) {
		t.Errorf("pre-split value = %v, want %v", pre.Value, want)
	}

	post := adjusted[2].(SecurityTx)
	if post.Shares != 10 || post.Value.Amount != -2500 {
		t.Errorf("post-split transaction rewritten: %v shares, %v", post.Shares, post.Value)
	}

	other := adjusted[3].(SecurityTx)
	if other.Shares != 5 || other.Value.Amount != -5000 {
		t.Errorf("unrelated security rewritten: %v shares, %v", other.Shares, other.Value)
	}
}

func TestSplitAdjustedDoesNotMutateInput(t *testing.T) {
	src := &stubSource{
		splits: map[string][]Split{
			ticker("US1"): {{Time: day(5), Ratio: 2}},
		},
	}
	r := newTestResolver(t, src)

	history := []Transaction{buy(2, "US1", 10, 10000, USD)}

	if _, err := SplitAdjusted(context.Background(), history, day(10), r); err != nil {
		t.Fatalf("SplitAdjusted: %v", err)
	}

	original := history[0].(SecurityTx)
	if original.Shares != 10 || original.Value.Amount != -10000 {
		t.Errorf("input mutated: %v shares, %v", original.Shares, original.Value)
	}
}

func TestSplitAdjustedSplitAtTransactionTime(t *testing.T) {
	// a split effective exactly at the transaction instant still rewrites it
	src := &stubSource{
		splits: map[string][]Split{
			ticker("US1"): {{Time: day(2), Ratio: 3}},
		},
	}
	r := newTestResolver(t, src)

	adjusted, err := SplitAdjusted(context.Background(), []Transaction{buy(2, "US1", 1, 900, USD)}, day(10), r)
	if err != nil {
		t.Fatalf("SplitAdjusted: %v", err)
	}
	st := adjusted[0].(SecurityTx)
	if st.Shares != 3 || st.Value.Amount != -2700 {
		t.Errorf("got %v shares, %v", st.Shares, st.Value)
	}
}

func TestSplitAdjustedNoLookupWithoutWindow(t *testing.T) {
	src := &stubSource{}
	r := newTestResolver(t, src)

	// the only transaction is at the cutoff: no window to query splits over
	history := []Transaction{buy(10, "US1", 1, 1000, USD)}
	if _, err := SplitAdjusted(context.Background(), history, day(10), r); err != nil {
		t.Fatalf("SplitAdjusted: %v", err)
	}
	if src.calls["splits"] != 0 {
		t.Errorf("splits fetched %d times, want 0", src.calls["splits"])
	}
}

func TestSplitAdjustedCascading(t *testing.T) {
	// two successive splits compound on transactions predating both
	src := &stubSource{
		splits: map[string][]Split{
			ticker("US1"): {
				{Time: day(4), Ratio: 2},
				{Time: day(6), Ratio: 5},
			},
		},
	}
	r := newTestResolver(t, src)

	adjusted, err := SplitAdjusted(context.Background(), []Transaction{buy(2, "US1", 1, 1000, USD)}, day(10), r)
	if err != nil {
		t.Fatalf("SplitAdjusted: %v", err)
	}
	st := adjusted[0].(SecurityTx)
	if st.Shares != 10 {
		t.Errorf("shares = %v, want 10", st.Shares)
	}
	if st.Value.Amount != -10000 {
		t.Errorf("value = %v, want -10000", st.Value.Amount)
	}
}
