package pnlkit

import (
	"context"
	"testing"
)

func TestFilterTransactions(t *testing.T) {
	history := []Transaction{
		deposit(1, 100000, USD),
		buy(2, "US1", 10, 10000, USD), // implied 10.00, matches provider
		buy(3, "US2", 10, 10000, USD), // implied 10.00, provider says 20.00
		dividend(4, "US1", 100, USD),
		dividend(5, "US2", 100, USD),
	}
	src := &stubSource{}
	src.setPrice("US1", 2, USD, 1000)
	src.setPrice("US2", 3, USD, 2000)
	r := newTestResolver(t, src)

	filtered, err := FilterTransactions(context.Background(), history, DefaultFilterEpsilon, r)
	if err != nil {
		t.Fatalf("FilterTransactions: %v", err)
	}

	// kept: deposit, US1 buy, US1 dividend. Dropped: the divergent US2
	// position and its dividend.
	if len(filtered) != 3 {
		t.Fatalf("got %d transactions, want 3: %v", len(filtered), filtered)
	}
	for _, tx := range filtered {
		switch x := tx.(type) {
		case SecurityTx:
			if x.Security.ISIN != "US1" {
				t.Errorf("kept divergent security %s", x.Security.ISIN)
			}
		case DividendTx:
			if x.Security.ISIN != "US1" {
				t.Errorf("kept dividend of dropped security %s", x.Security.ISIN)
			}
		}
	}
}

func TestFilterTransactionsWithinEpsilon(t *testing.T) {
	history := []Transaction{
		deposit(1, 100000, USD),
		buy(2, "US1", 10, 10000, USD), // implied 10.00
	}
	src := &stubSource{}
	src.setPrice("US1", 2, USD, 1050) // 5% off, inside the 10% default
	r := newTestResolver(t, src)

	filtered, err := FilterTransactions(context.Background(), history, DefaultFilterEpsilon, r)
	if err != nil {
		t.Fatalf("FilterTransactions: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("got %d transactions, want 2", len(filtered))
	}
}

func TestFilterTransactionsUnresolvablePrice(t *testing.T) {
	history := []Transaction{
		deposit(1, 100000, USD),
		buy(2, "US1", 10, 10000, USD),
	}
	// no prices at all: the position is skipped, not fatal
	r := newTestResolver(t, &stubSource{})

	filtered, err := FilterTransactions(context.Background(), history, DefaultFilterEpsilon, r)
	if err != nil {
		t.Fatalf("FilterTransactions: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("got %d transactions, want 1 (cash only)", len(filtered))
	}
	if _, ok := filtered[0].(CashTx); !ok {
		t.Errorf("remaining transaction is %T, want CashTx", filtered[0])
	}
}

func TestFilterTransactionsEmpty(t *testing.T) {
	r := newTestResolver(t, &stubSource{})
	filtered, err := FilterTransactions(context.Background(), nil, DefaultFilterEpsilon, r)
	if err != nil {
		t.Fatalf("FilterTransactions: %v", err)
	}
	if filtered != nil {
		t.Errorf("got %v, want nil", filtered)
	}
}
