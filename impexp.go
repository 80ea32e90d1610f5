package pnlkit

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// this file handles importing broker account exports. Every broker ships a
// different JSON shape, so the import is driven by a jsonpath mapping instead
// of one struct per broker.

// BrokerMapping locates the transaction fields inside a broker's JSON export.
// Records selects the array of raw records; the other paths are evaluated
// against each record.
type BrokerMapping struct {
	Records  string
	Kind     string
	Time     string
	Amount   string
	Currency string
	ISIN     string
	Shares   string

	// TimeLayout parses the record timestamp. Empty means RFC 3339.
	TimeLayout string

	// Kinds translates the broker's own kind labels ("BUY", "Einzahlung", ...)
	// to buy/sell/deposit/withdrawal/dividend. Empty means the labels are
	// already canonical, modulo case.
	Kinds map[string]string
}

// DefaultBrokerMapping covers the flat export shape several retail brokers
// produce: a top-level "transactions" array of records with self-describing
// field names.
var DefaultBrokerMapping = BrokerMapping{
	Records:  "$.transactions[*]",
	Kind:     "$.type",
	Time:     "$.time",
	Amount:   "$.amount",
	Currency: "$.currency",
	ISIN:     "$.isin",
	Shares:   "$.shares",
}

// ImportBrokerLedger reads a broker's JSON export from r and converts its
// records into ledger transactions using the given mapping. Records are
// returned sorted and ready to append to a ledger.
func ImportBrokerLedger(r io.Reader, m BrokerMapping) ([]Transaction, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("cannot parse broker export: %w", err)
	}

	jrecords, err := jsonpath.Get(m.Records, jobj)
	if err != nil {
		return nil, fmt.Errorf("cannot locate records: %q %w", m.Records, err)
	}
	records, ok := jrecords.([]any)
	if !ok {
		return nil, fmt.Errorf("records path %q did not select an array", m.Records)
	}

	var txs []Transaction
	for i, record := range records {
		tx, err := m.record(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	SortTransactions(txs)
	return txs, nil
}

func (m BrokerMapping) record(record any) (Transaction, error) {
	kind, err := m.str(record, m.Kind)
	if err != nil {
		return nil, err
	}
	if canonical, ok := m.Kinds[kind]; ok {
		kind = canonical
	}
	kind = strings.ToLower(kind)

	stamp, err := m.str(record, m.Time)
	if err != nil {
		return nil, err
	}
	layout := m.TimeLayout
	if layout == "" {
		layout = time.RFC3339
	}
	when, err := time.Parse(layout, stamp)
	if err != nil {
		return nil, fmt.Errorf("cannot parse time %q: %w", stamp, err)
	}

	code, err := m.str(record, m.Currency)
	if err != nil {
		return nil, err
	}
	cur, err := ParseCurrency(code)
	if err != nil {
		return nil, err
	}
	amount, err := m.amount(record, cur)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "deposit":
		return NewCashTx(when, amount), nil
	case "withdrawal":
		if amount.Amount > 0 {
			amount.Amount = -amount.Amount
		}
		return NewCashTx(when, amount), nil
	case "buy", "sell":
		isin, err := m.str(record, m.ISIN)
		if err != nil {
			return nil, err
		}
		shares, err := m.num(record, m.Shares)
		if err != nil {
			return nil, err
		}
		// buys cost money and add shares, sells do the opposite.
		if kind == "buy" {
			if amount.Amount > 0 {
				amount.Amount = -amount.Amount
			}
		} else {
			if shares > 0 {
				shares = -shares
			}
		}
		return NewSecurityTx(when, amount, Security{ISIN: isin}, shares), nil
	case "dividend":
		isin, err := m.str(record, m.ISIN)
		if err != nil {
			return nil, err
		}
		return NewDividendTx(when, amount, Security{ISIN: isin}), nil
	}
	return nil, fmt.Errorf("unknown transaction kind %q", kind)
}

func (m BrokerMapping) amount(record any, cur Currency) (Money, error) {
	jval, err := get(record, m.Amount)
	if err != nil {
		return Money{}, err
	}
	switch v := jval.(type) {
	case float64:
		return floorMoney(v*math.Pow10(int(fraction(cur))), cur), nil
	case string:
		// some brokers quote amounts as decimal strings
		n, err := ParseAmount(v, cur)
		if err != nil {
			return Money{}, err
		}
		return M(n, cur), nil
	}
	return Money{}, fmt.Errorf("amount at %q is neither a number nor a string: %v", m.Amount, jval)
}

func (m BrokerMapping) str(record any, path string) (string, error) {
	jval, err := get(record, path)
	if err != nil {
		return "", err
	}
	s, ok := jval.(string)
	if !ok {
		return "", fmt.Errorf("value at %q is not a string: %v", path, jval)
	}
	return s, nil
}

func (m BrokerMapping) num(record any, path string) (float64, error) {
	jval, err := get(record, path)
	if err != nil {
		return 0, err
	}
	switch v := jval.(type) {
	case float64:
		return v, nil
	case string:
		// same string-number quirk as amounts
		v = strings.ReplaceAll(v, ",", ".")
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("value at %q is not a number: %v", path, jval)
}

// get evaluates a jsonpath and unwraps single-element lists: jsonpath is
// never clear about whether it returns a list of one answer or the answer
// itself.
func get(record any, path string) (any, error) {
	jval, err := jsonpath.Get(path, record)
	if err != nil {
		return nil, fmt.Errorf("cannot evaluate %q: %w", path, err)
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	return jval, nil
}
