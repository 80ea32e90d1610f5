package pnlkit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// The ledger wire format is JSONL: one transaction per line, each line a JSON
// object whose "kind" field selects the variant. Lines are written in
// chronological order; DecodeLedger re-sorts defensively so a hand-edited
// file still aggregates correctly.

// MarshalJSON implements the json.Marshaler interface for CashTx.
func (t CashTx) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", t.Kind())
	w.Append("time", t.Time.Format(time.RFC3339))
	w.Append("value", t.Value)
	w.Optional("metadata", t.Metadata)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for SecurityTx.
func (t SecurityTx) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", t.Kind())
	w.Append("time", t.Time.Format(time.RFC3339))
	w.Append("value", t.Value)
	w.Append("security", t.Security)
	w.Append("shares", t.Shares)
	w.Optional("metadata", t.Metadata)
	return w.MarshalJSON()
}

// MarshalJSON implements the json.Marshaler interface for DividendTx.
func (t DividendTx) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", t.Kind())
	w.Append("time", t.Time.Format(time.RFC3339))
	w.Append("value", t.Value)
	w.Append("security", t.Security)
	w.Optional("metadata", t.Metadata)
	return w.MarshalJSON()
}

// txLine has all fields any transaction variant may carry, for decoding.
type txLine struct {
	Kind     TxKind            `json:"kind"`
	Time     time.Time         `json:"time"`
	Value    Money             `json:"value"`
	Security *Security         `json:"security"`
	Shares   float64           `json:"shares"`
	Metadata map[string]string `json:"metadata"`
}

// DecodeLedger reads a JSONL stream of transactions and returns them in
// chronological order.
func DecodeLedger(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var l txLine
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("ledger line %d: %w", line, err)
		}

		base := baseTx{Time: l.Time, Value: l.Value, Metadata: l.Metadata}
		switch l.Kind {
		case KindCash:
			txs = append(txs, CashTx{base})
		case KindSecurity:
			if l.Security == nil {
				return nil, fmt.Errorf("ledger line %d: security transaction without security", line)
			}
			txs = append(txs, SecurityTx{baseTx: base, Security: *l.Security, Shares: l.Shares})
		case KindDividend:
			if l.Security == nil {
				return nil, fmt.Errorf("ledger line %d: dividend transaction without security", line)
			}
			txs = append(txs, DividendTx{baseTx: base, Security: *l.Security})
		default:
			return nil, fmt.Errorf("ledger line %d: unknown transaction kind %q", line, l.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	SortTransactions(txs)
	return txs, nil
}

// EncodeLedger writes transactions as JSONL, one per line, in the order given.
func EncodeLedger(w io.Writer, txs []Transaction) error {
	enc := json.NewEncoder(w)
	for i, tx := range txs {
		if err := enc.Encode(tx); err != nil {
			return fmt.Errorf("ledger entry %d: %w", i, err)
		}
	}
	return nil
}
