package pnlkit

import (
	"sort"
	"time"
)

// TxKind is the explicit discriminant of a transaction variant.
//
// Classification is never inferred from the presence or absence of fields:
// an empty Security value must not silently turn a security transaction into
// a cash one.
type TxKind string

const (
	KindCash     TxKind = "cash"
	KindSecurity TxKind = "security"
	KindDividend TxKind = "dividend"
)

// Transaction is the common interface of the three ledger entry variants.
//
// Sign convention, shared by all variants: a positive cash amount is money
// coming into the account (deposit, sale, dividend), a negative amount is
// money leaving it (withdrawal, purchase).
type Transaction interface {
	Kind() TxKind     // Kind returns the variant discriminant.
	When() time.Time  // When returns the instant the transaction occurred.
	Cash() Money      // Cash returns the cash-flow leg of the transaction.
	Equal(Transaction) bool
}

// baseTx carries the fields common to every transaction variant.
type baseTx struct {
	Time     time.Time         `json:"time"`
	Value    Money             `json:"value"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// When returns the instant the transaction occurred.
func (t baseTx) When() time.Time { return t.Time }

// Cash returns the cash-flow leg of the transaction.
func (t baseTx) Cash() Money { return t.Value }

func (t baseTx) equal(o baseTx) bool {
	return t.Time.Equal(o.Time) && t.Value.Equal(o.Value)
}

// CashTx is a deposit (positive value) or withdrawal (negative value).
type CashTx struct {
	baseTx
}

// NewCashTx creates a deposit or withdrawal at the given instant.
func NewCashTx(at time.Time, value Money) CashTx {
	return CashTx{baseTx{Time: at, Value: value}}
}

func (CashTx) Kind() TxKind { return KindCash }

func (t CashTx) Equal(other Transaction) bool {
	o, ok := other.(CashTx)
	return ok && t.baseTx.equal(o.baseTx)
}

// SecurityTx is a purchase (negative value, positive shares) or a sale
// (positive value, negative shares) of a security.
type SecurityTx struct {
	baseTx
	Security Security `json:"security"`
	Shares   float64  `json:"shares"`
}

// NewSecurityTx creates a purchase or sale. The shares sign must be
// consistent with the value sign: buys remove cash and add shares, sells
// add cash and remove shares.
func NewSecurityTx(at time.Time, value Money, sec Security, shares float64) SecurityTx {
	return SecurityTx{
		baseTx:   baseTx{Time: at, Value: value},
		Security: sec,
		Shares:   shares,
	}
}

func (SecurityTx) Kind() TxKind { return KindSecurity }

func (t SecurityTx) Equal(other Transaction) bool {
	o, ok := other.(SecurityTx)
	return ok && t.baseTx.equal(o.baseTx) &&
		t.Security.ISIN == o.Security.ISIN && t.Shares == o.Shares
}

// PricePerShare returns the absolute per-share price implied by the
// transaction, in minor units of the transaction currency.
func (t SecurityTx) PricePerShare() float64 {
	price := float64(t.Value.Amount) / t.Shares
	if price < 0 {
		return -price
	}
	return price
}

// DividendTx is a dividend payment for a security. It carries no shares:
// the position's share count is unchanged by a dividend.
type DividendTx struct {
	baseTx
	Security Security `json:"security"`
}

// NewDividendTx creates a dividend payment at the given instant.
func NewDividendTx(at time.Time, value Money, sec Security) DividendTx {
	return DividendTx{
		baseTx:   baseTx{Time: at, Value: value},
		Security: sec,
	}
}

func (DividendTx) Kind() TxKind { return KindDividend }

func (t DividendTx) Equal(other Transaction) bool {
	o, ok := other.(DividendTx)
	return ok && t.baseTx.equal(o.baseTx) && t.Security.ISIN == o.Security.ISIN
}

// SortTransactions sorts transactions chronologically, keeping the relative
// order of same-instant entries stable.
func SortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].When().Before(txs[j].When())
	})
}
