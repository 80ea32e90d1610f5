package pnlkit

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 currency code.
type Currency string

// Currencies a transaction ledger may be denominated in.
const (
	USD Currency = "USD"
	GBP Currency = "GBP"
	GBX Currency = "GBX" // pence sterling, quoted by LSE listings
	EUR Currency = "EUR"
	CAD Currency = "CAD"
	CHF Currency = "CHF"
	JPY Currency = "JPY"
	AUD Currency = "AUD"
	DKK Currency = "DKK"
	HKD Currency = "HKD"
	CNY Currency = "CNY"
	MXN Currency = "MXN"
	INR Currency = "INR"
	BRL Currency = "BRL"
	KRW Currency = "KRW"
	SEK Currency = "SEK"
	PLN Currency = "PLN"
	NOK Currency = "NOK"
	ZAR Currency = "ZAR"
	SGD Currency = "SGD"
	ILS Currency = "ILS"
	CZK Currency = "CZK"
	HUF Currency = "HUF"
)

var currencies = map[string]Currency{
	"USD": USD, "GBP": GBP, "GBX": GBX, "EUR": EUR, "CAD": CAD, "CHF": CHF,
	"JPY": JPY, "AUD": AUD, "DKK": DKK, "HKD": HKD, "CNY": CNY, "MXN": MXN,
	"INR": INR, "BRL": BRL, "KRW": KRW, "SEK": SEK, "PLN": PLN, "NOK": NOK,
	"ZAR": ZAR, "SGD": SGD, "ILS": ILS, "CZK": CZK, "HUF": HUF,
	// pence sterling appears under both spellings in provider data
	"GBp": GBX,
}

// ParseCurrency parses a currency code, normalizing the "GBp" spelling of
// pence sterling to GBX.
func ParseCurrency(code string) (Currency, error) {
	c, ok := currencies[code]
	if !ok {
		return "", fmt.Errorf("unknown currency %q", code)
	}
	return c, nil
}

// Money is a monetary value in integer minor units (e.g. cents).
//
// Positive amounts are money coming into the account, negative amounts money
// leaving it. All persisted monetary values are integers; floating point only
// appears in intermediate price and FX products, which are floored before
// they land in a Money.
type Money struct {
	Currency Currency `json:"currency"`
	Amount   int64    `json:"amount"`
}

// M is a convenient Money factory.
func M(amount int64, cur Currency) Money { return Money{Currency: cur, Amount: amount} }

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsPositive() bool { return m.Amount > 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }
func (m Money) Neg() Money       { return Money{Currency: m.Currency, Amount: -m.Amount} }
func (m Money) Equal(n Money) bool {
	return m.Currency == n.Currency && m.Amount == n.Amount
}

// Add returns m+n. The "" currency is weak: it takes the other side's currency.
func (m Money) Add(n Money) Money {
	return Money{Currency: cur(m, n), Amount: m.Amount + n.Amount}
}

// Sub returns m-n.
func (m Money) Sub(n Money) Money {
	return Money{Currency: cur(m, n), Amount: m.Amount - n.Amount}
}

func cur(a, b Money) Currency {
	if a.Currency == "" {
		return b.Currency
	}
	if b.Currency == "" {
		return a.Currency
	}
	if a.Currency != b.Currency {
		panic("currency mismatch " + a.Currency + " != " + b.Currency)
	}
	return a.Currency
}

// String formats the amount with its currency symbol and minor-unit fraction.
func (m Money) String() string {
	return money.New(m.Amount, string(m.Currency)).Display()
}

// SignedString is like String but with an explicit sign; zero is rendered "-".
func (m Money) SignedString() string {
	if m.Amount == 0 {
		return "-"
	}
	if m.Amount > 0 {
		return "+" + m.String()
	}
	return m.String()
}

// floorMoney converts an intermediate float product into integer minor units.
func floorMoney(amount float64, cur Currency) Money {
	return Money{Currency: cur, Amount: int64(math.Floor(amount))}
}

// fraction returns the number of minor-unit digits of a currency (2 for USD,
// 0 for JPY).
func fraction(cur Currency) int32 {
	if c := money.GetCurrency(string(cur)); c != nil {
		return int32(c.Fraction)
	}
	return 2
}

// ParseAmount converts a major-unit decimal string such as "101.11" into
// integer minor units (10111 for USD). Excess decimals are floored away.
func ParseAmount(s string, cur Currency) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d.Shift(fraction(cur)).Floor().IntPart(), nil
}

// OHLC is an open/high/low/close price record for a single period.
type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}
