// Package pnlkit computes the profit and loss of a personal portfolio from
// its transaction ledger. It is designed to be local-first and auditable:
// the ledger is a human-readable JSONL file, and every figure is recomputed
// from it on demand.
//
// The core functionalities include:
//   - Ledger Management: Recording cash movements, security trades and
//     dividends in an immutable, chronological record.
//   - Position Aggregation: Folding the ledger into open and closed
//     positions, with cash balances per currency.
//   - Performance Engines: Realized and unrealized P/L under the FIFO, LIFO
//     and weighted-average cost basis methods, in any reporting currency.
//   - Market Data Resolution: Cache-memoized price, exchange-rate and
//     stock-split lookups against a pluggable market-data source.
//   - Ledger Preparation: Stock-split correction, faulty-price filtering and
//     bulk cache pre-warming, composable into a single pipeline.
//
// This package serves as the foundational logic for the `pnl` command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package pnlkit
