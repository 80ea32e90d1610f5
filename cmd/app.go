// Package cmd implements the CLI application to analyze a portfolio ledger.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pnlkit/pnlkit"
	"github.com/pnlkit/pnlkit/cache"
	"github.com/pnlkit/pnlkit/opnfn"
)

// Commands lists every subcommand; a main package registers them all on a
// commander and executes the user-selected one.
var Commands = []subcommands.Command{
	&perfCmd{},
	&seriesCmd{},
	&filterCmd{},
	&prewarmCmd{},
	&pipelineCmd{},
	&fmtCmd{},
	&importCmd{},
	&assistCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables for the shared flags.

var (
	ledgerFile = flag.String("ledger-file", "transactions.jsonl", "Path to the ledger file containing transactions (JSONL format)")
	cacheFile  = flag.String("cache-file", "pnlkit-cache.db", "Path to the market-data cache database")
	currency   = flag.String("currency", envOr("PNLKIT_CURRENCY", "EUR"), "Reporting currency (ISO 4217 code)")
	verbose    = flag.Bool("v", false, "Enable debug logging")
)

func init() {
	// a missing .env file is not an error, flags and environment still apply
	_ = godotenv.Load()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Logger returns the application logger, honoring the -v flag.
func Logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

// ReportingCurrency parses the -currency flag.
func ReportingCurrency() (pnlkit.Currency, error) {
	return pnlkit.ParseCurrency(*currency)
}

// DecodeLedger reads the application's ledger file. A missing file is an
// empty ledger, not an error.
func DecodeLedger() ([]pnlkit.Transaction, error) {
	f, err := os.Open(*ledgerFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot open ledger file %q: %w", *ledgerFile, err)
	}
	defer f.Close()

	txs, err := pnlkit.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode ledger file %q: %w", *ledgerFile, err)
	}
	return txs, nil
}

// EncodeLedger rewrites the application's ledger file in canonical form.
func EncodeLedger(txs []pnlkit.Transaction) error {
	f, err := os.OpenFile(*ledgerFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("cannot open ledger file %q for writing: %w", *ledgerFile, err)
	}
	defer f.Close()
	return pnlkit.EncodeLedger(f, txs)
}

// OpenResolver builds the market-data resolver over the opnfn API and the
// on-disk cache. The returned closer flushes the cache database.
func OpenResolver() (*pnlkit.Resolver, func() error, error) {
	db, err := cache.OpenSQLite(*cacheFile)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open cache %q: %w", *cacheFile, err)
	}
	log := Logger()
	src := opnfn.New(opnfn.WithLogger(log))
	r := pnlkit.NewResolver(src, db)
	r.Log = log
	return r, db.Close, nil
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering fails (e.g. no TTY detection possible).
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
