package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/pnlkit/pnlkit"
)

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	file    string
	records string
	layout  string
	write   bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a broker JSON export" }
func (*importCmd) Usage() string {
	return `pnl import -f <export.json> [-records <jsonpath>] [-layout <go time layout>] [-w]

  Converts a broker's JSON export into ledger transactions. Writes the
  resulting JSONL to stdout, or appends to the ledger file with -w.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Broker export file to import")
	f.StringVar(&c.records, "records", pnlkit.DefaultBrokerMapping.Records, "jsonpath selecting the transaction records")
	f.StringVar(&c.layout, "layout", "", "Go time layout of record timestamps. Defaults to RFC 3339.")
	f.BoolVar(&c.write, "w", false, "Append to the ledger file instead of printing to stdout")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "-f is required")
		return subcommands.ExitUsageError
	}

	in, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening export file %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	mapping := pnlkit.DefaultBrokerMapping
	mapping.Records = c.records
	mapping.TimeLayout = c.layout

	imported, err := pnlkit.ImportBrokerLedger(in, mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}

	if c.write {
		existing, err := DecodeLedger()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		merged := append(existing, imported...)
		pnlkit.SortTransactions(merged)
		if err := EncodeLedger(merged); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Imported %d transactions into %q.\n", len(imported), *ledgerFile)
		return subcommands.ExitSuccess
	}
	if err := pnlkit.EncodeLedger(os.Stdout, imported); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
