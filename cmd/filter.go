package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/pnlkit/pnlkit"
)

// filterCmd holds the flags for the 'filter' subcommand.
type filterCmd struct {
	eps   float64
	write bool
}

func (*filterCmd) Name() string { return "filter" }
func (*filterCmd) Synopsis() string {
	return "drop positions whose prices diverge from provider data"
}
func (*filterCmd) Usage() string {
	return `pnl filter [-eps <fraction>] [-w]

  Drops every position with a transaction whose implied price diverges from
  the resolved closing price by more than eps. Writes the filtered ledger to
  stdout, or back to the ledger file with -w.
`
}

func (c *filterCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.eps, "eps", pnlkit.DefaultFilterEpsilon, "Tolerated price divergence, as a fraction")
	f.BoolVar(&c.write, "w", false, "Rewrite the ledger file instead of printing to stdout")
}

func (c *filterCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txs, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	r, closeCache, err := OpenResolver()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeCache()

	filtered, err := pnlkit.FilterTransactions(ctx, txs, c.eps, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error filtering ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.write {
		if err := EncodeLedger(filtered); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Ledger file %q has been filtered.\n", *ledgerFile)
		return subcommands.ExitSuccess
	}
	if err := pnlkit.EncodeLedger(os.Stdout, filtered); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
