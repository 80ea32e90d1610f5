package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/pnlkit/pnlkit"
)

// pipelineCmd holds the flags for the 'pipeline' subcommand.
type pipelineCmd struct {
	eps   float64
	until string
	write bool
}

func (*pipelineCmd) Name() string { return "pipeline" }
func (*pipelineCmd) Synopsis() string {
	return "filter, split-correct and prewarm the ledger in one pass"
}
func (*pipelineCmd) Usage() string {
	return `pnl pipeline [-eps <fraction>] [-until <date>] [-w]

  Runs the full preparation pipeline: drops positions with faulty price data,
  corrects the survivors for stock splits, and pre-warms the price cache.
  Writes the resulting ledger to stdout, or back to the ledger file with -w.
`
}

func (c *pipelineCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.eps, "eps", pnlkit.DefaultFilterEpsilon, "Tolerated price divergence, as a fraction")
	f.StringVar(&c.until, "until", "", "Split correction cutoff (YYYY-MM-DD). Defaults to today.")
	f.BoolVar(&c.write, "w", false, "Rewrite the ledger file instead of printing to stdout")
}

func (c *pipelineCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cur, err := ReportingCurrency()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	until := time.Now().UTC()
	if c.until != "" {
		if until, err = time.Parse("2006-01-02", c.until); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -until date %q: %v\n", c.until, err)
			return subcommands.ExitUsageError
		}
	}

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

	prepared, err := pnlkit.Pipeline(ctx, txs, c.eps, until, cur, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running pipeline: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.write {
		if err := EncodeLedger(prepared); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Ledger file %q has been prepared.\n", *ledgerFile)
		return subcommands.ExitSuccess
	}
	if err := pnlkit.EncodeLedger(os.Stdout, prepared); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
