package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/pnlkit/pnlkit"
)

// prewarmCmd holds the flags for the 'prewarm' subcommand.
type prewarmCmd struct{}

func (*prewarmCmd) Name() string     { return "prewarm" }
func (*prewarmCmd) Synopsis() string { return "bulk-fetch historical prices into the cache" }
func (*prewarmCmd) Usage() string {
	return `pnl prewarm

  Fetches the daily closing prices of every position over its lifetime and
  stores them in the cache, so later computations need no per-day requests.
`
}

func (*prewarmCmd) SetFlags(*flag.FlagSet) {}

func (c *prewarmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cur, err := ReportingCurrency()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
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

	if err := pnlkit.Prewarm(ctx, txs, cur, r); err != nil {
		fmt.Fprintf(os.Stderr, "Error pre-warming cache: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("Cache pre-warmed.")
	return subcommands.ExitSuccess
}
