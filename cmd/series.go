package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/pnlkit/pnlkit"
	"github.com/pnlkit/pnlkit/renderer"
)

// seriesCmd holds the flags for the 'series' subcommand.
type seriesCmd struct {
	method   string
	start    string
	end      string
	interval int
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "performance snapshots over a sliding window" }
func (*seriesCmd) Usage() string {
	return `pnl series [-method <method>] [-s <date>] [-d <date>] [-interval <days>]

  Computes one performance snapshot per interval step across the window.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.method, "method", "fifo", "Cost basis method (fifo, lifo, wac)")
	f.StringVar(&c.start, "s", "", "Start of the series (YYYY-MM-DD). Defaults to the first transaction.")
	f.StringVar(&c.end, "d", "", "End of the series (YYYY-MM-DD). Defaults to today.")
	f.IntVar(&c.interval, "interval", 7, "Days between two snapshots")
}

func (c *seriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	method, err := pnlkit.ParseMethod(c.method)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	cur, err := ReportingCurrency()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if c.interval <= 0 {
		fmt.Fprintln(os.Stderr, "-interval must be positive")
		return subcommands.ExitUsageError
	}

	txs, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	start, end, err := reportingWindow(txs, c.start, c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	r, closeCache, err := OpenResolver()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeCache()

	series, err := pnlkit.Series(ctx, method.Engine(), txs, start, end, c.interval, cur, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing series: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.SeriesMarkdown(series, method))
	return subcommands.ExitSuccess
}
