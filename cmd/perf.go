package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/pnlkit/pnlkit"
	"github.com/pnlkit/pnlkit/renderer"
)

// perfCmd holds the flags for the 'perf' subcommand.
type perfCmd struct {
	method string
	start  string
	end    string
}

func (*perfCmd) Name() string     { return "perf" }
func (*perfCmd) Synopsis() string { return "realized and unrealized profit and loss snapshot" }
func (*perfCmd) Usage() string {
	return `pnl perf [-method <method>] [-s <date>] [-d <date>]

  Computes the portfolio's profit and loss as of a day, per position.
`
}

func (c *perfCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.method, "method", "fifo", "Cost basis method (fifo, lifo, wac)")
	f.StringVar(&c.start, "s", "", "Start of the reporting window (YYYY-MM-DD). Defaults to the first transaction.")
	f.StringVar(&c.end, "d", "", "End of the reporting window (YYYY-MM-DD). Defaults to today.")
}

func (c *perfCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	p, err := method.Engine()(ctx, txs, start, end, cur, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing performance: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.PerformanceMarkdown(p, method))
	return subcommands.ExitSuccess
}

// reportingWindow resolves the -s and -d flags against the ledger: the window
// defaults to the account's whole lifetime up to today.
func reportingWindow(txs []pnlkit.Transaction, startFlag, endFlag string) (start, end time.Time, err error) {
	if len(txs) > 0 {
		start = txs[0].When()
	}
	end = time.Now().UTC()

	if startFlag != "" {
		if start, err = time.Parse("2006-01-02", startFlag); err != nil {
			return start, end, fmt.Errorf("invalid start date %q: %w", startFlag, err)
		}
	}
	if endFlag != "" {
		if end, err = time.Parse("2006-01-02", endFlag); err != nil {
			return start, end, fmt.Errorf("invalid end date %q: %w", endFlag, err)
		}
		// make the end day inclusive
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}
