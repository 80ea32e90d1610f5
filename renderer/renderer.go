// Package renderer turns performance snapshots into markdown reports.
package renderer

import (
	"fmt"
	"strings"

	"github.com/pnlkit/pnlkit"
)

// PerformanceMarkdown renders a performance snapshot as a markdown report:
// a headline summary, one table of open positions and one of closed ones.
func PerformanceMarkdown(p *pnlkit.Performance, method pnlkit.Method) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Portfolio Performance (%s)\n\n", method)
	fmt.Fprintf(&b, "| Total Value | Unrealised P/L | Realised P/L |\n")
	fmt.Fprintf(&b, "|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %s | %s | %s |\n\n",
		p.TotalValue.String(),
		p.UnrealisedPL.SignedString(),
		p.RealisedPL.SignedString(),
	)

	if len(p.OpenPositions) > 0 {
		fmt.Fprint(&b, "## Open Positions\n\n")
		fmt.Fprintln(&b, "| Security | Shares | Value | Cost | Unrealised | Realised |")
		fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")
		for _, op := range p.OpenPositions {
			name, count := "", ""
			switch {
			case op.Security != nil:
				name = label(op.Security.Security)
				count = shares(op.Security.Shares)
			case op.Cash != nil:
				name = fmt.Sprintf("Cash (%s)", op.Cash.Value.Currency)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				name,
				count,
				op.TotalValue.String(),
				op.TotalPrice.String(),
				op.UnrealisedPL.SignedString(),
				op.RealisedPL.SignedString(),
			)
		}
		fmt.Fprintln(&b)
	}

	if len(p.ClosedPositions) > 0 {
		fmt.Fprint(&b, "## Closed Positions\n\n")
		fmt.Fprintln(&b, "| Security | Realised |")
		fmt.Fprintln(&b, "|:---|---:|")
		for _, cp := range p.ClosedPositions {
			fmt.Fprintf(&b, "| %s | %s |\n",
				label(cp.Security.Security),
				cp.RealisedPL.SignedString(),
			)
		}
		fmt.Fprintln(&b)
	}

	return b.String()
}

// SeriesMarkdown renders a performance time series as one markdown table,
// one row per snapshot.
func SeriesMarkdown(series pnlkit.PerformanceSeries, method pnlkit.Method) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Performance Series (%s)\n\n", method)
	fmt.Fprintln(&b, "| Until | Total Value | Unrealised P/L | Realised P/L |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, point := range series {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			point.Time.Format("2006-01-02"),
			point.TotalValue.String(),
			point.UnrealisedPL.SignedString(),
			point.RealisedPL.SignedString(),
		)
	}

	return b.String()
}

// label prefers the security's name from metadata, falling back to the ISIN.
func label(sec pnlkit.Security) string {
	if name := sec.Metadata["name"]; name != "" {
		return name
	}
	return sec.ISIN
}

// shares formats a share count without trailing decimal noise.
func shares(n float64) string {
	s := fmt.Sprintf("%.4f", n)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
