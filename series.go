package pnlkit

import (
	"context"
	"time"
)

// PerformancePoint is one timestamped snapshot of a series, stamped with its
// window's end time.
type PerformancePoint struct {
	Performance
	Time time.Time `json:"time"`
}

// PerformanceSeries is an ordered sequence of independently computed
// snapshots.
type PerformanceSeries []PerformancePoint

// Series computes a performance time series by sliding a window of
// intervalDays across [start, end], invoking the engine once per step. Each
// snapshot is independent: no state carries between steps beyond the shared
// transaction history (and whatever the resolver's cache remembers).
func Series(ctx context.Context, engine Engine, fullHistory []Transaction, start, end time.Time, intervalDays int, cur Currency, r *Resolver) (PerformanceSeries, error) {
	interval := time.Duration(intervalDays) * 24 * time.Hour

	var series PerformanceSeries
	for cursor := start; cursor.Before(end); cursor = cursor.Add(interval) {
		windowEnd := cursor.Add(interval)
		p, err := engine(ctx, fullHistory, cursor, windowEnd, cur, r)
		if err != nil {
			return nil, err
		}
		series = append(series, PerformancePoint{Performance: *p, Time: windowEnd})
	}
	return series, nil
}
