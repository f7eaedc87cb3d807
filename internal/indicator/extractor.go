package indicator

import (
	"context"
	"sort"
	"time"

	"stock-screener/internal/types"
)

// Extractor turns report-table rows into chronological indicator series.
type Extractor struct {
	store *Store
	now   func() time.Time
}

func NewExtractor(store *Store) *Extractor {
	return &Extractor{store: store, now: time.Now}
}

// Series returns the points of one indicator whose report year falls within
// the lookback window, oldest first. An indicator the table does not carry
// yields an empty series, not an error; only a failed table load errors.
func (e *Extractor) Series(ctx context.Context, symbol types.Symbol, name string, lookbackYears int) (types.IndicatorSeries, error) {
	table, err := e.store.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return extract(table, name, e.now().Year()-lookbackYears), nil
}

// SeriesFromTable extracts from an already loaded table.
func (e *Extractor) SeriesFromTable(table *types.ReportTable, name string, lookbackYears int) types.IndicatorSeries {
	return extract(table, name, e.now().Year()-lookbackYears)
}

func extract(table *types.ReportTable, name string, minYear int) types.IndicatorSeries {
	row, ok := table.Row(name)
	if !ok {
		return types.IndicatorSeries{}
	}

	series := make(types.IndicatorSeries, 0, len(table.Periods))
	for i, period := range table.Periods {
		if period.Year < minYear {
			continue
		}
		var v *float64
		if i < len(row.Values) {
			v = row.Values[i]
		}
		series = append(series, types.IndicatorPoint{Period: period, Value: v})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Period.Before(series[j].Period)
	})
	return series
}
