package indicator

import (
	"context"

	"stock-screener/internal/types"
)

// ProfileBuilder assembles quarter-indexed yearly ROE profiles from the
// report table.
type ProfileBuilder struct {
	extractor *Extractor
}

func NewProfileBuilder(extractor *Extractor) *ProfileBuilder {
	return &ProfileBuilder{extractor: extractor}
}

// Build collects the reported ROE and the non-recurring-excluded ROE over
// the lookback window. Each (year, quarter) slot takes the first value seen;
// years without any observation are left out of the profile.
func (b *ProfileBuilder) Build(ctx context.Context, symbol types.Symbol, lookbackYears int) (*types.ROEProfile, error) {
	table, err := b.extractor.store.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	reported := b.extractor.SeriesFromTable(table, ROE, lookbackYears)
	core := b.extractor.SeriesFromTable(table, CoreROE, lookbackYears)

	profile := types.NewROEProfile()
	bucket(profile.Reported, reported)
	bucket(profile.Core, core)
	return profile, nil
}

func bucket(dst map[int]*types.QuarterValues, series types.IndicatorSeries) {
	for _, pt := range series {
		if pt.Value == nil {
			continue
		}
		year := pt.Period.Year
		slots, ok := dst[year]
		if !ok {
			slots = &types.QuarterValues{}
			dst[year] = slots
		}
		slots.Set(pt.Period.Quarter(), pt.Value)
	}
}
