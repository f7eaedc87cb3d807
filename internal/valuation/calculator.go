package valuation

import (
	"context"
	"math"
	"time"

	"stock-screener/internal/indicator"
	"stock-screener/internal/logger"
	"stock-screener/internal/prices"
	"stock-screener/internal/types"
)

// Calculator derives price/earnings figures from the sparse indicator series
// and resolved prices. Every figure that cannot be computed is left
// undefined rather than forced to zero; negative ratios pass through as-is.
type Calculator struct {
	extractor  *indicator.Extractor
	resolver   *prices.Resolver
	histAdjust types.Adjust // price series used for historical PE
	now        func() time.Time
}

func NewCalculator(extractor *indicator.Extractor, resolver *prices.Resolver, histAdjust types.Adjust) *Calculator {
	return &Calculator{
		extractor:  extractor,
		resolver:   resolver,
		histAdjust: histAdjust,
		now:        time.Now,
	}
}

// Compute builds the full valuation record for one symbol. currentPrice may
// be nil when no quote resolved; the current-PE triple is then undefined but
// the historical figures are still produced.
func (c *Calculator) Compute(ctx context.Context, symbol types.Symbol, currentPrice *float64, lookbackYears int) (*types.ValuationRecord, error) {
	timer := logger.StartOperation(ctx, "compute_valuation", "symbol", symbol.Code)
	ctx = timer.GetContext()

	epsSeries, err := c.extractor.Series(ctx, symbol, indicator.EPSBasic, lookbackYears)
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}
	profitSeries, err := c.extractor.Series(ctx, symbol, indicator.NetProfit, lookbackYears)
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}

	rec := &types.ValuationRecord{
		AnalysisTime: c.now().Format("2006-01-02 15:04:05"),
	}

	if currentPrice != nil {
		rec.DynamicPE = c.dynamicPE(epsSeries, *currentPrice)
		rec.StaticPE = c.staticPE(epsSeries, *currentPrice)
		rec.TTMPE = c.ttmPE(epsSeries, *currentPrice)
	}

	rec.HistoricalPE, err = c.historicalPE(ctx, symbol, epsSeries)
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}
	rec.HistoricalPEG = historicalPEG(rec.HistoricalPE, profitSeries.AnnualValues())

	timer.End("historical_years", len(rec.HistoricalPE))
	return rec, nil
}

// dynamicPE annualizes the newest partial-year EPS by scaling it to four
// quarters.
func (c *Calculator) dynamicPE(eps types.IndicatorSeries, price float64) *float64 {
	latest, ok := eps.Latest()
	if !ok {
		return nil
	}
	annualized := *latest.Value * 12 / float64(latest.Period.Quarter()*3)
	return safeDiv(price, annualized)
}

// staticPE divides by the newest EPS reported for a year before the as-of
// year, normally the prior full-year figure.
func (c *Calculator) staticPE(eps types.IndicatorSeries, price float64) *float64 {
	v := c.priorYearEPS(eps)
	if v == nil {
		return nil
	}
	return safeDiv(price, *v)
}

// ttmPE reconstructs twelve trailing months: prior full year, minus the
// prior-year portion already rolled off, plus the newest partial year. When
// the newest report is itself a Q4 report the trailing window is exactly the
// static one.
func (c *Calculator) ttmPE(eps types.IndicatorSeries, price float64) *float64 {
	latest, ok := eps.Latest()
	if !ok {
		return nil
	}
	if latest.Period.Quarter() == 4 {
		return c.staticPE(eps, price)
	}

	priorFull := c.priorYearEPS(eps)
	if priorFull == nil {
		return nil
	}

	var priorSameQ *float64
	for i := len(eps) - 1; i >= 0; i-- {
		pt := eps[i]
		if pt.Value == nil {
			continue
		}
		if pt.Period.Year == latest.Period.Year-1 && pt.Period.Quarter() == latest.Period.Quarter() {
			priorSameQ = pt.Value
			break
		}
	}
	if priorSameQ == nil {
		return nil
	}

	ttm := *priorFull - *priorSameQ + *latest.Value
	return safeDiv(price, ttm)
}

// priorYearEPS returns the newest EPS whose report year precedes the as-of
// year.
func (c *Calculator) priorYearEPS(eps types.IndicatorSeries) *float64 {
	asOfYear := c.now().Year()
	for i := len(eps) - 1; i >= 0; i-- {
		if eps[i].Value == nil {
			continue
		}
		if eps[i].Period.Year < asOfYear {
			return eps[i].Value
		}
	}
	return nil
}

// historicalPE computes year-end PE for every full-year EPS report with a
// resolvable period-date price.
func (c *Calculator) historicalPE(ctx context.Context, symbol types.Symbol, eps types.IndicatorSeries) (map[int]float64, error) {
	out := map[int]float64{}
	for _, pt := range eps {
		if !pt.Period.Annual() || pt.Value == nil {
			continue
		}
		price, err := c.resolver.PriceAt(ctx, symbol, pt.Period.Date, c.histAdjust)
		if err != nil {
			return nil, err
		}
		if price == nil {
			continue
		}
		if pe := safeDiv(*price, *pt.Value); pe != nil {
			out[pt.Period.Year] = *pe
		}
	}
	return out, nil
}

// historicalPEG divides each year's PE by that year's profit growth over the
// prior year, in percent. Years with no prior-year profit or flat growth are
// undefined.
func historicalPEG(pe map[int]float64, profit map[int]float64) map[int]float64 {
	out := map[int]float64{}
	for year, ratio := range pe {
		base, okBase := profit[year-1]
		current, okCur := profit[year]
		if !okBase || !okCur {
			continue
		}
		growth := safeDiv((current-base)*100, base)
		if growth == nil || *growth == 0 {
			continue
		}
		if peg := safeDiv(ratio, *growth); peg != nil {
			out[year] = *peg
		}
	}
	return out
}

// safeDiv guards the divisions: a vanishing divisor or a non-finite result
// yields undefined instead of a garbage ratio.
func safeDiv(num, den float64) *float64 {
	if math.Abs(den) < 1e-9 {
		return nil
	}
	v := num / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
