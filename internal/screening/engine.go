package screening

import (
	"fmt"
	"math"
	"sort"
	"time"

	"stock-screener/internal/types"
)

// Config holds the screening thresholds. Defaults mirror the batch driver's
// shipped configuration; every knob is overridable per run.
type Config struct {
	MaxPercentile   float64 // valuation rank cutoff, percent
	ROEWindowYears  int     // years of core ROE considered
	MinROEMean      float64
	MaxROEStd       float64 // population standard deviation ceiling
	MinROEYears     int     // observations required inside the window
	ReversalEnabled bool
	MaxEntryPE      float64
	ROEFloor        float64 // quality gate: annual ROE below this is a weak year
	MaxLowROEYears  int     // quality gate: weak years tolerated in the window
}

func DefaultConfig() Config {
	return Config{
		MaxPercentile:   30,
		ROEWindowYears:  5,
		MinROEMean:      10,
		MaxROEStd:       2,
		MinROEYears:     3,
		ReversalEnabled: true,
		MaxEntryPE:      30,
		ROEFloor:        5,
		MaxLowROEYears:  1,
	}
}

// Engine applies the screening predicates to an assembled stock record. It
// is pure over the record: all data fetching happens upstream.
type Engine struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// Evaluate screens one symbol for an entry at the end of the given year. For
// the open year the latest quote stands in for the year-end close and the
// most conservative of the current PE figures stands in for the year PE.
func (e *Engine) Evaluate(rec *types.StockRecord, year int) types.ScreeningResult {
	result := types.ScreeningResult{Symbol: rec.Code, Year: year}

	entryPE, entryPrice, ok := e.entryPoint(rec, year)
	if !ok {
		result.Reasons = append(result.Reasons, "no entry valuation for year")
		return result
	}
	result.Metrics.EntryPE = &entryPE

	// A loss year carries its negative PE through so it can be rejected
	// here; it must not slip past the cap or vanish from the rank.
	if entryPE <= 0 {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("entry PE %.1f not positive", entryPE))
	} else if entryPE > e.cfg.MaxEntryPE {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("entry PE %.1f above cap %.1f", entryPE, e.cfg.MaxEntryPE))
	}

	e.checkPercentile(rec, year, entryPE, &result)
	e.checkROEStability(rec, year, &result)
	if e.cfg.ReversalEnabled {
		e.checkReversal(rec, year, entryPE, entryPrice, &result)
	}

	result.Pass = len(result.Reasons) == 0
	return result
}

// entryPoint resolves the PE and price the year is judged at.
func (e *Engine) entryPoint(rec *types.StockRecord, year int) (pe, price float64, ok bool) {
	if rec.Valuation == nil {
		return 0, 0, false
	}

	if year < e.now().Year() {
		pe, okPE := rec.Valuation.HistoricalPE[year]
		price, okPrice := rec.YearlyPriceAdj[year]
		return pe, price, okPE && okPrice
	}

	current := minDefined(rec.Valuation.DynamicPE, rec.Valuation.StaticPE, rec.Valuation.TTMPE)
	if current == nil || rec.CurrentPrice == nil {
		return 0, 0, false
	}
	return *current, rec.CurrentPrice.Close, true
}

// checkPercentile ranks the entry PE inside the symbol's own positive PE
// history. A short history is an automatic fail: one comparison year is not
// a distribution.
func (e *Engine) checkPercentile(rec *types.StockRecord, year int, entryPE float64, result *types.ScreeningResult) {
	values := []float64{}
	for y, pe := range rec.Valuation.HistoricalPE {
		if y < year && pe > 0 {
			values = append(values, pe)
		}
	}
	if entryPE > 0 {
		values = append(values, entryPE)
	}
	result.Metrics.PEYears = len(values)

	if len(values) < 2 {
		result.Reasons = append(result.Reasons, "fewer than 2 years of positive PE history")
		return
	}

	rank := 1
	for _, v := range values {
		if v < entryPE {
			rank++
		}
	}
	pct := float64(rank) / float64(len(values)) * 100
	result.Metrics.Percentile = &pct

	if pct > e.cfg.MaxPercentile {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("PE percentile %.1f above cutoff %.1f", pct, e.cfg.MaxPercentile))
	}
}

// checkROEStability requires the core (non-recurring-excluded) annual ROE
// over the trailing window to be both high and steady.
func (e *Engine) checkROEStability(rec *types.StockRecord, year int, result *types.ScreeningResult) {
	if rec.ROE == nil {
		result.Reasons = append(result.Reasons, "no ROE profile")
		return
	}

	values := []float64{}
	for i := 0; i < e.cfg.ROEWindowYears; i++ {
		if q, ok := rec.ROE.Core[year-i]; ok {
			if v := q.Annual(); v != nil {
				values = append(values, *v)
			}
		}
	}
	result.Metrics.ROEValues = values

	if len(values) < e.cfg.MinROEYears {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("only %d annual core ROE observations, need %d", len(values), e.cfg.MinROEYears))
		return
	}

	m := mean(values)
	sd := popStd(values, m)
	result.Metrics.ROEMean = &m
	result.Metrics.ROEStd = &sd

	if m < e.cfg.MinROEMean {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("ROE mean %.2f below %.2f", m, e.cfg.MinROEMean))
	}
	if sd > e.cfg.MaxROEStd {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("ROE std %.2f above %.2f", sd, e.cfg.MaxROEStd))
	}
}

// checkReversal wants three years of strictly falling PE while the price
// already turned back up: cheap on earnings, past its trough.
func (e *Engine) checkReversal(rec *types.StockRecord, year int, entryPE, entryPrice float64, result *types.ScreeningResult) {
	pe2, ok2 := rec.Valuation.HistoricalPE[year-2]
	pe1, ok1 := rec.Valuation.HistoricalPE[year-1]
	p2, okP2 := rec.YearlyPriceAdj[year-2]
	p1, okP1 := rec.YearlyPriceAdj[year-1]
	if !ok2 || !ok1 || !okP2 || !okP1 {
		result.Reasons = append(result.Reasons, "incomplete 3-year history for reversal check")
		return
	}

	if !(pe2 > pe1 && pe1 > entryPE) {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("PE not strictly declining: %.1f, %.1f, %.1f", pe2, pe1, entryPE))
	}
	if !(p2 > p1 && p1 < entryPrice) {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("price shape not a trough recovery: %.2f, %.2f, %.2f", p2, p1, entryPrice))
	}
}

// GradeROE is the coarse quality gate run before the expensive valuation
// work: within the trailing window, at most MaxLowROEYears may fall below
// the floor.
func (e *Engine) GradeROE(profile *types.ROEProfile, asOfYear int) (status, reason string) {
	if profile == nil {
		return "failed", "no ROE profile"
	}

	observed := 0
	low := 0
	lowYears := []int{}
	for i := 1; i <= e.cfg.ROEWindowYears; i++ {
		year := asOfYear - i
		q, ok := profile.Reported[year]
		if !ok {
			continue
		}
		v := q.Annual()
		if v == nil {
			continue
		}
		observed++
		if *v < e.cfg.ROEFloor {
			low++
			lowYears = append(lowYears, year)
		}
	}

	if observed < e.cfg.MinROEYears {
		return "failed", fmt.Sprintf("only %d annual ROE observations in window", observed)
	}
	if low > e.cfg.MaxLowROEYears {
		return "bad", fmt.Sprintf("ROE below %.1f in %d years %v", e.cfg.ROEFloor, low, lowYears)
	}
	return "good", ""
}

// RisingROE reports whether the annual reported ROE rose strictly year over
// year across the observed window. At least two observations are required.
func RisingROE(profile *types.ROEProfile, fromYear, toYear int) bool {
	if profile == nil {
		return false
	}
	values := []float64{}
	years := []int{}
	for y := range profile.Reported {
		if y >= fromYear && y <= toYear {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	for _, y := range years {
		if v := profile.Reported[y].Annual(); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) < 2 {
		return false
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}

func minDefined(vals ...*float64) *float64 {
	var best *float64
	for _, v := range vals {
		if v == nil {
			continue
		}
		if best == nil || *v < *best {
			best = v
		}
	}
	return best
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func popStd(values []float64, m float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
