package main

import (
	"context"
	"time"

	"stock-screener/internal/logger"
	"stock-screener/internal/screening"
	"stock-screener/internal/types"
)

// analyzeStock runs the full pipeline for one symbol: ROE profile and
// quality gate, yearly prices, latest quote, valuation, screening verdicts
// and realized returns for the screened years.
func (r *runner) analyzeStock(ctx context.Context, info types.StockInfo) *types.StockRecord {
	timer := logger.StartOperation(ctx, "analyze_stock", "symbol", info.Code)
	ctx = timer.GetContext()

	symbol := types.NewSymbol(info.Code)
	nowYear := time.Now().Year()
	lookback := r.cfg.Analysis.LookbackYears

	rec := &types.StockRecord{
		Code:         info.Code,
		Name:         info.Name,
		AnalysisTime: time.Now().Format("2006-01-02 15:04:05"),
	}

	profile, err := r.profiles.Build(ctx, symbol, lookback)
	if err != nil {
		rec.Status = "failed"
		rec.Reason = err.Error()
		timer.EndWithError(err)
		return rec
	}
	rec.ROE = profile

	status, reason := r.engine.GradeROE(profile, nowYear)
	rec.Status = status
	rec.Reason = reason
	if status != "good" {
		logger.Info(ctx, "Symbol rejected by ROE gate",
			"symbol", info.Code, "status", status, "reason", reason)
		timer.End("status", status)
		return rec
	}

	// Year-end closes: raw for valuation history, adjusted for return math.
	returnAdjust := types.Adjust(r.cfg.Analysis.ReturnAdjust)
	rec.YearlyPrice, err = r.resolver.YearEnds(ctx, symbol, nowYear-lookback, nowYear-1, types.AdjustNone)
	if err != nil {
		rec.Status = "failed"
		rec.Reason = err.Error()
		timer.EndWithError(err)
		return rec
	}
	rec.YearlyPriceAdj, err = r.resolver.YearEnds(ctx, symbol, nowYear-lookback, nowYear-1, returnAdjust)
	if err != nil {
		rec.Status = "failed"
		rec.Reason = err.Error()
		timer.EndWithError(err)
		return rec
	}

	quote, err := r.resolver.Latest(ctx, symbol, types.AdjustNone)
	if err != nil {
		logger.Warn(ctx, "No latest quote", "symbol", info.Code, "error", err)
	}
	rec.CurrentPrice = quote

	var currentPrice *float64
	if quote != nil {
		currentPrice = &quote.Close
	}
	rec.Valuation, err = r.calculator.Compute(ctx, symbol, currentPrice, lookback)
	if err != nil {
		rec.Status = "failed"
		rec.Reason = err.Error()
		timer.EndWithError(err)
		return rec
	}

	r.screenYears(ctx, rec, nowYear)

	timer.End("status", rec.Status, "verdicts", len(rec.Screening))
	return rec
}

// screenYears evaluates the last three completed years plus the open year
// and records realized returns for the passing completed years.
func (r *runner) screenYears(ctx context.Context, rec *types.StockRecord, nowYear int) {
	adjQuote := r.latestAdjustedClose(ctx, rec)

	for year := nowYear - 3; year <= nowYear; year++ {
		res := r.engine.Evaluate(rec, year)
		rec.Screening = append(rec.Screening, res)
		logger.Screening(ctx, rec.Code, year, res.Pass, firstReason(res))

		if res.Pass && year < nowYear {
			oneYear, twoYear := r.returns.Returns(year, rec.YearlyPriceAdj, adjQuote)
			fields := []any{"symbol", rec.Code, "entry_year", year, "one_year_pct", oneYear}
			if twoYear != nil {
				fields = append(fields, "two_year_annualized_pct", *twoYear)
			}
			logger.Info(ctx, "Realized return for passing entry", fields...)
		}
	}
}

// latestAdjustedClose fetches the current quote on the return-adjusted
// series so open-year returns compare like with like.
func (r *runner) latestAdjustedClose(ctx context.Context, rec *types.StockRecord) *float64 {
	quote, err := r.resolver.Latest(ctx, types.NewSymbol(rec.Code),
		types.Adjust(r.cfg.Analysis.ReturnAdjust))
	if err != nil || quote == nil {
		return nil
	}
	return &quote.Close
}

func firstReason(res types.ScreeningResult) string {
	if len(res.Reasons) == 0 {
		return ""
	}
	return res.Reasons[0]
}

// summary aggregates a finished run: gate outcomes, screening passes and
// the current-PE distribution of the passing symbols.
type summary struct {
	Good, Bad, Failed int
	Passing           []string
	PEBuckets         struct{ Low, Mid, High int } // <15, 15-30, >30
	RisingROE         []string
}

func summarize(records map[string]*types.StockRecord, nowYear, windowYears int) summary {
	var s summary
	for code, rec := range records {
		switch rec.Status {
		case "good":
			s.Good++
		case "bad":
			s.Bad++
		default:
			s.Failed++
		}

		if passedOpenYear(rec, nowYear) {
			s.Passing = append(s.Passing, code)
			bucketPE(&s, rec)
			if screening.RisingROE(rec.ROE, nowYear-windowYears, nowYear-1) {
				s.RisingROE = append(s.RisingROE, code)
			}
		}
	}
	return s
}

func passedOpenYear(rec *types.StockRecord, nowYear int) bool {
	for _, res := range rec.Screening {
		if res.Year == nowYear && res.Pass {
			return true
		}
	}
	return false
}

func bucketPE(s *summary, rec *types.StockRecord) {
	if rec.Valuation == nil || rec.Valuation.TTMPE == nil {
		return
	}
	switch pe := *rec.Valuation.TTMPE; {
	case pe < 15:
		s.PEBuckets.Low++
	case pe <= 30:
		s.PEBuckets.Mid++
	default:
		s.PEBuckets.High++
	}
}
