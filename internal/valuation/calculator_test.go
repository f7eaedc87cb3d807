package valuation

import (
	"context"
	"testing"
	"time"

	"stock-screener/internal/indicator"
	"stock-screener/internal/logger"
	"stock-screener/internal/prices"
	"stock-screener/internal/types"
)

func init() {
	logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text", TracingEnabled: false})
}

func ptr(v float64) *float64 { return &v }

func mustPeriod(t *testing.T, date string) types.ReportPeriod {
	t.Helper()
	p, err := types.ParsePeriod(date)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// fakeData serves one report table plus daily bars filtered by window.
type fakeData struct {
	table *types.ReportTable
	bars  []types.PricePoint
}

func (f *fakeData) FetchReportTable(ctx context.Context, symbol types.Symbol) (*types.ReportTable, error) {
	return f.table, nil
}

func (f *fakeData) FetchDailyPrices(ctx context.Context, symbol types.Symbol, start, end string, adjust types.Adjust) ([]types.PricePoint, error) {
	var out []types.PricePoint
	for _, b := range f.bars {
		if b.Date >= start && b.Date <= end {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeData) FetchUniverse(ctx context.Context) ([]types.StockInfo, error) {
	return nil, nil
}

func newCalculator(t *testing.T, md *fakeData, nowYear int) *Calculator {
	ex := indicator.NewExtractor(indicator.NewStore(md, "", 0))
	res := prices.NewResolver(md)
	c := NewCalculator(ex, res, types.AdjustNone)
	c.now = func() time.Time { return time.Date(nowYear, 8, 15, 0, 0, 0, 0, time.UTC) }
	return c
}

func quarterlyData(t *testing.T) *fakeData {
	return &fakeData{
		table: &types.ReportTable{
			Symbol: "600519",
			Periods: []types.ReportPeriod{
				mustPeriod(t, "20230630"),
				mustPeriod(t, "20230331"),
				mustPeriod(t, "20221231"),
				mustPeriod(t, "20220630"),
				mustPeriod(t, "20211231"),
			},
			Rows: []types.ReportRow{
				{Name: indicator.EPSBasic, Values: []*float64{ptr(2.0), ptr(1.0), ptr(4.0), ptr(1.5), ptr(3.6)}},
				{Name: indicator.NetProfit, Values: []*float64{ptr(300), ptr(150), ptr(550), ptr(200), ptr(500)}},
			},
		},
		bars: []types.PricePoint{
			{Date: "20211231", Close: 72},
			{Date: "20221230", Close: 80},
		},
	}
}

func TestComputeCurrentPETriple(t *testing.T) {
	c := newCalculator(t, quarterlyData(t), 2023)

	rec, err := c.Compute(context.Background(), types.NewSymbol("600519"), ptr(40), 30)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Latest report is 2023 Q2 with EPS 2.0, annualized to 4.0.
	if rec.DynamicPE == nil || !approxEqual(*rec.DynamicPE, 10.0) {
		t.Errorf("dynamic PE = %v, want 10", rec.DynamicPE)
	}
	// Newest pre-2023 EPS is the 2022 full-year 4.0.
	if rec.StaticPE == nil || !approxEqual(*rec.StaticPE, 10.0) {
		t.Errorf("static PE = %v, want 10", rec.StaticPE)
	}
	// TTM EPS: 4.0 - 1.5 + 2.0 = 4.5.
	if rec.TTMPE == nil || !approxEqual(*rec.TTMPE, 40.0/4.5) {
		t.Errorf("ttm PE = %v, want %v", rec.TTMPE, 40.0/4.5)
	}
}

func TestComputeTTMEqualsStaticAtQ4(t *testing.T) {
	md := quarterlyData(t)
	// Chop the 2023 reports so the latest is the 2022 Q4 report.
	md.table.Periods = md.table.Periods[2:]
	for i := range md.table.Rows {
		md.table.Rows[i].Values = md.table.Rows[i].Values[2:]
	}
	c := newCalculator(t, md, 2023)

	rec, err := c.Compute(context.Background(), types.NewSymbol("600519"), ptr(40), 30)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.TTMPE == nil || rec.StaticPE == nil {
		t.Fatalf("ttm = %v, static = %v", rec.TTMPE, rec.StaticPE)
	}
	if *rec.TTMPE != *rec.StaticPE {
		t.Errorf("ttm PE %v != static PE %v with a Q4 latest report", *rec.TTMPE, *rec.StaticPE)
	}
}

func TestComputeNilPriceLeavesCurrentUndefined(t *testing.T) {
	c := newCalculator(t, quarterlyData(t), 2023)

	rec, err := c.Compute(context.Background(), types.NewSymbol("600519"), nil, 30)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.DynamicPE != nil || rec.StaticPE != nil || rec.TTMPE != nil {
		t.Error("current PE triple must be undefined without a quote")
	}
	if len(rec.HistoricalPE) == 0 {
		t.Error("historical PE should still be produced")
	}
}

func TestComputeZeroEPSIsUndefined(t *testing.T) {
	md := quarterlyData(t)
	md.table.Rows[0].Values = []*float64{ptr(0), ptr(0), ptr(0), ptr(0), ptr(0)}
	c := newCalculator(t, md, 2023)

	rec, err := c.Compute(context.Background(), types.NewSymbol("600519"), ptr(40), 30)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.DynamicPE != nil || rec.StaticPE != nil || rec.TTMPE != nil {
		t.Error("zero EPS must leave PE undefined, not zero or infinite")
	}
	if len(rec.HistoricalPE) != 0 {
		t.Errorf("historical PE = %v, want empty", rec.HistoricalPE)
	}
}

func TestComputeNegativeEPSKeepsSign(t *testing.T) {
	md := quarterlyData(t)
	md.table.Rows[0].Values[0] = ptr(-2.0)
	c := newCalculator(t, md, 2023)

	rec, err := c.Compute(context.Background(), types.NewSymbol("600519"), ptr(40), 30)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.DynamicPE == nil || *rec.DynamicPE >= 0 {
		t.Errorf("dynamic PE = %v, want negative", rec.DynamicPE)
	}
}

func TestComputeHistoricalPEAndPEG(t *testing.T) {
	c := newCalculator(t, quarterlyData(t), 2023)

	rec, err := c.Compute(context.Background(), types.NewSymbol("600519"), ptr(40), 30)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// 2022: price 80 at year end, EPS 4.0. 2021: price 72, EPS 3.6.
	if !approxEqual(rec.HistoricalPE[2022], 20.0) || !approxEqual(rec.HistoricalPE[2021], 20.0) {
		t.Errorf("historical PE = %v", rec.HistoricalPE)
	}

	// Profit 500 -> 550 is 10% growth, so PEG 2022 = 20 / 10.
	peg, ok := rec.HistoricalPEG[2022]
	if !ok || !approxEqual(peg, 2.0) {
		t.Errorf("PEG 2022 = %v, %v", peg, ok)
	}
	// 2021 has no 2020 profit to grow from.
	if _, ok := rec.HistoricalPEG[2021]; ok {
		t.Error("PEG 2021 must be undefined without a prior-year profit")
	}
}

func TestComputeFlatGrowthLeavesPEGUndefined(t *testing.T) {
	md := quarterlyData(t)
	md.table.Rows[1].Values = []*float64{ptr(300), ptr(150), ptr(500), ptr(200), ptr(500)}
	c := newCalculator(t, md, 2023)

	rec, err := c.Compute(context.Background(), types.NewSymbol("600519"), ptr(40), 30)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, ok := rec.HistoricalPEG[2022]; ok {
		t.Error("flat profit growth must leave PEG undefined")
	}
}

func approxEqual(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
