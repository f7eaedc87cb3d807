package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Adjust selects the price series variant returned by the market data provider.
type Adjust string

const (
	AdjustNone     Adjust = ""    // raw exchange closes
	AdjustForward  Adjust = "qfq" // forward adjusted
	AdjustBackward Adjust = "hfq" // backward adjusted
)

// Symbol is a six digit A-share code plus its derived exchange prefix.
type Symbol struct {
	Code   string
	Prefix string
}

// NewSymbol derives the exchange prefix from the leading digit of the code:
// 6 is Shanghai, 0 and 3 are Shenzhen, 4 and 8 are Beijing.
func NewSymbol(code string) Symbol {
	code = strings.TrimSpace(code)
	prefix := ""
	if len(code) > 0 {
		switch code[0] {
		case '6':
			prefix = "sh"
		case '0', '3':
			prefix = "sz"
		case '4', '8':
			prefix = "bj"
		}
	}
	return Symbol{Code: code, Prefix: prefix}
}

// String returns the prefixed form, e.g. "sh600519".
func (s Symbol) String() string { return s.Prefix + s.Code }

// ReportPeriod is a financial report date in YYYYMMDD form.
type ReportPeriod struct {
	Date  string
	Year  int
	Month int
	Day   int
}

// ParsePeriod parses a YYYYMMDD report date.
func ParsePeriod(date string) (ReportPeriod, error) {
	if len(date) != 8 {
		return ReportPeriod{}, fmt.Errorf("report period %q: want YYYYMMDD", date)
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return ReportPeriod{}, fmt.Errorf("report period %q: %w", date, err)
	}
	m, err := strconv.Atoi(date[4:6])
	if err != nil {
		return ReportPeriod{}, fmt.Errorf("report period %q: %w", date, err)
	}
	d, err := strconv.Atoi(date[6:8])
	if err != nil {
		return ReportPeriod{}, fmt.Errorf("report period %q: %w", date, err)
	}
	if m < 1 || m > 12 {
		return ReportPeriod{}, fmt.Errorf("report period %q: month out of range", date)
	}
	return ReportPeriod{Date: date, Year: y, Month: m, Day: d}, nil
}

// Quarter buckets the period month: months 1-3 are Q1, 4-6 Q2, 7-9 Q3, the
// rest Q4.
func (p ReportPeriod) Quarter() int {
	switch {
	case p.Month <= 3:
		return 1
	case p.Month <= 6:
		return 2
	case p.Month <= 9:
		return 3
	default:
		return 4
	}
}

// Annual reports whether the period is a full-year report (December date).
func (p ReportPeriod) Annual() bool { return p.Month == 12 }

// Before orders periods chronologically by their raw date.
func (p ReportPeriod) Before(o ReportPeriod) bool { return p.Date < o.Date }

func (p ReportPeriod) String() string { return p.Date }

// IndicatorPoint is one sampled value of a report indicator. Value is nil
// when the report omitted the figure for that period.
type IndicatorPoint struct {
	Period ReportPeriod
	Value  *float64
}

// IndicatorSeries is a chronologically ascending sequence of points.
type IndicatorSeries []IndicatorPoint

// Latest returns the most recent point carrying a value.
func (s IndicatorSeries) Latest() (IndicatorPoint, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Value != nil {
			return s[i], true
		}
	}
	return IndicatorPoint{}, false
}

// AnnualValues returns year -> value for the full-year points only.
func (s IndicatorSeries) AnnualValues() map[int]float64 {
	out := map[int]float64{}
	for _, pt := range s {
		if pt.Period.Annual() && pt.Value != nil {
			out[pt.Period.Year] = *pt.Value
		}
	}
	return out
}

// ReportRow is one indicator row of an abstract report table. Values align
// with the owning table's Periods slice; nil marks a missing figure.
type ReportRow struct {
	Category string     `json:"category"`
	Name     string     `json:"name"`
	Values   []*float64 `json:"values"`
}

// ReportTable is the sparse per-symbol indicator table as fetched, periods
// most recent first.
type ReportTable struct {
	Symbol  string         `json:"symbol"`
	Periods []ReportPeriod `json:"periods"`
	Rows    []ReportRow    `json:"rows"`
}

// Row looks up a row by exact indicator name.
func (t *ReportTable) Row(name string) (*ReportRow, bool) {
	for i := range t.Rows {
		if t.Rows[i].Name == name {
			return &t.Rows[i], true
		}
	}
	return nil, false
}

// Empty reports whether the table carries no usable data.
func (t *ReportTable) Empty() bool {
	return t == nil || len(t.Periods) == 0 || len(t.Rows) == 0
}

// PricePoint is one daily close of a price series.
type PricePoint struct {
	Date   string  `json:"date"` // YYYYMMDD
	Close  float64 `json:"close"`
	Adjust Adjust  `json:"adjust,omitempty"`
}

// QuarterValues holds one year's ROE readings indexed by quarter. A slot is
// nil until first observed and keeps its first value afterwards.
type QuarterValues [4]*float64

// Set stores v into the quarter slot if the slot is still empty. It reports
// whether the value was stored.
func (q *QuarterValues) Set(quarter int, v *float64) bool {
	if quarter < 1 || quarter > 4 || v == nil {
		return false
	}
	if q[quarter-1] != nil {
		return false
	}
	q[quarter-1] = v
	return true
}

// Annual returns the Q4 slot.
func (q *QuarterValues) Annual() *float64 {
	if q == nil {
		return nil
	}
	return q[3]
}

// ROEProfile maps years to quarter-indexed return-on-equity readings, with
// the reported figure and the figure excluding non-recurring items tracked
// separately. Years without any observed quarter are absent from the maps.
type ROEProfile struct {
	Reported map[int]*QuarterValues `json:"roe"`
	Core     map[int]*QuarterValues `json:"kf_roe"`
}

func NewROEProfile() *ROEProfile {
	return &ROEProfile{
		Reported: map[int]*QuarterValues{},
		Core:     map[int]*QuarterValues{},
	}
}

// Years returns the union of observed years in ascending order.
func (p *ROEProfile) Years() []int {
	seen := map[int]bool{}
	for y := range p.Reported {
		seen[y] = true
	}
	for y := range p.Core {
		seen[y] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// ValuationRecord is the per-symbol output of the valuation calculator. A nil
// pointer or an absent map key means the figure is undefined, never zero.
type ValuationRecord struct {
	DynamicPE     *float64        `json:"dynamic_pe"`
	StaticPE      *float64        `json:"static_pe"`
	TTMPE         *float64        `json:"ttm_pe"`
	HistoricalPE  map[int]float64 `json:"historical_pe,omitempty"`
	HistoricalPEG map[int]float64 `json:"historical_peg,omitempty"`
	AnalysisTime  string          `json:"analysis_time,omitempty"`
}

// QuotedPrice is a resolved latest quote.
type QuotedPrice struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// ScreeningMetrics carries the intermediate figures a screening verdict was
// based on, for reporting.
type ScreeningMetrics struct {
	Percentile *float64  `json:"percentile,omitempty"`
	PEYears    int       `json:"pe_years,omitempty"`
	EntryPE    *float64  `json:"entry_pe,omitempty"`
	ROEValues  []float64 `json:"roe_values,omitempty"`
	ROEMean    *float64  `json:"roe_mean,omitempty"`
	ROEStd     *float64  `json:"roe_std,omitempty"`
}

// ScreeningResult is one symbol-year screening verdict.
type ScreeningResult struct {
	Symbol  string           `json:"symbol"`
	Year    int              `json:"year"`
	Pass    bool             `json:"pass"`
	Reasons []string         `json:"reasons,omitempty"`
	Metrics ScreeningMetrics `json:"metrics"`
}

// StockInfo is one listing of the tradable universe.
type StockInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// StockRecord is the per-symbol document persisted in the checkpoint. Field
// presence mirrors how far the analysis got.
type StockRecord struct {
	Code           string            `json:"stock_code"`
	Name           string            `json:"stock_name"`
	Status         string            `json:"status,omitempty"` // good, bad or failed
	Reason         string            `json:"reason,omitempty"`
	YearlyPrice    map[int]float64   `json:"history_price,omitempty"`     // unadjusted year-end closes
	YearlyPriceAdj map[int]float64   `json:"history_price_adj,omitempty"` // adjusted year-end closes
	CurrentPrice   *QuotedPrice      `json:"current_price,omitempty"`
	ROE            *ROEProfile       `json:"roe_details,omitempty"`
	Valuation      *ValuationRecord  `json:"pe_analysis,omitempty"`
	Screening      []ScreeningResult `json:"screening,omitempty"`
	AnalysisTime   string            `json:"analysis_time,omitempty"`
}
