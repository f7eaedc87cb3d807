package screening

import (
	"math"
	"time"
)

// ReturnCalc computes the realized returns of an entry at a year-end close.
type ReturnCalc struct {
	now func() time.Time
}

func NewReturnCalc() *ReturnCalc {
	return &ReturnCalc{now: time.Now}
}

// Returns computes the one-year simple return and the two-year annualized
// compound return of buying at the end of entryYear, both in percent.
//
// The two-year figure is nil when the second exit year is not resolvable
// yet. A degenerate base (missing or non-positive entry price) yields zero
// returns. For an exit year that has not closed, the latest quote stands in
// when available.
func (r *ReturnCalc) Returns(entryYear int, yearly map[int]float64, latest *float64) (oneYear float64, twoYear *float64) {
	zero := 0.0

	base, ok := yearly[entryYear]
	if !ok || base <= 0 {
		return 0, &zero
	}

	exit1, ok1 := r.exitPrice(entryYear+1, yearly, latest)
	if !ok1 {
		return 0, &zero
	}
	oneYear = (exit1 - base) / base * 100

	exit2, ok2 := r.exitPrice(entryYear+2, yearly, latest)
	if !ok2 || exit2 <= 0 {
		return oneYear, nil
	}
	annualized := (math.Sqrt(exit2/base) - 1) * 100
	return oneYear, &annualized
}

// exitPrice resolves the close the position would be sold at in the given
// year: its year-end close when the year has one, else the latest quote for
// the still-open year.
func (r *ReturnCalc) exitPrice(year int, yearly map[int]float64, latest *float64) (float64, bool) {
	if p, ok := yearly[year]; ok {
		return p, true
	}
	if year == r.now().Year() && latest != nil {
		return *latest, true
	}
	return 0, false
}
