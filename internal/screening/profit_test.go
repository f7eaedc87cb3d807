package screening

import (
	"testing"
)

func newReturnCalc(nowYear int) *ReturnCalc {
	r := NewReturnCalc()
	r.now = fixedNow(nowYear)
	return r
}

func TestReturnsSimpleAndCompound(t *testing.T) {
	r := newReturnCalc(2025)
	yearly := map[int]float64{2021: 100, 2022: 110, 2023: 121}

	oneYear, twoYear := r.Returns(2021, yearly, nil)
	if !approx(oneYear, 10.0) {
		t.Errorf("one-year return = %v, want 10", oneYear)
	}
	if twoYear == nil {
		t.Fatal("two-year return missing")
	}
	// sqrt(121/100) - 1 = 10% annualized.
	if !approx(*twoYear, 10.0) {
		t.Errorf("two-year return = %v, want 10", *twoYear)
	}
}

func TestReturnsMostRecentYearHasNoCompound(t *testing.T) {
	r := newReturnCalc(2024)
	yearly := map[int]float64{2022: 100, 2023: 90}

	oneYear, twoYear := r.Returns(2022, yearly, nil)
	if !approx(oneYear, -10.0) {
		t.Errorf("one-year return = %v, want -10", oneYear)
	}
	if twoYear != nil {
		t.Errorf("two-year return = %v, want nil (exit year still open, no quote)", *twoYear)
	}
}

func TestReturnsOpenExitYearUsesQuote(t *testing.T) {
	r := newReturnCalc(2024)
	yearly := map[int]float64{2023: 100}
	latest := 105.0

	oneYear, twoYear := r.Returns(2023, yearly, &latest)
	if !approx(oneYear, 5.0) {
		t.Errorf("one-year return = %v, want 5 from the quote", oneYear)
	}
	if twoYear != nil {
		t.Error("two-year return must stay nil beyond the open year")
	}
}

func TestReturnsDegenerateBase(t *testing.T) {
	r := newReturnCalc(2025)

	oneYear, twoYear := r.Returns(2021, map[int]float64{2022: 110}, nil)
	if oneYear != 0 || twoYear == nil || *twoYear != 0 {
		t.Errorf("missing base: got %v, %v", oneYear, twoYear)
	}

	oneYear, twoYear = r.Returns(2021, map[int]float64{2021: 0, 2022: 110}, nil)
	if oneYear != 0 || twoYear == nil || *twoYear != 0 {
		t.Errorf("zero base: got %v, %v", oneYear, twoYear)
	}
}

func TestReturnsFutureEntryYear(t *testing.T) {
	r := newReturnCalc(2024)
	oneYear, twoYear := r.Returns(2024, map[int]float64{2023: 100}, nil)
	if oneYear != 0 || twoYear == nil || *twoYear != 0 {
		t.Errorf("open entry year: got %v, %v", oneYear, twoYear)
	}
}

func approx(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
