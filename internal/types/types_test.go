package types

import "testing"

func TestNewSymbolPrefix(t *testing.T) {
	cases := map[string]string{
		"600519": "sh",
		"000858": "sz",
		"300750": "sz",
		"430047": "bj",
		"830799": "bj",
	}
	for code, want := range cases {
		s := NewSymbol(code)
		if s.Prefix != want {
			t.Errorf("NewSymbol(%s).Prefix = %q, want %q", code, s.Prefix, want)
		}
		if s.String() != want+code {
			t.Errorf("NewSymbol(%s).String() = %q", code, s.String())
		}
	}
}

func TestParsePeriodQuarters(t *testing.T) {
	cases := []struct {
		date    string
		quarter int
		annual  bool
	}{
		{"20230331", 1, false},
		{"20230630", 2, false},
		{"20230930", 3, false},
		{"20231231", 4, true},
	}
	for _, c := range cases {
		p, err := ParsePeriod(c.date)
		if err != nil {
			t.Fatalf("ParsePeriod(%s): %v", c.date, err)
		}
		if p.Quarter() != c.quarter {
			t.Errorf("%s quarter = %d, want %d", c.date, p.Quarter(), c.quarter)
		}
		if p.Annual() != c.annual {
			t.Errorf("%s annual = %v, want %v", c.date, p.Annual(), c.annual)
		}
	}
}

func TestParsePeriodRejectsMalformed(t *testing.T) {
	for _, date := range []string{"2023-12-31", "2023123", "2023ab31", "20231331"} {
		if _, err := ParsePeriod(date); err == nil {
			t.Errorf("ParsePeriod(%s): expected error", date)
		}
	}
}

func TestQuarterValuesInsertOnce(t *testing.T) {
	var q QuarterValues
	first, second := 12.5, 99.0
	if !q.Set(2, &first) {
		t.Fatal("first Set should succeed")
	}
	if q.Set(2, &second) {
		t.Error("second Set on same quarter should be rejected")
	}
	if q[1] == nil || *q[1] != 12.5 {
		t.Errorf("slot holds %v, want 12.5", q[1])
	}
	if q.Set(0, &first) || q.Set(5, &first) {
		t.Error("out of range quarters must be rejected")
	}
	if q.Set(3, nil) {
		t.Error("nil value must be rejected")
	}
}

func TestROEProfileYearsSortedUnion(t *testing.T) {
	p := NewROEProfile()
	v := 10.0
	p.Reported[2022] = &QuarterValues{}
	p.Reported[2022].Set(4, &v)
	p.Core[2020] = &QuarterValues{}
	p.Core[2020].Set(4, &v)
	p.Reported[2021] = &QuarterValues{}
	p.Reported[2021].Set(2, &v)

	years := p.Years()
	want := []int{2020, 2021, 2022}
	if len(years) != len(want) {
		t.Fatalf("Years() = %v, want %v", years, want)
	}
	for i := range want {
		if years[i] != want[i] {
			t.Fatalf("Years() = %v, want %v", years, want)
		}
	}
}

func TestIndicatorSeriesLatestSkipsNil(t *testing.T) {
	v1, v2 := 1.0, 2.0
	p1, _ := ParsePeriod("20221231")
	p2, _ := ParsePeriod("20230331")
	p3, _ := ParsePeriod("20230630")
	s := IndicatorSeries{
		{Period: p1, Value: &v1},
		{Period: p2, Value: &v2},
		{Period: p3, Value: nil},
	}
	latest, ok := s.Latest()
	if !ok {
		t.Fatal("Latest() found nothing")
	}
	if latest.Period.Date != "20230331" || *latest.Value != 2.0 {
		t.Errorf("Latest() = %s %v", latest.Period.Date, *latest.Value)
	}

	empty := IndicatorSeries{{Period: p3, Value: nil}}
	if _, ok := empty.Latest(); ok {
		t.Error("Latest() on all-nil series should report false")
	}
}
