package store

import (
	"os"
	"path/filepath"
	"testing"

	"stock-screener/internal/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckpointLoadMissingFile(t *testing.T) {
	s := NewCheckpointStore(filepath.Join(t.TempDir(), "results.json"))
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty checkpoint, got %d records", len(records))
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := NewCheckpointStore(filepath.Join(t.TempDir(), "results.json"))

	pe := 18.5
	rec := &types.StockRecord{
		Code:   "600519",
		Name:   "贵州茅台",
		Status: "good",
		YearlyPrice: map[int]float64{
			2022: 1700.0,
			2023: 1680.0,
		},
		Valuation: &types.ValuationRecord{
			DynamicPE:    &pe,
			HistoricalPE: map[int]float64{2022: 35.2, 2023: 28.1},
			HistoricalPEG: map[int]float64{
				2023: 1.4,
			},
		},
	}
	if err := s.Save(map[string]*types.StockRecord{"600519": rec}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := loaded["600519"]
	if !ok {
		t.Fatal("record missing after round trip")
	}
	if got.Name != rec.Name || got.Status != "good" {
		t.Errorf("got %+v", got)
	}
	if got.YearlyPrice[2022] != 1700.0 {
		t.Errorf("yearly price 2022 = %v", got.YearlyPrice[2022])
	}
	if got.Valuation == nil || got.Valuation.DynamicPE == nil || *got.Valuation.DynamicPE != 18.5 {
		t.Error("dynamic PE lost in round trip")
	}
	if got.Valuation.HistoricalPE[2023] != 28.1 {
		t.Errorf("historical PE 2023 = %v", got.Valuation.HistoricalPE[2023])
	}
	if got.Valuation.HistoricalPEG[2023] != 1.4 {
		t.Errorf("historical PEG 2023 = %v", got.Valuation.HistoricalPEG[2023])
	}
}

func TestCheckpointSaveReplacesDocument(t *testing.T) {
	s := NewCheckpointStore(filepath.Join(t.TempDir(), "results.json"))

	if err := s.Save(map[string]*types.StockRecord{
		"000001": {Code: "000001"},
		"000002": {Code: "000002"},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(map[string]*types.StockRecord{
		"000001": {Code: "000001", Status: "bad"},
	}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 record after replace, got %d", len(loaded))
	}
	if loaded["000001"].Status != "bad" {
		t.Errorf("status = %q", loaded["000001"].Status)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "provider:\n  base_url: https://example.com\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Cache.ExpiryDays != 70 {
		t.Errorf("cache.expiry_days default = %d, want 70", cfg.Cache.ExpiryDays)
	}
	if cfg.Screening.MaxPercentile != 30 {
		t.Errorf("screening.max_percentile default = %v, want 30", cfg.Screening.MaxPercentile)
	}
	if cfg.Screening.ROEWindowYears != 5 || cfg.Screening.MinROEYears != 3 {
		t.Errorf("roe window defaults = %d/%d", cfg.Screening.ROEWindowYears, cfg.Screening.MinROEYears)
	}
	if cfg.Analysis.ReturnAdjust != "hfq" {
		t.Errorf("analysis.return_adjust default = %q", cfg.Analysis.ReturnAdjust)
	}
}

func TestLoadConfigRejectsBadAdjust(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "provider:\n  base_url: https://example.com\nanalysis:\n  return_adjust: none\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for bad return_adjust")
	}
}
