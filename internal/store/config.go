package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Provider struct {
		BaseURL           string  `yaml:"base_url"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		RatePerSecond     float64 `yaml:"rate_per_second"`
		Burst             int     `yaml:"burst"`
		MaxAttempts       int     `yaml:"max_attempts"`
		RetryDelaySeconds int     `yaml:"retry_delay_seconds"`
	} `yaml:"provider"`
	Cache struct {
		Dir        string `yaml:"dir"`
		ExpiryDays int    `yaml:"expiry_days"`
	} `yaml:"cache"`
	Universe struct {
		Static        []string `yaml:"static"` // bare six digit codes; bypasses the fetch when set
		ExcludeBoards bool     `yaml:"exclude_boards"`
		ExcludeST     bool     `yaml:"exclude_st"`
	} `yaml:"universe"`
	Analysis struct {
		LookbackYears      int    `yaml:"lookback_years"`
		ReturnAdjust       string `yaml:"return_adjust"` // price series for return math: hfq or qfq
		SymbolPauseSeconds int    `yaml:"symbol_pause_seconds"`
	} `yaml:"analysis"`
	Screening struct {
		MaxPercentile   float64 `yaml:"max_percentile"`
		ROEWindowYears  int     `yaml:"roe_window_years"`
		MinROEMean      float64 `yaml:"min_roe_mean"`
		MaxROEStd       float64 `yaml:"max_roe_std"`
		MinROEYears     int     `yaml:"min_roe_years"`
		ReversalEnabled bool    `yaml:"reversal_enabled"`
		MaxEntryPE      float64 `yaml:"max_entry_pe"`
		ROEFloor        float64 `yaml:"roe_floor"`
		MaxLowROEYears  int     `yaml:"max_low_roe_years"`
	} `yaml:"screening"`
	Checkpoint struct {
		ResultFile string `yaml:"result_file"`
	} `yaml:"checkpoint"`
}

func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return errors.New("provider.base_url cannot be empty")
	}
	if c.Provider.RatePerSecond <= 0 {
		return fmt.Errorf("provider.rate_per_second must be positive, got %.2f", c.Provider.RatePerSecond)
	}
	if c.Provider.MaxAttempts < 1 {
		return fmt.Errorf("provider.max_attempts must be at least 1, got %d", c.Provider.MaxAttempts)
	}
	if c.Analysis.ReturnAdjust != "hfq" && c.Analysis.ReturnAdjust != "qfq" {
		return fmt.Errorf("analysis.return_adjust must be 'hfq' or 'qfq', got '%s'", c.Analysis.ReturnAdjust)
	}
	if c.Analysis.LookbackYears < 1 {
		return fmt.Errorf("analysis.lookback_years must be at least 1, got %d", c.Analysis.LookbackYears)
	}
	if c.Screening.MaxPercentile <= 0 || c.Screening.MaxPercentile > 100 {
		return fmt.Errorf("screening.max_percentile must be between 0-100, got %.2f", c.Screening.MaxPercentile)
	}
	if c.Screening.MinROEYears > c.Screening.ROEWindowYears {
		return fmt.Errorf("screening.min_roe_years %d exceeds roe_window_years %d",
			c.Screening.MinROEYears, c.Screening.ROEWindowYears)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://datacenter.eastmoney.com"
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 30
	}
	if c.Provider.RatePerSecond == 0 {
		c.Provider.RatePerSecond = 2
	}
	if c.Provider.Burst == 0 {
		c.Provider.Burst = 1
	}
	if c.Provider.MaxAttempts == 0 {
		c.Provider.MaxAttempts = 3
	}
	if c.Provider.RetryDelaySeconds == 0 {
		c.Provider.RetryDelaySeconds = 2
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "data_cache"
	}
	if c.Cache.ExpiryDays == 0 {
		c.Cache.ExpiryDays = 70
	}
	if c.Analysis.LookbackYears == 0 {
		c.Analysis.LookbackYears = 10
	}
	if c.Analysis.ReturnAdjust == "" {
		c.Analysis.ReturnAdjust = "hfq"
	}
	if c.Screening.MaxPercentile == 0 {
		c.Screening.MaxPercentile = 30
	}
	if c.Screening.ROEWindowYears == 0 {
		c.Screening.ROEWindowYears = 5
	}
	if c.Screening.MinROEMean == 0 {
		c.Screening.MinROEMean = 10
	}
	if c.Screening.MaxROEStd == 0 {
		c.Screening.MaxROEStd = 2
	}
	if c.Screening.MinROEYears == 0 {
		c.Screening.MinROEYears = 3
	}
	if c.Screening.MaxEntryPE == 0 {
		c.Screening.MaxEntryPE = 30
	}
	if c.Screening.ROEFloor == 0 {
		c.Screening.ROEFloor = 5
	}
	if c.Screening.MaxLowROEYears == 0 {
		c.Screening.MaxLowROEYears = 1
	}
	if c.Checkpoint.ResultFile == "" {
		c.Checkpoint.ResultFile = "analysis_results.json"
	}
}
