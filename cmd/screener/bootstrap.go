package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"stock-screener/internal/indicator"
	"stock-screener/internal/interfaces"
	"stock-screener/internal/logger"
	"stock-screener/internal/prices"
	"stock-screener/internal/provider"
	"stock-screener/internal/screening"
	"stock-screener/internal/store"
	"stock-screener/internal/types"
	"stock-screener/internal/valuation"
)

// initializeSystem loads the environment and brings up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads and returns the configuration.
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// runner wires every component of the analysis pipeline once, explicitly.
type runner struct {
	cfg        *store.Config
	client     *provider.Client
	checkpoint interfaces.Checkpoint
	extractor  *indicator.Extractor
	profiles   *indicator.ProfileBuilder
	resolver   *prices.Resolver
	calculator *valuation.Calculator
	engine     *screening.Engine
	returns    *screening.ReturnCalc
}

func buildRunner(cfg *store.Config) *runner {
	client := provider.NewClient(provider.Params{
		BaseURL:       cfg.Provider.BaseURL,
		Timeout:       time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		RatePerSecond: cfg.Provider.RatePerSecond,
		Burst:         cfg.Provider.Burst,
		Retry: provider.DefaultRetryPolicy(
			cfg.Provider.MaxAttempts,
			time.Duration(cfg.Provider.RetryDelaySeconds)*time.Second,
		),
	})

	indStore := indicator.NewStore(client, cfg.Cache.Dir,
		time.Duration(cfg.Cache.ExpiryDays)*24*time.Hour)
	extractor := indicator.NewExtractor(indStore)
	resolver := prices.NewResolver(client)

	return &runner{
		cfg:        cfg,
		client:     client,
		checkpoint: store.NewCheckpointStore(cfg.Checkpoint.ResultFile),
		extractor:  extractor,
		profiles:   indicator.NewProfileBuilder(extractor),
		resolver:   resolver,
		calculator: valuation.NewCalculator(extractor, resolver, types.AdjustNone),
		engine:     screening.New(screeningConfig(cfg)),
		returns:    screening.NewReturnCalc(),
	}
}

func screeningConfig(cfg *store.Config) screening.Config {
	return screening.Config{
		MaxPercentile:   cfg.Screening.MaxPercentile,
		ROEWindowYears:  cfg.Screening.ROEWindowYears,
		MinROEMean:      cfg.Screening.MinROEMean,
		MaxROEStd:       cfg.Screening.MaxROEStd,
		MinROEYears:     cfg.Screening.MinROEYears,
		ReversalEnabled: cfg.Screening.ReversalEnabled,
		MaxEntryPE:      cfg.Screening.MaxEntryPE,
		ROEFloor:        cfg.Screening.ROEFloor,
		MaxLowROEYears:  cfg.Screening.MaxLowROEYears,
	}
}

// loadUniverse returns the symbols to analyze: the static list when one is
// configured, otherwise the fetched and filtered listing.
func (r *runner) loadUniverse(ctx context.Context) ([]types.StockInfo, error) {
	if len(r.cfg.Universe.Static) > 0 {
		list := make([]types.StockInfo, 0, len(r.cfg.Universe.Static))
		for _, code := range r.cfg.Universe.Static {
			list = append(list, types.StockInfo{Code: code})
		}
		return list, nil
	}

	list, err := r.client.FetchUniverse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch universe: %w", err)
	}
	filtered := provider.FilterUniverse(list, provider.FilterOptions{
		ExcludeBoards: r.cfg.Universe.ExcludeBoards,
		ExcludeST:     r.cfg.Universe.ExcludeST,
	})
	logger.Info(ctx, "Universe loaded", "listed", len(list), "after_filters", len(filtered))
	return filtered, nil
}
