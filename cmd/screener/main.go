package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"stock-screener/internal/logger"
	"stock-screener/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	refresh := flag.Bool("refresh", false, "re-analyze symbols already in the checkpoint")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer logger.Shutdown(context.Background())

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		log.Fatal(err)
	}

	r := buildRunner(cfg)
	if err := r.run(ctx, *refresh); err != nil {
		logger.ErrorWithErr(ctx, "Batch run aborted", err)
		log.Fatal(err)
	}
}

// run drives the resumable batch: the checkpoint is reloaded at start,
// already-analyzed symbols are skipped, and the checkpoint is rewritten
// after every symbol so an interrupt costs at most the symbol in flight.
func (r *runner) run(ctx context.Context, refresh bool) error {
	universe, err := r.loadUniverse(ctx)
	if err != nil {
		return err
	}

	records, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	logger.Info(ctx, "Batch started",
		"universe", len(universe), "already_analyzed", len(records), "refresh", refresh)

	pause := time.Duration(r.cfg.Analysis.SymbolPauseSeconds) * time.Second
	analyzed := 0
	for i, info := range universe {
		if err := ctx.Err(); err != nil {
			logger.Warn(ctx, "Batch interrupted", "done", i, "total", len(universe))
			break
		}
		if _, done := records[info.Code]; done && !refresh {
			continue
		}

		records[info.Code] = r.analyzeStock(ctx, info)
		analyzed++

		if err := r.checkpoint.Save(records); err != nil {
			return err
		}
		logger.Info(ctx, "Progress", "done", i+1, "total", len(universe), "symbol", info.Code)

		if pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
			}
		}
	}

	r.report(ctx, records)
	logger.Info(ctx, "Batch finished", "analyzed_this_run", analyzed, "total_records", len(records))
	return nil
}

func (r *runner) report(ctx context.Context, records map[string]*types.StockRecord) {
	nowYear := time.Now().Year()
	s := summarize(records, nowYear, r.cfg.Screening.ROEWindowYears)

	logger.Info(ctx, "Run summary",
		"good", s.Good, "bad", s.Bad, "failed", s.Failed,
		"passing_now", len(s.Passing),
		"pe_under_15", s.PEBuckets.Low,
		"pe_15_to_30", s.PEBuckets.Mid,
		"pe_over_30", s.PEBuckets.High,
	)
	if len(s.Passing) > 0 {
		logger.Info(ctx, "Passing symbols", "symbols", s.Passing)
	}
	if len(s.RisingROE) > 0 {
		logger.Info(ctx, "Passing symbols with rising ROE", "symbols", s.RisingROE)
	}
}
