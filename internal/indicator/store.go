package indicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"stock-screener/internal/interfaces"
	"stock-screener/internal/logger"
	"stock-screener/internal/types"
)

// Indicator row labels as they appear in the report abstract. Lookups are
// exact string matches, so the labels live here and nowhere else.
const (
	EPSBasic  = "基本每股收益"
	NetProfit = "净利润"
	ROE       = "净资产收益率(ROE)"
	CoreROE   = "净资产收益率_平均_扣除非经常损益"
)

// RequiredIndicators are validated against every fetched table before the
// table is served to computations.
var RequiredIndicators = []string{EPSBasic, NetProfit, ROE}

// Store serves report tables from a per-symbol memory cache backed by an
// optional file TTL cache. Empty tables are never cached; a stale file entry
// is served when the provider call fails.
type Store struct {
	md    interfaces.MarketData
	files *fileCache

	mu     sync.Mutex
	tables map[string]*types.ReportTable
}

// NewStore builds a Store. cacheDir may be empty to disable the file cache.
func NewStore(md interfaces.MarketData, cacheDir string, ttl time.Duration) *Store {
	s := &Store{
		md:     md,
		tables: map[string]*types.ReportTable{},
	}
	if cacheDir != "" {
		s.files = newFileCache(cacheDir, ttl)
	}
	return s
}

// Get returns the report table for a symbol, fetching it on first use. The
// same table pointer is returned for the life of the process.
func (s *Store) Get(ctx context.Context, symbol types.Symbol) (*types.ReportTable, error) {
	s.mu.Lock()
	if table, ok := s.tables[symbol.Code]; ok {
		s.mu.Unlock()
		return table, nil
	}
	s.mu.Unlock()

	table, err := s.load(ctx, symbol)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Another goroutine may have loaded it meanwhile; keep the first one.
	if existing, ok := s.tables[symbol.Code]; ok {
		table = existing
	} else {
		s.tables[symbol.Code] = table
	}
	s.mu.Unlock()
	return table, nil
}

func (s *Store) load(ctx context.Context, symbol types.Symbol) (*types.ReportTable, error) {
	key := "report:" + symbol.Code

	if s.files != nil {
		if data, ok := s.files.get(key); ok {
			var table types.ReportTable
			if err := json.Unmarshal(data, &table); err == nil && !table.Empty() {
				logger.Debug(ctx, "Report table served from file cache", "symbol", symbol.Code)
				return &table, nil
			}
			// Corrupt entry, drop it and refetch.
			s.files.delete(key)
		}
	}

	table, err := s.md.FetchReportTable(ctx, symbol)
	if err != nil {
		if s.files != nil && !errors.Is(err, types.ErrNotFound) {
			if data, ok := s.files.getStale(key); ok {
				var stale types.ReportTable
				if jerr := json.Unmarshal(data, &stale); jerr == nil && !stale.Empty() {
					logger.Warn(ctx, "Provider failed, serving stale report table",
						"symbol", symbol.Code, "error", err)
					return &stale, nil
				}
			}
		}
		return nil, err
	}
	if table.Empty() {
		return nil, fmt.Errorf("report table for %s: %w", symbol.Code, types.ErrNoData)
	}

	if err := Validate(table); err != nil {
		logger.Warn(ctx, "Report table incomplete", "symbol", symbol.Code, "error", err)
	}

	if s.files != nil {
		if data, jerr := json.Marshal(table); jerr == nil {
			if cerr := s.files.set(key, data); cerr != nil {
				logger.Warn(ctx, "Failed to write report cache", "symbol", symbol.Code, "error", cerr)
			}
		}
	}
	return table, nil
}

// Refresh drops the cached table for a symbol and fetches it again.
func (s *Store) Refresh(ctx context.Context, symbol types.Symbol) (*types.ReportTable, error) {
	s.mu.Lock()
	delete(s.tables, symbol.Code)
	s.mu.Unlock()
	if s.files != nil {
		s.files.delete("report:" + symbol.Code)
	}
	return s.Get(ctx, symbol)
}

// Validate checks that the table carries every required indicator row.
func Validate(table *types.ReportTable, names ...string) error {
	if len(names) == 0 {
		names = RequiredIndicators
	}
	for _, name := range names {
		if _, ok := table.Row(name); !ok {
			return fmt.Errorf("indicator %q missing from report table for %s", name, table.Symbol)
		}
	}
	return nil
}
