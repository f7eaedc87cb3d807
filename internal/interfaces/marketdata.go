package interfaces

import (
	"context"

	"stock-screener/internal/types"
)

// MarketData is the provider surface the analysis pipeline consumes. All
// calls are blocking and honor context cancellation.
type MarketData interface {
	// FetchReportTable returns the sparse indicator abstract for one symbol.
	// A structurally valid but empty response yields types.ErrNoData.
	FetchReportTable(ctx context.Context, symbol types.Symbol) (*types.ReportTable, error)

	// FetchDailyPrices returns daily closes in [start, end] (YYYYMMDD,
	// inclusive) for the requested adjustment mode, oldest first. An empty
	// slice with a nil error means no trading days in the window.
	FetchDailyPrices(ctx context.Context, symbol types.Symbol, start, end string, adjust types.Adjust) ([]types.PricePoint, error)

	// FetchUniverse returns the full A-share listing, unfiltered.
	FetchUniverse(ctx context.Context) ([]types.StockInfo, error)
}
