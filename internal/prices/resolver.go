package prices

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stock-screener/internal/interfaces"
	"stock-screener/internal/logger"
	"stock-screener/internal/types"
)

const dateLayout = "20060102"

type memoKey struct {
	code   string
	date   string
	adjust types.Adjust
}

// Resolver answers "what did this stock close at on or just before a date".
// Resolved values, including resolved absence, are memoized per
// (symbol, date, adjust) so repeated valuation passes stay off the provider.
type Resolver struct {
	md  interfaces.MarketData
	now func() time.Time

	mu   sync.Mutex
	memo map[memoKey]*float64
}

func NewResolver(md interfaces.MarketData) *Resolver {
	return &Resolver{
		md:   md,
		now:  time.Now,
		memo: map[memoKey]*float64{},
	}
}

// PriceAt resolves the last close on or before date (YYYYMMDD). The primary
// window opens two calendar days before the date; when it holds no trading
// day the window is widened back to the first day of the month and tried
// once more. A still-empty window resolves to nil. Provider failures also
// resolve to nil but are not memoized, so a later pass can retry.
func (r *Resolver) PriceAt(ctx context.Context, symbol types.Symbol, date string, adjust types.Adjust) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := memoKey{code: symbol.Code, date: date, adjust: adjust}
	r.mu.Lock()
	if v, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	end, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("price date %q: %w", date, err)
	}

	start := end.AddDate(0, 0, -2).Format(dateLayout)
	close, fetchErr := r.lastClose(ctx, symbol, start, date, adjust)
	if fetchErr == nil && close == nil {
		// Holiday stretch; widen to the start of the month.
		monthStart := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location()).Format(dateLayout)
		close, fetchErr = r.lastClose(ctx, symbol, monthStart, date, adjust)
	}
	if fetchErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn(ctx, "Price resolution failed, treating as absent",
			"symbol", symbol.Code, "date", date, "error", fetchErr)
		return nil, nil
	}

	r.mu.Lock()
	r.memo[key] = close
	r.mu.Unlock()

	if close == nil {
		logger.Debug(ctx, "No trading day resolved", "symbol", symbol.Code, "date", date)
	}
	return close, nil
}

// Latest resolves the most recent close from a seven day trailing window.
func (r *Resolver) Latest(ctx context.Context, symbol types.Symbol, adjust types.Adjust) (*types.QuotedPrice, error) {
	end := r.now()
	start := end.AddDate(0, 0, -7)

	points, err := r.md.FetchDailyPrices(ctx, symbol,
		start.Format(dateLayout), end.Format(dateLayout), adjust)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	last := points[len(points)-1]
	return &types.QuotedPrice{Date: last.Date, Close: last.Close}, nil
}

// YearEnds resolves year-end closes for each year in [fromYear, toYear].
// Years without a resolvable price are absent from the result.
func (r *Resolver) YearEnds(ctx context.Context, symbol types.Symbol, fromYear, toYear int, adjust types.Adjust) (map[int]float64, error) {
	out := map[int]float64{}
	for year := fromYear; year <= toYear; year++ {
		close, err := r.PriceAt(ctx, symbol, fmt.Sprintf("%d1231", year), adjust)
		if err != nil {
			return nil, err
		}
		if close != nil {
			out[year] = *close
		}
	}
	return out, nil
}

func (r *Resolver) lastClose(ctx context.Context, symbol types.Symbol, start, end string, adjust types.Adjust) (*float64, error) {
	points, err := r.md.FetchDailyPrices(ctx, symbol, start, end, adjust)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}
	close := points[len(points)-1].Close
	return &close, nil
}
