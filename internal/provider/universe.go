package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"stock-screener/internal/logger"
	"stock-screener/internal/types"
)

type universeResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Stocks []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"stocks"`
	} `json:"result"`
}

// FetchUniverse retrieves the full A-share listing. The JSON endpoint is
// tried first; when it fails the HTML quote board is scraped instead.
func (c *Client) FetchUniverse(ctx context.Context) ([]types.StockInfo, error) {
	timer := logger.StartOperation(ctx, "fetch_universe")
	ctx = timer.GetContext()

	stocks, err := c.fetchUniverseJSON(ctx)
	if err != nil {
		logger.Warn(ctx, "Universe API failed, falling back to quote board scrape", "error", err)
		stocks, err = c.scrapeUniverse(ctx)
	}
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}

	timer.End("stocks", len(stocks))
	return stocks, nil
}

func (c *Client) fetchUniverseJSON(ctx context.Context) ([]types.StockInfo, error) {
	u := fmt.Sprintf("%s/securities/api/data/universe?market=a", c.baseURL)

	var stocks []types.StockInfo
	err := c.retry.Do(ctx, "fetch_universe", func() error {
		body, err := c.get(ctx, u)
		if err != nil {
			return err
		}

		var resp universeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to decode universe response: %w", err)
		}
		if !resp.Success || len(resp.Result.Stocks) == 0 {
			return types.ErrNoData
		}

		stocks = stocks[:0]
		for _, s := range resp.Result.Stocks {
			stocks = append(stocks, types.StockInfo{Code: s.Code, Name: s.Name})
		}
		return nil
	})
	return stocks, err
}

// scrapeUniverse walks the HTML quote board pages and extracts code/name
// pairs from the listing table.
func (c *Client) scrapeUniverse(ctx context.Context) ([]types.StockInfo, error) {
	stocks := []types.StockInfo{}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	col := colly.NewCollector(
		colly.AllowedDomains(base.Host),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	col.SetRequestTimeout(c.httpClient.Timeout)

	col.OnRequest(func(r *colly.Request) {
		for key, value := range c.headers {
			r.Headers.Set(key, value)
		}
	})

	col.OnHTML("table.quote-board tbody", func(e *colly.HTMLElement) {
		e.DOM.Find("tr").Each(func(_ int, row *goquery.Selection) {
			code := strings.TrimSpace(row.Find("td.code").Text())
			name := strings.TrimSpace(row.Find("td.name").Text())
			if len(code) != 6 || name == "" {
				return
			}
			stocks = append(stocks, types.StockInfo{Code: code, Name: name})
		})
	})

	var scrapeErr error
	col.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
	})

	// The board is paginated per exchange board; a handful of pages covers
	// the main and SME listings.
	for page := 1; page <= 60; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageURL := fmt.Sprintf("%s/securities/board/a?page=%d", c.baseURL, page)
		before := len(stocks)
		if err := col.Visit(pageURL); err != nil {
			scrapeErr = err
			break
		}
		col.Wait()
		if len(stocks) == before {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}

	if len(stocks) == 0 {
		if scrapeErr != nil {
			return nil, fmt.Errorf("quote board scrape failed: %w", scrapeErr)
		}
		return nil, types.ErrNoData
	}
	return stocks, nil
}

// FilterOptions controls which listings the batch run excludes.
type FilterOptions struct {
	ExcludeBoards bool // STAR, ChiNext, Beijing and B-share listings
	ExcludeST     bool // names flagged ST or *ST
}

// FilterUniverse drops listings outside the screening scope. Board exclusion
// keys on code prefixes, ST exclusion on the listing name.
func FilterUniverse(list []types.StockInfo, opts FilterOptions) []types.StockInfo {
	out := make([]types.StockInfo, 0, len(list))
	for _, s := range list {
		if opts.ExcludeBoards && hasExcludedPrefix(s.Code) {
			continue
		}
		if opts.ExcludeST && strings.Contains(s.Name, "ST") {
			continue
		}
		out = append(out, s)
	}
	return out
}

var excludedPrefixes = []string{"68", "8", "4", "920", "30", "200", "900"}

func hasExcludedPrefix(code string) bool {
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}
