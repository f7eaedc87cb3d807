package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"stock-screener/internal/logger"
	"stock-screener/internal/types"
)

// Client speaks the eastmoney datacenter HTTP API. All requests go through
// one shared rate limiter so batch runs stay under the provider's tolerance,
// and through the retry policy for transient failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	headers    map[string]string
}

// Params configures a Client.
type Params struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	Retry         RetryPolicy
}

func NewClient(p Params) *Client {
	if p.BaseURL == "" {
		p.BaseURL = "https://datacenter.eastmoney.com"
	}
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}
	if p.RatePerSecond == 0 {
		p.RatePerSecond = 2
	}
	if p.Burst == 0 {
		p.Burst = 1
	}
	return &Client{
		baseURL:    p.BaseURL,
		httpClient: &http.Client{Timeout: p.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(p.RatePerSecond), p.Burst),
		retry:      p.Retry,
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			"Accept":          "application/json",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		},
	}
}

type reportResponse struct {
	Success bool `json:"success"`
	Result  struct {
		ReportDates []string `json:"report_dates"`
		Rows        []struct {
			Category string     `json:"option"`
			Name     string     `json:"indicator"`
			Values   []*float64 `json:"values"`
		} `json:"rows"`
	} `json:"result"`
}

// FetchReportTable retrieves the sparse indicator abstract for one symbol.
func (c *Client) FetchReportTable(ctx context.Context, symbol types.Symbol) (*types.ReportTable, error) {
	timer := logger.StartOperation(ctx, "fetch_report_table", "symbol", symbol.Code)
	ctx = timer.GetContext()

	u := fmt.Sprintf("%s/securities/api/data/report/abstract?symbol=%s",
		c.baseURL, url.QueryEscape(symbol.String()))

	var table *types.ReportTable
	err := c.retry.Do(ctx, "fetch_report_table", func() error {
		body, err := c.get(ctx, u)
		if err != nil {
			return err
		}

		var resp reportResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to decode report response: %w", err)
		}
		if !resp.Success {
			return types.ErrNotFound
		}
		if len(resp.Result.ReportDates) == 0 || len(resp.Result.Rows) == 0 {
			return types.ErrNoData
		}

		periods := make([]types.ReportPeriod, 0, len(resp.Result.ReportDates))
		for _, d := range resp.Result.ReportDates {
			p, err := types.ParsePeriod(d)
			if err != nil {
				return fmt.Errorf("bad report date in response: %w", err)
			}
			periods = append(periods, p)
		}

		rows := make([]types.ReportRow, 0, len(resp.Result.Rows))
		for _, r := range resp.Result.Rows {
			rows = append(rows, types.ReportRow{
				Category: r.Category,
				Name:     r.Name,
				Values:   r.Values,
			})
		}

		table = &types.ReportTable{Symbol: symbol.Code, Periods: periods, Rows: rows}
		return nil
	})
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}

	logger.Fetch(ctx, symbol.Code, "report_table", "periods", len(table.Periods))
	timer.End("periods", len(table.Periods))
	return table, nil
}

type dailyResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Klines []struct {
			Date  string  `json:"date"`
			Close float64 `json:"close"`
		} `json:"klines"`
	} `json:"result"`
}

// FetchDailyPrices retrieves daily closes in [start, end], oldest first.
func (c *Client) FetchDailyPrices(ctx context.Context, symbol types.Symbol, start, end string, adjust types.Adjust) ([]types.PricePoint, error) {
	u := fmt.Sprintf("%s/securities/api/data/kline/daily?symbol=%s&begin=%s&end=%s&adjust=%s",
		c.baseURL, url.QueryEscape(symbol.String()), start, end, string(adjust))

	var points []types.PricePoint
	err := c.retry.Do(ctx, "fetch_daily_prices", func() error {
		body, err := c.get(ctx, u)
		if err != nil {
			return err
		}

		var resp dailyResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to decode kline response: %w", err)
		}
		if !resp.Success {
			return types.ErrNotFound
		}

		points = points[:0]
		for _, k := range resp.Result.Klines {
			points = append(points, types.PricePoint{Date: k.Date, Close: k.Close, Adjust: adjust})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Fetch(ctx, symbol.Code, "daily_prices",
		"start", start, "end", end, "adjust", string(adjust), "bars", len(points))
	return points, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
