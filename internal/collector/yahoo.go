package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"MarketWorkbook/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
// Multi-ticker downloads are issued one symbol at a time, paced by Limiter.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
	logger  arbor.ILogger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy
// support. requestsPerSecond <= 0 disables pacing.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration, requestsPerSecond float64, logger arbor.ILogger) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Timezone             string `json:"timezone"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// toFloat converts a JSON number to float64; null becomes NaN.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return math.NaN()
	}
}

func at(values []interface{}, i int) float64 {
	if i >= len(values) {
		return math.NaN()
	}
	return toFloat(values[i])
}

// Download fetches every requested ticker. One ticker returns a FlatFrame;
// more return a NestedFrame without the tickers that failed or had no data.
// The error is non-nil only when every ticker failed.
func (f *YahooFetcher) Download(ctx context.Context, req Request) (Frame, error) {
	if len(req.Tickers) == 1 {
		bars, err := f.fetchChart(ctx, req.Tickers[0], req)
		if err != nil {
			return nil, err
		}
		return FlatFrame{Bars: bars}, nil
	}

	nested := NestedFrame{Bars: make(map[string][]model.OHLCV, len(req.Tickers))}
	var errs []error
	for _, ticker := range req.Tickers {
		bars, err := f.fetchChart(ctx, ticker, req)
		if err != nil {
			f.logger.Warn().Err(err).Str("ticker", ticker).Msg("Download failed")
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		if len(bars) == 0 {
			continue
		}
		nested.Tickers = append(nested.Tickers, ticker)
		nested.Bars[ticker] = bars
	}
	if len(errs) == len(req.Tickers) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nested, nil
}

func (f *YahooFetcher) chartURL(symbol string, req Request) string {
	q := url.Values{}
	q.Set("interval", req.Interval)
	q.Set("includePrePost", "false")
	q.Set("includeAdjustedClose", "true")
	if req.Period != "" {
		q.Set("range", req.Period)
	} else {
		q.Set("period1", fmt.Sprintf("%d", req.Start.Unix()))
		q.Set("period2", fmt.Sprintf("%d", req.End.Unix()))
	}
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(symbol), q.Encode())
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, req Request) ([]model.OHLCV, error) {
	if err := f.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(symbol, req), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	var adj []interface{}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.Timezone, result.Meta.GMTOffset)
	daily := isDailyInterval(req.Interval)
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if math.IsNaN(o) && math.IsNaN(h) && math.IsNaN(l) && math.IsNaN(c) {
			continue // skip null bars (holidays, halts)
		}
		t := time.Unix(ts, 0).In(loc)
		if daily {
			y, m, d := t.Date()
			t = time.Date(y, m, d, 0, 0, 0, 0, loc)
		}
		bar := model.OHLCV{
			Time:   t,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		}
		if adj != nil {
			bar.AdjClose = at(adj, i)
			bar.HasAdjClose = true
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// exchangeLocation resolves the exchange time zone, falling back to a fixed
// offset when the zone database does not know the name.
func exchangeLocation(name, abbrev string, offset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone(abbrev, offset)
}

func isDailyInterval(interval string) bool {
	switch interval {
	case "1d", "5d", "1wk", "1mo", "3mo":
		return true
	}
	return false
}
