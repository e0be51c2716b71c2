package collector

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"MarketWorkbook/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Tickers present in Data get exactly those bars; tickers in Errs fail;
// everything else gets synthetic bars priced from the ticker symbol.
type MockFetcher struct {
	Data map[string][]model.OHLCV
	Errs map[string]error
	Now  func() time.Time

	// Requests records every request received, in order.
	Requests []Request
}

func (m *MockFetcher) Name() string { return "mock" }

// Download mirrors the provider's shape rules: one ticker yields a
// FlatFrame, more yield a NestedFrame.
func (m *MockFetcher) Download(ctx context.Context, req Request) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.Requests = append(m.Requests, req)

	if len(req.Tickers) == 1 {
		bars, err := m.bars(req.Tickers[0], req)
		if err != nil {
			return nil, err
		}
		return FlatFrame{Bars: bars}, nil
	}

	nested := NestedFrame{Bars: make(map[string][]model.OHLCV)}
	var errs []error
	for _, t := range req.Tickers {
		bars, err := m.bars(t, req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(bars) == 0 {
			continue
		}
		nested.Tickers = append(nested.Tickers, t)
		nested.Bars[t] = bars
	}
	if len(errs) > 0 && len(errs) == len(req.Tickers) {
		return nil, errors.Join(errs...)
	}
	return nested, nil
}

func (m *MockFetcher) bars(ticker string, req Request) ([]model.OHLCV, error) {
	if err, ok := m.Errs[ticker]; ok {
		return nil, err
	}
	if bars, ok := m.Data[ticker]; ok {
		return bars, nil
	}
	return generateMockBars(mockPrice(ticker), m.times(req), req.Interval == "1d"), nil
}

func (m *MockFetcher) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// times lays out bar timestamps for the request: the latest session for
// period requests, every weekday session in [Start, End) otherwise.
func (m *MockFetcher) times(req Request) []time.Time {
	var days []time.Time
	if req.Period != "" {
		days = []time.Time{lastWeekday(model.Day(m.now()))}
	} else {
		for d := model.Day(req.Start); d.Before(req.End); d = d.AddDate(0, 0, 1) {
			if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
				days = append(days, d)
			}
		}
	}

	var step time.Duration
	var count int
	switch req.Interval {
	case "1m":
		step, count = time.Minute, 30
	case "60m", "1h":
		step, count = time.Hour, 7
	default:
		return days
	}
	var out []time.Time
	for _, d := range days {
		open := d.Add(9*time.Hour + 30*time.Minute)
		for i := 0; i < count; i++ {
			out = append(out, open.Add(time.Duration(i)*step))
		}
	}
	return out
}

func lastWeekday(d time.Time) time.Time {
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func mockPrice(ticker string) float64 {
	h := fnv.New32a()
	h.Write([]byte(ticker))
	return 20 + float64(h.Sum32()%48000)/100
}

func generateMockBars(basePrice float64, times []time.Time, adjusted bool) []model.OHLCV {
	count := len(times)
	bars := make([]model.OHLCV, count)
	for i, t := range times {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   t,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
		if adjusted {
			bars[i].AdjClose = p * 0.98
			bars[i].HasAdjClose = true
		}
	}
	return bars
}
