package collector

import (
	"context"
	"time"

	"MarketWorkbook/internal/model"
)

// Request is one upstream download. Either Period is set (LATEST modes) or
// Start/End bound the window, End exclusive.
type Request struct {
	Tickers  []string
	Start    time.Time
	End      time.Time
	Interval string
	Period   string
}

// Fetcher defines the upstream market-data capability. Single-ticker
// requests yield a FlatFrame; multi-ticker requests a NestedFrame. It may
// return an empty frame and may fail.
type Fetcher interface {
	Download(ctx context.Context, req Request) (Frame, error)
	Name() string
}

// Frame is the provider-native table: FlatFrame or NestedFrame.
type Frame interface {
	Len() int
	frame()
}

// FlatFrame is the single-ticker response shape. Bars carry no ticker.
type FlatFrame struct {
	Bars []model.OHLCV
}

func (f FlatFrame) Len() int { return len(f.Bars) }
func (FlatFrame) frame()     {}

// NestedFrame is the multi-ticker response shape, keyed by ticker first.
// Tickers keeps the response order.
type NestedFrame struct {
	Tickers []string
	Bars    map[string][]model.OHLCV
}

func (f NestedFrame) Len() int {
	n := 0
	for _, bars := range f.Bars {
		n += len(bars)
	}
	return n
}
func (NestedFrame) frame() {}
