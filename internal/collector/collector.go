package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/model"
)

// Status classifies a fetch outcome.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of fetching one ticker group. Rows is populated only
// when Status is StatusOK; Err only when it is StatusFailed.
type Result struct {
	Status Status
	Rows   []model.Quote
	Err    error
}

// Observer receives one observation per Collect call.
type Observer interface {
	ObserveFetch(mode, status string, elapsed time.Duration)
}

// Collector fetches and normalizes quotes for one ticker group at a time.
// Provider failures never escape Collect; they become StatusFailed.
type Collector struct {
	Fetcher  Fetcher
	Observer Observer
	logger   arbor.ILogger
}

// NewCollector creates a new Collector. observer may be nil.
func NewCollector(fetcher Fetcher, observer Observer, logger arbor.ILogger) *Collector {
	return &Collector{Fetcher: fetcher, Observer: observer, logger: logger}
}

// Collect fetches tickers for the selector and returns normalized rows.
// An empty ticker list yields StatusEmpty without contacting the provider.
func (c *Collector) Collect(ctx context.Context, tickers []string, sel model.Selector) (res Result) {
	began := time.Now()
	tickers = model.Dedupe(tickers)

	defer func() {
		if r := recover(); r != nil {
			res = Result{Status: StatusFailed, Err: fmt.Errorf("%s: panic: %v", c.Fetcher.Name(), r)}
		}
		if res.Status == StatusFailed {
			c.logger.Warn().Err(res.Err).Str("mode", sel.Mode.String()).Int("tickers", len(tickers)).Msg("Fetch failed")
		}
		if c.Observer != nil {
			c.Observer.ObserveFetch(sel.Mode.String(), res.Status.String(), time.Since(began))
		}
	}()

	if len(tickers) == 0 {
		return Result{Status: StatusEmpty}
	}

	start, end := sel.Window()
	req := Request{
		Tickers:  tickers,
		Start:    start,
		End:      end,
		Interval: sel.Mode.Interval(),
		Period:   sel.Mode.Period(),
	}

	frame, err := c.Fetcher.Download(ctx, req)
	if err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("%s download: %w", c.Fetcher.Name(), err)}
	}
	if frame == nil || frame.Len() == 0 {
		return Result{Status: StatusEmpty}
	}

	rows := Normalize(frame, tickers, sel)
	if len(rows) == 0 {
		return Result{Status: StatusEmpty}
	}
	c.logger.Debug().Str("mode", sel.Mode.String()).Int("tickers", len(tickers)).Int("rows", len(rows)).Msg("Fetched quotes")
	return Result{Status: StatusOK, Rows: rows}
}
