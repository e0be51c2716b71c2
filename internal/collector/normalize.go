package collector

import (
	"sort"
	"time"

	"MarketWorkbook/internal/model"
)

// Normalize turns a provider frame into long-form quotes for the selector:
//
//   - LATEST keeps only rows at the single greatest timestamp of the batch,
//     so tickers lacking that timestamp are dropped.
//   - RANGE keeps Start <= Date < End.
//   - SPECIFIC keeps the last row per ticker on the selected calendar day.
//
// Rows come back sorted by (Ticker, Date) with at most one row per
// (Ticker, Date). A FlatFrame is attributed to tickers[0].
func Normalize(frame Frame, tickers []string, sel model.Selector) []model.Quote {
	var rows []model.Quote
	switch f := frame.(type) {
	case FlatFrame:
		if len(tickers) == 0 {
			return nil
		}
		rows = unpivot(tickers[0], f.Bars, rows)
	case NestedFrame:
		for _, t := range f.Tickers {
			rows = unpivot(t, f.Bars[t], rows)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	sortQuotes(rows)
	rows = dedupe(rows)

	switch sel.Mode.Kind() {
	case model.KindLatest:
		rows = atLatest(rows)
	case model.KindRange:
		rows = within(rows, sel.Start, sel.End)
	case model.KindSpecific:
		rows = lastOnDay(rows, sel.Date)
	}
	if len(rows) == 0 {
		return nil
	}
	return rows
}

func unpivot(ticker string, bars []model.OHLCV, rows []model.Quote) []model.Quote {
	for _, b := range bars {
		adj := b.Close
		if b.HasAdjClose {
			adj = b.AdjClose
		}
		rows = append(rows, model.Quote{
			Ticker:   ticker,
			Date:     model.Naive(b.Time),
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			AdjClose: adj,
		})
	}
	return rows
}

func sortQuotes(rows []model.Quote) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Date.Before(rows[j].Date)
	})
}

// dedupe keeps the last of consecutive rows sharing (Ticker, Date).
// rows must be sorted.
func dedupe(rows []model.Quote) []model.Quote {
	out := rows[:0]
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].Ticker == r.Ticker && out[n-1].Date.Equal(r.Date) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}

func atLatest(rows []model.Quote) []model.Quote {
	var max time.Time
	for _, r := range rows {
		if r.Date.After(max) {
			max = r.Date
		}
	}
	out := rows[:0]
	for _, r := range rows {
		if r.Date.Equal(max) {
			out = append(out, r)
		}
	}
	return out
}

func within(rows []model.Quote, start, end time.Time) []model.Quote {
	out := rows[:0]
	for _, r := range rows {
		if !r.Date.Before(start) && r.Date.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

// lastOnDay keeps the last row of each ticker on day. rows must be sorted.
func lastOnDay(rows []model.Quote, day time.Time) []model.Quote {
	out := rows[:0]
	for _, r := range rows {
		if !model.SameDay(r.Date, day) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Ticker == r.Ticker {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}
