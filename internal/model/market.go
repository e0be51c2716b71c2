package model

import (
	"math"
	"time"
)

// OHLCV represents a single candlestick bar as the provider returns it.
// Time keeps the provider's time zone; Volume is carried but never exported.
type OHLCV struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
	// HasAdjClose is false for intraday intervals, where the provider
	// does not publish an adjusted close.
	HasAdjClose bool
}

// Quote is one normalized observation for a ticker.
type Quote struct {
	Ticker   string
	Date     time.Time // naive provider-local wall clock, stored in UTC
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
}

// Naive drops the zone of t and keeps its wall clock reading.
func Naive(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Day truncates a naive timestamp to midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Missing reports whether a price was omitted by the provider.
func Missing(v float64) bool { return math.IsNaN(v) }
