package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUniverse_DedupesAndMerges(t *testing.T) {
	u := NewUniverse(
		Group{Name: "Tech", Tickers: []string{"MSFT", "AAPL", "MSFT", "", "NVDA", "AAPL"}},
		Group{Name: "ETFs", Tickers: []string{"SPY"}},
		Group{Name: "Tech", Tickers: []string{"AMD", "NVDA"}},
	)

	require.Equal(t, 2, u.Len())
	tech, ok := u.Group("Tech")
	require.True(t, ok)
	assert.Equal(t, []string{"MSFT", "AAPL", "NVDA", "AMD"}, tech)
	assert.Equal(t, []string{"MSFT", "AAPL", "NVDA", "AMD", "SPY"}, u.Tickers())
}

func TestUniverse_GroupsReturnsCopy(t *testing.T) {
	u := NewUniverse(Group{Name: "A", Tickers: []string{"X"}})
	groups := u.Groups()
	groups[0].Tickers[0] = "MUTATED"

	got, _ := u.Group("A")
	assert.Equal(t, []string{"X"}, got)
}

func TestModeColumns(t *testing.T) {
	assert.Equal(t,
		[]Column{ColTicker, ColDate, ColOpen, ColHigh, ColLow, ColClose, ColAdjClose},
		ModeHistoric.Columns(false))
	assert.Equal(t,
		[]Column{ColIndex, ColTicker, ColDate, ColOpen, ColHigh, ColLow, ColClose},
		ModeRealtime.Columns(true))
	assert.True(t, ModeSpecificDate.HasAdjClose())
	assert.True(t, ModeAllComponents.HasAdjClose())
}

func TestModeRequestParameters(t *testing.T) {
	assert.Equal(t, "1d", ModeAllComponents.Period())
	assert.Equal(t, "1m", ModeRealtime.Interval())
	assert.Equal(t, "60m", ModeSpecificDate.Interval())
	assert.Empty(t, ModeHistoric.Period())
	assert.Equal(t, LayoutPerTicker, ModeHistoric.DefaultLayout())
	assert.Equal(t, "Data_2024-03-01", ModeSpecificDate.CombinedSheetName(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestSelectorWindow(t *testing.T) {
	d := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)
	start, end := Specific(d).Window()
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), end)

	start, end = Latest(ModeRealtime).Window()
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
}

func TestParseDateRange(t *testing.T) {
	s, e, err := ParseDateRange("2024-01-02", "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, 3*24*time.Hour, e.Sub(s))

	_, _, err = ParseDateRange("2024-01-05", "2024-01-05")
	assert.True(t, errors.Is(err, ErrInvalidPeriod))

	_, _, err = ParseDateRange("01/02/2024", "2024-01-05")
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
}

func TestLookback(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

	s, e, err := Lookback(2, "weeks", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), s)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), e)

	s, _, err = Lookback(10, "days", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), s)

	_, _, err = Lookback(0, "weeks", now)
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
	_, _, err = Lookback(3, "months", now)
	assert.True(t, errors.Is(err, ErrInvalidPeriod))
}

func TestNaiveKeepsWallClock(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 1, 2, 15, 59, 0, 0, ny)
	n := Naive(ts)
	assert.Equal(t, time.UTC, n.Location())
	assert.Equal(t, 15, n.Hour())
	assert.Equal(t, 2, n.Day())
}
