package workbook

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"MarketWorkbook/internal/model"
	"MarketWorkbook/internal/universe"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func quote(ticker string, d int, close float64) model.Quote {
	return model.Quote{Ticker: ticker, Date: day(d), Open: close, High: close + 1, Low: close - 1, Close: close, AdjClose: close - 0.25}
}

func openBlob(t *testing.T, blob []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestCompose_PerGroupSkipsEmptyGroups(t *testing.T) {
	results := []GroupRows{
		{Group: "SP500", Rows: []model.Quote{quote("AAPL", 3, 10), quote("MSFT", 3, 20)}},
		{Group: "Nasdaq100", Rows: nil},
		{Group: "ETFs", Rows: []model.Quote{quote("SPY", 3, 30)}},
	}
	wb := Compose(results, model.ModeAllComponents, model.LayoutPerGroup, time.Time{})

	assert.Equal(t, []string{"SP500", "ETFs"}, wb.SheetNames())
	assert.Equal(t, 3, wb.RowCount())
	assert.Equal(t, []string{"Ticker", "Date", "Open", "High", "Low", "Close", "Adj Close"}, wb.Sheets[0].Header)
}

func TestCompose_PerGroupTruncatesNames(t *testing.T) {
	long := strings.Repeat("G", 40)
	wb := Compose([]GroupRows{{Group: long, Rows: []model.Quote{quote("A", 2, 1)}}}, model.ModeRealtime, model.LayoutPerGroup, time.Time{})
	require.Len(t, wb.Sheets, 1)
	assert.Len(t, wb.Sheets[0].Name, MaxSheetName)
	assert.Equal(t, []string{"Ticker", "Date", "Open", "High", "Low", "Close"}, wb.Sheets[0].Header)
}

func TestCompose_SheetNamesDifferingByCaseMerge(t *testing.T) {
	wb := Compose([]GroupRows{
		{Group: "Tech", Rows: []model.Quote{quote("AAPL", 2, 10), quote("MSFT", 2, 20)}},
		{Group: "tech", Rows: []model.Quote{quote("NVDA", 2, 30)}},
	}, model.ModeAllComponents, model.LayoutPerGroup, time.Time{})
	require.Equal(t, []string{"Tech"}, wb.SheetNames())

	blob, err := Serialize(wb)
	require.NoError(t, err)
	f := openBlob(t, blob)
	assert.Equal(t, []string{"Tech"}, f.GetSheetList())
	rows, err := f.GetRows("Tech")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "MSFT", rows[2][0])
	assert.Equal(t, "NVDA", rows[3][0])

	wb = Compose([]GroupRows{
		{Group: "Custom", Rows: []model.Quote{quote("brk", 2, 1), quote("BRK", 3, 2)}},
	}, model.ModeHistoric, model.LayoutPerTicker, time.Time{})
	require.Len(t, wb.Sheets, 1)
	assert.Len(t, wb.Sheets[0].Rows, 2)
}

func TestCompose_CombinedAddsIndexOnlyForManyGroups(t *testing.T) {
	multi := []GroupRows{
		{Group: "SP500", Rows: []model.Quote{quote("AAPL", 3, 10)}},
		{Group: "ETFs", Rows: []model.Quote{quote("SPY", 3, 30)}},
	}
	wb := Compose(multi, model.ModeSpecificDate, model.LayoutCombined, day(3))
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "Data_2024-01-03", wb.Sheets[0].Name)
	assert.Equal(t, "Index", wb.Sheets[0].Header[0])
	assert.Equal(t, "ETFs", wb.Sheets[0].Rows[1][0])
	assert.Equal(t, 2, wb.RowCount())

	single := []GroupRows{{Group: model.CustomGroup, Rows: []model.Quote{quote("AAPL", 3, 10)}}}
	wb = Compose(single, model.ModeSpecificDate, model.LayoutCombined, day(3))
	assert.Equal(t, "Ticker", wb.Sheets[0].Header[0])
}

func TestCompose_PerTickerDropsIndexAndDedupes(t *testing.T) {
	results := []GroupRows{
		{Group: "SP500", Rows: []model.Quote{quote("MSFT", 2, 1), quote("AAPL", 3, 2), quote("AAPL", 2, 3)}},
		{Group: "Nasdaq100", Rows: []model.Quote{quote("AAPL", 2, 4)}},
	}
	wb := Compose(results, model.ModeHistoric, model.LayoutPerTicker, time.Time{})

	assert.Equal(t, []string{"AAPL", "MSFT"}, wb.SheetNames())
	for _, s := range wb.Sheets {
		assert.NotContains(t, s.Header, "Index")
	}
	aapl := wb.Sheets[0]
	require.Len(t, aapl.Rows, 2)
	assert.Equal(t, day(2), aapl.Rows[0][1])
	assert.Equal(t, 3.0, aapl.Rows[0][5], "first occurrence wins")
	assert.Equal(t, day(3), aapl.Rows[1][1])
}

func TestCompose_ZeroRowsIsEmptyWorkbook(t *testing.T) {
	for _, layout := range []model.Layout{model.LayoutPerGroup, model.LayoutCombined, model.LayoutPerTicker} {
		wb := Compose([]GroupRows{{Group: "SP500"}}, model.ModeAllComponents, layout, time.Time{})
		assert.True(t, wb.Empty(), layout.String())
		assert.Empty(t, wb.Sheets, layout.String())
	}
}

func TestCompose_HistoricCombinedScenario(t *testing.T) {
	rows := []model.Quote{
		quote("MSFT", 2, 370), quote("MSFT", 3, 371), quote("MSFT", 4, 372),
		quote("AAPL", 2, 185), quote("AAPL", 3, 184), quote("AAPL", 4, 183),
	}
	wb := Compose([]GroupRows{{Group: model.CustomGroup, Rows: rows}}, model.ModeHistoric, model.LayoutCombined, time.Time{})

	require.Equal(t, []string{"Historic Data"}, wb.SheetNames())
	sheet := wb.Sheets[0]
	assert.Equal(t, []string{"Ticker", "Date", "Open", "High", "Low", "Close", "Adj Close"}, sheet.Header)
	require.Len(t, sheet.Rows, 6)
	var got []string
	for _, r := range sheet.Rows {
		got = append(got, r[0].(string)+" "+r[1].(time.Time).Format("01-02"))
	}
	assert.Equal(t, []string{"AAPL 01-02", "AAPL 01-03", "AAPL 01-04", "MSFT 01-02", "MSFT 01-03", "MSFT 01-04"}, got)
}

func TestSerialize_RoundTrip(t *testing.T) {
	q := quote("AAPL", 2, 185.5)
	q.Open = math.NaN()
	wb := Compose([]GroupRows{
		{Group: "SP500", Rows: []model.Quote{q}},
		{Group: "ETFs", Rows: []model.Quote{quote("SPY", 2, 470)}},
	}, model.ModeAllComponents, model.LayoutPerGroup, time.Time{})

	blob, err := Serialize(wb)
	require.NoError(t, err)

	f := openBlob(t, blob)
	assert.Equal(t, []string{"SP500", "ETFs"}, f.GetSheetList())

	rows, err := f.GetRows("SP500")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Ticker", "Date", "Open", "High", "Low", "Close", "Adj Close"}, rows[0])
	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "", rows[1][2], "NaN is written as a blank cell")
	assert.Equal(t, "185.5", rows[1][5])
}

func TestSerialize_EmptyWorkbookKeepsDefaultSheet(t *testing.T) {
	blob, err := Serialize(Workbook{})
	require.NoError(t, err)
	f := openBlob(t, blob)
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}

func TestSerialize_InvalidSheetNameFails(t *testing.T) {
	wb := Compose([]GroupRows{{Group: "Bad/Name", Rows: []model.Quote{quote("A", 2, 1)}}}, model.ModeAllComponents, model.LayoutPerGroup, time.Time{})
	_, err := Serialize(wb)
	assert.Error(t, err)
}

func TestMembership(t *testing.T) {
	wb := Membership([]universe.GroupComponents{
		{Name: universe.GroupSP500, Components: []universe.Component{{Ticker: "MSFT", Name: "Microsoft"}, {Ticker: "AAPL", Name: "Apple"}}},
		{Name: universe.GroupNasdaq100, Components: []universe.Component{{Ticker: "AAPL", Name: "Apple Inc"}}},
		{Name: universe.GroupDowJones, Err: assert.AnError},
		{Name: universe.GroupETFs, Components: []universe.Component{{Ticker: "SPY"}}},
	})

	require.Len(t, wb.Sheets, 1)
	s := wb.Sheets[0]
	assert.Equal(t, MembershipSheet, s.Name)
	assert.Equal(t, []string{"Ticker", "Company Name", "Dow Jones", "Nasdaq 100", "SP500", "ETF", "Other", "Indices"}, s.Header)
	require.Len(t, s.Rows, 3)
	assert.Equal(t, []interface{}{"AAPL", "Apple", 0, 1, 1, 0, 0, "ND;SP"}, s.Rows[0])
	assert.Equal(t, []interface{}{"SPY", "", 0, 0, 0, 1, 0, "ETF"}, s.Rows[2])
}
