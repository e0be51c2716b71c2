package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/collector"
	"MarketWorkbook/internal/config"
	"MarketWorkbook/internal/export"
	"MarketWorkbook/internal/model"
	"MarketWorkbook/internal/universe"
)

type fakeDispatcher struct {
	name  string
	err   error
	paths []string
}

func (f *fakeDispatcher) Name() string { return f.name }
func (f *fakeDispatcher) Dispatch(_ context.Context, blob []byte, path string) error {
	if f.err != nil {
		return f.err
	}
	f.paths = append(f.paths, path)
	return nil
}

type memRecorder struct{ runs []model.ExportRun }

func (m *memRecorder) RecordRun(_ context.Context, r *model.ExportRun) error {
	m.runs = append(m.runs, *r)
	return nil
}
func (m *memRecorder) LastRun(context.Context) (*model.ExportRun, error) {
	return &m.runs[len(m.runs)-1], nil
}
func (m *memRecorder) RecentRuns(context.Context, int) ([]model.ExportRun, error) { return m.runs, nil }
func (m *memRecorder) Close() error                                               { return nil }

type fixture struct {
	svc      *Service
	fetcher  *collector.MockFetcher
	dispatch *fakeDispatcher
	rec      *memRecorder
}

func newFixture(t *testing.T, source universe.ComponentSource) *fixture {
	t.Helper()
	logger := arbor.NewLogger()
	fetcher := &collector.MockFetcher{Now: func() time.Time { return time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC) }}
	reg := export.NewRegistry(config.ExportConfig{Backend: export.BackendS3}, logger)
	d := &fakeDispatcher{name: export.BackendS3}
	reg.Register(export.BackendS3, d)
	rec := &memRecorder{}

	svc := NewService(
		universe.NewResolver(source, logger),
		collector.NewCollector(fetcher, nil, logger),
		reg, rec, nil, logger,
	)
	svc.now = func() time.Time { return time.Date(2024, 1, 5, 10, 11, 12, 0, time.UTC) }
	return &fixture{svc: svc, fetcher: fetcher, dispatch: d, rec: rec}
}

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func bar(d int, close float64) model.OHLCV {
	return model.OHLCV{Time: day(d), Open: close, High: close, Low: close, Close: close, AdjClose: close, HasAdjClose: true}
}

func TestRun_HistoricRangeScenario(t *testing.T) {
	f := newFixture(t, universe.StaticSource{})
	layout := model.LayoutCombined
	start, end, err := model.ParseDateRange("2024-01-02", "2024-01-05")
	require.NoError(t, err)

	report, err := f.svc.Run(context.Background(), Job{
		Selector: model.Range(start, end),
		Layout:   &layout,
		Override: model.NewUniverse(model.Group{Name: model.CustomGroup, Tickers: []string{"MSFT", "AAPL"}}),
		Trigger:  model.TriggerManual,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"Historic Data"}, report.Workbook.SheetNames())
	sheet := report.Workbook.Sheets[0]
	assert.Equal(t, []string{"Ticker", "Date", "Open", "High", "Low", "Close", "Adj Close"}, sheet.Header)
	require.Len(t, sheet.Rows, 6)
	assert.Equal(t, "AAPL", sheet.Rows[0][0])
	assert.Equal(t, day(2), sheet.Rows[0][1])
	assert.Equal(t, day(4), sheet.Rows[2][1])
	assert.Equal(t, "MSFT", sheet.Rows[3][0])
	assert.NotEmpty(t, report.Blob)
	assert.Equal(t, "stock_data_20240105101112.xlsx", report.Filename)
	assert.Empty(t, f.dispatch.paths, "manual download does not dispatch")
}

func TestRun_LatestWithOneEmptyTicker(t *testing.T) {
	f := newFixture(t, universe.StaticSource{
		{Name: universe.GroupSP500, Components: []universe.Component{{Ticker: "AAPL"}, {Ticker: "MSFT"}, {Ticker: "GONE"}}},
	})
	f.fetcher.Data = map[string][]model.OHLCV{
		"AAPL": {bar(3, 185)},
		"MSFT": {bar(3, 370)},
		"GONE": nil,
	}

	report, err := f.svc.Run(context.Background(), Job{Selector: model.Latest(model.ModeAllComponents), Trigger: model.TriggerManual})
	require.NoError(t, err)

	require.Equal(t, []string{universe.GroupSP500}, report.Workbook.SheetNames())
	rows := report.Workbook.Sheets[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "AAPL", rows[0][0])
	assert.Equal(t, "MSFT", rows[1][0])
}

func TestRun_EmptyAndFailedGroupsBecomeNotices(t *testing.T) {
	f := newFixture(t, universe.StaticSource{
		{Name: universe.GroupSP500, Components: []universe.Component{{Ticker: "AAPL"}}},
		{Name: universe.GroupNasdaq100, Err: errors.New("timeout")},
		{Name: universe.GroupETFs, Components: []universe.Component{{Ticker: "BAD"}}},
	})
	f.fetcher.Errs = map[string]error{"BAD": errors.New("delisted")}

	report, err := f.svc.Run(context.Background(), Job{Selector: model.Latest(model.ModeRealtime), Trigger: model.TriggerHourly})
	require.NoError(t, err)

	assert.Equal(t, []string{universe.GroupSP500}, report.Workbook.SheetNames())
	assert.Equal(t, []string{"Ticker", "Date", "Open", "High", "Low", "Close"}, report.Workbook.Sheets[0].Header)
	require.Len(t, report.Notices, 2)
	assert.Equal(t, "no data found for Nasdaq100", report.Notices[0])
	assert.Contains(t, report.Notices[1], "delisted")
	assert.Equal(t, 3, report.Run.Groups)
	assert.Equal(t, "realtime_data_20240105101112.xlsx", report.Filename)
}

func TestRun_DispatchesToDefaultBackend(t *testing.T) {
	f := newFixture(t, universe.StaticSource{
		{Name: universe.GroupETFs, Components: []universe.Component{{Ticker: "SPY"}}},
	})

	report, err := f.svc.Run(context.Background(), Job{
		Selector: model.Latest(model.ModeAllComponents),
		Trigger:  model.TriggerDaily,
		Dispatch: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{report.Filename}, f.dispatch.paths)

	require.Len(t, f.rec.runs, 1)
	run := f.rec.runs[0]
	assert.True(t, run.Exported)
	assert.Equal(t, export.BackendS3, run.Destination)
	assert.Equal(t, model.TriggerDaily, run.Trigger)
	assert.Equal(t, 1, run.Rows)
}

func TestRun_DispatchFailureIsReported(t *testing.T) {
	f := newFixture(t, universe.StaticSource{
		{Name: universe.GroupETFs, Components: []universe.Component{{Ticker: "SPY"}}},
	})
	f.dispatch.err = errors.New("access denied")

	report, err := f.svc.Run(context.Background(), Job{Selector: model.Latest(model.ModeAllComponents), Dispatch: true})
	require.ErrorIs(t, err, ErrExport)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.Blob)
	require.Len(t, f.rec.runs, 1)
	assert.False(t, f.rec.runs[0].Exported)
	assert.Contains(t, f.rec.runs[0].Err, "access denied")
}

func TestRun_UnknownDestination(t *testing.T) {
	f := newFixture(t, universe.StaticSource{
		{Name: universe.GroupETFs, Components: []universe.Component{{Ticker: "SPY"}}},
	})
	_, err := f.svc.Run(context.Background(), Job{Selector: model.Latest(model.ModeAllComponents), Dispatch: true, Destination: "ftp"})
	assert.ErrorIs(t, err, ErrDestination)
	assert.ErrorIs(t, err, export.ErrUnknownBackend)
}

func TestRun_EmptyWorkbookSkipsDispatch(t *testing.T) {
	f := newFixture(t, universe.StaticSource{{Name: universe.GroupETFs}})

	report, err := f.svc.Run(context.Background(), Job{Selector: model.Latest(model.ModeAllComponents), Dispatch: true})
	require.NoError(t, err)
	assert.True(t, report.Workbook.Empty())
	assert.Empty(t, f.dispatch.paths)
	assert.Contains(t, report.Notices, "nothing to export")
}

func TestComponents(t *testing.T) {
	f := newFixture(t, universe.StaticSource{
		{Name: universe.GroupSP500, Components: []universe.Component{{Ticker: "AAPL", Name: "Apple"}}},
		{Name: universe.GroupDowJones, Err: errors.New("blocked")},
	})
	report, err := f.svc.Components(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "index_components_20240105101112.xlsx", report.Filename)
	assert.Equal(t, 1, report.Workbook.RowCount())
	require.Len(t, report.Notices, 1)
	assert.Contains(t, report.Notices[0], "DowJones")
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "all_tickers_data_20240301090507.xlsx", Filename(model.ModeAllComponents, time.Time{}, ts))
	assert.Equal(t, "specific_date_2024-02-28_20240301090507.xlsx", Filename(model.ModeSpecificDate, day(28).AddDate(0, 1, 0), ts))
}
