package universe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"MarketWorkbook/internal/model"
)

const sp500Page = `<html><body>
<table class="table table-hover table-borderless table-sm">
  <thead><tr><th>#</th><th>Company</th><th>Symbol</th></tr></thead>
  <tbody>
    <tr><td>1</td><td><a href="/symbol/MSFT">Microsoft Corp</a></td><td><a href="/symbol/MSFT">MSFT</a></td></tr>
    <tr><td>2</td><td><a href="/symbol/AAPL">Apple Inc.</a></td><td><a href="/symbol/AAPL"> AAPL </a></td></tr>
    <tr><td>3</td><td>short row</td></tr>
    <tr><td>4</td><td><a>No Symbol</a></td><td></td></tr>
  </tbody>
</table></body></html>`

type countingSource struct {
	calls int
	StaticSource
}

func (c *countingSource) Components(ctx context.Context) []GroupComponents {
	c.calls++
	return c.StaticSource.Components(ctx)
}

func TestSlickCharts_ScrapesAndDegradesPerGroup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/sp500":
			w.Write([]byte(sp500Page))
		case "/nasdaq100":
			w.Write([]byte("<html><body><p>maintenance</p></body></html>"))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	src := NewSlickChartsSource(srv.URL, "", 5*time.Second, arbor.NewLogger())
	groups := src.Components(context.Background())

	require.Len(t, groups, 5)
	assert.Equal(t, []string{GroupSP500, GroupNasdaq100, GroupDowJones, GroupETFs, GroupOther},
		[]string{groups[0].Name, groups[1].Name, groups[2].Name, groups[3].Name, groups[4].Name})

	require.NoError(t, groups[0].Err)
	assert.Equal(t, []Component{{Ticker: "MSFT", Name: "Microsoft Corp"}, {Ticker: "AAPL", Name: "Apple Inc."}}, groups[0].Components)

	assert.ErrorIs(t, groups[1].Err, ErrNoTable)
	assert.Empty(t, groups[1].Components)
	assert.ErrorContains(t, groups[2].Err, "status 502")

	assert.Contains(t, groups[3].Tickers(), "TQQQ")
	assert.Equal(t, "", groups[3].Components[0].Name)
	assert.Contains(t, groups[4].Tickers(), "^HSI")
}

func TestResolve_OverrideSkipsScrape(t *testing.T) {
	src := &countingSource{}
	r := NewResolver(src, arbor.NewLogger())

	override := model.NewUniverse(model.Group{Name: "Tech", Tickers: []string{"AAPL", "MSFT", "AAPL"}})
	u := r.Resolve(context.Background(), override)

	assert.Equal(t, 0, src.calls)
	tickers, ok := u.Group("Tech")
	require.True(t, ok)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
}

func TestResolve_ScrapesEveryCallAndKeepsFailedGroupsEmpty(t *testing.T) {
	src := &countingSource{StaticSource: StaticSource{
		{Name: GroupSP500, Components: []Component{{Ticker: "AAPL"}, {Ticker: "AAPL"}, {Ticker: "MSFT"}}},
		{Name: GroupNasdaq100, Err: errors.New("timeout")},
		{Name: GroupETFs, Components: []Component{{Ticker: "SPY"}}},
	}}
	r := NewResolver(src, arbor.NewLogger())

	u := r.Resolve(context.Background(), model.Universe{})
	r.Resolve(context.Background(), model.NewUniverse())
	assert.Equal(t, 2, src.calls)

	require.Equal(t, 3, u.Len())
	sp, _ := u.Group(GroupSP500)
	assert.Equal(t, []string{"AAPL", "MSFT"}, sp)
	nd, ok := u.Group(GroupNasdaq100)
	assert.True(t, ok)
	assert.Empty(t, nd)
}
