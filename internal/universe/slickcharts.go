package universe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

var etfSymbols = []string{
	"SPY", "SSO", "SPXL", "RSP", "QQQ", "QLD", "TQQQ", "DIA", "WEBL", "IWF",
	"XLK", "XLV", "XLY", "XLC", "XLF", "XLI", "XLP", "XLU", "XLB", "XLRE",
	"XLE", "MDY", "SPMD", "SH", "SDS", "SPXS", "PSQ", "QID", "SQQQ", "RWM",
	"GLD", "SLV", "USO", "UNG",
}

var otherSymbols = []string{
	"SPX", "IXIC", "DJI", "N225", "FTSE", "FCHI", "^HSI", "TA35.TA", "^IBEX",
}

// ErrNoTable is returned when a components page has no member table.
var ErrNoTable = errors.New("components table not found")

const componentsTable = "table.table.table-hover.table-borderless.table-sm"

// SlickChartsSource scrapes index membership from slickcharts.com. The
// enumeration is fixed: three scraped indices followed by fixed ETF and
// other-index lists.
type SlickChartsSource struct {
	BaseURL string
	Client  *http.Client
	logger  arbor.ILogger
}

// NewSlickChartsSource creates a scraper with optional proxy support.
func NewSlickChartsSource(baseURL, proxyURL string, timeout time.Duration, logger arbor.ILogger) *SlickChartsSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &SlickChartsSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout, Transport: transport},
		logger:  logger,
	}
}

// Components scrapes every group. Each index page is fetched fresh; a failed
// page yields that group with an error and no members.
func (s *SlickChartsSource) Components(ctx context.Context) []GroupComponents {
	pages := []struct{ group, path string }{
		{GroupSP500, "/sp500"},
		{GroupNasdaq100, "/nasdaq100"},
		{GroupDowJones, "/dowjones"},
	}

	out := make([]GroupComponents, 0, len(pages)+2)
	for _, p := range pages {
		members, err := s.scrape(ctx, s.BaseURL+p.path)
		if err != nil {
			err = fmt.Errorf("scrape %s: %w", p.group, err)
		}
		out = append(out, GroupComponents{Name: p.group, Components: members, Err: err})
	}
	out = append(out,
		GroupComponents{Name: GroupETFs, Components: symbolsOnly(etfSymbols)},
		GroupComponents{Name: GroupOther, Components: symbolsOnly(otherSymbols)},
	)
	return out
}

func (s *SlickChartsSource) scrape(ctx context.Context, pageURL string) ([]Component, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36")
	req.Header.Set("Referer", "https://www.google.com")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find(componentsTable).First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	var members []Component
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 3 {
			return
		}
		name := strings.TrimSpace(cols.Eq(1).Find("a").First().Text())
		symbol := strings.TrimSpace(cols.Eq(2).Find("a").First().Text())
		if symbol == "" {
			return
		}
		members = append(members, Component{Ticker: symbol, Name: name})
	})
	return members, nil
}

func symbolsOnly(symbols []string) []Component {
	out := make([]Component, len(symbols))
	for i, s := range symbols {
		out[i] = Component{Ticker: s}
	}
	return out
}
