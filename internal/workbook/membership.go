package workbook

import (
	"sort"
	"strings"

	"MarketWorkbook/internal/universe"
)

// MembershipSheet names the single sheet of the index membership workbook.
const MembershipSheet = "IndexComponents"

var membershipColumns = []struct {
	header string
	group  string
	tag    string
}{
	{"Dow Jones", universe.GroupDowJones, "DJ"},
	{"Nasdaq 100", universe.GroupNasdaq100, "ND"},
	{"SP500", universe.GroupSP500, "SP"},
	{"ETF", universe.GroupETFs, "ETF"},
	{"Other", universe.GroupOther, "Other"},
}

// Membership builds one row per distinct ticker, sorted, with a 0/1 flag per
// group and the joined tags of the groups it belongs to. The company name
// comes from the first group listing the ticker.
func Membership(groups []universe.GroupComponents) Workbook {
	names := make(map[string]string)
	members := make(map[string]map[string]bool)
	for _, g := range groups {
		set := make(map[string]bool, len(g.Components))
		for _, c := range g.Components {
			set[c.Ticker] = true
			if _, ok := names[c.Ticker]; !ok {
				names[c.Ticker] = c.Name
			}
		}
		members[g.Name] = set
	}

	tickers := make([]string, 0, len(names))
	for t := range names {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	sheet := Sheet{Name: MembershipSheet, Header: []string{"Ticker", "Company Name"}}
	for _, c := range membershipColumns {
		sheet.Header = append(sheet.Header, c.header)
	}
	sheet.Header = append(sheet.Header, "Indices")

	for _, t := range tickers {
		row := []interface{}{t, names[t]}
		var tags []string
		for _, c := range membershipColumns {
			if members[c.group][t] {
				row = append(row, 1)
				tags = append(tags, c.tag)
			} else {
				row = append(row, 0)
			}
		}
		row = append(row, strings.Join(tags, ";"))
		sheet.Rows = append(sheet.Rows, row)
	}
	return Workbook{Sheets: []Sheet{sheet}}
}
