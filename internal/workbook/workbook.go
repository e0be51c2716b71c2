// Package workbook composes fetched quotes into sheets and serializes them
// as xlsx.
package workbook

import (
	"sort"
	"strings"
	"time"

	"MarketWorkbook/internal/model"
)

// MaxSheetName is the sheet-name length limit of the xlsx format.
const MaxSheetName = 31

// GroupRows is the fetch outcome of one group, rows already normalized.
type GroupRows struct {
	Group string
	Rows  []model.Quote
}

// Sheet is one named table. Cells hold string, int, float64 or time.Time.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// Workbook is an ordered list of sheets, fully materialized in memory.
type Workbook struct {
	Sheets []Sheet
}

// RowCount returns the number of data rows across all sheets.
func (w Workbook) RowCount() int {
	n := 0
	for _, s := range w.Sheets {
		n += len(s.Rows)
	}
	return n
}

// Empty reports whether the workbook has no data rows.
func (w Workbook) Empty() bool { return w.RowCount() == 0 }

// SheetNames returns the sheet names in order.
func (w Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// SheetName truncates name to the xlsx limit. Other characters are passed
// through unchanged; names the format rejects fail at Serialize.
func SheetName(name string) string {
	r := []rune(name)
	if len(r) > MaxSheetName {
		return string(r[:MaxSheetName])
	}
	return name
}

// sheetKey identifies a sheet the way xlsx readers do: names that differ
// only by case are the same sheet, so their rows merge under the first name.
func sheetKey(name string) string { return strings.ToLower(name) }

type record struct {
	group string
	quote model.Quote
}

// Compose lays out fetched groups according to layout. Groups with no rows
// contribute nothing, and zero rows overall yield an empty workbook. date
// names the combined sheet of the specific-date mode.
func Compose(results []GroupRows, mode model.Mode, layout model.Layout, date time.Time) Workbook {
	switch layout {
	case model.LayoutCombined:
		return composeCombined(results, mode, date)
	case model.LayoutPerTicker:
		return composePerTicker(results, mode)
	default:
		return composePerGroup(results, mode)
	}
}

func composePerGroup(results []GroupRows, mode model.Mode) Workbook {
	var wb Workbook
	cols := mode.Columns(false)
	pos := make(map[string]int)
	for _, g := range results {
		if len(g.Rows) == 0 {
			continue
		}
		name := SheetName(g.Group)
		i, ok := pos[sheetKey(name)]
		if !ok {
			i = len(wb.Sheets)
			pos[sheetKey(name)] = i
			wb.Sheets = append(wb.Sheets, Sheet{Name: name, Header: header(cols)})
		}
		for _, q := range g.Rows {
			wb.Sheets[i].Rows = append(wb.Sheets[i].Rows, cells(cols, record{group: g.Group, quote: q}))
		}
	}
	return wb
}

func composeCombined(results []GroupRows, mode model.Mode, date time.Time) Workbook {
	recs := flatten(results)
	if len(recs) == 0 {
		return Workbook{}
	}
	if mode.Kind() == model.KindRange {
		sortRecords(recs)
	}

	groups := make(map[string]struct{})
	for _, r := range recs {
		groups[r.group] = struct{}{}
	}
	cols := mode.Columns(len(groups) > 1)

	sheet := Sheet{Name: SheetName(mode.CombinedSheetName(date)), Header: header(cols)}
	for _, r := range recs {
		sheet.Rows = append(sheet.Rows, cells(cols, r))
	}
	return Workbook{Sheets: []Sheet{sheet}}
}

func composePerTicker(results []GroupRows, mode model.Mode) Workbook {
	recs := flatten(results)
	sortRecords(recs)

	var wb Workbook
	cols := mode.Columns(false)
	pos := make(map[string]int)
	var last record
	for i, r := range recs {
		if i > 0 && r.quote.Ticker == last.quote.Ticker && r.quote.Date.Equal(last.quote.Date) {
			continue
		}
		last = r
		name := SheetName(r.quote.Ticker)
		j, ok := pos[sheetKey(name)]
		if !ok {
			j = len(wb.Sheets)
			pos[sheetKey(name)] = j
			wb.Sheets = append(wb.Sheets, Sheet{Name: name, Header: header(cols)})
		}
		wb.Sheets[j].Rows = append(wb.Sheets[j].Rows, cells(cols, r))
	}
	return wb
}

func flatten(results []GroupRows) []record {
	var recs []record
	for _, g := range results {
		for _, q := range g.Rows {
			recs = append(recs, record{group: g.Group, quote: q})
		}
	}
	return recs
}

func sortRecords(recs []record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].quote, recs[j].quote
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Date.Before(b.Date)
	})
}

func header(cols []model.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}

func cells(cols []model.Column, r record) []interface{} {
	row := make([]interface{}, len(cols))
	q := r.quote
	for i, c := range cols {
		switch c {
		case model.ColIndex:
			row[i] = r.group
		case model.ColTicker:
			row[i] = q.Ticker
		case model.ColDate:
			row[i] = q.Date
		case model.ColOpen:
			row[i] = q.Open
		case model.ColHigh:
			row[i] = q.High
		case model.ColLow:
			row[i] = q.Low
		case model.ColClose:
			row[i] = q.Close
		case model.ColAdjClose:
			row[i] = q.AdjClose
		}
	}
	return row
}
