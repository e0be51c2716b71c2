// Package tickerfile reads caller-supplied ticker sheets.
package tickerfile

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"MarketWorkbook/internal/model"
)

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnreadable is returned when the upload is not a readable workbook.
	ErrUnreadable = errors.New("unreadable spreadsheet")
)

const (
	tickerHeader = "Ticker"
	indexHeader  = "Index"
)

// Parse reads the first sheet of an xlsx upload. The header row must carry
// Ticker, and Index too when grouped is set. Rows are grouped by Index in
// order of first appearance; without an Index column every ticker lands in
// the Custom group. Blank tickers and rows with a blank Index are skipped.
func Parse(r io.Reader, grouped bool) (model.Universe, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Universe{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Universe{}, fmt.Errorf("%w: no sheets", ErrUnreadable)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return model.Universe{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(rows) == 0 {
		return model.Universe{}, fmt.Errorf("%w: %s", ErrMissingColumn, tickerHeader)
	}

	tickerCol, indexCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case tickerHeader:
			if tickerCol < 0 {
				tickerCol = i
			}
		case indexHeader:
			if indexCol < 0 {
				indexCol = i
			}
		}
	}
	if tickerCol < 0 {
		return model.Universe{}, fmt.Errorf("%w: %s", ErrMissingColumn, tickerHeader)
	}
	if grouped && indexCol < 0 {
		return model.Universe{}, fmt.Errorf("%w: %s", ErrMissingColumn, indexHeader)
	}

	var groups []model.Group
	pos := make(map[string]int)
	for _, row := range rows[1:] {
		ticker := cell(row, tickerCol)
		if ticker == "" {
			continue
		}
		name := model.CustomGroup
		if indexCol >= 0 {
			name = cell(row, indexCol)
			if name == "" {
				continue
			}
		}
		i, ok := pos[name]
		if !ok {
			i = len(groups)
			pos[name] = i
			groups = append(groups, model.Group{Name: name})
		}
		groups[i].Tickers = append(groups[i].Tickers, ticker)
	}
	return model.NewUniverse(groups...), nil
}

// cell returns the trimmed value at col; GetRows drops trailing blanks.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
