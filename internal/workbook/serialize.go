package workbook

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateFormat is the number format applied to timestamp cells.
const DateFormat = "yyyy-mm-dd hh:mm:ss"

// Serialize renders the workbook as xlsx bytes. Each sheet gets a header row;
// NaN prices become blank cells. An empty workbook is written with the
// default sheet so the file stays openable.
func Serialize(wb Workbook) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	dateFmt := DateFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, fmt.Errorf("date style: %w", err)
	}

	for i, sheet := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, dateStyle); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet.Name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet Sheet, dateStyle int) error {
	head := make([]interface{}, len(sheet.Header))
	for i, h := range sheet.Header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &head); err != nil {
		return err
	}

	dateCols := make(map[int]bool)
	for r, row := range sheet.Rows {
		out := make([]interface{}, len(row))
		for c, v := range row {
			switch x := v.(type) {
			case float64:
				if math.IsNaN(x) || math.IsInf(x, 0) {
					out[c] = nil
					continue
				}
			case time.Time:
				dateCols[c] = true
			}
			out[c] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &out); err != nil {
			return err
		}
	}

	last := len(sheet.Rows) + 1
	for c := range dateCols {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, fmt.Sprintf("%s2", col), fmt.Sprintf("%s%d", col, last), dateStyle); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, col, col, 20); err != nil {
			return err
		}
	}
	return nil
}
