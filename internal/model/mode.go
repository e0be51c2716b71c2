package model

import (
	"fmt"
	"time"
)

// Column is one header of an exported sheet.
type Column string

const (
	ColIndex    Column = "Index"
	ColTicker   Column = "Ticker"
	ColDate     Column = "Date"
	ColOpen     Column = "Open"
	ColHigh     Column = "High"
	ColLow      Column = "Low"
	ColClose    Column = "Close"
	ColAdjClose Column = "Adj Close"
)

// Kind is the temporal selector family a mode belongs to.
type Kind int

const (
	KindLatest Kind = iota
	KindRange
	KindSpecific
)

// Layout is the sheet-partitioning policy of a workbook.
type Layout int

const (
	LayoutPerGroup Layout = iota
	LayoutCombined
	LayoutPerTicker
)

func (l Layout) String() string {
	switch l {
	case LayoutPerGroup:
		return "per_group"
	case LayoutCombined:
		return "combined"
	case LayoutPerTicker:
		return "per_ticker"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// ParseLayout maps a layout name to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "per_group":
		return LayoutPerGroup, nil
	case "combined", "single":
		return LayoutCombined, nil
	case "per_ticker", "multi":
		return LayoutPerTicker, nil
	}
	return 0, fmt.Errorf("unknown layout %q", s)
}

// Mode is an export mode. It carries its column schema, provider request
// parameters and default layout so call sites never branch on flags.
type Mode int

const (
	ModeAllComponents Mode = iota
	ModeRealtime
	ModeHistoric
	ModeSpecificDate
)

var (
	withAdjClose    = []Column{ColTicker, ColDate, ColOpen, ColHigh, ColLow, ColClose, ColAdjClose}
	withoutAdjClose = []Column{ColTicker, ColDate, ColOpen, ColHigh, ColLow, ColClose}
)

func (m Mode) String() string {
	switch m {
	case ModeAllComponents:
		return "all_components"
	case ModeRealtime:
		return "realtime"
	case ModeHistoric:
		return "historic"
	case ModeSpecificDate:
		return "specific_date"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Kind returns the temporal selector family of the mode.
func (m Mode) Kind() Kind {
	switch m {
	case ModeHistoric:
		return KindRange
	case ModeSpecificDate:
		return KindSpecific
	default:
		return KindLatest
	}
}

// HasAdjClose reports whether sheets of this mode carry Adj Close.
func (m Mode) HasAdjClose() bool { return m != ModeRealtime }

// Columns returns the fixed column order; Index is prepended when the sheet
// records span more than one group.
func (m Mode) Columns(withIndex bool) []Column {
	base := withAdjClose
	if !m.HasAdjClose() {
		base = withoutAdjClose
	}
	cols := make([]Column, 0, len(base)+1)
	if withIndex {
		cols = append(cols, ColIndex)
	}
	return append(cols, base...)
}

// Interval is the provider bar interval requested by the mode.
func (m Mode) Interval() string {
	switch m {
	case ModeRealtime:
		return "1m"
	case ModeSpecificDate:
		return "60m"
	default:
		return "1d"
	}
}

// Period is the provider lookback period for LATEST modes, empty otherwise.
func (m Mode) Period() string {
	if m.Kind() == KindLatest {
		return "1d"
	}
	return ""
}

// DefaultLayout is the layout used when the caller does not choose one.
func (m Mode) DefaultLayout() Layout {
	switch m {
	case ModeHistoric:
		return LayoutPerTicker
	case ModeSpecificDate:
		return LayoutCombined
	default:
		return LayoutPerGroup
	}
}

// CombinedSheetName names the single sheet of a combined workbook.
func (m Mode) CombinedSheetName(date time.Time) string {
	switch m {
	case ModeRealtime:
		return "Realtime Data"
	case ModeHistoric:
		return "Historic Data"
	case ModeSpecificDate:
		return "Data_" + date.Format(DateLayout)
	default:
		return "All Components"
	}
}

// Selector is the temporal selection of one fetch.
type Selector struct {
	Mode  Mode
	Start time.Time // RANGE, inclusive
	End   time.Time // RANGE, exclusive
	Date  time.Time // SPECIFIC
}

// Latest selects the most recent trading session in the given LATEST mode.
func Latest(m Mode) Selector { return Selector{Mode: m} }

// Range selects daily bars in [start, end). Callers that need an inclusive
// end day pass end plus one day.
func Range(start, end time.Time) Selector {
	return Selector{Mode: ModeHistoric, Start: Day(start), End: Day(end)}
}

// Specific selects the last intraday bar of the given calendar day.
func Specific(date time.Time) Selector {
	return Selector{Mode: ModeSpecificDate, Date: Day(date)}
}

// Window returns the provider request window. Zero times mean a period
// request is used instead.
func (s Selector) Window() (time.Time, time.Time) {
	switch s.Mode.Kind() {
	case KindRange:
		return s.Start, s.End
	case KindSpecific:
		return s.Date, s.Date.AddDate(0, 0, 1)
	}
	return time.Time{}, time.Time{}
}

// ParseMode maps a mode name back to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeAllComponents, ModeRealtime, ModeHistoric, ModeSpecificDate} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
