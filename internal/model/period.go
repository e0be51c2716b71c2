package model

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the YYYY-MM-DD form used for every date input and sheet name.
const DateLayout = "2006-01-02"

// ErrInvalidPeriod is returned for unparseable dates, reversed ranges and
// non-positive lookbacks.
var ErrInvalidPeriod = errors.New("invalid period")

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidPeriod, s)
	}
	return t, nil
}

// ParseDateRange parses an explicit start/end pair; start must be strictly
// before end.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	s, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date must be after start date", ErrInvalidPeriod)
	}
	return s, e, nil
}

// Lookback converts a relative lookback into (now - lookback, now), both
// truncated to calendar days. Unit is "weeks" or "days".
func Lookback(n int, unit string, now time.Time) (time.Time, time.Time, error) {
	if n <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s must be a positive number", ErrInvalidPeriod, unit)
	}
	end := Day(Naive(now))
	switch unit {
	case "weeks":
		return end.AddDate(0, 0, -7*n), end, nil
	case "days":
		return end.AddDate(0, 0, -n), end, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown lookback unit %q", ErrInvalidPeriod, unit)
}
