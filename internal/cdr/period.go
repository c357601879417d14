package cdr

import (
	"fmt"
	"math"
	"time"

	"pbx-api/internal/apperr"
)

// Period selects a report window ending now.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"

	DefaultPeriod = PeriodMonth
)

var ErrInvalidPeriod = fmt.Errorf("%w: period must be one of today, week, month, year", apperr.ErrInvalidInput)

// ParsePeriod maps the query value to a Period; empty means DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return DefaultPeriod, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Since returns the start of the window for p. Only "today" is calendar
// aligned; the others are rolling 7/30/365 day lookbacks from now.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodToday:
		return StartOfDay(now)
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodYear:
		return now.AddDate(0, 0, -365)
	default:
		return now.AddDate(0, 0, -30)
	}
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// PageCount is ceil(total/size).
func PageCount(total int64, size int) int64 {
	if size <= 0 {
		return 0
	}
	s := int64(size)
	return (total + s - 1) / s
}

// PageOffset is (page-1)*size. ok is false when the product does not fit in
// an int; such a page lies past every row.
func PageOffset(page, size int) (offset int, ok bool) {
	if page < 1 || size < 1 {
		return 0, false
	}
	if page-1 > math.MaxInt/size {
		return 0, false
	}
	return (page - 1) * size, true
}
