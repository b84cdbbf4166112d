package fiscalyear

import (
	"errors"
	"time"
)

// FiscalYear is a company-configured accounting year. It may be misaligned
// with the calendar year (e.g. July through June).
type FiscalYear struct {
	ID        int64
	Code      string
	StartDate time.Time
	EndDate   time.Time
}

// Contains reports whether the date falls inside the fiscal year range.
func (fy FiscalYear) Contains(date time.Time) bool {
	return !date.Before(fy.StartDate) && !date.After(fy.EndDate)
}

// ErrNotFound indicates no fiscal year matches the lookup.
var ErrNotFound = errors.New("fiscalyear: not found")
