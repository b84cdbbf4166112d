package declaration

import (
	"fmt"
	"time"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/fiscalyear"
)

// Period is the resolved calendar window of one declaration month.
type Period struct {
	Start time.Time
	End   time.Time
}

// ResolvePeriod maps a month name onto the first and last calendar day of
// that month within the fiscal year. A month indexed before the fiscal
// year's start month belongs to the end calendar year, the rest to the start
// calendar year.
func ResolvePeriod(fy fiscalyear.FiscalYear, month Month) (Period, error) {
	if !month.Valid() {
		return Period{}, ErrUnknownMonth
	}
	year := fy.StartDate.Year()
	if time.Month(month) < fy.StartDate.Month() {
		year = fy.EndDate.Year()
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	if !fy.Contains(start) || !fy.Contains(end) {
		return Period{}, fmt.Errorf("%w: %s not in %s..%s", ErrPeriodOutsideFiscalYear,
			month, fy.StartDate.Format("2006-01-02"), fy.EndDate.Format("2006-01-02"))
	}
	return Period{Start: start, End: end}, nil
}
