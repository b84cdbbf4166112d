package declaration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carthage-erp/carthage-erp/internal/fiscal/fiscalyear"
)

func fy(code string, start, end time.Time) fiscalyear.FiscalYear {
	return fiscalyear.FiscalYear{Code: code, StartDate: start, EndDate: end}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolvePeriodCalendarYear(t *testing.T) {
	year := fy("2025", day(2025, time.January, 1), day(2025, time.December, 31))

	p, err := ResolvePeriod(year, Month(3))
	require.NoError(t, err)
	require.Equal(t, day(2025, time.March, 1), p.Start)
	require.Equal(t, day(2025, time.March, 31), p.End)

	p, err = ResolvePeriod(year, Month(2))
	require.NoError(t, err)
	require.Equal(t, day(2025, time.February, 28), p.End)
}

func TestResolvePeriodSpanningYear(t *testing.T) {
	year := fy("2025-2026", day(2025, time.July, 1), day(2026, time.June, 30))

	// At or after the start month: start calendar year.
	p, err := ResolvePeriod(year, Month(7))
	require.NoError(t, err)
	require.Equal(t, day(2025, time.July, 1), p.Start)
	require.Equal(t, day(2025, time.July, 31), p.End)

	p, err = ResolvePeriod(year, Month(12))
	require.NoError(t, err)
	require.Equal(t, day(2025, time.December, 31), p.End)

	// Before the start month: end calendar year.
	p, err = ResolvePeriod(year, Month(3))
	require.NoError(t, err)
	require.Equal(t, day(2026, time.March, 1), p.Start)
	require.Equal(t, day(2026, time.March, 31), p.End)

	p, err = ResolvePeriod(year, Month(6))
	require.NoError(t, err)
	require.Equal(t, day(2026, time.June, 30), p.End)
}

func TestResolvePeriodLeapFebruary(t *testing.T) {
	year := fy("2023-2024", day(2023, time.July, 1), day(2024, time.June, 30))

	p, err := ResolvePeriod(year, Month(2))
	require.NoError(t, err)
	require.Equal(t, day(2024, time.February, 29), p.End)
}

func TestResolvePeriodOutsideFiscalYear(t *testing.T) {
	short := fy("2025-H1", day(2025, time.January, 1), day(2025, time.June, 30))

	_, err := ResolvePeriod(short, Month(7))
	require.ErrorIs(t, err, ErrPeriodOutsideFiscalYear)

	_, err = ResolvePeriod(short, Month(0))
	require.ErrorIs(t, err, ErrUnknownMonth)
}
