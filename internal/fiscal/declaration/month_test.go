package declaration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want Month
	}{
		{"January", 1},
		{"september", 9},
		{"DECEMBER", 12},
		{" March ", 3},
		{"janvier", 1},
		{"février", 2},
		{"Fevrier", 2},
		{"aout", 8},
		{"Août", 8},
		{"décembre", 12},
	}
	for _, tc := range cases {
		got, err := ParseMonth(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseMonthRejectsUnknown(t *testing.T) {
	_, err := ParseMonth("Brumaire")
	require.ErrorIs(t, err, ErrUnknownMonth)

	_, err = ParseMonth("  ")
	require.ErrorIs(t, err, ErrMonthRequired)
}

func TestMonthText(t *testing.T) {
	b, err := Month(7).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "July", string(b))

	var m Month
	require.NoError(t, m.UnmarshalText([]byte("juillet")))
	require.Equal(t, Month(7), m)

	_, err = Month(0).MarshalText()
	require.ErrorIs(t, err, ErrUnknownMonth)
}

func TestMonthOf(t *testing.T) {
	require.Equal(t, Month(2), MonthOf(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)))
}
