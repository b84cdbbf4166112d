package declaration

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Month is a calendar month selector on a declaration.
type Month int

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// String returns the canonical English month name.
func (m Month) String() string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthNames[m-1]
}

// Valid reports whether m is a calendar month.
func (m Month) Valid() bool {
	return m >= 1 && m <= 12
}

// MarshalText encodes the month as its English name.
func (m Month) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, ErrUnknownMonth
	}
	return []byte(m.String()), nil
}

// UnmarshalText parses a month name.
func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Declarations come from UIs localised in French as often as English, so both
// sets of names are accepted.
var monthAliases = map[string]Month{
	"janvier": 1, "fevrier": 2, "mars": 3, "avril": 4, "mai": 5, "juin": 6,
	"juillet": 7, "aout": 8, "septembre": 9, "octobre": 10, "novembre": 11, "decembre": 12,
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ParseMonth resolves an English or French month name, ignoring case and
// accents. ErrUnknownMonth is returned for anything else.
func ParseMonth(name string) (Month, error) {
	folded, _, err := transform.String(accentStripper, strings.TrimSpace(name))
	if err != nil {
		folded = strings.TrimSpace(name)
	}
	folded = strings.ToLower(folded)
	if folded == "" {
		return 0, ErrMonthRequired
	}
	for i, n := range monthNames {
		if strings.ToLower(n) == folded {
			return Month(i + 1), nil
		}
	}
	if m, ok := monthAliases[folded]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMonth, name)
}

// MonthOf returns the Month selector for a point in time.
func MonthOf(t time.Time) Month {
	return Month(t.Month())
}
