package discovery

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFlexibleTimestamp accepts either a raw integer (as a JSON number
// already decoded to float64, or a bare numeric string) or an ISO-8601
// string of the form "YYYY-MM-DDTHH:MM:SS[.fff]Z" and returns Unix seconds.
// Fractional seconds are discarded, never rounded.
func ParseFlexibleTimestamp(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, nil
		}
		return parseISO8601(t)
	default:
		return 0, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

// parseISO8601 handles "YYYY-MM-DDTHH:MM:SS[.fff]Z" exactly, with no
// calendar library and no leap-second correction.
func parseISO8601(s string) (int64, error) {
	s = strings.TrimSuffix(s, "Z")
	datePart, timePart, ok := strings.Cut(s, "T")
	if !ok {
		return 0, fmt.Errorf("not ISO-8601: %q", s)
	}

	var year, month, day int
	if _, err := fmt.Sscanf(datePart, "%d-%d-%d", &year, &month, &day); err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", datePart, err)
	}

	// Fractional seconds are dropped, not rounded: trim at '.' before parsing.
	if idx := strings.IndexByte(timePart, '.'); idx >= 0 {
		timePart = timePart[:idx]
	}
	var hour, minute, second int
	if _, err := fmt.Sscanf(timePart, "%d:%d:%d", &hour, &minute, &second); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", timePart, err)
	}

	days := daysFromCivil(year, month, day)
	return days*86400 + int64(hour)*3600 + int64(minute)*60 + int64(second), nil
}

// daysFromCivil is Howard Hinnant's proleptic-Gregorian day-count formula,
// returning days since 1970-01-01 (may be negative for earlier dates).
// http://howardhinnant.github.io/date_algorithms.html#days_from_civil
func daysFromCivil(y, m, d int) int64 {
	y -= boolToInt(m <= 2)
	era := floorDiv(y, 400)
	yoe := y - era*400                                  // [0, 399]
	doy := (153*(monthShift(m))+2)/5 + d - 1             // [0, 365]
	doe := yoe*365 + yoe/4 - yoe/100 + doy               // [0, 146096]
	return int64(era)*146097 + int64(doe) - 719468
}

func monthShift(m int) int {
	if m > 2 {
		return m - 3
	}
	return m + 9
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
