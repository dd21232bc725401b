// Package dates normalizes user-supplied birth dates. The bot workflow passes
// whatever the user typed, so both year-first and day-first orderings are
// accepted, with dash, dot or slash separators.
package dates

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minYear = 1900
	maxYear = 2100
)

// Date is a calendar date split for the astrology API payloads.
type Date struct {
	Year  int
	Month int
	Day   int
}

func isSeparator(r rune) bool {
	return r == '-' || r == '.' || r == '/'
}

// Normalize parses "YYYY-MM-DD" or "DD-MM-YYYY" (also with "." or "/"
// separators) into a Date. Values out of range are rejected rather than
// forwarded to the external API.
func Normalize(s string) (Date, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(s), isSeparator)
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("unrecognized date format %q", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("unrecognized date format %q", s)
		}
		nums[i] = n
	}

	var d Date
	switch {
	case len(parts[0]) == 4:
		d = Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	case len(parts[2]) == 4:
		d = Date{Year: nums[2], Month: nums[1], Day: nums[0]}
	default:
		return Date{}, fmt.Errorf("unrecognized date format %q", s)
	}

	if d.Year < minYear || d.Year > maxYear {
		return Date{}, fmt.Errorf("year %d out of range %d-%d", d.Year, minYear, maxYear)
	}
	if d.Month < 1 || d.Month > 12 {
		return Date{}, fmt.Errorf("month %d out of range 1-12", d.Month)
	}
	if d.Day < 1 || d.Day > 31 {
		return Date{}, fmt.Errorf("day %d out of range 1-31", d.Day)
	}
	return d, nil
}
