package dates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	want := Date{Year: 1990, Month: 5, Day: 17}

	for _, input := range []string{
		"1990-05-17",
		"17-05-1990",
		"17.05.1990",
		"17/05/1990",
		"1990.05.17",
		"  1990-05-17  ",
	} {
		got, err := Normalize(input)
		require.NoError(t, err, "input %q", input)
		require.Equal(t, want, got, "input %q", input)
	}
}

func TestNormalizeRejectsOutOfRange(t *testing.T) {
	cases := []string{
		"2025-13-40", // month and day out of range
		"2025-00-10",
		"2025-01-32",
		"1899-01-01", // year below floor
		"2101-01-01", // year above ceiling
	}
	for _, input := range cases {
		_, err := Normalize(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestNormalizeRejectsBadFormat(t *testing.T) {
	cases := []string{
		"",
		"not-a-date",
		"1990-05",
		"17-05-90",      // two-digit year is ambiguous
		"1990-05-17-01", // too many parts
		"05-17",
	}
	for _, input := range cases {
		_, err := Normalize(input)
		require.Error(t, err, "input %q", input)
	}
}
