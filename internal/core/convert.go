package core

// convert.go turns spreadsheet cell text into typed values.
//
// These functions handle the messy reality of exported event sheets:
//   - two-digit US dates ("1/15/24") next to four-digit and ISO dates
//   - 12-hour clocks with an AM/PM marker next to 24-hour clocks
//   - quantities with thousands separators
//
// All ToPg* functions return pgtype values with Valid=false for empty/invalid
// input, so "no value" never needs a sentinel.

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// EventTimeLayout is the serialized form of an event time.
const EventTimeLayout = "2006-01-02T15:04:05.000000Z"

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted for shelf-life
// dates. Years that would land more than this many years in the future are
// assumed to be in the previous century.
var TwoDigitYearPivot = 20

var (
	// Event dates are US month/day first. Two-digit years come first since
	// that is what the source sheets export.
	eventDateLayouts = []string{"1/2/06", "1/2/2006", "2006-01-02"}

	clock12Layouts = []string{"3:04:05 PM", "3:04:05PM", "3:04 PM"}
	clock24Layouts = []string{"15:04:05", "15:04"}

	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// ParseEventTime combines a date and a clock time into a timestamp.
//
// A clock ending in "m" or "M" is read as 12-hour, anything else as 24-hour.
// A missing clock yields a null timestamp and no error: a date alone does
// not place an event in time. Unparseable input yields a null timestamp and
// an error describing it.
func ParseEventTime(date, clock string) (pgtype.Timestamp, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return pgtype.Timestamp{Valid: false}, nil
	}

	clockLayouts := clock24Layouts
	if strings.HasSuffix(clock, "m") || strings.HasSuffix(clock, "M") {
		clockLayouts = clock12Layouts
		clock = strings.ToUpper(clock)
	}

	for _, dl := range eventDateLayouts {
		for _, cl := range clockLayouts {
			t, err := time.Parse(dl+" "+cl, date+" "+clock)
			if err == nil {
				return pgtype.Timestamp{Time: t, Valid: true}, nil
			}
		}
	}

	return pgtype.Timestamp{Valid: false}, fmt.Errorf("invalid date/time %q %q", date, clock)
}

// FormatEventTime serializes ts, or returns null for a null timestamp.
func FormatEventTime(ts pgtype.Timestamp) pgtype.Text {
	if !ts.Valid {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: ts.Time.Format(EventTimeLayout), Valid: true}
}

// ToPgDate converts a string to pgtype.Date.
// Supports multiple date formats and handles 2-digit years with pivot.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	currentYear := time.Now().Year()
	pivotYear := currentYear + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	return pgtype.Date{Valid: false}
}

// ToPgNumeric converts a string to pgtype.Numeric.
// Handles thousands separators and accounting format (parentheses for negative).
func ToPgNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{Valid: false}
	}

	return n
}
