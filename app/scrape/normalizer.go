package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Date/time normalization. Dates arrive in whatever shape a page author
// chose ("3/15/2025", "March 15th, 2025", "15 March 2025"); times arrive
// as single clock values or ranges ("2:30 PM - 3:45 PM", "14:30-15:45").
// Everything is reduced to YYYY-MM-DD and 24-hour HH:MM strings.

// Normalized is the canonical (date, start, end) triple produced from a
// draft's free-form text. StartTime and EndTime are empty when the draft
// carried no time; the processor applies defaults.
type Normalized struct {
	Date      string
	StartTime string
	EndTime   string
}

var (
	ordinalPattern   = regexp.MustCompile(`(?i)(\d+)(st|nd|rd|th)`)
	timeRangePattern = regexp.MustCompile(`(?i)(\d{1,2}(?::\d{2})?\s*(?:[AP]\.?M\.?)?)\s*(?:-|–|\bto\b)\s*(\d{1,2}(?::\d{2})?\s*(?:[AP]\.?M\.?)?)`)
	clockPattern     = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(?:([AP])\.?M\.?)?$`)
)

// Normalize converts free-form date and time text into a canonical triple.
// Returns nil when no supported pattern yields a valid date; the caller
// must drop the draft. Time parsing is independent of date parsing and
// never causes rejection.
func Normalize(dateText, timeText string) *Normalized {
	date, ok := NormalizeDate(dateText)
	if !ok {
		return nil
	}

	n := &Normalized{Date: date}

	if start, end, ok := NormalizeTimeRange(timeText); ok {
		n.StartTime = start
		n.EndTime = end
	}

	return n
}

// dateLayouts are tried in order after the generic parse; the first
// layout producing a valid date wins
var dateLayouts = []string{
	"01/02/2006", // MM/DD/YYYY
	"1/2/2006",
	"2006-01-02", // YYYY-MM-DD
	"January 2, 2006", // Month DD, YYYY
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006", // DD Month YYYY
	"2 Jan 2006",
}

// yearlessLayouts cover "Month DD" with the year omitted; the current
// year is assumed
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
}

// NormalizeDate converts free-form date text to YYYY-MM-DD. Ordinal
// suffixes ("15th") are stripped before any parse attempt.
func NormalizeDate(dateText string) (string, bool) {
	s := strings.TrimSpace(ordinalPattern.ReplaceAllString(dateText, "$1"))
	s = strings.Trim(s, " ,")
	if s == "" {
		return "", false
	}

	if t, err := dateparse.ParseAny(s); err == nil {
		if t.Year() == 0 {
			t = time.Date(time.Now().Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return t.Format("2006-01-02"), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}

	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = time.Date(time.Now().Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return t.Format("2006-01-02"), true
		}
	}

	return "", false
}

// NormalizeTimeRange parses a time range ("2:30 PM - 3:45 PM",
// "14:30-15:45", "10 AM to 2 PM") into 24-hour HH:MM start/end. A single
// time yields only a start; empty or unparseable text reports ok=false.
func NormalizeTimeRange(timeText string) (start, end string, ok bool) {
	s := strings.TrimSpace(timeText)
	if s == "" {
		return "", "", false
	}

	if m := timeRangePattern.FindStringSubmatch(s); m != nil {
		start, startOK := to24Hour(m[1])
		end, endOK := to24Hour(m[2])
		if startOK && endOK {
			return start, end, true
		}
	}

	if start, ok := to24Hour(s); ok {
		return start, "", true
	}

	return "", "", false
}

// to24Hour converts a single clock value to 24-hour HH:MM.
// Hour 12 AM maps to 00, 12 PM stays 12, PM adds 12 to hours 1-11;
// minutes default to "00" when absent.
func to24Hour(clock string) (string, bool) {
	s := strings.TrimSpace(clock)

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}

	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	} else if v, err := strconv.Atoi(minutes); err != nil || v > 59 {
		return "", false
	}

	meridiem := strings.ToUpper(m[3])
	switch meridiem {
	case "A":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "P":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour < 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return "", false
		}
	}

	return fmt.Sprintf("%02d:%s", hour, minutes), true
}
