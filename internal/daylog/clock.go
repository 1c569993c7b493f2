package daylog

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the layout of DayLog.Date.
const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// FormatClock renders t as HH:MM.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsClock reports whether value is a zero-padded HH:MM string.
func IsClock(value string) bool {
	if !clockPattern.MatchString(value) {
		return false
	}
	_, ok := clockMinutes(value)
	return ok
}

// PadClock zero-pads hour and minute parts into HH:MM.
func PadClock(hour, minute string) string {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return ""
	}
	m, err := strconv.Atoi(minute)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func clockMinutes(value string) (int, bool) {
	if len(value) != 5 || value[2] != ':' {
		return 0, false
	}
	h, err := strconv.Atoi(value[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(value[3:])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// HoursBetween returns the hours from fra to til. A til earlier than fra is
// treated as the next day. Invalid input yields 0.
func HoursBetween(fra, til string) float64 {
	start, ok := clockMinutes(fra)
	if !ok {
		return 0
	}
	end, ok := clockMinutes(til)
	if !ok {
		return 0
	}
	diff := end - start
	if diff < 0 {
		diff += 24 * 60
	}
	return float64(diff) / 60
}

// EarlierClock reports whether a is strictly before b. Invalid values are
// never earlier.
func EarlierClock(a, b string) bool {
	am, ok := clockMinutes(a)
	if !ok {
		return false
	}
	bm, ok := clockMinutes(b)
	if !ok {
		return true
	}
	return am < bm
}
