package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// composedLayout is the zone-less timestamp the normalizer builds textually.
// It is parsed in time.Local on purpose: event times must match what the
// submitter typed in the host's zone, so no UTC conversion happens here.
const composedLayout = "2006-01-02T15:04:05"

// InvalidTimeError reports a date or time that could not be normalized.
type InvalidTimeError struct {
	Field string // "date", "start" or "end"
	Value string
	Err   error
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *InvalidTimeError) Unwrap() error { return e.Err }

// Normalize turns a form date ("3/5/2025") and two 12-hour clock values
// ("11:30:00 PM") into a start/end pair. Either both timestamps parse or the
// whole triple is rejected with an *InvalidTimeError.
func Normalize(date, start, end string) (time.Time, time.Time, error) {
	day, err := NormalizeDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, &InvalidTimeError{Field: "date", Value: date, Err: err}
	}
	startClock, err := To24Hour(start)
	if err != nil {
		return time.Time{}, time.Time{}, &InvalidTimeError{Field: "start", Value: start, Err: err}
	}
	endClock, err := To24Hour(end)
	if err != nil {
		return time.Time{}, time.Time{}, &InvalidTimeError{Field: "end", Value: end, Err: err}
	}

	s, err := Compose(day, startClock)
	if err != nil {
		return time.Time{}, time.Time{}, &InvalidTimeError{Field: "start", Value: start, Err: err}
	}
	e, err := Compose(day, endClock)
	if err != nil {
		return time.Time{}, time.Time{}, &InvalidTimeError{Field: "end", Value: end, Err: err}
	}
	return s, e, nil
}

// NormalizeDate converts M/D/YYYY (leading zeros optional) to YYYY-MM-DD.
func NormalizeDate(date string) (string, error) {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("want month/day/year, got %d component(s)", len(parts))
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("month: %w", err)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("day: %w", err)
	}
	year := parts[2]
	if len(year) != 4 {
		return "", fmt.Errorf("year %q is not four digits", year)
	}
	return fmt.Sprintf("%s-%02d-%02d", year, month, day), nil
}

// To24Hour converts "H:MM[:SS] AM|PM" to "HH:MM:SS". A missing meridiem
// leaves the hour untouched; a missing second becomes "00".
func To24Hour(clock12 string) (string, error) {
	if clock12 == "" {
		return "", fmt.Errorf("empty time")
	}
	parts := strings.Split(clock12, " ")
	clock := parts[0]
	meridiem := ""
	if len(parts) > 1 {
		meridiem = strings.ToUpper(parts[1])
	}

	fields := strings.Split(clock, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return "", fmt.Errorf("want hour:minute[:second], got %q", clock)
	}
	hour, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", fmt.Errorf("hour: %w", err)
	}
	minute, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", fmt.Errorf("minute: %w", err)
	}
	second := 0
	if len(fields) == 3 && fields[2] != "" {
		second, err = strconv.Atoi(fields[2])
		if err != nil {
			return "", fmt.Errorf("second: %w", err)
		}
	}

	switch {
	case meridiem == "PM" && hour < 12:
		hour += 12
	case meridiem == "AM" && hour == 12:
		hour = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second), nil
}

// Compose joins a YYYY-MM-DD date and an HH:MM:SS clock and parses the result
// once in the local zone. Range errors (month 13, hour 25, Feb 30) surface here.
func Compose(day, clock string) (time.Time, error) {
	return time.ParseInLocation(composedLayout, day+"T"+clock, time.Local)
}
