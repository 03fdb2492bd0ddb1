// Package timecode converts gate time-of-day codes ("HH:MM:SS.cc") to
// instants and renders lap durations for display.
//
// Gates only report the time of day. Parse anchors every code to the date of
// the clock reading it is given, so a code is always interpreted on the day
// it is processed, never the day it was produced.
package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayMs is the number of milliseconds in a day, added to negative
// intervals that cross midnight.
const DayMs int64 = 24 * 3600 * 1000

// fieldLimits are the exclusive upper bounds of the HH, MM, SS and cc fields.
var fieldLimits = [4]int{24, 60, 60, 100}

var fieldNames = [4]string{"hours", "minutes", "seconds", "centiseconds"}

// ErrParse is matched by every error returned from Parse.
var ErrParse = errors.New("invalid time code")

// ParseError describes a time code that could not be parsed.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time code %q: %s", e.Raw, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// Parse reads a code of the form HH:MM:SS.cc and returns the instant with
// that time of day on now's date, in now's location.
func Parse(raw string, now time.Time) (time.Time, error) {
	code := strings.TrimSpace(raw)
	fields := strings.FieldsFunc(code, func(r rune) bool { return r == ':' || r == '.' })
	if len(fields) != 4 || strings.Count(code, ":") != 2 || strings.Count(code, ".") != 1 ||
		strings.LastIndex(code, ".") < strings.LastIndex(code, ":") {
		return time.Time{}, &ParseError{Raw: raw, Reason: "want HH:MM:SS.cc"}
	}

	var parts [4]int
	for i, f := range fields {
		if !isDigits(f) {
			return time.Time{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("field %q is not numeric", f)}
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, &ParseError{Raw: raw, Reason: err.Error()}
		}
		if n >= fieldLimits[i] {
			return time.Time{}, &ParseError{Raw: raw, Reason: fmt.Sprintf("%s %d out of range", fieldNames[i], n)}
		}
		parts[i] = n
	}

	h, m, s, cs := parts[0], parts[1], parts[2], parts[3]
	y, mo, d := now.Date()
	return time.Date(y, mo, d, h, m, s, cs*10*int(time.Millisecond), now.Location()), nil
}

// Elapsed returns end-start in milliseconds, reduced into [0, DayMs). A
// negative interval is taken to have crossed midnight.
func Elapsed(start, end time.Time) int64 {
	ms := end.Sub(start).Milliseconds() % DayMs
	if ms < 0 {
		ms += DayMs
	}
	return ms
}

// Format renders a duration in milliseconds as HH:MM:SS.cc when it spans at
// least an hour, and as M:SS.cc otherwise.
func Format(ms int64) string {
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	cs := (ms % 1000) / 10
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, cs)
	}
	return fmt.Sprintf("%d:%02d.%02d", m, s, cs)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Clock renders the time of day of t as a gate code, HH:MM:SS.cc.
func Clock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d.%02d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(10*time.Millisecond))
}
