// Package timecode converts between a seconds-of-day integer and the
// canonical "HH:MM:SS" clock string used by the OCR readout.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSeconds is the last representable second of a day (23:59:59).
const MaxSeconds = 23*3600 + 59*60 + 59

// Kind identifies why a value was rejected.
type Kind string

const (
	KindInvalidFormat Kind = "invalid_format"
	KindOutOfRange    Kind = "out_of_range"
)

// ParseError reports a rejected OCR timestamp together with the offending
// input, so callers can surface both to the client.
type ParseError struct {
	Kind  Kind
	Input any
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s (input: %v)", e.Kind, e.Msg, e.Input)
}

func formatErr(input any, msg string) *ParseError {
	return &ParseError{Kind: KindInvalidFormat, Input: input, Msg: msg}
}

func rangeErr(input any, msg string) *ParseError {
	return &ParseError{Kind: KindOutOfRange, Input: input, Msg: msg}
}

// Parse accepts either an integer-like value (int, float, numeric string)
// interpreted as seconds since midnight, or an "HH:MM:SS" clock string, and
// returns the validated seconds-of-day value.
func Parse(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return checkRange(v, raw)
	case int64:
		return checkRange(int(v), raw)
	case float64:
		// JSON numbers decode to float64; fractional seconds are not a thing
		// the OCR reader produces, so truncate like the probe firmware does.
		return checkRange(int(v), raw)
	case string:
		if strings.Contains(v, ":") {
			return parseClock(v)
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, formatErr(raw, "value must be HH:MM:SS or seconds since midnight")
		}
		return checkRange(n, raw)
	default:
		return 0, formatErr(raw, "value must be HH:MM:SS or seconds since midnight")
	}
}

func checkRange(v int, raw any) (int, error) {
	if v < 0 || v > MaxSeconds {
		return 0, rangeErr(raw, fmt.Sprintf("seconds must be within [0, %d]", MaxSeconds))
	}
	return v, nil
}

// parseClock validates a strict two-digit HH:MM:SS string. Minutes or
// seconds above 59 (or any shape mismatch) are a format error; an hour
// above 23 is a range error, matching how "24:00:00" is classified.
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, formatErr(s, "clock value must be HH:MM:SS")
	}
	fields := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 || p[0] < '0' || p[0] > '9' || p[1] < '0' || p[1] > '9' {
			return 0, formatErr(s, "clock value must be HH:MM:SS")
		}
		fields[i], _ = strconv.Atoi(p)
	}
	h, m, sec := fields[0], fields[1], fields[2]
	if m > 59 || sec > 59 {
		return 0, formatErr(s, "minutes and seconds must be below 60")
	}
	if h > 23 {
		return 0, rangeErr(s, "hour must be below 24")
	}
	return h*3600 + m*60 + sec, nil
}

// Format renders seconds-of-day as zero-padded HH:MM:SS. The caller is
// expected to have validated the range already.
func Format(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
