// Package decode holds tolerant JSON scalar decoders for the provider feeds.
// Both providers emit numeric telemetry inconsistently as numbers or strings,
// and timestamps as date strings or unix epochs. Decoding never fails: worst
// case the zero value comes back, and callers must treat zero as "absent or
// unparsable" rather than a real measurement of zero.
package decode

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Unix-second values representable in the supported date span (years 1-9999).
// Integers outside this range are interpreted as milliseconds.
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

// Number decodes a JSON number or a numeric string (invariant decimal format,
// optional leading sign). Unparsable input decodes to 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0

	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}

	if s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return nil
		}
		s = strings.TrimSpace(unquoted)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}

	*n = Number(v)
	return nil
}

// Float64 returns the decoded value.
func (n Number) Float64() float64 {
	return float64(n)
}

// Time decodes a date string or a unix epoch integer. For integers,
// seconds vs milliseconds is deduced by whether the value fits the
// seconds-representable date span. Unparsable input decodes to the zero time.
// All decoded instants are UTC.
type Time time.Time

// timeLayouts are tried in order for string input. Layouts without a zone are
// interpreted as UTC, which is what both provider feeds report.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (t *Time) UnmarshalJSON(data []byte) error {
	*t = Time{}

	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}

	if s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.ParseInLocation(layout, unquoted, time.UTC); err == nil {
				*t = Time(parsed.UTC())
				return nil
			}
		}
		return nil
	}

	epoch, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}

	if epoch >= minEpochSeconds && epoch <= maxEpochSeconds {
		*t = Time(time.Unix(epoch, 0).UTC())
	} else {
		*t = Time(time.UnixMilli(epoch).UTC())
	}
	return nil
}

// Time returns the decoded instant.
func (t Time) Time() time.Time {
	return time.Time(t)
}

// IsZero reports whether the input could not be decoded.
func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}
