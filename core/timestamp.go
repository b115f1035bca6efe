package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
}

// Timestamp is a time.Time that decodes every date shape found in the evaluation data:
// Firestore {seconds, nanoseconds} objects, ISO strings, calendar dates and epoch milliseconds.
// Unparsable values decode to the zero time.
type Timestamp struct {
	time.Time
	DateOnly bool // only a calendar day was given
}

func TimestampFrom(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// DateFrom returns a calendar day Timestamp.
func DateFrom(year int, month time.Month, day int) Timestamp {
	return Timestamp{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), DateOnly: true}
}

// ParseTimestamp parses `s` with the supported layouts. Numeric strings are epoch milliseconds.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Timestamp{Time: t, DateOnly: true}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}
		}
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return fromMillis(ms)
	}
	return Timestamp{}
}

func fromMillis(ms float64) Timestamp {
	ms = Finite(ms)
	if ms == 0 {
		return Timestamp{}
	}
	return Timestamp{Time: time.Unix(0, int64(ms)*int64(time.Millisecond)).UTC()}
}

// IsSet reports whether a time was decoded.
func (ts Timestamp) IsSet() bool {
	return !ts.Time.IsZero()
}

// Millis returns the epoch milliseconds, 0 when not set.
func (ts Timestamp) Millis() int64 {
	if !ts.IsSet() {
		return 0
	}
	return ts.Time.UnixNano() / int64(time.Millisecond)
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	*ts = Timestamp{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '{':
		var obj struct {
			Seconds      *Float `json:"seconds"`
			Nanoseconds  Float  `json:"nanoseconds"`
			USeconds     *Float `json:"_seconds"`
			UNanoseconds Float  `json:"_nanoseconds"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil
		}
		secs, nanos := obj.Seconds, obj.Nanoseconds
		if secs == nil {
			secs, nanos = obj.USeconds, obj.UNanoseconds
		}
		if secs == nil || secs.Float64() == 0 {
			return nil
		}
		ts.Time = time.Unix(int64(secs.Float64()), int64(nanos.Float64())).UTC()
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*ts = ParseTimestamp(s)
		}
	default:
		if ms, err := strconv.ParseFloat(string(b), 64); err == nil {
			*ts = fromMillis(ms)
		}
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.IsSet() {
		return []byte("null"), nil
	}
	if ts.DateOnly {
		return json.Marshal(ts.Time.Format(dateLayout))
	}
	return json.Marshal(ts.Time.UTC().Format(time.RFC3339Nano))
}
