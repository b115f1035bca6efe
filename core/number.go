package core

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numericPrefixRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// Float is a float64 that never fails to decode: numbers, numeric strings and null are accepted
// and anything unparsable becomes 0.
type Float float64

// ParseFloat parses the leading numeric part of `s`. It returns 0 when there is none,
// or when the value is not finite.
func ParseFloat(s string) float64 {
	m := numericPrefixRegex.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Finite returns f, or 0 when f is NaN or infinite.
func Finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (f Float) Float64() float64 {
	return Finite(float64(f))
}

func (f *Float) UnmarshalJSON(b []byte) error {
	*f = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*f = Float(ParseFloat(s))
		}
		return nil
	}
	*f = Float(ParseFloat(string(b)))
	return nil
}

func (f Float) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Float64())
}
