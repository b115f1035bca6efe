package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	ref := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		data         string
		want         time.Time
		wantDateOnly bool
	}{
		{name: "firestore object", data: `{"seconds": 1709634600, "nanoseconds": 0}`, want: ref},
		{name: "firestore _seconds", data: `{"_seconds": 1709634600, "_nanoseconds": 0}`, want: ref},
		{name: "RFC3339", data: `"2024-03-05T10:30:00Z"`, want: ref},
		{name: "RFC3339 offset", data: `"2024-03-05T16:30:00+06:00"`, want: ref},
		{name: "datetime-local", data: `"2024-03-05T10:30"`, want: ref},
		{name: "date only", data: `"2024-03-05"`, want: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), wantDateOnly: true},
		{name: "epoch ms", data: `1709634600000`, want: ref},
		{name: "epoch ms string", data: `"1709634600000"`, want: ref},
		{name: "null", data: `null`},
		{name: "garbage", data: `"yesterday"`},
		{name: "empty object", data: `{}`},
		{name: "bool", data: `false`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				TS Timestamp `json:"ts"`
			}
			if err := json.Unmarshal([]byte(`{"ts": `+tt.data+`}`), &got); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if !got.TS.Time.Equal(tt.want) {
				t.Errorf("Timestamp = %v; want %v", got.TS.Time, tt.want)
			}
			assert.Equal(t, tt.wantDateOnly, got.TS.DateOnly)
			assert.Equal(t, !tt.want.IsZero(), got.TS.IsSet())
		})
	}
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		ts   Timestamp
		want string
	}{
		{name: "unset", want: `null`},
		{name: "date only", ts: DateFrom(2024, time.March, 5), want: `"2024-03-05"`},
		{name: "time", ts: TimestampFrom(time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)), want: `"2024-03-05T10:30:00Z"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.ts)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("json.Marshal() = %s; want %s", got, tt.want)
			}
		})
	}
}

func TestTimestamp_Millis(t *testing.T) {
	assert.Zero(t, Timestamp{}.Millis())
	assert.Equal(t, int64(1709634600000), ParseTimestamp("2024-03-05T10:30:00Z").Millis())
}
