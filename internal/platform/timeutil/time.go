package timeutil

import (
	"strings"
	"time"
)

// RFC3339Millis is RFC 3339 UTC with fixed millisecond precision.
const RFC3339Millis = "2006-01-02T15:04:05.000Z"

// RFC3339Micros is RFC 3339 UTC with fixed microsecond precision, used for log timestamps.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// RowTimestamp is the layout of the Timestamp column in the subscriber sheet.
const RowTimestamp = "2006-01-02 15:04:05"

// DateOnly is the layout accepted by the date filters.
const DateOnly = "2006-01-02"

// Time wraps time.Time to render RFC 3339 with millisecond precision in JSON.
type Time struct {
	time.Time
}

// MarshalJSON implements json.Marshaler with fixed millisecond precision.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(RFC3339Millis) + `"`), nil
}

// UnmarshalJSON accepts RFC 3339 variants. JSON null keeps the existing value.
func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Now returns the current time as a Time.
func Now() Time {
	return Time{Time: time.Now()}
}

// FormatRow renders t in the local clock using the sheet timestamp layout.
func FormatRow(t time.Time) string {
	return t.Local().Format(RowTimestamp)
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateOnly, strings.TrimSpace(s))
}

// RowDate extracts and parses the date portion of a row timestamp.
func RowDate(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexByte(ts, ' '); i >= 0 {
		ts = ts[:i]
	}
	return time.Parse(DateOnly, ts)
}
