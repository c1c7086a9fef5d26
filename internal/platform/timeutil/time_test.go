package timeutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeMarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    Time
		expected string
	}{
		{
			name:     "zero milliseconds",
			input:    Time{Time: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
			expected: `"2024-01-15T10:30:00.000Z"`,
		},
		{
			name:     "non-UTC zone converted",
			input:    Time{Time: time.Date(2024, 1, 15, 12, 30, 0, 123000000, time.FixedZone("CET", 2*60*60))},
			expected: `"2024-01-15T10:30:00.123Z"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.input)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.expected {
				t.Fatalf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestTimeUnmarshalJSONNullKeepsValue(t *testing.T) {
	orig := Time{Time: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	v := orig
	if err := json.Unmarshal([]byte("null"), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.Equal(orig.Time) {
		t.Fatalf("expected value to be preserved, got %v", v)
	}
}

func TestFormatRowUsesLocalClock(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local)
	if got := FormatRow(ts); got != "2024-03-05 07:08:09" {
		t.Fatalf("unexpected row timestamp %q", got)
	}
}

func TestRowDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-03-05 07:08:09", want: "2024-03-05"},
		{in: "2024-03-05", want: "2024-03-05"},
		{in: " 2024-03-05 10:00:00 ", want: "2024-03-05"},
		{in: "05/03/2024 10:00:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := RowDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("RowDate(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("RowDate(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got.Format(DateOnly) != tt.want {
			t.Errorf("RowDate(%q) = %s, want %s", tt.in, got.Format(DateOnly), tt.want)
		}
	}
}

func TestParseDateRejectsTimestamps(t *testing.T) {
	if _, err := ParseDate("2024-03-05 10:00:00"); err == nil {
		t.Fatal("expected error for value with time component")
	}
	if _, err := ParseDate("2024-03-05"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
