package svdate

import (
	"testing"
	"time"
)

func TestParseFullDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"12 april 2024", time.Date(2024, time.April, 12, 0, 0, 0, 0, time.UTC)},
		{"1 januari 2023", time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"31 December 2025", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)},
		{"  5 maj 2024  ", time.Date(2024, time.May, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseWithoutYear(t *testing.T) {
	now := time.Date(2024, time.June, 15, 13, 37, 0, 0, time.UTC)

	got, err := parseAt("3 juni", now)
	if err != nil {
		t.Fatalf("parseAt returned error: %v", err)
	}
	want := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseAt(\"3 juni\") = %v, want %v", got, want)
	}
}

func TestParseRelative(t *testing.T) {
	now := time.Date(2024, time.June, 15, 13, 37, 0, 0, time.UTC)

	today, err := parseAt("i dag", now)
	if err != nil {
		t.Fatalf("parseAt(\"i dag\") returned error: %v", err)
	}
	if !today.Equal(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parseAt(\"i dag\") = %v", today)
	}

	yesterday, err := parseAt("i går", now)
	if err != nil {
		t.Fatalf("parseAt(\"i går\") returned error: %v", err)
	}
	if !yesterday.Equal(time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parseAt(\"i går\") = %v", yesterday)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "april", "32 april 2024", "12 aprill 2024", "12 april tjugohundra"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) expected error, got nil", input)
		}
	}
}
