package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestDeriveDateSlash(t *testing.T) {
	got := DeriveDateSlash.Apply("2024-03-07 09:15:00", "2024-03-08 10:00:00")
	if got != "2024/03/07" {
		t.Errorf("expected 2024/03/07, got %q", got)
	}
}

func TestDeriveTimeRange(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"2024-01-01 10:00:00", "2024-01-01 10:00:00", "10:00:00"},
		{"2024-01-01 10:00:00", "2024-01-02 10:00:00", "10:00:00"},
		{"2024-01-01 10:00:00", "2024-01-01 11:30:05", "10:00:00-11:30:05"},
		{"2024-01-01 10:00:00", "2024-01-01", "10:00:00"},
	}
	for _, tt := range tests {
		got := DeriveTimeRange.Apply(tt.first, tt.last)
		if got != tt.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}

	if strings.Contains(DeriveTimeRange.Apply("2024-01-01 08:00:00", "2024-01-01 08:00:00"), "-") {
		t.Error("same time must not produce a range")
	}
}

func TestParseDerivation(t *testing.T) {
	d, err := ParseDerivation("from_first_last_turn_time_range")
	if err != nil || d != DeriveTimeRange {
		t.Fatalf("got %v, %v", d, err)
	}
	if d.String() != "from_first_last_turn_time_range" {
		t.Errorf("String() = %q", d.String())
	}

	_, err = ParseDerivation("from_last_turn_speaker")
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}
