package timeutil

import (
	"math"
	"testing"
	"time"
)

func TestFromSerial(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		serial float64
		want   time.Time
	}{
		{name: "epoch", serial: 0, want: time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)},
		{name: "first of 1900", serial: 2, want: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "plain date", serial: 42474, want: time.Date(2016, 4, 13, 0, 0, 0, 0, time.UTC)},
		{name: "noon", serial: 42474.5, want: time.Date(2016, 4, 13, 12, 0, 0, 0, time.UTC)},
		{name: "quarter past six", serial: 45000.2604166667, want: time.Date(2023, 3, 15, 6, 15, 0, 0, time.UTC)},
		{name: "negative keeps time forward", serial: -1.25, want: time.Date(1899, 12, 29, 6, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := FromSerial(tc.serial)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("FromSerial(%v) = %v, want %v", tc.serial, got, tc.want)
			}
		})
	}
}

func TestFromSerial_OutOfRange(t *testing.T) {
	t.Parallel()

	for _, serial := range []float64{math.NaN(), math.Inf(1), 3e6, -7e5} {
		if _, err := FromSerial(serial); err == nil {
			t.Errorf("expected error for %v", serial)
		}
	}
}

func TestParseText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2016-04-13", want: time.Date(2016, 4, 13, 0, 0, 0, 0, time.UTC)},
		{input: " 2016-04-13 09:30 ", want: time.Date(2016, 4, 13, 9, 30, 0, 0, time.UTC)},
		{input: "4/13/2016", want: time.Date(2016, 4, 13, 0, 0, 0, 0, time.UTC)},
		{input: "13.04.2016", want: time.Date(2016, 4, 13, 0, 0, 0, 0, time.UTC)},
		{input: "13 Apr 2016", want: time.Date(2016, 4, 13, 0, 0, 0, 0, time.UTC)},
		{input: "2016-04-13T10:00:00Z", want: time.Date(2016, 4, 13, 10, 0, 0, 0, time.UTC)},
		{input: "", wantErr: true},
		{input: "not a date", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseText(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("expected error for %q", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("unexpected error for %q: %v", tc.input, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseText(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 1, 14, 37, 9, 123, time.UTC)
	got := StartOfDay(input)

	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
}
