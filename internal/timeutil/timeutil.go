package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const millisPerDay = 24 * 60 * 60 * 1000

// serialEpoch is day 0 of spreadsheet serial dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial dates outside year 100 .. 9999 are rejected.
const (
	minSerial = -657435.0
	maxSerial = 2958466.0
)

// FromSerial converts a spreadsheet day-count serial into a UTC time. The
// integer part counts days from 1899-12-30 and the fraction is the time of
// day, rounded to the millisecond. For negative serials the fraction still
// moves forward from midnight.
func FromSerial(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= minSerial || serial >= maxSerial {
		return time.Time{}, fmt.Errorf("serial date %v out of range", serial)
	}

	millis := int64(serial*millisPerDay + math.Copysign(0.5, serial))
	if millis < 0 {
		millis -= (millis % millisPerDay) * 2
	}

	days := millis / millisPerDay
	rest := millis % millisPerDay
	return serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(rest) * time.Millisecond), nil
}

var textLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
	"1/2/2006",
	"02.01.2006 15:04",
	"02.01.2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseText parses free-form date text with culture-neutral layouts.
// Slashed dates are read month first.
func ParseText(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range textLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date format: %q", value)
}

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}
