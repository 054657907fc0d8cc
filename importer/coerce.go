package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sheetmap/errs"
	"sheetmap/internal/timeutil"
)

var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// coerce converts raw cell text into the Go value for kind. A nil raw is an
// absent cell: nullable kinds yield nil, everything else is a type mismatch.
// Present text that does not parse is a mismatch even for nullable kinds.
func coerce(kind Kind, nullable bool, raw *string) (any, error) {
	if raw == nil {
		if nullable || kind == KindString {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: no value for non-nullable %s", errs.ErrTypeMismatch, kind)
	}

	value := *raw
	switch kind {
	case KindString:
		return value, nil
	case KindDate:
		return parseDate(value)
	case KindDecimal:
		return parseDecimal(value)
	case KindInt:
		return parseInt(value)
	case KindFloat:
		return parseFloat(value)
	case KindBool:
		return parseBool(value)
	default:
		return nil, fmt.Errorf("%w: unsupported kind %s", errs.ErrConfiguration, kind)
	}
}

func mismatch(value string, kind Kind) error {
	return fmt.Errorf("%w: %q is not a valid %s", errs.ErrTypeMismatch, value, kind)
}

// parseDate reads a serial day count first and falls back to date text.
func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if numericPattern.MatchString(trimmed) {
		serial, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return time.Time{}, mismatch(value, KindDate)
		}
		parsed, err := timeutil.FromSerial(serial)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", errs.ErrTypeMismatch, err)
		}
		return parsed, nil
	}

	parsed, err := timeutil.ParseText(trimmed)
	if err != nil {
		return time.Time{}, mismatch(value, KindDate)
	}
	return parsed, nil
}

// parseDecimal accepts plain and exponent notation with '.' as the only
// decimal separator. Every digit of the mantissa is kept, so "1.23E+05" is
// exactly 123000.
func parseDecimal(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if !numericPattern.MatchString(trimmed) {
		return decimal.Decimal{}, mismatch(value, KindDecimal)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(trimmed, "+"))
	if err != nil {
		return decimal.Decimal{}, mismatch(value, KindDecimal)
	}
	return d, nil
}

// parseInt accepts plain integers and integral numeric text such as "3.0",
// which is how whole numbers are often stored.
func parseInt(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n, nil
	}
	if !numericPattern.MatchString(trimmed) {
		return 0, mismatch(value, KindInt)
	}

	d, err := decimal.NewFromString(strings.TrimPrefix(trimmed, "+"))
	if err != nil || !d.IsInteger() {
		return 0, mismatch(value, KindInt)
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || d.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: %q overflows int64", errs.ErrTypeMismatch, value)
	}
	return d.IntPart(), nil
}

func parseFloat(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if !numericPattern.MatchString(trimmed) {
		return 0, mismatch(value, KindFloat)
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, mismatch(value, KindFloat)
	}
	return f, nil
}

func parseBool(value string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, mismatch(value, KindBool)
	}
	return b, nil
}
