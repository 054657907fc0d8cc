package importer

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sheetmap/errs"
)

// Kind is the semantic type a column decodes into.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindDecimal
	KindDate
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configuration type name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch normalizeKey(name) {
	case "string", "text":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "double":
		return KindFloat, nil
	case "decimal", "number":
		return KindDecimal, nil
	case "date", "datetime":
		return KindDate, nil
	case "bool", "boolean":
		return KindBool, nil
	default:
		return 0, fmt.Errorf("%w: unsupported column type %q", errs.ErrConfiguration, name)
	}
}

// Binding ties a record type to one sheet and a set of column bindings.
// Bindings are built once and may be decoded any number of times.
type Binding[T any] struct {
	Sheet   string
	Columns []Column[T]
	// RowNumber, when set, receives the physical row number of each record.
	RowNumber func(rec *T, row int)
}

// Column binds one spreadsheet column (a letter, or header text in header
// mode) to a field of T. Build columns with the typed constructors below.
type Column[T any] struct {
	Key      string
	Field    string
	Kind     Kind
	Nullable bool

	set func(rec *T, value any) error
	get func(rec *T) any
}

// assign coerces raw into the column's kind and stores it on rec. A nil raw
// means the cell held no value.
func (c Column[T]) assign(rec *T, raw *string) error {
	value, err := coerce(c.Kind, c.Nullable, raw)
	if err != nil {
		return fmt.Errorf("field %s: %w", c.Field, err)
	}
	return c.set(rec, value)
}

// empty reports whether the field currently holds its type's empty value.
// Non-nullable value kinds are never empty.
func (c Column[T]) empty(rec *T) bool {
	value := c.get(rec)
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}

// Field builds a column from explicit accessors. set receives nil for an
// absent value on nullable columns; get must return nil for an empty field.
func Field[T any](key, field string, kind Kind, nullable bool, set func(rec *T, value any) error, get func(rec *T) any) Column[T] {
	return Column[T]{Key: key, Field: field, Kind: kind, Nullable: nullable, set: set, get: get}
}

// String binds a string field. Strings are nullable: an absent cell leaves "".
func String[T any](key, field string, ptr func(*T) *string) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindString, Nullable: true,
		set: func(rec *T, value any) error {
			s, _ := value.(string)
			*ptr(rec) = s
			return nil
		},
		get: func(rec *T) any {
			if s := *ptr(rec); s != "" {
				return s
			}
			return nil
		},
	}
}

// NullString binds a *string field; an absent cell leaves nil.
func NullString[T any](key, field string, ptr func(*T) **string) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindString, Nullable: true,
		set: func(rec *T, value any) error {
			if value == nil {
				*ptr(rec) = nil
				return nil
			}
			s := value.(string)
			*ptr(rec) = &s
			return nil
		},
		get: func(rec *T) any {
			if p := *ptr(rec); p != nil {
				return *p
			}
			return nil
		},
	}
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Int binds a non-nullable integer field.
func Int[T any, N integer](key, field string, ptr func(*T) *N) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindInt,
		set: func(rec *T, value any) error {
			n, err := narrow[N](value.(int64))
			if err != nil {
				return err
			}
			*ptr(rec) = n
			return nil
		},
		get: func(rec *T) any { return int64(*ptr(rec)) },
	}
}

// NullInt binds a nullable integer field.
func NullInt[T any, N integer](key, field string, ptr func(*T) **N) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindInt, Nullable: true,
		set: func(rec *T, value any) error {
			if value == nil {
				*ptr(rec) = nil
				return nil
			}
			n, err := narrow[N](value.(int64))
			if err != nil {
				return err
			}
			*ptr(rec) = &n
			return nil
		},
		get: func(rec *T) any {
			if p := *ptr(rec); p != nil {
				return int64(*p)
			}
			return nil
		},
	}
}

func narrow[N integer](v int64) (N, error) {
	n := N(v)
	if int64(n) != v {
		return 0, fmt.Errorf("%w: %d overflows %T", errs.ErrTypeMismatch, v, n)
	}
	return n, nil
}

// Float binds a non-nullable float64 field.
func Float[T any](key, field string, ptr func(*T) *float64) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindFloat,
		set: func(rec *T, value any) error {
			*ptr(rec) = value.(float64)
			return nil
		},
		get: func(rec *T) any { return *ptr(rec) },
	}
}

// NullFloat binds a *float64 field.
func NullFloat[T any](key, field string, ptr func(*T) **float64) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindFloat, Nullable: true,
		set: func(rec *T, value any) error {
			if value == nil {
				*ptr(rec) = nil
				return nil
			}
			f := value.(float64)
			*ptr(rec) = &f
			return nil
		},
		get: func(rec *T) any {
			if p := *ptr(rec); p != nil {
				return *p
			}
			return nil
		},
	}
}

// Decimal binds a non-nullable decimal field.
func Decimal[T any](key, field string, ptr func(*T) *decimal.Decimal) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindDecimal,
		set: func(rec *T, value any) error {
			*ptr(rec) = value.(decimal.Decimal)
			return nil
		},
		get: func(rec *T) any { return *ptr(rec) },
	}
}

// NullDecimal binds a decimal.NullDecimal field.
func NullDecimal[T any](key, field string, ptr func(*T) *decimal.NullDecimal) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindDecimal, Nullable: true,
		set: func(rec *T, value any) error {
			if value == nil {
				*ptr(rec) = decimal.NullDecimal{}
				return nil
			}
			*ptr(rec) = decimal.NewNullDecimal(value.(decimal.Decimal))
			return nil
		},
		get: func(rec *T) any {
			if d := *ptr(rec); d.Valid {
				return d.Decimal
			}
			return nil
		},
	}
}

// Date binds a non-nullable time.Time field.
func Date[T any](key, field string, ptr func(*T) *time.Time) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindDate,
		set: func(rec *T, value any) error {
			*ptr(rec) = value.(time.Time)
			return nil
		},
		get: func(rec *T) any { return *ptr(rec) },
	}
}

// NullDate binds a *time.Time field.
func NullDate[T any](key, field string, ptr func(*T) **time.Time) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindDate, Nullable: true,
		set: func(rec *T, value any) error {
			if value == nil {
				*ptr(rec) = nil
				return nil
			}
			t := value.(time.Time)
			*ptr(rec) = &t
			return nil
		},
		get: func(rec *T) any {
			if p := *ptr(rec); p != nil {
				return *p
			}
			return nil
		},
	}
}

// Bool binds a non-nullable bool field.
func Bool[T any](key, field string, ptr func(*T) *bool) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindBool,
		set: func(rec *T, value any) error {
			*ptr(rec) = value.(bool)
			return nil
		},
		get: func(rec *T) any { return *ptr(rec) },
	}
}

// NullBool binds a *bool field.
func NullBool[T any](key, field string, ptr func(*T) **bool) Column[T] {
	return Column[T]{
		Key: key, Field: field, Kind: KindBool, Nullable: true,
		set: func(rec *T, value any) error {
			if value == nil {
				*ptr(rec) = nil
				return nil
			}
			b := value.(bool)
			*ptr(rec) = &b
			return nil
		},
		get: func(rec *T) any {
			if p := *ptr(rec); p != nil {
				return *p
			}
			return nil
		},
	}
}
