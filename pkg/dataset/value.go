package dataset

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ballastio/ballast/pkg/errors"
)

// DateLayout is the wire layout for date values
const DateLayout = "2006-01-02"

// AsInt64 converts integer-kind values to int64
func AsInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

// AsFloat64 converts numeric values to float64
func AsFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		if i, ok := AsInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// AsTime converts temporal values to time.Time
func AsTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", DateLayout} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// AsBool converts boolean-kind values to bool
func AsBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	default:
		return false, false
	}
}

// Equal compares two values under the given declared type after
// normalization: integers are widened to int64, floats to float64, temporal
// values are compared at microsecond precision in UTC, and everything else
// falls back to string rendering.
func Equal(t FieldType, a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch t.Category() {
	case CategoryNumeric:
		// Prefer exact integer comparison when both sides are integral
		if ai, aok := AsInt64(a); aok {
			if bi, bok := AsInt64(b); bok {
				return ai == bi
			}
		}
		af, aok := AsFloat64(a)
		bf, bok := AsFloat64(b)
		return aok && bok && af == bf
	case CategoryBoolean:
		ab, aok := AsBool(a)
		bb, bok := AsBool(b)
		return aok && bok && ab == bb
	case CategoryTemporal:
		at, aok := AsTime(a)
		bt, bok := AsTime(b)
		return aok && bok && at.UTC().Truncate(time.Microsecond).Equal(bt.UTC().Truncate(time.Microsecond))
	default:
		return Format(t, a) == Format(t, b)
	}
}

// Format renders a value to its wire representation for the given type
func Format(t FieldType, v interface{}) string {
	if v == nil {
		return ""
	}

	switch t {
	case FieldTypeInt:
		if i, ok := AsInt64(v); ok {
			return strconv.FormatInt(i, 10)
		}
	case FieldTypeFloat:
		if f, ok := AsFloat64(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	case FieldTypeBool:
		if b, ok := AsBool(v); ok {
			return strconv.FormatBool(b)
		}
	case FieldTypeTimestamp:
		if ts, ok := AsTime(v); ok {
			return ts.UTC().Format(time.RFC3339Nano)
		}
	case FieldTypeDate:
		if ts, ok := AsTime(v); ok {
			return ts.UTC().Format(DateLayout)
		}
	}

	return fmt.Sprintf("%v", v)
}

// Parse converts a wire representation back to a typed value.
// An empty string parses to nil for nullable handling.
func Parse(t FieldType, s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}

	switch t {
	case FieldTypeString:
		return s, nil
	case FieldTypeInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid integer value")
		}
		return i, nil
	case FieldTypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid float value")
		}
		return f, nil
	case FieldTypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid boolean value")
		}
		return b, nil
	case FieldTypeTimestamp:
		ts, ok := AsTime(s)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeData, "invalid timestamp value %q", s)
		}
		return ts, nil
	case FieldTypeDate:
		ts, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid date value")
		}
		return ts, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeData, "unsupported field type %q", t)
	}
}

// InferType guesses the narrowest field type that can represent the given
// wire value. Used by formats that do not carry an embedded schema.
func InferType(s string) FieldType {
	if s == "" {
		return FieldTypeString
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FieldTypeInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return FieldTypeFloat
	}
	if s == "true" || s == "false" {
		return FieldTypeBool
	}
	if _, err := time.Parse(DateLayout, s); err == nil {
		return FieldTypeDate
	}
	if _, ok := AsTime(s); ok {
		return FieldTypeTimestamp
	}
	return FieldTypeString
}
