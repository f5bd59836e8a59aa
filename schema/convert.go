package schema

import (
	"golang.org/x/exp/constraints"
)

func ToFloat64(arg any) (float64, bool) {
	switch v := arg.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint8:
		return float64(v), true
	default:
		return 0, false
	}
}

// ToInt64 accepts integers and integral floats
func ToInt64(arg any) (int64, bool) {
	switch v := arg.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case float32:
		if v != float32(int64(v)) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// Convert casts a loosely typed value (query arguments, ingested rows) to T
func Convert[T constraints.Ordered](arg any) (T, bool) {
	var zero T

	if typed, ok := arg.(T); ok {
		return typed, true
	}

	var out any

	switch any(zero).(type) {
	case string:
		return zero, false
	case float64:
		f, ok := ToFloat64(arg)
		if !ok {
			return zero, false
		}
		out = f
	case float32:
		f, ok := ToFloat64(arg)
		if !ok {
			return zero, false
		}
		out = float32(f)
	case int64:
		i, ok := ToInt64(arg)
		if !ok {
			return zero, false
		}
		out = i
	case int32:
		i, ok := ToInt64(arg)
		if !ok || int64(int32(i)) != i {
			return zero, false
		}
		out = int32(i)
	default:
		return zero, false
	}

	return out.(T), true
}
