package rules

import (
	"reflect"
	"strconv"
)

// Compare evaluates current <op> target with the type-aware semantics of
// condition matching:
//
//   - either side boolean: both sides must be boolean; ordering treats
//     true > false, EQ is direct equality
//   - both numeric: standard float comparison
//   - both string: EQ only, ordering operations are always false
//   - mixed types: numeric coercion of both sides, else strict EQ only
//
// Unknown operations are false.
func Compare(current any, op string, target any) bool {
	if isBool(current) || isBool(target) {
		return compareBools(current, op, target)
	}

	if cf, ok := asNumber(current); ok {
		if tf, tok := asNumber(target); tok {
			return compareFloats(cf, op, tf)
		}
	}

	cs, cok := current.(string)
	ts, tok := target.(string)
	if cok && tok {
		// Strings only support equality; "A" > "B" is meaningless here.
		return op == OpEQ && cs == ts
	}

	// Mixed types: coerce both sides to numbers if possible.
	if cf, ok := coerceAny(current); ok {
		if tf, ok := coerceAny(target); ok {
			return compareFloats(cf, op, tf)
		}
	}
	return op == OpEQ && reflect.DeepEqual(current, target)
}

// compareBools applies boolean ordering (true > false). Both sides must be
// boolean or the comparison fails.
func compareBools(current any, op string, target any) bool {
	cb, cok := current.(bool)
	tb, tok := target.(bool)
	if !cok || !tok {
		return false
	}
	return compareFloats(boolRank(cb), op, boolRank(tb))
}

func boolRank(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// compareFloats applies a comparison operation to two floats.
func compareFloats(current float64, op string, target float64) bool {
	switch op {
	case OpEQ:
		return current == target
	case OpGT:
		return current > target
	case OpGTE:
		return current >= target
	case OpLT:
		return current < target
	case OpLTE:
		return current <= target
	default:
		return false
	}
}

// asNumber reports a value that is already numeric. JSON decoding yields
// float64, but condition targets may carry other widths.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// coerceAny widens asNumber with string parsing for mixed-type comparison.
func coerceAny(v any) (float64, bool) {
	if f, ok := asNumber(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return coerceFloat(s)
	}
	return 0, false
}

// coerceFloat parses a numeric string.
func coerceFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}
