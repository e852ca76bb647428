package report

import (
	"log/slog"
	"math"
	"strings"
)

type object = map[string]any

// maxExactInt bounds float64 values that convert to int without losing precision.
const maxExactInt = 1 << 53

// field returns the first key present (and non-null) in obj.
func field(obj object, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func hasAny(obj object, keys ...string) bool {
	_, ok := field(obj, keys...)
	return ok
}

// number reads a JSON number. Strings, booleans and other types are treated as absent.
func number(obj object, keys ...string) (float64, bool) {
	v, ok := field(obj, keys...)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		slog.Debug("ignoring non-numeric field", "keys", keys)
		return 0, false
	}
	return f, true
}

func integer(obj object, keys ...string) (int, bool) {
	f, ok := number(obj, keys...)
	if !ok || math.Abs(f) > maxExactInt {
		return 0, false
	}
	return int(math.Round(f)), true
}

// count is a non-negative integer, defaulting to 0.
func count(obj object, keys ...string) int {
	n, ok := integer(obj, keys...)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func text(obj object, keys ...string) string {
	v, ok := field(obj, keys...)
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		slog.Debug("ignoring non-string field", "keys", keys)
		return ""
	}
	return strings.TrimSpace(s)
}

func asObject(v any) (object, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

func absent(section, reason string) {
	slog.Debug("report section absent", "section", section, "reason", reason)
}
