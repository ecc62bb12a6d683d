// Package safe walks decoded JSON values (maps, slices, scalars) without
// panicking. Every accessor takes a fallback that is returned when any link
// in the path is missing or has the wrong shape.
package safe

import (
	"math"

	"github.com/spf13/cast"
)

// Get follows path through v. String elements index maps, int elements
// index slices. It reports false as soon as a link is absent.
func Get(v any, path ...any) (any, bool) {
	cur := v
	for _, step := range path {
		if cur == nil {
			return nil, false
		}
		switch key := step.(type) {
		case string:
			m, ok := asMap(cur)
			if !ok {
				return nil, false
			}
			next, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = next
		case int:
			s, ok := asSlice(cur)
			if !ok || key < 0 || key >= len(s) {
				return nil, false
			}
			cur = s[key]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// String returns the string at path, or def. Non-string scalars are not
// converted: a number where a string is expected is treated as absent.
func String(v any, def string, path ...any) string {
	got, ok := Get(v, path...)
	if !ok {
		return def
	}
	s, ok := got.(string)
	if !ok {
		return def
	}
	return s
}

// Float64 returns the number at path, or def. Numeric strings such as the
// sample values of a Prometheus matrix are parsed.
func Float64(v any, def float64, path ...any) float64 {
	got, ok := Get(v, path...)
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(got)
	if err != nil {
		return def
	}
	return f
}

// Truthy reports whether the value at path is present and truthy: not
// false, not a zero or NaN number, not an empty string. Maps and slices
// count as truthy even when empty.
func Truthy(v any, path ...any) bool {
	got, ok := Get(v, path...)
	if !ok {
		return false
	}
	switch t := got.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case map[string]any, []any:
		return true
	}
	f, err := cast.ToFloat64E(got)
	if err != nil {
		// Some other composite: present, so truthy.
		return true
	}
	return f != 0 && !math.IsNaN(f)
}

func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if _, isString := v.(string); isString {
		// cast would try to decode the string as JSON.
		return nil, false
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, false
	}
	return m, true
}

func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	s, err := cast.ToSliceE(v)
	if err != nil {
		return nil, false
	}
	return s, true
}
