// Package llmjson contains tolerant accessors over model-generated JSON.
// Every LLM call site goes through these so that missing keys, wrong types,
// and out-of-range values all degrade to typed defaults instead of errors.
package llmjson

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

func Str(m map[string]any, key, def string) string {
	if m == nil {
		return def
	}
	if s, ok := m[key].(string); ok {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
	}
	return def
}

func Float(m map[string]any, key string, def float64) float64 {
	if m == nil {
		return def
	}
	f := floatFromAny(m[key], math.NaN())
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func Int(m map[string]any, key string, def int) int {
	if m == nil {
		return def
	}
	f := floatFromAny(m[key], math.NaN())
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return int(f)
}

// ClampFloat returns the value under key clamped into [lo, hi], or def when
// absent or non-finite.
func ClampFloat(m map[string]any, key string, def, lo, hi float64) float64 {
	v := Float(m, key, def)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Slice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	if s, ok := m[key].([]any); ok {
		return s
	}
	return nil
}

// Objects returns the array under key as a slice of maps, skipping any
// non-object elements.
func Objects(m map[string]any, key string) []map[string]any {
	raw := Slice(m, key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Strings returns the array under key filtered to non-empty strings, capped at
// max when max > 0.
func Strings(m map[string]any, key string, max int) []string {
	raw := Slice(m, key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

func Ints(m map[string]any, key string) []int {
	raw := Slice(m, key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		f := floatFromAny(item, math.NaN())
		if math.IsNaN(f) {
			continue
		}
		out = append(out, int(f))
	}
	return out
}

func floatFromAny(v any, def float64) float64 {
	switch val := v.(type) {
	case nil:
		return def
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	case bool:
		if val {
			return 1
		}
		return 0
	}
	return def
}
