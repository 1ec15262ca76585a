package event

import (
	"time"
)

// Payload carries event-specific data. Values should be plain data (strings,
// numbers, bools, times, nested maps and slices of those) so the event
// round-trips through JSON.
type Payload map[string]any

// Clone returns a copy of p. Nested maps and slices are copied as well.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return map[string]any(Payload(val).Clone())
	case Payload:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Has reports whether key is present.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the string value for key, or defaultVal.
func (p Payload) String(key, defaultVal string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal. Whole float64 values
// (as produced by encoding/json) are accepted.
func (p Payload) Int(key string, defaultVal int) int {
	switch val := p[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal.
func (p Payload) Float(key string, defaultVal float64) float64 {
	switch val := p[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal.
func (p Payload) Bool(key string, defaultVal bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Time returns the time value for key, or the zero time. RFC 3339 strings
// are parsed.
func (p Payload) Time(key string) time.Time {
	switch val := p[key].(type) {
	case time.Time:
		return val
	case string:
		if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return t
		}
	}
	return time.Time{}
}
