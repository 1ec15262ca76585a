package domain

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
)

// TextRule bounds a string value object. Lengths count runes after
// trimming surrounding whitespace.
type TextRule struct {
	// Max is the maximum length. Zero means unbounded.
	Max int

	// AllowEmpty accepts "" (after trimming).
	AllowEmpty bool

	// KeepSpace stores the raw value instead of the trimmed one. Length
	// and emptiness are still judged on the trimmed value.
	KeepSpace bool
}

// Text validates raw against rule and returns the value to store.
func Text(field, raw string, rule TextRule) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" && !rule.AllowEmpty {
		return "", tcerrors.Invalid(field, "must not be empty")
	}
	if rule.Max > 0 {
		if n := utf8.RuneCountInString(trimmed); n > rule.Max {
			return "", tcerrors.Invalid(field, "must be at most %d characters, got %d", rule.Max, n)
		}
	}
	if rule.KeepSpace {
		return raw, nil
	}
	return trimmed, nil
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Truncate returns s cut to n runes with "..." appended when it was longer.
func Truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// ParseEnum returns the member of values equal to raw. Matching is exact;
// enum values are stable identifiers.
func ParseEnum[T ~string](enum, raw string, values []T) (T, error) {
	for _, v := range values {
		if string(v) == raw {
			return v, nil
		}
	}
	allowed := make([]string, len(values))
	for i, v := range values {
		allowed[i] = string(v)
	}
	var zero T
	return zero, &tcerrors.InvalidEnumValueError{Enum: enum, Value: raw, Allowed: allowed}
}

// IsMember reports whether v is one of values.
func IsMember[T ~string](v T, values []T) bool {
	return slices.Contains(values, v)
}

// NewID returns a new identifier of the form "<prefix>_<uuid>".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// ParseID validates an identifier produced by NewID with the same prefix.
func ParseID(field, prefix, raw string) (string, error) {
	rest, ok := strings.CutPrefix(raw, prefix+"_")
	if !ok {
		return "", tcerrors.Invalid(field, "must start with %q", prefix+"_")
	}
	if _, err := uuid.Parse(rest); err != nil {
		return "", tcerrors.Invalid(field, "malformed identifier %q", raw)
	}
	return raw, nil
}

// RequireRef validates a reference to an entity owned elsewhere (project,
// user, resource). Any non-blank string is accepted.
func RequireRef(field, raw string) (string, error) {
	return Text(field, raw, TextRule{Max: 128})
}
