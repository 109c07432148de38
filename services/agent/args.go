package agent

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FieldError describes one argument that could not be coerced.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ArgumentError collects every field error found while parsing one tool input.
type ArgumentError struct {
	Fields []FieldError
}

func (e *ArgumentError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}

// argReader coerces a loosely typed tool input into typed values. Each accessor
// records a FieldError instead of failing, so one pass reports every problem.
type argReader struct {
	input  map[string]any
	loc    *time.Location
	errors []FieldError
}

func newArgReader(input map[string]any, loc *time.Location) *argReader {
	if input == nil {
		input = map[string]any{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &argReader{input: input, loc: loc}
}

func (a *argReader) Err() error {
	if len(a.errors) == 0 {
		return nil
	}
	return &ArgumentError{Fields: a.errors}
}

func (a *argReader) fail(field, format string, args ...any) {
	a.errors = append(a.errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// lookup treats JSON null and blank strings the same as an absent key.
func (a *argReader) lookup(field string) (any, bool) {
	v, ok := a.input[field]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func (a *argReader) Int(field string) int {
	v, ok := a.lookup(field)
	if !ok {
		a.fail(field, "is required")
		return 0
	}
	n, err := toInt(v)
	if err != nil {
		a.fail(field, "%v", err)
	}
	return n
}

func (a *argReader) OptInt(field string) *int {
	v, ok := a.lookup(field)
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		a.fail(field, "%v", err)
		return nil
	}
	return &n
}

func (a *argReader) IntDefault(field string, fallback int) int {
	if n := a.OptInt(field); n != nil {
		return *n
	}
	return fallback
}

func (a *argReader) OptFloat(field string) *float64 {
	v, ok := a.lookup(field)
	if !ok {
		return nil
	}
	f, err := toFloat(v)
	if err != nil {
		a.fail(field, "%v", err)
		return nil
	}
	return &f
}

func (a *argReader) FloatDefault(field string, fallback float64) float64 {
	if f := a.OptFloat(field); f != nil {
		return *f
	}
	return fallback
}

func (a *argReader) String(field string) string {
	v, ok := a.lookup(field)
	if !ok {
		a.fail(field, "is required")
		return ""
	}
	return toString(v)
}

// OptString returns nil when the field is absent. A present blank string is
// returned as an empty value so callers can clear a field.
func (a *argReader) OptString(field string) *string {
	v, present := a.input[field]
	if !present || v == nil {
		return nil
	}
	s := toString(v)
	return &s
}

func (a *argReader) StringDefault(field, fallback string) string {
	if _, ok := a.lookup(field); !ok {
		return fallback
	}
	return a.String(field)
}

func (a *argReader) Bool(field string, fallback bool) bool {
	v, ok := a.lookup(field)
	if !ok {
		return fallback
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	case float64:
		if b == 0 || b == 1 {
			return b == 1
		}
	}
	a.fail(field, "must be true or false")
	return fallback
}

// Enum reads a required string that must be one of allowed (case-insensitive).
func (a *argReader) Enum(field string, allowed ...string) string {
	if _, ok := a.lookup(field); !ok {
		a.fail(field, "is required; one of %s", strings.Join(allowed, ", "))
		return ""
	}
	return a.enumValue(field, allowed)
}

func (a *argReader) OptEnum(field string, allowed ...string) *string {
	if _, ok := a.lookup(field); !ok {
		return nil
	}
	s := a.enumValue(field, allowed)
	if s == "" {
		return nil
	}
	return &s
}

func (a *argReader) enumValue(field string, allowed []string) string {
	v, _ := a.lookup(field)
	s := strings.ToLower(toString(v))
	s = strings.ReplaceAll(s, " ", "_")
	if !slices.Contains(allowed, s) {
		a.fail(field, "must be one of %s; got %q", strings.Join(allowed, ", "), toString(v))
		return ""
	}
	return s
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// OptDate accepts YYYY-MM-DD or an RFC 3339 timestamp. Plain dates are
// interpreted in the shop's time zone.
func (a *argReader) OptDate(field string) *time.Time {
	v, ok := a.lookup(field)
	if !ok {
		return nil
	}
	s, isString := v.(string)
	if !isString {
		a.fail(field, "must be a date like 2006-01-02")
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		var t time.Time
		var err error
		if layout == time.RFC3339 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, a.loc)
		}
		if err == nil {
			return &t
		}
	}
	a.fail(field, "must be a date like 2006-01-02; got %q", s)
	return nil
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("must be a whole number; got %v", f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("is out of range")
	}
	return int(f), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n), "$"))
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("must be a number; got %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("must be a number; got %T", v)
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
