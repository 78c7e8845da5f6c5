package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is one raw Legistar field. Present reports whether the key existed in
// the source document; Raw is nil for JSON null.
type Value struct {
	Raw     interface{}
	Present bool
}

// V builds a present Value, mostly for tests and fixtures.
func V(raw interface{}) Value {
	return Value{Raw: raw, Present: true}
}

// UnmarshalJSON records presence and keeps numbers as json.Number.
func (v *Value) UnmarshalJSON(data []byte) error {
	v.Present = true
	v.Raw = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	v.Raw = raw
	return nil
}

// MarshalJSON writes the raw value back out.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw)
}

// Clone copies the value, including nested arrays and objects.
func (v Value) Clone() Value {
	return Value{Raw: cloneRaw(v.Raw), Present: v.Present}
}

func cloneRaw(raw interface{}) interface{} {
	switch val := raw.(type) {
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneRaw(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = cloneRaw(item)
		}
		return out
	default:
		return val
	}
}

// IsZero lets omitzero drop absent fields.
func (v Value) IsZero() bool {
	return !v.Present
}

// IsNull reports a missing key or an explicit null.
func (v Value) IsNull() bool {
	return !v.Present || v.Raw == nil
}

// Truthy reports whether the value would pass a plain truth test:
// absent, null, empty text, zero and false are all falsy.
func (v Value) Truthy() bool {
	if v.IsNull() {
		return false
	}
	switch val := v.Raw.(type) {
	case string:
		return val != ""
	case bool:
		return val
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}

// Text returns the value as a string. ok is false for absent or null values.
func (v Value) Text() (string, bool) {
	if v.IsNull() {
		return "", false
	}
	switch val := v.Raw.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}

// TextPtr returns the text form, or nil when absent or null.
func (v Value) TextPtr() *string {
	s, ok := v.Text()
	if !ok {
		return nil
	}
	return &s
}

// Int coerces the value to an integer. Decimals are truncated toward zero
// and numeric strings are accepted.
func (v Value) Int() (int, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("value is null")
	}
	switch val := v.Raw.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return floatToInt(val)
	case json.Number:
		return parseIntText(val.String())
	case string:
		return parseIntText(val)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", val)
	}
}

// Key is the textual identity used in score maps.
func (v Value) Key() string {
	s, _ := v.Text()
	return s
}

func parseIntText(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return floatToInt(f)
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("integer out of range: %v", f)
	}
	return int(math.Trunc(f)), nil
}
