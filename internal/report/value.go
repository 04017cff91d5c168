package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is a loosely typed JSON field. Clients send the same field as a number,
// a numeric string or a word depending on app version, so reads go through helpers.
// Decoded numbers are kept as json.Number so large ids survive a round trip.
type Value struct {
	v   any
	set bool
}

func V(v any) Value { return Value{v: v, set: true} }

func (x *Value) UnmarshalJSON(b []byte) error {
	x.set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		x.v = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(&x.v)
}

func (x Value) MarshalJSON() ([]byte, error) { return json.Marshal(x.v) }

// IsZero lets encoding/json omit unset values.
func (x Value) IsZero() bool { return !x.set }

func (x Value) IsSet() bool { return x.set && x.v != nil }

// Truthy follows JavaScript truthiness.
func (x Value) Truthy() bool {
	switch t := x.v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// Positive reports whether the value is a number, numeric string or true, and > 0.
func (x Value) Positive() bool {
	n, ok := x.number()
	return ok && n > 0
}

func (x Value) number() (float64, bool) {
	switch t := x.v.(type) {
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case float64:
		return t, !math.IsNaN(t)
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

// String renders scalars; numbers lose trailing zeros. Objects render as "".
func (x Value) String() string {
	switch t := x.v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// IsNumber reports whether the value arrived as a JSON number.
func (x Value) IsNumber() bool {
	switch x.v.(type) {
	case json.Number, float64, int, int64:
		return true
	}
	return false
}

// Lower is String in lower case, used by substring bucket rules.
func (x Value) Lower() string { return strings.ToLower(x.String()) }

// first returns the first truthy value, like a chain of || in the mobile client.
func first(vals ...Value) Value {
	for _, v := range vals {
		if v.Truthy() && v.String() != "" {
			return v
		}
	}
	return Value{}
}
