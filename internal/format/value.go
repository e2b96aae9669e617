// Package format turns raw provider values into display strings.
package format

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NotAvailable is rendered for any value the provider did not report.
const NotAvailable = "N/A"

// Value is a raw provider field: either missing or a numeric literal in text form.
// The zero Value is missing.
type Value struct {
	text    string
	present bool
}

// Missing returns the missing value.
func Missing() Value { return Value{} }

// Text wraps a provider literal. Blank text or text containing N/A is missing.
func Text(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, NotAvailable) {
		return Value{}
	}
	return Value{text: s, present: true}
}

// Float wraps a number.
func Float(f float64) Value {
	return Value{text: strconv.FormatFloat(f, 'f', -1, 64), present: true}
}

// FloatPtr wraps a number, mapping nil to missing.
func FloatPtr(f *float64) Value {
	if f == nil {
		return Value{}
	}
	return Float(*f)
}

// IsMissing reports whether the provider did not report the value.
func (v Value) IsMissing() bool { return !v.present }

// Float64 parses the value. ok is false when it is missing or not numeric.
func (v Value) Float64() (f float64, ok bool) {
	if !v.present {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	return f, err == nil
}

// String returns the raw text, or NotAvailable when missing.
func (v Value) String() string {
	if !v.present {
		return NotAvailable
	}
	return v.text
}

// MarshalJSON encodes missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.present {
		return []byte("null"), nil
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts null, strings and numbers.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = Value{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*v = Text(text)
		return nil
	}
	*v = Text(s)
	return nil
}
