package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the JSON type a Value was decoded from.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "null"
	}
}

// Value holds one loosely typed field of an API record. The upstream
// analytics service mixes numbers, strings and "NA" placeholders in the
// same column, so record structs keep the raw kind alongside the text.
type Value struct {
	kind  Kind
	text  string
	items []string
}

func String(s string) Value { return Value{kind: KindString, text: s} }

func Number(f float64) Value {
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

func Int(n int64) Value { return Value{kind: KindNumber, text: strconv.FormatInt(n, 10)} }

func Bool(b bool) Value { return Value{kind: KindBool, text: strconv.FormatBool(b)} }

func List(items ...string) Value {
	return Value{kind: KindList, text: strings.Join(items, ", "), items: items}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) IsString() bool { return v.kind == KindString }

// Text is the value as it would be printed; empty for null.
func (v Value) Text() string { return v.text }

func (v Value) String() string { return v.text }

// Items returns the elements of a list value.
func (v Value) Items() []string { return v.items }

// Or returns def when the value is null, blank or the "NA" placeholder.
func (v Value) Or(def string) string {
	if v.kind == KindNull || strings.TrimSpace(v.text) == "" || v.text == "NA" {
		return def
	}
	return v.text
}

func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber, KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Fixed formats numeric values with the given number of decimals and
// falls back to Or(def) for everything else.
func (v Value) Fixed(decimals int, def string) string {
	f, ok := v.Float()
	if !ok {
		return v.Or(def)
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// Truthy follows the GTFS convention where calendar flags are 1/0.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.text == "true"
	case KindNumber:
		f, _ := v.Float()
		return f != 0
	case KindString:
		s := strings.ToLower(strings.TrimSpace(v.text))
		return s == "1" || s == "true" || s == "yes"
	default:
		return false
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("collection: empty value")
	}

	switch data[0] {
	case 'n':
		*v = Value{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '[':
		var raw []Value
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			items = append(items, item.text)
		}
		*v = List(items...)
	case '{':
		return fmt.Errorf("collection: nested objects are not scalar values")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Value{kind: KindNumber, text: n.String()}
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.text)
	case KindNumber, KindBool:
		return []byte(v.text), nil
	case KindList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	default:
		return []byte("null"), nil
	}
}
