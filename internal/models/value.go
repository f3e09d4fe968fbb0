package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the frontmatter value shapes the validator
// understands.
type Kind int

// Supported value kinds. KindOther covers shapes outside the variant
// set (nested lists, lists with mixed element types); such values are
// carried through untouched but never conform to a declared field type.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindStrings
	KindMap
	KindOther
)

// String returns the kind name as used in validation messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStrings:
		return "strings"
	case KindMap:
		return "map"
	default:
		return "other"
	}
}

// Value is a tagged frontmatter value. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
	m    map[string]Value
	raw  any
}

// StringValue returns a string-kind Value.
func StringValue(s string) Value { return Value{kind: KindString, str: s, raw: s} }

// NumberValue returns a number-kind Value.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f, raw: f} }

// BoolValue returns a bool-kind Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b, raw: b} }

// StringsValue returns a string-list Value.
func StringsValue(items ...string) Value {
	return Value{kind: KindStrings, list: items, raw: items}
}

// FromAny converts a decoded YAML value into a Value. Lists qualify as
// KindStrings only when every element is a string; anything else that
// does not fit the variant set becomes KindOther with the original
// value preserved.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return Value{kind: KindNumber, num: float64(t), raw: t}
	case int64:
		return Value{kind: KindNumber, num: float64(t), raw: t}
	case uint64:
		return Value{kind: KindNumber, num: float64(t), raw: t}
	case float64:
		return NumberValue(t)
	case time.Time:
		return StringValue(formatTime(t))
	case []any:
		items := make([]string, 0, len(t))
		for _, el := range t {
			s, ok := el.(string)
			if !ok {
				return Value{kind: KindOther, raw: v}
			}
			items = append(items, s)
		}
		return Value{kind: KindStrings, list: items, raw: v}
	case []string:
		return StringsValue(t...)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, el := range t {
			m[k] = FromAny(el)
		}
		return Value{kind: KindMap, m: m, raw: v}
	default:
		return Value{kind: KindOther, raw: v}
	}
}

// FromAnyMap converts a decoded YAML mapping into a frontmatter map.
// A nil input yields a nil map.
func FromAnyMap(in map[string]any) map[string]Value {
	if in == nil {
		return nil
	}
	out := make(map[string]Value, len(in))
	for k, v := range in {
		out[k] = FromAny(v)
	}
	return out
}

// Kind returns the value's kind tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null (field present with no value).
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload; empty unless KindString.
func (v Value) Str() string { return v.str }

// Num returns the numeric payload; zero unless KindNumber.
func (v Value) Num() float64 { return v.num }

// Bool returns the boolean payload; false unless KindBool.
func (v Value) Bool() bool { return v.b }

// Strings returns the string-list payload; nil unless KindStrings.
func (v Value) Strings() []string { return v.list }

// Map returns the mapping payload; nil unless KindMap.
func (v Value) Map() map[string]Value { return v.m }

// Any returns the underlying native value as decoded from YAML.
func (v Value) Any() any {
	if v.raw != nil {
		return v.raw
	}
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindStrings:
		return v.list
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, el := range v.m {
			out[k] = el.Any()
		}
		return out
	default:
		return nil
	}
}

// String renders the value for display (list items comma-joined).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStrings:
		return strings.Join(v.list, ", ")
	default:
		return fmt.Sprintf("%v", v.Any())
	}
}

// MarshalJSON emits the underlying native value, so exported documents
// carry plain YAML-shaped data rather than the tagged wrapper.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// MarshalYAML emits the underlying native value, used when a lint fix
// rewrites a frontmatter block.
func (v Value) MarshalYAML() (any, error) {
	return v.Any(), nil
}

// formatTime keeps date-only YAML timestamps as plain dates.
func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
