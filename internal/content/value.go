package content

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind classifies a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindText
	KindArray
	KindObject
	KindScalar // number or boolean
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Value is polymorphic message or output content. The zero Value is absent.
// Raw bytes are kept so re-encoding preserves the original key order.
type Value struct {
	kind Kind
	text string
	raw  json.RawMessage
}

// TextValue returns a text Value.
func TextValue(s string) Value {
	raw, _ := json.Marshal(s)
	return Value{kind: KindText, text: s, raw: raw}
}

// RawValue classifies raw JSON. Empty input yields an absent Value.
func RawValue(raw json.RawMessage) Value {
	var v Value
	_ = v.UnmarshalJSON(raw)
	return v
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*v = Value{}
		return nil
	}

	raw := make(json.RawMessage, len(trimmed))
	copy(raw, trimmed)

	switch trimmed[0] {
	case 'n':
		*v = Value{kind: KindNull, raw: raw}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = Value{kind: KindText, text: s, raw: raw}
	case '[':
		*v = Value{kind: KindArray, raw: raw}
	case '{':
		*v = Value{kind: KindObject, raw: raw}
	default:
		*v = Value{kind: KindScalar, raw: raw}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Absent values encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindAbsent {
		return []byte("null"), nil
	}
	return v.raw, nil
}

func (v Value) Kind() Kind           { return v.kind }
func (v Value) IsAbsent() bool       { return v.kind == KindAbsent }
func (v Value) Raw() json.RawMessage { return v.raw }

// Text returns the string for text values and "" otherwise.
func (v Value) Text() string {
	return v.text
}

// IsStructured reports whether v is a JSON object or array.
func (v Value) IsStructured() bool {
	return v.kind == KindObject || v.kind == KindArray
}

// Blocks decodes an array value into blocks.
func (v Value) Blocks() ([]Block, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return DecodeBlocks(v.raw)
}

// Compact returns v as single-line JSON.
func (v Value) Compact() string {
	if v.kind == KindAbsent {
		return "null"
	}
	return Compact(v.raw)
}

// Compact re-encodes raw JSON on a single line the way JSON.stringify does:
// numbers normalized, escapes resolved, integer-like keys first. Missing
// input renders as null and invalid input is returned unchanged.
func Compact(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	n, err := parseJSON(raw)
	if err != nil {
		return string(raw)
	}
	var sb strings.Builder
	n.encode(&sb, "", "")
	return sb.String()
}

// Pretty parses raw JSON and re-encodes it with two-space indentation.
func Pretty(raw json.RawMessage) (string, error) {
	n, err := parseJSON(raw)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	n.encode(&sb, "  ", "")
	return sb.String(), nil
}
