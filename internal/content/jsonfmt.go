package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// jsonNode is a decoded JSON value that keeps object member order.
type jsonNode struct {
	kind   byte // 'n' null, 'b' bool, 'f' number, 's' string, '[' array, '{' object
	b      bool
	f      float64
	s      string
	items  []*jsonNode
	keys   []string
	fields map[string]*jsonNode
}

// parseJSON decodes raw the way a browser JSON.parse does: numbers become
// float64, escapes are resolved, a repeated key keeps its first position
// and its last value.
func parseJSON(raw []byte) (*jsonNode, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	n, err := decodeNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid character after top-level value")
	}
	return n, nil
}

func decodeNode(dec *json.Decoder) (*jsonNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return &jsonNode{kind: 'n'}, nil
	case bool:
		return &jsonNode{kind: 'b', b: t}, nil
	case string:
		return &jsonNode{kind: 's', s: t}, nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil && !math.IsInf(f, 0) {
			return nil, err
		}
		return &jsonNode{kind: 'f', f: f}, nil
	case json.Delim:
		switch t {
		case '[':
			n := &jsonNode{kind: '['}
			for dec.More() {
				item, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '{':
			n := &jsonNode{kind: '{', fields: make(map[string]*jsonNode)}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, errors.New("object key is not a string")
				}
				val, err := decodeNode(dec)
				if err != nil {
					return nil, err
				}
				if _, seen := n.fields[key]; !seen {
					n.keys = append(n.keys, key)
				}
				n.fields[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	return nil, errors.New("unexpected JSON token")
}

// orderedKeys puts array-index keys first in ascending numeric order,
// followed by the remaining keys in insertion order.
func (n *jsonNode) orderedKeys() []string {
	var index, named []string
	for _, k := range n.keys {
		if isArrayIndex(k) {
			index = append(index, k)
		} else {
			named = append(named, k)
		}
	}
	sort.SliceStable(index, func(i, j int) bool {
		a, _ := strconv.ParseUint(index[i], 10, 64)
		b, _ := strconv.ParseUint(index[j], 10, 64)
		return a < b
	})
	return append(index, named...)
}

func isArrayIndex(k string) bool {
	if k == "0" {
		return true
	}
	if k == "" || k[0] < '1' || k[0] > '9' || len(k) > 10 {
		return false
	}
	for i := 1; i < len(k); i++ {
		if k[i] < '0' || k[i] > '9' {
			return false
		}
	}
	v, err := strconv.ParseUint(k, 10, 64)
	return err == nil && v < math.MaxUint32
}

// encode writes n. An empty indent produces single-line output.
func (n *jsonNode) encode(sb *strings.Builder, indent, prefix string) {
	switch n.kind {
	case 'n':
		sb.WriteString("null")
	case 'b':
		sb.WriteString(strconv.FormatBool(n.b))
	case 'f':
		sb.WriteString(formatNumber(n.f))
	case 's':
		writeString(sb, n.s)
	case '[':
		if len(n.items) == 0 {
			sb.WriteString("[]")
			return
		}
		inner := prefix + indent
		sb.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				sb.WriteByte(',')
			}
			newline(sb, indent, inner)
			item.encode(sb, indent, inner)
		}
		newline(sb, indent, prefix)
		sb.WriteByte(']')
	case '{':
		if len(n.keys) == 0 {
			sb.WriteString("{}")
			return
		}
		inner := prefix + indent
		sb.WriteByte('{')
		for i, k := range n.orderedKeys() {
			if i > 0 {
				sb.WriteByte(',')
			}
			newline(sb, indent, inner)
			writeString(sb, k)
			sb.WriteByte(':')
			if indent != "" {
				sb.WriteByte(' ')
			}
			n.fields[k].encode(sb, indent, inner)
		}
		newline(sb, indent, prefix)
		sb.WriteByte('}')
	}
}

func newline(sb *strings.Builder, indent, prefix string) {
	if indent == "" {
		return
	}
	sb.WriteByte('\n')
	sb.WriteString(prefix)
}

// formatNumber follows Number.prototype.toString: plain digits for
// magnitudes in [1e-6, 1e21), exponent form otherwise.
func formatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + sign + digits
}

const hexDigits = "0123456789abcdef"

// writeString quotes s with the escapes JSON.stringify uses.
func writeString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteByte(hexDigits[r>>4])
				sb.WriteByte(hexDigits[r&0xf])
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}
