// Package trace serializes grid events into canonical JSON records.
//
// Canonical JSON is the only serialization used for journal payloads, event
// IDs and golden traces, so identical event streams produce identical bytes:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping
//   - strings NFC-normalized
//   - numbers in shortest decimal form (no exponent)
package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Marshal produces canonical JSON for v. Values that are not JSON-like
// (structs, typed slices) go through encoding/json first.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		return writeString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float32:
		return writeNumber(buf, decimal.NewFromFloat32(val))
	case float64:
		return writeNumber(buf, decimal.NewFromFloat(val))
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return fmt.Errorf("number %q: %w", val, err)
		}
		return writeNumber(buf, d)
	case decimal.Decimal:
		return writeNumber(buf, val)
	case *decimal.Decimal:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		return writeNumber(buf, *val)
	case time.Time:
		return writeString(buf, val.UTC().Format(time.RFC3339Nano))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		return writeObject(buf, val)
	default:
		plain, err := toPlain(v)
		if err != nil {
			return fmt.Errorf("unsupported type %T: %w", v, err)
		}
		return writeValue(buf, plain)
	}
	return nil
}

func writeNumber(buf *bytes.Buffer, d decimal.Decimal) error {
	buf.WriteString(d.String())
	return nil
}

func writeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeValue(buf, obj[k]); err != nil {
			return fmt.Errorf("%q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeString writes s NFC-normalized without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// toPlain converts v into JSON-like values (maps, slices, json.Number).
func toPlain(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// compareKeys orders strings by UTF-16 code units. Go's string comparison
// uses UTF-8 bytes, which differs for characters outside the BMP.
func compareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}
