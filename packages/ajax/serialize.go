package ajax

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// Field is a single key/value pair of a Form.
type Field struct {
	Key   string
	Value any
}

// Form is an ordered list of body fields. Unlike a map it serializes in
// insertion order.
type Form []Field

// Add appends a field and returns the extended form.
func (f Form) Add(key string, value any) Form {
	return append(f, Field{Key: key, Value: value})
}

// Serialize turns a request body into its wire form. Strings and byte
// slices pass through. Forms, maps, url.Values and structs are encoded as
// application/x-www-form-urlencoded pairs. The second result is false when
// the body produces nothing to send.
func Serialize(body any) (string, bool) {
	switch b := body.(type) {
	case nil:
		return "", false
	case string:
		return b, b != ""
	case []byte:
		return string(b), len(b) > 0
	case Form:
		pairs := make([]string, 0, len(b))
		for _, f := range b {
			pairs = append(pairs, encodePair(f.Key, f.Value))
		}
		return strings.Join(pairs, "&"), true
	case map[string]string:
		pairs := make([]string, 0, len(b))
		for _, k := range sortedKeys(b) {
			pairs = append(pairs, encodePair(k, b[k]))
		}
		return strings.Join(pairs, "&"), true
	case map[string]any:
		pairs := make([]string, 0, len(b))
		for _, k := range sortedKeys(b) {
			pairs = append(pairs, encodePair(k, b[k]))
		}
		return strings.Join(pairs, "&"), true
	case url.Values:
		return encodeMulti(b), true
	case map[string][]string:
		return encodeMulti(b), true
	}

	v := reflect.ValueOf(body)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", false
	}
	return encodeStruct(v), true
}

func encodeMulti(values map[string][]string) string {
	var pairs []string
	for _, k := range sortedKeys(values) {
		for _, v := range values[k] {
			pairs = append(pairs, encodePair(k, v))
		}
	}
	return strings.Join(pairs, "&")
}

// encodeStruct emits the struct's own exported fields in declaration order.
// Fields promoted from embedded structs are skipped.
func encodeStruct(v reflect.Value) string {
	t := v.Type()
	var pairs []string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous || !sf.IsExported() {
			continue
		}

		name := sf.Name
		omitEmpty := false
		if tag, ok := sf.Tag.Lookup("form"); ok {
			if tag == "-" {
				continue
			}
			tagName, opts, _ := strings.Cut(tag, ",")
			if tagName != "" {
				name = tagName
			}
			omitEmpty = opts == "omitempty"
		}

		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		for fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				break
			}
			fv = fv.Elem()
		}

		var value any
		if fv.Kind() != reflect.Pointer {
			value = fv.Interface()
		}
		pairs = append(pairs, encodePair(name, value))
	}
	return strings.Join(pairs, "&")
}

func encodePair(key string, value any) string {
	return EncodeComponent(key) + "=" + EncodeComponent(formatValue(value))
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(value)
}

// EncodeComponent percent-encodes s, leaving only the characters
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) unescaped.
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
