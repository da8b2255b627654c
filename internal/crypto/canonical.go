package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize renders v as canonical JSON: object keys NFC normalized and
// sorted, null members and zero times dropped, integers only. Values outside
// the decoded JSON model (structs, typed slices, decimals) are converted with
// JSONView first, so their json tags decide field names.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func asTree(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, int, int64, float32, float64, json.Number, time.Time, map[string]any, []any:
		return v, nil
	}
	view, err := JSONView(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
	return view, nil
}

func encode(buf *bytes.Buffer, v any) error {
	tree, err := asTree(v)
	if err != nil {
		return err
	}

	switch value := tree.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		return encodeString(buf, value)
	case bool:
		buf.WriteString(strconv.FormatBool(value))
	case int:
		buf.WriteString(strconv.Itoa(value))
	case int64:
		buf.WriteString(strconv.FormatInt(value, 10))
	case float32, float64:
		return ErrFloatNotAllowed
	case json.Number:
		return encodeNumber(buf, value)
	case time.Time:
		if value.IsZero() {
			buf.WriteString("null")
			return nil
		}
		return encodeString(buf, value.UTC().Format(time.RFC3339Nano))
	case map[string]any:
		if value == nil {
			buf.WriteString("null")
			return nil
		}
		return encodeObject(buf, value)
	case []any:
		if value == nil {
			buf.WriteString("null")
			return nil
		}
		return encodeArray(buf, value)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, tree)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	encoded, err := json.Marshal(norm.NFC.String(s))
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

// encodeNumber accepts only integral numbers that fit in an int64.
func encodeNumber(buf *bytes.Buffer, n json.Number) error {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return ErrFloatNotAllowed
	}
	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ErrFloatNotAllowed
	}
	buf.WriteString(strconv.FormatInt(value, 10))
	return nil
}

type member struct {
	key   string
	value any
}

func encodeObject(buf *bytes.Buffer, obj map[string]any) error {
	members := make([]member, 0, len(obj))
	seen := make(map[string]bool, len(obj))
	for k, v := range obj {
		key := norm.NFC.String(k)
		if seen[key] {
			return ErrKeyCollision
		}
		seen[key] = true

		tree, err := asTree(v)
		if err != nil {
			return err
		}
		if isNull(tree) {
			continue
		}
		members = append(members, member{key: key, value: tree})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].key < members[j].key })

	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, m.key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encode(buf, m.value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func isNull(tree any) bool {
	switch value := tree.(type) {
	case nil:
		return true
	case time.Time:
		return value.IsZero()
	case map[string]any:
		return value == nil
	case []any:
		return value == nil
	default:
		return false
	}
}
