package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number accepts either a JSON number or a numeric string. Models routinely
// quote numbers ("450 kcal") even when the schema asks for a number.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("number must be a number or string: %w", err)
	}
	// "N/A" and friends decode as zero instead of failing the whole object.
	f, err := strconv.ParseFloat(leadingNumber(s), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Text accepts a JSON string or a bare number.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("text must be a string or number: %w", err)
	}
	*t = Text(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// leadingNumber extracts the numeric prefix of strings like "450 kcal" or "12,5g".
func leadingNumber(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' || (end == 0 && c == '-') {
			end++
			continue
		}
		break
	}
	return strings.ReplaceAll(s[:end], ",", ".")
}

// decodeOutput unmarshals raw model output into out. It reports false when the
// output is empty, null, or does not match the expected shape.
func decodeOutput(raw json.RawMessage, out any) (bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return false, err
	}
	return true, nil
}

// nonBlank drops empty entries and returns placeholder when nothing is left.
func nonBlank(items []string, placeholder ...string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append(out, placeholder...)
	}
	return out
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
