package jwt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid,omitempty"`
}

// Claims is the decoded payload. Numbers are held as json.Number.
type Claims map[string]any

// Lookup returns the claim value if it is present and not JSON null.
func (c Claims) Lookup(name string) (any, bool) {
	v, ok := c[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the textual form of a scalar claim.
func (c Claims) String(name string) (string, bool) {
	v, ok := c.Lookup(name)
	if !ok {
		return "", false
	}
	switch value := v.(type) {
	case string:
		return value, true
	case json.Number:
		return value.String(), true
	case bool:
		return strconv.FormatBool(value), true
	default:
		return fmt.Sprint(value), true
	}
}

// Int64 parses an integer claim given either as a JSON number or as a string.
func (c Claims) Int64(name string) (int64, error) {
	v, ok := c.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("claim %q is missing", name)
	}
	var raw string
	switch value := v.(type) {
	case json.Number:
		raw = value.String()
	case string:
		raw = strings.TrimSpace(value)
	case float64:
		raw = strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return 0, fmt.Errorf("claim %q has unsupported type %T", name, v)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("claim %q is not an integer: %w", name, err)
	}
	return n, nil
}

// StringList reads a claim that is either a comma-separated string or an
// array of strings. Entries are trimmed and blanks dropped.
func (c Claims) StringList(name string) ([]string, error) {
	v, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("claim %q is missing", name)
	}
	var raw []string
	switch value := v.(type) {
	case string:
		raw = strings.Split(value, ",")
	case []any:
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("claim %q contains non-string entry %T", name, item)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("claim %q has unsupported type %T", name, v)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
