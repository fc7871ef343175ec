// Package handlers holds the small decoding helpers shared by every
// operation handler subpackage (token, pool, marketops, nftops,
// launchpadops, witnessops, farmops). Each handler's Validate/Process
// pair reads its fields out of the dispatcher's untyped data map the
// same way the teacher's order/cancel path reads fields off a decoded
// JSON transaction body.
package handlers

import "github.com/echo-chain/sidenode/internal/amount"

// String reads a required string field, ok=false if absent or empty.
func String(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// OptString reads an optional string field, "" if absent.
func OptString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// Amount reads a required monetary field encoded as a decimal string.
func Amount(data map[string]any, key string) (*amount.Amount, bool) {
	s, ok := String(data, key)
	if !ok {
		return nil, false
	}
	a, err := amount.Parse(s)
	if err != nil {
		return nil, false
	}
	return a, true
}

// OptAmount reads an optional monetary field, nil if absent or invalid.
func OptAmount(data map[string]any, key string) *amount.Amount {
	s, ok := data[key].(string)
	if !ok || s == "" {
		return nil
	}
	a, err := amount.Parse(s)
	if err != nil {
		return nil
	}
	return a
}

// Int64 reads a required integer field. JSON-decoded numbers arrive as
// float64; this accepts either that or a pre-converted int64.
func Int64(data map[string]any, key string) (int64, bool) {
	switch v := data[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// OptInt64 reads an optional integer field, defaulting to 0.
func OptInt64(data map[string]any, key string) int64 {
	n, _ := Int64(data, key)
	return n
}

// Bool reads an optional boolean field, defaulting to def.
func Bool(data map[string]any, key string, def bool) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return def
}

// StringSlice reads an optional []string field from an untyped []any.
func StringSlice(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Map reads an optional map[string]any field.
func Map(data map[string]any, key string) map[string]any {
	m, _ := data[key].(map[string]any)
	return m
}
