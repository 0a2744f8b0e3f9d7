// Package attrs reads slog-style key/value slices ([k1, v1, k2, v2, ...]).
package attrs

import (
	"fmt"
	"slices"
)

// Lookup returns the value paired with key. Non-string keys and a trailing
// key without a value are skipped.
func Lookup(kv []any, key string) (any, bool) {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			return kv[i+1], true
		}
	}
	return nil, false
}

// String formats the value paired with key, or returns "" when absent.
func String(kv []any, key string) string {
	v, ok := Lookup(kv, key)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Map flattens the pairs into strings, leaving out the skipped keys. It
// returns nil when nothing remains.
func Map(kv []any, skip ...string) map[string]string {
	var out map[string]string
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok || slices.Contains(skip, k) {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = fmt.Sprint(kv[i+1])
	}
	return out
}
