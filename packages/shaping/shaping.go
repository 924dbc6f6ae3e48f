package shaping

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// Params is an untyped request payload. Values are scalars or lists.
type Params map[string]any

// StripNone returns a copy of p without entries whose value is nil.
func StripNone(p Params) Params {
	result := make(Params, len(p))
	for k, v := range p {
		if isNil(v) {
			continue
		}
		result[k] = v
	}
	return result
}

// StripBlank returns a copy of p without string values that are empty or
// whitespace only. Values of any other type are kept.
func StripBlank(p Params) Params {
	result := make(Params, len(p))
	for k, v := range p {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		result[k] = v
	}
	return result
}

// Extract returns {key: p[key]} with nil values stripped, so a missing key
// yields an empty map.
func Extract(p Params, key string) Params {
	return StripNone(Params{key: p[key]})
}

// ExtractKeys returns the sub-map of p for keys. Missing keys are absent
// from the result, never present with a nil value.
func ExtractKeys(p Params, keys ...string) Params {
	picked := make(Params, len(keys))
	for _, k := range keys {
		picked[k] = p[k]
	}
	return StripNone(picked)
}

// MergeDict returns the union of a and b. On collision b wins.
func MergeDict(a, b Params) Params {
	result := make(Params, len(a)+len(b))
	for k, v := range a {
		result[k] = v
	}
	for k, v := range b {
		result[k] = v
	}
	return result
}

// ToValues flattens p into url.Values. Slices and arrays become repeated
// keys, nil values are skipped and scalars are formatted with fmt.
func ToValues(p Params) url.Values {
	values := make(url.Values, len(p))
	for k, v := range p {
		if isNil(v) {
			continue
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if b, ok := v.([]byte); ok {
				values.Add(k, string(b))
				continue
			}
			for i := 0; i < rv.Len(); i++ {
				item := rv.Index(i).Interface()
				if isNil(item) {
					continue
				}
				values.Add(k, formatScalar(item))
			}
		default:
			values.Add(k, formatScalar(v))
		}
	}
	return values
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool:
		// The forum service parses capitalised booleans.
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(v)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
