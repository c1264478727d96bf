package view

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// ValueString returns the text form of a prop value as it is handed to the
// host's attribute interface. Numbers use their shortest decimal form, arrays
// are joined by a space and objects render as "key: value;" pairs.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = ValueString(item)
		}
		return strings.Join(parts, " ")
	case []string:
		return strings.Join(val, " ")
	}
	if entries, ok := Entries(v); ok {
		return StyleString(entries)
	}
	if n, ok := toFloat(reflect.ValueOf(v)); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// Normalize converts a host value into the generic value model: numbers
// become float64, nested maps and slices are converted recursively and
// function values are dropped (ok is false).
func Normalize(v any) (out any, ok bool) {
	switch val := v.(type) {
	case nil:
		return nil, true
	case bool, string, float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String(), true
		}
		return f, true
	case *Props:
		return NormalizeFields(entriesMap(val.Entries())), true
	case map[string]any:
		return NormalizeFields(val), true
	case []any:
		items := make([]any, 0, len(val))
		for _, item := range val {
			if n, ok := Normalize(item); ok {
				items = append(items, n)
			}
		}
		return items, true
	}

	rv := reflect.ValueOf(v)
	if f, ok := toFloat(rv); ok {
		return f, true
	}
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	case reflect.Slice, reflect.Array:
		items := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if n, ok := Normalize(rv.Index(i).Interface()); ok {
				items = append(items, n)
			}
		}
		return items, true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		fields := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			fields[iter.Key().String()] = iter.Value().Interface()
		}
		return NormalizeFields(fields), true
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, true
		}
		return Normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return rv.Bool(), true
	}
	return map[string]any{}, true
}

// NormalizeFields normalizes every field of an event-like object, dropping
// null and function-valued fields.
func NormalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		n, ok := Normalize(v)
		if !ok || n == nil {
			continue
		}
		out[k] = n
	}
	return out
}

func entriesMap(entries []Entry) map[string]any {
	m := make(map[string]any, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Value
	}
	return m
}

func toFloat(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
