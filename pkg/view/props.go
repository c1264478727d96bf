package view

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Reserved structural prop keys.
const (
	PropAttributes = "attributes"
	PropStyle      = "style"
)

// Props is an ordered map of prop name to value. Values are nil, bool,
// float64, string, []any, map[string]any or *Props.
//
// The zero value and a nil *Props are both empty and safe to read.
type Props struct {
	m *orderedmap.OrderedMap[string, any]
}

// Entry is one key/value pair of a structural object.
type Entry struct {
	Key   string
	Value any
}

// NewProps creates an empty Props.
func NewProps() *Props {
	return &Props{m: orderedmap.New[string, any]()}
}

// PropsOf builds Props from alternating key/value arguments.
// It panics if a key is not a string.
func PropsOf(kv ...any) *Props {
	p := NewProps()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("view: PropsOf key must be a string")
		}
		p.Set(key, kv[i+1])
	}
	return p
}

// Set stores value under key, keeping the original position of an existing key.
func (p *Props) Set(key string, value any) *Props {
	if p.m == nil {
		p.m = orderedmap.New[string, any]()
	}
	p.m.Set(key, value)
	return p
}

// Get returns the value stored under key.
func (p *Props) Get(key string) (any, bool) {
	if p == nil || p.m == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// Delete removes key.
func (p *Props) Delete(key string) {
	if p == nil || p.m == nil {
		return
	}
	p.m.Delete(key)
}

// Len returns the number of props.
func (p *Props) Len() int {
	if p == nil || p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Entries returns the props in insertion order.
func (p *Props) Entries() []Entry {
	if p == nil || p.m == nil {
		return nil
	}
	out := make([]Entry, 0, p.m.Len())
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entry{Key: pair.Key, Value: pair.Value})
	}
	return out
}

// MarshalJSON encodes the props as a JSON object in insertion order.
func (p *Props) MarshalJSON() ([]byte, error) {
	if p == nil || p.m == nil || p.m.Len() == 0 {
		return []byte("{}"), nil
	}
	return p.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, preserving key order at the top level.
// Nested objects decode to map[string]any.
func (p *Props) UnmarshalJSON(data []byte) error {
	p.m = orderedmap.New[string, any]()
	if string(data) == "null" {
		return nil
	}
	return p.m.UnmarshalJSON(data)
}

// Entries returns the entries of a structural object value. *Props keeps its
// insertion order; plain maps are iterated in key order. ok is false when v is
// not an object.
func Entries(v any) (entries []Entry, ok bool) {
	switch obj := v.(type) {
	case *Props:
		if obj == nil {
			return nil, false
		}
		return obj.Entries(), true
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Entry, 0, len(keys))
		for _, k := range keys {
			out = append(out, Entry{Key: k, Value: obj[k]})
		}
		return out, true
	case map[string]string:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Entry, 0, len(keys))
		for _, k := range keys {
			out = append(out, Entry{Key: k, Value: obj[k]})
		}
		return out, true
	default:
		return nil, false
	}
}

// IsObject reports whether v is a structural object value.
func IsObject(v any) bool {
	_, ok := Entries(v)
	return ok
}
