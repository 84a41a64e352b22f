package feature

import "sort"

// Properties is an insertion-ordered map of property values.
// Setting an existing key replaces its value but keeps its position.
type Properties struct {
	keys   []string
	values map[string]Value
}

// NewProperties creates an empty property set sized for n keys
func NewProperties(n int) *Properties {
	return &Properties{
		keys:   make([]string, 0, n),
		values: make(map[string]Value, n),
	}
}

// Set stores v under key
func (p *Properties) Set(key string, v Value) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Get returns the value stored under key
func (p *Properties) Get(key string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Delete removes key
func (p *Properties) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Each calls fn for every key in insertion order
func (p *Properties) Each(fn func(key string, v Value)) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}

// Clone returns an independent copy
func (p *Properties) Clone() *Properties {
	c := NewProperties(p.Len())
	p.Each(c.Set)
	return c
}

// Map returns the values as plain Go values for encoders
func (p *Properties) Map() map[string]interface{} {
	m := make(map[string]interface{}, p.Len())
	p.Each(func(k string, v Value) {
		m[k] = v.Interface()
	})
	return m
}

// StringMap returns every value rendered as text
func (p *Properties) StringMap() map[string]string {
	m := make(map[string]string, p.Len())
	p.Each(func(k string, v Value) {
		m[k] = v.String()
	})
	return m
}

// PropertiesFromMap builds properties from decoded values, keys sorted.
// Values that are neither strings nor numbers are dropped.
func PropertiesFromMap(m map[string]interface{}) *Properties {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := NewProperties(len(keys))
	for _, k := range keys {
		if v, ok := ValueOf(m[k]); ok {
			p.Set(k, v)
		}
	}
	return p
}
