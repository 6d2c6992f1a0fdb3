package debugsnapshot

import (
	"bytes"
	"encoding/json"
)

// kv is one key/value pair in an OrderedMap.
type kv struct {
	Key   string
	Value any
}

// OrderedMap is a JSON object that preserves insertion order of its keys.
// Go's map type does not, and the debug snapshot's wire contract fixes a
// specific key sequence, so this is a small hand-rolled slice-backed type
// rather than a real map.
type OrderedMap struct {
	entries []kv
}

// NewOrderedMap constructs an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{}
}

// Set appends key/value, or overwrites the value in place if key is
// already present (preserving its original position).
func (m *OrderedMap) Set(key string, value any) *OrderedMap {
	for i := range m.entries {
		if m.entries[i].Key == key {
			m.entries[i].Value = value
			return m
		}
	}
	m.entries = append(m.entries, kv{Key: key, Value: value})
	return m
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (any, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// MarshalJSON emits the entries as a JSON object in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
