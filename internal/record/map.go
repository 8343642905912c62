package record

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is one key/value pair of a Map.
type Entry struct {
	Key   any
	Value any
}

// Map is a mapping that remembers insertion order. Keys are the decoded
// YAML scalars (string, int, bool, ...) and are compared as-is.
type Map struct {
	entries []Entry
	pos     map[any]int
}

func NewMap() *Map {
	return &Map{pos: make(map[any]int)}
}

// Set stores v under k. Re-setting a key keeps its original position.
func (m *Map) Set(k, v any) {
	if m.pos == nil {
		m.pos = make(map[any]int)
	}
	k = hashable(k)
	if i, ok := m.pos[k]; ok {
		m.entries[i].Value = v
		return
	}
	m.pos[k] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: k, Value: v})
}

func (m *Map) Get(k any) (any, bool) {
	if m == nil || m.pos == nil {
		return nil, false
	}
	i, ok := m.pos[hashable(k)]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

func (m *Map) Has(k any) bool {
	_, ok := m.Get(k)
	return ok
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

func (m *Map) Keys() []any {
	keys := make([]any, m.Len())
	for i := range keys {
		keys[i] = m.entries[i].Key
	}
	return keys
}

// Entries returns the pairs in insertion order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, m.Len())
	copy(out, m.entries)
	return out
}

// MarshalYAML emits the pairs as a mapping node in insertion order.
func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m.entries {
		kn, vn := new(yaml.Node), new(yaml.Node)
		if err := kn.Encode(e.Key); err != nil {
			return nil, fmt.Errorf("encode key %v: %w", e.Key, err)
		}
		if err := vn.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("encode %v: %w", e.Key, err)
		}
		node.Content = append(node.Content, kn, vn)
	}
	return node, nil
}

// hashable folds keys that cannot index a Go map into their string form.
func hashable(k any) any {
	switch k.(type) {
	case nil, string, bool, int, int64, uint64, float64:
		return k
	}
	return fmt.Sprint(k)
}
