package record

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const Ext = ".yaml"

// Decode parses a record document. Mappings become *Map (document order
// kept), sequences []any, scalars their natural Go values. An empty
// document decodes to nil.
func Decode(data []byte) (any, error) {
	// a plain decode first rejects self-referencing anchors and excessive
	// alias expansion before the node tree is walked
	var plain any
	if err := yaml.Unmarshal(data, &plain); err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return convert(doc.Content[0], map[*yaml.Node]bool{})
}

// Load reads and decodes the record file at path.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// convert turns a node into a record value. expanding holds the aliases
// on the current path.
func convert(n *yaml.Node, expanding map[*yaml.Node]bool) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convert(n.Content[0], expanding)
	case yaml.AliasNode:
		if expanding[n] || n.Alias == nil {
			return nil, fmt.Errorf("line %d: anchor %q value contains itself", n.Line, n.Value)
		}
		expanding[n] = true
		defer delete(expanding, n)
		return convert(n.Alias, expanding)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := convert(c, expanding)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := convert(n.Content[i], expanding)
			if err != nil {
				return nil, err
			}
			v, err := convert(n.Content[i+1], expanding)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
}

// Encode serializes a record with two-space indentation.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}
