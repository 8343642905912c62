package record

import (
	"fmt"
	"path/filepath"

	"github.com/Zuo-Peng/chatmem/internal/chunk"
	"github.com/Zuo-Peng/chatmem/internal/fsx"
	"github.com/Zuo-Peng/chatmem/internal/parse"
	"github.com/Zuo-Peng/chatmem/internal/schema"
)

// FileName is the record file name for a chunk id.
func FileName(id int) string { return chunk.Stem(id) + Ext }

// Skeleton builds the default record for a chunk bounded by first and
// last: derived fields are computed, every other field gets its type's
// empty value. Keys follow schema order.
func Skeleton(s *schema.Schema, first, last parse.Turn) *Map {
	m := NewMap()
	for _, f := range s.Fields {
		if d, ok := s.Derived[f.Name]; ok {
			m.Set(f.Name, d.Apply(first.Timestamp, last.Timestamp))
			continue
		}
		m.Set(f.Name, DefaultValue(f))
	}
	return m
}

// DefaultValue is the empty value for a field's declared type; nil for
// types outside string/list/dict.
func DefaultValue(f schema.Field) any {
	switch f.Type {
	case schema.TypeString:
		return ""
	case schema.TypeList:
		return []any{}
	case schema.TypeDict:
		d := NewMap()
		for _, k := range f.DictKeys {
			d.Set(k, "")
		}
		return d
	}
	return nil
}

// WriteSkeleton persists the chunk's skeleton into dir unless a record
// for that chunk already exists. It reports whether a file was created.
func WriteSkeleton(dir string, id int, s *schema.Schema, first, last parse.Turn) (string, bool, error) {
	path := filepath.Join(dir, FileName(id))
	data, err := Encode(Skeleton(s, first, last))
	if err != nil {
		return path, false, err
	}
	created, err := fsx.CreateIfAbsent(path, data, fsx.PermFile)
	if err != nil {
		return path, created, fmt.Errorf("write record %s: %w", FileName(id), err)
	}
	return path, created, nil
}
