// Package validate checks decoded records against a schema. Every problem
// is reported as one human-readable line; nothing short-circuits except a
// root that is not a mapping.
package validate

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Zuo-Peng/chatmem/internal/record"
	"github.com/Zuo-Peng/chatmem/internal/schema"
)

// Record validates a decoded record document against s.
func Record(s *schema.Schema, doc any) []string {
	m, ok := asMapping(doc)
	if !ok {
		return []string{"Root is not a mapping/object"}
	}

	var errs []string
	var extra []string
	for _, k := range m.keys() {
		name, isStr := k.(string)
		if !isStr || !s.Has(name) {
			extra = append(extra, fmt.Sprint(k))
		}
	}
	if len(extra) > 0 {
		errs = append(errs, fmt.Sprintf("Extra keys not in schema: [%s]", strings.Join(extra, ", ")))
	}

	for _, f := range s.Fields {
		v, present := m.get(f.Name)
		errs = append(errs, Field(f, v, present && v != nil)...)
	}
	return errs
}

// Field validates a single value. present is false for a missing key or
// an explicit null.
func Field(f schema.Field, v any, present bool) []string {
	name := f.Name
	if !present {
		if f.Required {
			return []string{"Missing key: " + name}
		}
		return nil
	}

	switch f.Type {
	case schema.TypeString:
		return checkString(f, v)
	case schema.TypeList:
		return checkList(f, v)
	case schema.TypeDict:
		return checkDict(f, v)
	}
	return []string{fmt.Sprintf("%s has unsupported type: %s", name, f.Type)}
}

func checkString(f schema.Field, v any) []string {
	s, ok := v.(string)
	if !ok {
		return []string{f.Name + " must be a string"}
	}

	var errs []string
	s = strings.TrimSpace(s)
	if f.NonEmpty && s == "" {
		errs = append(errs, f.Name+" is empty")
	}
	if f.MaxChars != nil {
		if n := utf8.RuneCountInString(s); n > *f.MaxChars {
			errs = append(errs, fmt.Sprintf("%s exceeds max_chars=%d (len=%d)", f.Name, *f.MaxChars, n))
		}
	}
	if f.Pattern != "" && !f.Match(s) {
		errs = append(errs, fmt.Sprintf("%s does not match pattern: %s", f.Name, f.Pattern))
	}
	return errs
}

func checkList(f schema.Field, v any) []string {
	items, ok := asList(v)
	if !ok {
		return []string{f.Name + " must be a list"}
	}

	var errs []string
	if f.MinItems != nil && len(items) < *f.MinItems {
		errs = append(errs, fmt.Sprintf("%s requires >= %d items", f.Name, *f.MinItems))
	}
	if f.MaxItems != nil && len(items) > *f.MaxItems {
		errs = append(errs, fmt.Sprintf("%s requires <= %d items", f.Name, *f.MaxItems))
	}
	if f.MinNonEmptyItems != nil {
		n := 0
		for _, it := range items {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				n++
			}
		}
		if n < *f.MinNonEmptyItems {
			errs = append(errs, fmt.Sprintf("%s requires >= %d non-empty items", f.Name, *f.MinNonEmptyItems))
		}
	}
	return errs
}

func checkDict(f schema.Field, v any) []string {
	m, ok := asMapping(v)
	if !ok {
		return []string{f.Name + " must be an object/dict"}
	}

	var errs []string
	for _, k := range f.DictKeys {
		if !m.has(k) && !m.has(fmt.Sprint(k)) {
			errs = append(errs, fmt.Sprintf("%s missing key: %v", f.Name, k))
		}
	}
	if f.NonEmptyAny {
		found := false
		for _, val := range m.values() {
			if s, ok := val.(string); ok && strings.TrimSpace(s) != "" {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, f.Name+" has no non-empty values")
		}
	}
	return errs
}

// mapping is the read-only view the checks need from a decoded mapping.
type mapping interface {
	get(k any) (any, bool)
	has(k any) bool
	keys() []any
	values() []any
}

func asMapping(v any) (mapping, bool) {
	switch m := v.(type) {
	case *record.Map:
		if m == nil {
			return nil, false
		}
		return orderedMap{m}, true
	case map[string]any:
		return stringMap(m), true
	case map[any]any:
		return anyMap(m), true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

type orderedMap struct{ m *record.Map }

func (o orderedMap) get(k any) (any, bool) { return o.m.Get(k) }
func (o orderedMap) has(k any) bool        { return o.m.Has(k) }
func (o orderedMap) keys() []any           { return o.m.Keys() }
func (o orderedMap) values() []any {
	out := make([]any, 0, o.m.Len())
	for _, e := range o.m.Entries() {
		out = append(out, e.Value)
	}
	return out
}

type stringMap map[string]any

func (s stringMap) get(k any) (any, bool) {
	key, ok := k.(string)
	if !ok {
		return nil, false
	}
	v, ok := s[key]
	return v, ok
}

func (s stringMap) has(k any) bool {
	_, ok := s.get(k)
	return ok
}

func (s stringMap) keys() []any {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func (s stringMap) values() []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}

type anyMap map[any]any

func (a anyMap) get(k any) (any, bool) {
	switch k.(type) {
	case nil, string, bool, int, int64, uint64, float64:
		v, ok := a[k]
		return v, ok
	}
	return nil, false
}

func (a anyMap) has(k any) bool {
	_, ok := a.get(k)
	return ok
}

func (a anyMap) keys() []any {
	out := make([]any, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return fmt.Sprint(out[i]) < fmt.Sprint(out[j]) })
	return out
}

func (a anyMap) values() []any {
	out := make([]any, 0, len(a))
	for _, v := range a {
		out = append(out, v)
	}
	return out
}
