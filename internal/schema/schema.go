package schema

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks a schema that is missing, undecodable or
// internally inconsistent. It is always fatal for a run.
var ErrConfiguration = errors.New("configuration error")

type FieldType string

const (
	TypeString FieldType = "string"
	TypeList   FieldType = "list"
	TypeDict   FieldType = "dict"
)

// Field is one declared field. Constraint pointers are nil when unset.
type Field struct {
	Name             string    `yaml:"name"`
	Type             FieldType `yaml:"type"`
	Required         bool      `yaml:"required"`
	NonEmpty         bool      `yaml:"non_empty"`
	MaxChars         *int      `yaml:"max_chars"`
	Pattern          string    `yaml:"pattern"`
	MinItems         *int      `yaml:"min_items"`
	MaxItems         *int      `yaml:"max_items"`
	MinNonEmptyItems *int      `yaml:"min_non_empty_items"`
	DictKeys         []any     `yaml:"dict_keys"`
	NonEmptyAny      bool      `yaml:"non_empty_any"`

	re *regexp.Regexp
}

// Match reports whether the pattern matches v from its first character.
// A field without a pattern matches everything.
func (f Field) Match(v string) bool {
	if f.Pattern == "" {
		return true
	}
	re := f.re
	if re == nil {
		var err error
		if re, err = compilePattern(f.Pattern); err != nil {
			return false
		}
	}
	return re.MatchString(v)
}

type Schema struct {
	Fields  []Field
	Derived map[string]Derivation

	names map[string]int
}

type document struct {
	Fields  []Field           `yaml:"fields"`
	Derived map[string]string `yaml:"derived"`
}

// Load reads and decodes the schema document at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: missing schema file: %s", ErrConfiguration, path)
		}
		return nil, fmt.Errorf("%w: read schema %s: %v", ErrConfiguration, path, err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode builds a Schema from a YAML document. Field order is preserved.
func Decode(data []byte) (*Schema, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: decode schema: %v", ErrConfiguration, err)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: schema document is empty", ErrConfiguration)
	}
	// an empty field list is allowed: every record key is then extra
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode schema: %v", ErrConfiguration, err)
	}

	s := &Schema{
		Fields:  doc.Fields,
		Derived: make(map[string]Derivation, len(doc.Derived)),
		names:   make(map[string]int, len(doc.Fields)),
	}

	for i := range s.Fields {
		f := &s.Fields[i]
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field #%d has no name", ErrConfiguration, i+1)
		}
		if _, dup := s.names[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field name: %s", ErrConfiguration, f.Name)
		}
		s.names[f.Name] = i

		if f.Pattern != "" {
			re, err := compilePattern(f.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: bad pattern %q: %v", ErrConfiguration, f.Name, f.Pattern, err)
			}
			f.re = re
		}
		for _, k := range f.DictKeys {
			if !isScalarKey(k) {
				return nil, fmt.Errorf("%w: field %s: dict_keys entries must be scalars, got %T", ErrConfiguration, f.Name, k)
			}
		}
	}

	for name, fn := range doc.Derived {
		// a null or blank rule leaves the field unbound
		if strings.TrimSpace(fn) == "" {
			continue
		}
		d, err := ParseDerivation(fn)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		s.Derived[name] = d
	}

	return s, nil
}

// Has reports whether name is a declared field.
func (s *Schema) Has(name string) bool {
	_, ok := s.index()[name]
	return ok
}

// Lookup returns the declared field called name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index()[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// index tolerates schemas assembled by hand rather than through Decode.
func (s *Schema) index() map[string]int {
	if s.names != nil {
		return s.names
	}
	m := make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if _, ok := m[f.Name]; !ok {
			m[f.Name] = i
		}
	}
	return m
}

func compilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + p + `)`)
}

func isScalarKey(k any) bool {
	switch k.(type) {
	case nil, string, bool, int, int64, uint64, float64:
		return true
	}
	return false
}
